// Package sim implements the orchestration loop: reset, then repeated
// fetch/decode/execute/count until a fault, an instruction budget, or a
// clean semihosting exit ends the run.
package sim

import (
	"fmt"

	"github.com/arm-cm/cmsim/bus"
	"github.com/arm-cm/cmsim/cpu"
	"github.com/arm-cm/cmsim/decoder"
	"github.com/arm-cm/cmsim/executor"
	"github.com/arm-cm/cmsim/semihost"
)

// State names the run loop's current disposition.
type State int

const (
	StateReset State = iota
	StateRunning
	StateHalted
	StateFault
)

func (s State) String() string {
	switch s {
	case StateReset:
		return "reset"
	case StateRunning:
		return "running"
	case StateHalted:
		return "halted"
	case StateFault:
		return "fault"
	}
	return "?"
}

// TraceSink receives every retired instruction. Implementations must not
// mutate processor state and must return promptly; an error returned here
// aborts the run, surfaced to the caller of Run.
type TraceSink interface {
	Trace(count uint64, pc uint32, inst decoder.Instruction) error
}

// TraceFunc adapts a plain function to TraceSink.
type TraceFunc func(count uint64, pc uint32, inst decoder.Instruction) error

func (f TraceFunc) Trace(count uint64, pc uint32, inst decoder.Instruction) error {
	return f(count, pc, inst)
}

// Result summarizes how a run ended, for the CLI's exit-code and
// throughput reporting.
type Result struct {
	Instructions uint64
	ExitCode     uint32
	Err          error // nil on clean semihosting exit or budget exhaustion
}

// Simulator owns the processor state and the bus matrix for one run, and
// drives the decoder and executor against them. Ownership is one-way:
// Simulator holds both and passes mutable views down, so the executor and
// bus never reference each other.
type Simulator struct {
	CPU  *cpu.State
	Bus  bus.Bus
	SH   semihost.Handler
	Sink TraceSink

	state    State
	lastExit uint32
}

// New builds a Simulator over mem (already populated by the loader) and an
// optional semihosting handler. sh may be nil if the guest never traps
// BKPT 0xAB.
func New(mem bus.Bus, sh semihost.Handler) *Simulator {
	return &Simulator{CPU: cpu.NewState(), Bus: mem, SH: sh, state: StateReset}
}

// Reset reads the vector table: SP <- word@0, PC <- word@4 with bit 0
// cleared. T is always 1.
func (s *Simulator) Reset() error {
	sp, err := s.Bus.Read32(0)
	if err != nil {
		return fmt.Errorf("sim: reading initial SP: %w", err)
	}
	pcWord, err := s.Bus.Read32(4)
	if err != nil {
		return fmt.Errorf("sim: reading reset vector: %w", err)
	}
	s.CPU = cpu.NewState()
	s.CPU.MSP = sp
	s.CPU.SetRawPC(pcWord &^ 1)
	s.state = StateRunning
	return nil
}

// State reports the simulator's current disposition.
func (s *Simulator) State() State { return s.state }

// ExitCode reports R0 as the SysException call left it on a clean
// semihosting exit (0 when the handler reported success); meaningless
// before one occurs.
func (s *Simulator) ExitCode() uint32 { return s.lastExit }

// Step fetches, decodes and executes exactly one instruction, then
// advances PC (unless the instruction itself wrote PC) and the IT state.
// It returns the decoded instruction (for the caller's own tracing needs)
// and an error on fault or clean exit; the caller distinguishes the two
// by checking for executor.ExitRequested.
func (s *Simulator) Step() (decoder.Instruction, error) {
	if s.state != StateRunning {
		return nil, fmt.Errorf("sim: Step called in state %s", s.state)
	}

	pc := s.CPU.RawPC()
	inst, err := decoder.Fetch(s.Bus, pc)
	if err != nil {
		s.state = StateFault
		return nil, fmt.Errorf("sim: fetch at PC=0x%08X: %w", pc, err)
	}

	beforePC := pc
	if err := executor.Execute(s.CPU, s.Bus, pc, inst, s.SH); err != nil {
		if exit, ok := err.(executor.ExitRequested); ok {
			_ = exit
			s.lastExit = s.CPU.Get(cpu.R0)
			s.state = StateHalted
			return inst, err
		}
		s.state = StateFault
		return inst, fmt.Errorf("sim: execute at PC=0x%08X: %w", pc, err)
	}

	if s.CPU.RawPC() == beforePC {
		s.CPU.SetRawPC(beforePC + uint32(inst.Size()))
	}
	// The IT instruction installs a fresh ITSTATE; advancing begins with
	// the instruction after it.
	if _, isIT := inst.(decoder.IT); !isIT {
		s.CPU.PSR.SetIT(s.CPU.PSR.IT().Advance())
	}
	s.CPU.Cycles++

	return inst, nil
}

// Run steps the simulator until budget instructions have retired, a
// semihosting exit occurs, or a fault terminates the run. A budget of 0
// means unlimited. The trace sink, if set, is offered every
// retired instruction before the next fetch; a sink error aborts the run
// exactly as a fault would.
func (s *Simulator) Run(budget uint64) Result {
	var count uint64
	for {
		if budget != 0 && count >= budget {
			return Result{Instructions: count}
		}

		pc := s.CPU.RawPC()
		inst, err := s.Step()
		if err != nil {
			if _, ok := err.(executor.ExitRequested); ok {
				count++
				if s.Sink != nil {
					_ = s.Sink.Trace(count, pc, inst)
				}
				return Result{Instructions: count, ExitCode: s.lastExit}
			}
			return Result{Instructions: count, Err: err}
		}
		count++

		if s.Sink != nil {
			if terr := s.Sink.Trace(count, pc, inst); terr != nil {
				return Result{Instructions: count, Err: fmt.Errorf("sim: trace sink: %w", terr)}
			}
		}
	}
}
