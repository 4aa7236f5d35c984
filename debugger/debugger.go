// Package debugger implements an interactive stepper/breakpoint front end
// for the simulator: breakpoints, watchpoints, a small expression
// evaluator for conditions, and a tcell/tview TUI.
package debugger

import (
	"fmt"

	"github.com/arm-cm/cmsim/cpu"
	"github.com/arm-cm/cmsim/decoder"
	"github.com/arm-cm/cmsim/sim"
	"github.com/arm-cm/cmsim/trace"
)

// StepMode selects how Continue should advance the simulator.
type StepMode int

const (
	StepNone StepMode = iota
	StepSingle
	StepOver
)

// Debugger wraps a sim.Simulator with breakpoints, watchpoints, and
// symbol resolution.
type Debugger struct {
	Sim         *sim.Simulator
	Breakpoints *BreakpointManager
	Watchpoints *WatchpointManager
	Eval        *Evaluator

	Symbols   map[string]uint32
	SourceMap map[uint32]string

	stepOverDepth int
	stepOverPC    uint32
}

// New builds a Debugger over s, ready to load symbols and run.
func New(s *sim.Simulator) *Debugger {
	return &Debugger{
		Sim:         s,
		Breakpoints: NewBreakpointManager(),
		Watchpoints: NewWatchpointManager(),
		Eval:        NewEvaluator(),
		Symbols:     make(map[string]uint32),
		SourceMap:   make(map[uint32]string),
	}
}

// LoadSymbols installs a name->address table for breakpoint-by-label and
// expression resolution.
func (d *Debugger) LoadSymbols(symbols map[string]uint32) {
	d.Symbols = symbols
	d.Eval.Symbols = symbols
}

// ResolveAddress accepts a symbol name, a 0x-prefixed hex literal, or a
// decimal literal and returns the address it names.
func (d *Debugger) ResolveAddress(s string) (uint32, error) {
	if addr, ok := d.Symbols[s]; ok {
		return addr, nil
	}
	var addr uint32
	if _, err := fmt.Sscanf(s, "0x%x", &addr); err == nil {
		return addr, nil
	}
	if _, err := fmt.Sscanf(s, "%d", &addr); err == nil {
		return addr, nil
	}
	return 0, fmt.Errorf("cannot resolve address %q", s)
}

// StepOne executes a single instruction and reports its disassembly.
func (d *Debugger) StepOne() (string, error) {
	pc := d.Sim.CPU.RawPC()
	inst, err := d.Sim.Step()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("0x%08X: %s", pc, trace.Disassemble(inst)), nil
}

// ShouldBreak reports whether execution should halt before retiring the
// instruction at pc: either an enabled breakpoint with a satisfied
// condition, or a watchpoint whose tracked expression changed value since
// the last check.
func (d *Debugger) ShouldBreak(pc uint32) bool {
	if bp, ok := d.Breakpoints.At(pc); ok {
		if bp.Condition == "" {
			d.Breakpoints.Hit(bp)
			return true
		}
		if ok, _ := d.Eval.EvaluateBool(bp.Condition, d.Sim.CPU); ok {
			d.Breakpoints.Hit(bp)
			return true
		}
	}
	return false
}

// Continue runs the simulator until a breakpoint fires, a watchpoint
// trips, the instruction budget is exhausted, or the run ends (fault or
// semihosting exit). It returns the reason execution stopped.
func (d *Debugger) Continue(budget uint64) (string, error) {
	var count uint64
	for budget == 0 || count < budget {
		pc := d.Sim.CPU.RawPC()
		if d.ShouldBreak(pc) {
			return fmt.Sprintf("breakpoint at 0x%08X", pc), nil
		}
		if name, tripped := d.Watchpoints.Check(d.Sim.CPU); tripped {
			return fmt.Sprintf("watchpoint %q tripped at 0x%08X", name, pc), nil
		}
		if _, err := d.Sim.Step(); err != nil {
			if d.Sim.State() == sim.StateHalted {
				return "semihosting exit", nil
			}
			return "", err
		}
		count++
	}
	return "instruction budget reached", nil
}

// RegisterDump renders every general-purpose register plus SP/LR/PC and
// the APSR flags, for the TUI's register panel.
func (d *Debugger) RegisterDump() []string {
	st := d.Sim.CPU
	lines := make([]string, 0, 16)
	for i := cpu.R0; i <= cpu.R12; i++ {
		lines = append(lines, fmt.Sprintf("R%-3d 0x%08X", i, st.Get(i)))
	}
	lines = append(lines, fmt.Sprintf("SP   0x%08X", st.GetSP()))
	lines = append(lines, fmt.Sprintf("LR   0x%08X", st.Get(cpu.LR)))
	lines = append(lines, fmt.Sprintf("PC   0x%08X", st.RawPC()))
	p := &st.PSR
	lines = append(lines, fmt.Sprintf("APSR N=%v Z=%v C=%v V=%v", p.N, p.Z, p.C, p.V))
	return lines
}

// Disassemble decodes and renders the instruction at addr without
// executing it, for the TUI's source/disassembly panel.
func (d *Debugger) Disassemble(addr uint32) (string, int, error) {
	inst, err := decoder.Fetch(d.Sim.Bus, addr)
	if err != nil {
		return "", 0, err
	}
	return trace.Disassemble(inst), inst.Size(), nil
}
