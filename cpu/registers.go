// Package cpu models the Cortex-M register file and Program Status Register.
package cpu

// Reg names the 16 ARM core registers. The banked MSP/PSP copies are State
// fields, not Reg values.
type Reg int

const (
	R0 Reg = iota
	R1
	R2
	R3
	R4
	R5
	R6
	R7
	R8
	R9
	R10
	R11
	R12
	SP // R13, aliases the active stack pointer (MSP or PSP)
	LR // R14
	PC // R15
)

// SPBank selects which banked stack-pointer copy SP currently aliases.
type SPBank int

const (
	BankMSP SPBank = iota
	BankPSP
)

// State is the architectural register file: R0-R12 general purpose, banked
// MSP/PSP, LR, PC, and the PSR. Extension registers (S0-S31/D0-D15) are not
// modeled: floating point is not enabled in this build, and the simulator
// only needs their names for encoding fidelity in the decoder.
type State struct {
	R      [13]uint32 // R0-R12
	MSP    uint32
	PSP    uint32
	Bank   SPBank
	LRVal  uint32
	PCVal  uint32
	PSR    PSR
	Cycles uint64
}

// NewState returns a zeroed register file with T (Thumb) always set, since
// the instruction stream is always decoded as Thumb in this simulator.
func NewState() *State {
	st := &State{}
	st.PSR.SetT(true)
	return st
}

// Get returns the current value of a register. Reading PC returns PC+4 per
// the ARM ARM's "current instruction address + 4" rule for Thumb state.
func (s *State) Get(r Reg) uint32 {
	switch {
	case r == PC:
		return s.PCVal + 4
	case r == LR:
		return s.LRVal
	case r == SP:
		return s.GetSP()
	case r >= R0 && r <= R12:
		return s.R[r]
	default:
		return 0
	}
}

// Set writes a register. Writing PC does not implicitly add an offset —
// callers computing branch targets must already account for the +4 read
// semantics on the source operand before calling Set(PC, ...).
func (s *State) Set(r Reg, v uint32) {
	switch {
	case r == PC:
		s.PCVal = v &^ 1
	case r == LR:
		s.LRVal = v
	case r == SP:
		s.SetSP(v)
	case r >= R0 && r <= R12:
		s.R[r] = v
	}
}

// GetSP returns the active banked stack pointer.
func (s *State) GetSP() uint32 {
	if s.Bank == BankPSP {
		return s.PSP
	}
	return s.MSP
}

// SetSP writes the active banked stack pointer.
func (s *State) SetSP(v uint32) {
	if s.Bank == BankPSP {
		s.PSP = v
	} else {
		s.MSP = v
	}
}

// RawPC returns PC without the architectural +4 read offset, for use by the
// run loop and trace sink which want the address of the instruction itself.
func (s *State) RawPC() uint32 { return s.PCVal }

// SetRawPC sets PC directly to an instruction address (no +4 offset, bit 0
// cleared — the instruction stream is always Thumb).
func (s *State) SetRawPC(addr uint32) { s.PCVal = addr &^ 1 }
