package executor

import (
	"errors"
	"testing"

	"github.com/arm-cm/cmsim/bus"
	"github.com/arm-cm/cmsim/cpu"
	"github.com/arm-cm/cmsim/decoder"
)

func newTestState() *cpu.State {
	st := cpu.NewState()
	st.SetRawPC(0x1000)
	return st
}

func TestAddWithCarryFlags(t *testing.T) {
	cases := []struct {
		name               string
		x, y               uint32
		carryIn            bool
		wantC, wantV       bool
		wantResult         uint32
	}{
		{"no overflow", 1, 1, false, false, false, 2},
		{"unsigned carry out", 0xFFFFFFFF, 1, false, true, false, 0},
		{"signed overflow", 0x7FFFFFFF, 1, false, false, true, 0x80000000},
		{"carry-in propagates", 0xFFFFFFFE, 1, true, true, false, 0},
		{"negative overflow", 0x80000000, 0xFFFFFFFF, false, true, true, 0x7FFFFFFF},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			result, carryOut, overflow := AddWithCarry(c.x, c.y, c.carryIn)
			if result != c.wantResult || carryOut != c.wantC || overflow != c.wantV {
				t.Fatalf("AddWithCarry(%#x,%#x,%v) = (%#x,%v,%v), want (%#x,%v,%v)",
					c.x, c.y, c.carryIn, result, carryOut, overflow, c.wantResult, c.wantC, c.wantV)
			}
		})
	}
}

func TestExecDPImmADDSSetsFlags(t *testing.T) {
	st := newTestState()
	st.Set(cpu.R0, 0xFFFFFFFF)
	inst := decoder.DPImm{Op: decoder.OpADD, Rd: cpu.R1, Rn: cpu.R0, Imm: decoder.NoCarryImm32(1), SetFlags: decoder.FlagsTrue}
	if err := Execute(st, nil, st.RawPC(), inst, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := st.Get(cpu.R1); got != 0 {
		t.Fatalf("R1 = %#x, want 0", got)
	}
	if !st.PSR.Z || !st.PSR.C || st.PSR.N || st.PSR.V {
		t.Fatalf("flags after ADDS 0xFFFFFFFF+1: N=%v Z=%v C=%v V=%v", st.PSR.N, st.PSR.Z, st.PSR.C, st.PSR.V)
	}
}

func TestExecDPImmCMPDoesNotWriteRd(t *testing.T) {
	st := newTestState()
	st.Set(cpu.R0, 5)
	before := st.Get(cpu.R0)
	inst := decoder.DPImm{Op: decoder.OpCMP, Rd: cpu.R0, Rn: cpu.R0, Imm: decoder.NoCarryImm32(5), SetFlags: decoder.FlagsTrue}
	if err := Execute(st, nil, st.RawPC(), inst, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.Get(cpu.R0) != before {
		t.Fatalf("CMP modified Rn/Rd: got %#x, want %#x", st.Get(cpu.R0), before)
	}
	if !st.PSR.Z || !st.PSR.C {
		t.Fatalf("CMP 5,5 should set Z and C: Z=%v C=%v", st.PSR.Z, st.PSR.C)
	}
}

func TestExecBCondTakenAndNotTaken(t *testing.T) {
	st := newTestState()
	st.SetRawPC(0x1000)
	st.PSR.Z = true
	taken := decoder.BCond{Cond: cpu.CondEQ, Imm32: 8}
	if err := Execute(st, nil, st.RawPC(), taken, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := st.RawPC(); got != 0x100C {
		t.Fatalf("BEQ taken: PC = %#x, want 0x100C (PC+4 read semantics)", got)
	}

	st2 := newTestState()
	st2.SetRawPC(0x2000)
	st2.PSR.Z = false
	notTaken := decoder.BCond{Cond: cpu.CondEQ, Imm32: 8}
	if err := Execute(st2, nil, st2.RawPC(), notTaken, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := st2.RawPC(); got != 0x2000 {
		t.Fatalf("BEQ not taken: PC = %#x, want unchanged 0x2000", got)
	}
}

func TestExecLDMWritebackSkippedWhenRnInList(t *testing.T) {
	ram := bus.NewRAM(0x2000_0000, 0x100)
	m := bus.NewMatrix(ram)
	if err := m.Write32(0x2000_0000, 0xAAAA_AAAA); err != nil {
		t.Fatal(err)
	}
	if err := m.Write32(0x2000_0004, 0xBBBB_BBBB); err != nil {
		t.Fatal(err)
	}

	st := newTestState()
	st.Set(cpu.R1, 0x2000_0000)
	var regs decoder.RegList
	regs = regs | 1<<uint(cpu.R0) | 1<<uint(cpu.R1)
	inst := decoder.LDMSTM{Load: true, Rn: cpu.R1, Registers: regs, Wback: true}
	if err := Execute(st, m, st.RawPC(), inst, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.Get(cpu.R0) != 0xAAAA_AAAA {
		t.Fatalf("R0 = %#x, want 0xAAAAAAAA", st.Get(cpu.R0))
	}
	if st.Get(cpu.R1) != 0xBBBB_BBBB {
		t.Fatalf("R1 (loaded, Rn in list) = %#x, want 0xBBBBBBBB (writeback must be suppressed)", st.Get(cpu.R1))
	}
}

func TestExecPushPopRoundTrip(t *testing.T) {
	ram := bus.NewRAM(0x2000_0000, 0x200)
	m := bus.NewMatrix(ram)

	st := newTestState()
	st.SetSP(0x2000_0100)
	st.Set(cpu.R4, 0x1111_1111)
	st.Set(cpu.R5, 0x2222_2222)

	var regs decoder.RegList
	regs = regs | 1<<uint(cpu.R4) | 1<<uint(cpu.R5)
	push := decoder.LDMSTM{Load: false, Rn: cpu.SP, Registers: regs, Wback: true, Descending: true}
	if err := Execute(st, m, st.RawPC(), push, nil); err != nil {
		t.Fatalf("push: unexpected error: %v", err)
	}
	if st.GetSP() != 0x2000_00F8 {
		t.Fatalf("SP after PUSH = %#x, want 0x200000F8", st.GetSP())
	}

	st.Set(cpu.R4, 0)
	st.Set(cpu.R5, 0)
	pop := decoder.LDMSTM{Load: true, Rn: cpu.SP, Registers: regs, Wback: true}
	if err := Execute(st, m, st.RawPC(), pop, nil); err != nil {
		t.Fatalf("pop: unexpected error: %v", err)
	}
	if st.GetSP() != 0x2000_0100 {
		t.Fatalf("SP after POP = %#x, want 0x20000100", st.GetSP())
	}
	if st.Get(cpu.R4) != 0x1111_1111 || st.Get(cpu.R5) != 0x2222_2222 {
		t.Fatalf("POP did not restore registers: R4=%#x R5=%#x", st.Get(cpu.R4), st.Get(cpu.R5))
	}
}

func TestExecUDFReturnsUndefinedInstructionError(t *testing.T) {
	st := newTestState()
	err := Execute(st, nil, st.RawPC(), decoder.UDF{Opcode: 0xDEAD}, nil)
	var target *UndefinedInstructionError
	if !errors.As(err, &target) {
		t.Fatalf("Execute(UDF) error = %v, want *UndefinedInstructionError", err)
	}
}

func TestExecDivideByZeroYieldsZero(t *testing.T) {
	st := newTestState()
	st.Set(cpu.R0, 10)
	st.Set(cpu.R1, 0)
	inst := decoder.Divide{Rd: cpu.R2, Rn: cpu.R0, Rm: cpu.R1, Signed: true}
	if err := Execute(st, nil, st.RawPC(), inst, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.Get(cpu.R2) != 0 {
		t.Fatalf("SDIV by zero = %#x, want 0", st.Get(cpu.R2))
	}
}

func TestExecLongMULUnsignedWidening(t *testing.T) {
	st := newTestState()
	st.Set(cpu.R0, 0xFFFF_FFFF)
	st.Set(cpu.R1, 0xFFFF_FFFF)
	inst := decoder.LongMUL{RdLo: cpu.R2, RdHi: cpu.R3, Rn: cpu.R0, Rm: cpu.R1}
	if err := Execute(st, nil, st.RawPC(), inst, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := uint64(0xFFFF_FFFF) * uint64(0xFFFF_FFFF)
	got := uint64(st.Get(cpu.R3))<<32 | uint64(st.Get(cpu.R2))
	if got != want {
		t.Fatalf("UMULL result = %#x, want %#x", got, want)
	}
}

func TestExecBitfieldUBFXAndSBFX(t *testing.T) {
	st := newTestState()
	st.Set(cpu.R0, 0xFFFF_FF80) // bits [7:0] = 0x80

	ubfx := decoder.Bitfield{Op: decoder.BFOpUBFX, Rd: cpu.R1, Rn: cpu.R0, LSB: 0, Width: 8}
	if err := Execute(st, nil, st.RawPC(), ubfx, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.Get(cpu.R1) != 0x80 {
		t.Fatalf("UBFX = %#x, want 0x80", st.Get(cpu.R1))
	}

	sbfx := decoder.Bitfield{Op: decoder.BFOpSBFX, Rd: cpu.R2, Rn: cpu.R0, LSB: 0, Width: 8}
	if err := Execute(st, nil, st.RawPC(), sbfx, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.Get(cpu.R2) != 0xFFFF_FF80 {
		t.Fatalf("SBFX = %#x, want 0xFFFFFF80 (sign extended)", st.Get(cpu.R2))
	}
}

func TestExecReverseREVSH(t *testing.T) {
	st := newTestState()
	st.Set(cpu.R0, 0x0000_80FF)
	inst := decoder.Reverse{Op: decoder.RevREVSH, Rd: cpu.R1, Rm: cpu.R0}
	if err := Execute(st, nil, st.RawPC(), inst, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.Get(cpu.R1) != 0xFFFF_FF80 {
		t.Fatalf("REVSH = %#x, want 0xFFFFFF80", st.Get(cpu.R1))
	}
}

func TestExecMOVTPreservesLowHalf(t *testing.T) {
	st := newTestState()
	st.Set(cpu.R3, 0x0000_1234)
	inst := decoder.MOVT{Rd: cpu.R3, Imm16: 0x5678}
	if err := Execute(st, nil, st.RawPC(), inst, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := st.Get(cpu.R3); got != 0x5678_1234 {
		t.Fatalf("R3 = %#x, want 0x56781234", got)
	}
}

func TestExecORNImmediate(t *testing.T) {
	st := newTestState()
	st.Set(cpu.R1, 0x0000_00F0)
	inst := decoder.DPImm{Op: decoder.OpORN, Rd: cpu.R0, Rn: cpu.R1, Imm: decoder.NoCarryImm32(0xFF), SetFlags: decoder.FlagsFalse, Thumb32: true}
	if err := Execute(st, nil, st.RawPC(), inst, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := st.Get(cpu.R0); got != 0xFFFF_FFF0 {
		t.Fatalf("ORN = %#x, want 0xFFFFFFF0", got)
	}
}

func TestExecITBlockGatesConditionalInstruction(t *testing.T) {
	st := newTestState()
	st.PSR.SetIT(cpu.NewIT(uint8(cpu.CondNE), 0b1000)) // IT NE: a one-instruction block, condition NE
	st.PSR.Z = true                                    // NE fails
	st.Set(cpu.R0, 42)
	mov := decoder.DPImm{Op: decoder.OpMOV, Rd: cpu.R0, Imm: decoder.NoCarryImm32(99), SetFlags: decoder.FlagsNotInITBlock}
	if err := Execute(st, nil, st.RawPC(), mov, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.Get(cpu.R0) != 42 {
		t.Fatalf("instruction executed despite failing IT condition: R0 = %#x", st.Get(cpu.R0))
	}
}
