package debugger

import (
	"testing"

	"github.com/arm-cm/cmsim/bus"
	"github.com/arm-cm/cmsim/cpu"
	"github.com/arm-cm/cmsim/sim"
)

const movsR0Imm5 = 0x2005 // MOVS R0, #5

func newTestSim(t *testing.T, words map[uint32]uint16) *sim.Simulator {
	t.Helper()
	f := bus.NewFlash(0, make([]byte, 0x1000))
	f.Data[4], f.Data[5] = 0, 1 // reset PC = 0x100
	for addr, hw := range words {
		f.Data[addr] = byte(hw)
		f.Data[addr+1] = byte(hw >> 8)
	}
	m := bus.NewMatrix(bus.Internal{}, f, bus.NewRAM(0x2000_0000, 0x1000))
	s := sim.New(m, nil)
	if err := s.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	return s
}

func TestDebuggerStepOneDisassembles(t *testing.T) {
	s := newTestSim(t, map[uint32]uint16{0x100: movsR0Imm5})
	d := New(s)
	out, err := d.StepOne()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out == "" {
		t.Fatal("expected a non-empty disassembly line")
	}
	if got := s.CPU.Get(cpu.R0); got != 5 {
		t.Fatalf("R0 = %d, want 5", got)
	}
}

func TestDebuggerContinueStopsAtBreakpoint(t *testing.T) {
	s := newTestSim(t, map[uint32]uint16{
		0x100: movsR0Imm5,
		0x102: movsR0Imm5,
		0x104: movsR0Imm5,
	})
	d := New(s)
	d.Breakpoints.Add(0x104, false, "")

	reason, err := d.Continue(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reason == "" {
		t.Fatal("expected a non-empty stop reason")
	}
	if got := s.CPU.RawPC(); got != 0x104 {
		t.Fatalf("PC = 0x%08X, want 0x104 (stopped before the breakpoint fires)", got)
	}
}

func TestResolveAddressBySymbolAndLiteral(t *testing.T) {
	s := newTestSim(t, nil)
	d := New(s)
	d.LoadSymbols(map[string]uint32{"main": 0x100})

	addr, err := d.ResolveAddress("main")
	if err != nil || addr != 0x100 {
		t.Fatalf("ResolveAddress(main) = (0x%X, %v), want (0x100, nil)", addr, err)
	}
	addr, err = d.ResolveAddress("0x200")
	if err != nil || addr != 0x200 {
		t.Fatalf("ResolveAddress(0x200) = (0x%X, %v), want (0x200, nil)", addr, err)
	}
}

func TestExecuteCommandsBreakAndInfo(t *testing.T) {
	s := newTestSim(t, map[uint32]uint16{0x100: movsR0Imm5})
	d := New(s)

	out, err := Execute(d, "break 0x104")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out == "" {
		t.Fatal("expected a non-empty response to break")
	}

	out, err = Execute(d, "info registers")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out == "" {
		t.Fatal("expected a non-empty register dump")
	}

	if _, err := Execute(d, "bogus"); err == nil {
		t.Fatal("expected an error for an unrecognized command")
	}
}
