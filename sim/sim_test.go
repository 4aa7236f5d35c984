package sim

import (
	"testing"

	"github.com/arm-cm/cmsim/bus"
	"github.com/arm-cm/cmsim/cpu"
	"github.com/arm-cm/cmsim/semihost"
)

const (
	movsR0Imm5 = 0x2005 // MOVS R0, #5
	nop        = 0xBF00 // NOP hint
	bkptSemi   = 0xBEAB // BKPT 0xAB
)

func TestResetReadsVectorTable(t *testing.T) {
	// vector table: word@0 = initial SP, word@4 = reset handler | thumb bit
	f := bus.NewFlash(0, make([]byte, 0x1000))
	f.Data[0], f.Data[1], f.Data[2], f.Data[3] = 0x00, 0x04, 0x00, 0x20 // 0x2000_0400
	f.Data[4], f.Data[5], f.Data[6], f.Data[7] = 0xA1, 0x00, 0x00, 0x00 // 0x000000A1
	m := bus.NewMatrix(bus.Internal{}, f, bus.NewRAM(0x2000_0000, 0x1000))

	s := New(m, nil)
	if err := s.Reset(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.CPU.MSP != 0x2000_0400 {
		t.Fatalf("MSP = 0x%08X, want 0x20000400", s.CPU.MSP)
	}
	if got := s.CPU.RawPC(); got != 0x0000_00A0 {
		t.Fatalf("PC = 0x%08X, want 0x000000A0 (bit 0 cleared)", got)
	}
	if s.State() != StateRunning {
		t.Fatalf("state = %s, want running", s.State())
	}
}

func resetAt(t *testing.T, words map[uint32]uint16, sh semihost.Handler) *Simulator {
	t.Helper()
	f := bus.NewFlash(0, make([]byte, 0x1000))
	f.Data[0], f.Data[1], f.Data[2], f.Data[3] = 0, 0, 0, 0x20 // MSP = 0x2000_0000
	f.Data[4], f.Data[5], f.Data[6], f.Data[7] = 0, 1, 0, 0    // PC = 0x100
	for addr, hw := range words {
		f.Data[addr] = byte(hw)
		f.Data[addr+1] = byte(hw >> 8)
	}
	m := bus.NewMatrix(bus.Internal{}, f, bus.NewRAM(0x2000_0000, 0x1000))
	s := New(m, sh)
	if err := s.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	return s
}

func TestStepExecutesAndAdvancesPC(t *testing.T) {
	s := resetAt(t, map[uint32]uint16{0x100: movsR0Imm5}, nil)
	if _, err := s.Step(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := s.CPU.Get(cpu.R0); got != 5 {
		t.Fatalf("R0 = %d, want 5", got)
	}
	if got := s.CPU.RawPC(); got != 0x102 {
		t.Fatalf("PC = 0x%08X, want 0x102", got)
	}
	if s.CPU.Cycles != 1 {
		t.Fatalf("Cycles = %d, want 1", s.CPU.Cycles)
	}
}

func TestRunRespectsInstructionBudget(t *testing.T) {
	s := resetAt(t, map[uint32]uint16{0x100: nop, 0x102: nop, 0x104: nop}, nil)
	result := s.Run(2)
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if result.Instructions != 2 {
		t.Fatalf("Instructions = %d, want 2", result.Instructions)
	}
	if s.CPU.RawPC() != 0x104 {
		t.Fatalf("PC = 0x%08X, want 0x104 after 2 NOPs", s.CPU.RawPC())
	}
}

func TestRunPropagatesBusFault(t *testing.T) {
	f := bus.NewFlash(0, make([]byte, 0x10))
	f.Data[4] = 0xF0 // PC = 0x000000F0, past the end of this 16-byte flash
	m := bus.NewMatrix(bus.Internal{}, f, bus.NewRAM(0x2000_0000, 0x100))
	s := New(m, nil)
	if err := s.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	result := s.Run(10)
	if result.Err == nil {
		t.Fatal("expected a fault from fetching an unmapped address")
	}
	if s.State() != StateFault {
		t.Fatalf("state = %s, want fault", s.State())
	}
}

type exitHandler struct{}

func (exitHandler) Handle(req semihost.Request) semihost.Response {
	if _, ok := req.(semihost.SysException); ok {
		return semihost.Response{Success: true, Stop: true}
	}
	return semihost.Response{}
}

type captureHandler struct {
	written []byte
}

func (h *captureHandler) Handle(req semihost.Request) semihost.Response {
	switch r := req.(type) {
	case semihost.SysWrite:
		h.written = append(h.written, r.Data...)
		return semihost.Response{NotWritten: 0}
	case semihost.SysException:
		return semihost.Response{Success: true, Stop: r.Reason == semihost.ADPStoppedApplicationExit}
	}
	return semihost.Response{}
}

func TestRunSemihostingWriteProducesOutput(t *testing.T) {
	h := &captureHandler{}
	s := resetAt(t, map[uint32]uint16{0x100: bkptSemi}, h)

	// parameter block at 0x2000_0100: handle=1, buffer=0x2000_0200, len=13
	msg := "hello, world\n"
	for _, w := range []struct{ addr, val uint32 }{
		{0x2000_0100, 1},
		{0x2000_0104, 0x2000_0200},
		{0x2000_0108, uint32(len(msg))},
	} {
		if err := s.Bus.Write32(w.addr, w.val); err != nil {
			t.Fatal(err)
		}
	}
	for i := 0; i < len(msg); i++ {
		if err := s.Bus.Write8(0x2000_0200+uint32(i), msg[i]); err != nil {
			t.Fatal(err)
		}
	}
	s.CPU.Set(cpu.R0, semihost.SysWriteCall)
	s.CPU.Set(cpu.R1, 0x2000_0100)

	if _, err := s.Step(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(h.written) != msg {
		t.Fatalf("semihosting wrote %q, want %q", h.written, msg)
	}
	if got := s.CPU.Get(cpu.R0); got != 0 {
		t.Fatalf("R0 after SYS_WRITE = %d, want 0 (all bytes written)", got)
	}
	if got := s.CPU.RawPC(); got != 0x102 {
		t.Fatalf("PC = 0x%08X, want 0x102 (advanced past BKPT)", got)
	}
}

func TestITInstructionDoesNotSelfAdvance(t *testing.T) {
	// ITT EQ; MOVS R0, #5; MOVS R1, #7 — with Z set both arms execute.
	s := resetAt(t, map[uint32]uint16{
		0x100: 0xBF04, // ITT EQ (firstcond=0000, mask=0100)
		0x102: 0x2005, // MOVS R0, #5
		0x104: 0x2107, // MOVS R1, #7
	}, nil)
	s.CPU.PSR.Z = true

	for i := 0; i < 3; i++ {
		if _, err := s.Step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	if got := s.CPU.Get(cpu.R0); got != 5 {
		t.Fatalf("R0 = %d, want 5 (first IT arm must execute)", got)
	}
	if got := s.CPU.Get(cpu.R1); got != 7 {
		t.Fatalf("R1 = %d, want 7 (second IT arm must execute)", got)
	}
	if s.CPU.PSR.IT().Active() {
		t.Fatal("IT block must be empty after both arms retire")
	}
}

func TestRunStopsOnSemihostingExit(t *testing.T) {
	s := resetAt(t, map[uint32]uint16{0x100: bkptSemi}, exitHandler{})
	s.CPU.Set(cpu.R0, uint32(semihost.SysExceptionCall))
	s.CPU.Set(cpu.R1, semihost.ADPStoppedApplicationExit)

	result := s.Run(0)
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if result.Instructions != 1 {
		t.Fatalf("Instructions = %d, want 1", result.Instructions)
	}
	if s.State() != StateHalted {
		t.Fatalf("state = %s, want halted", s.State())
	}
}
