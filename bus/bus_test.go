package bus

import "testing"

func TestFlashReadWrite(t *testing.T) {
	f := NewFlash(0, []byte{0x01, 0x02, 0x03, 0x04})
	v, err := f.Read32(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 0x04030201 {
		t.Fatalf("got 0x%08X, want 0x04030201", v)
	}
	if err := f.Write8(0, 0xFF); err == nil {
		t.Fatal("expected write fault on flash")
	}
}

func TestRAMWriteReadBack(t *testing.T) {
	r := NewRAM(0x2000_0000, 0x100)
	if err := r.Write32(0x2000_0010, 0xDEADBEEF); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, err := r.Read32(0x2000_0010)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 0xDEADBEEF {
		t.Fatalf("got 0x%08X, want 0xDEADBEEF", v)
	}
}

func TestAlignmentFaults(t *testing.T) {
	r := NewRAM(0x2000_0000, 0x100)
	if _, err := r.Read32(0x2000_0001); err == nil {
		t.Fatal("expected alignment fault on unaligned word read")
	}
	if _, err := r.Read16(0x2000_0001); err == nil {
		t.Fatal("expected alignment fault on unaligned halfword read")
	}
}

func TestMatrixFirstMatchAndInternalFault(t *testing.T) {
	flash := NewFlash(0, make([]byte, 0x1000))
	ram := NewRAM(0x2000_0000, 0x1000)
	m := NewMatrix(Internal{}, flash, ram)

	if !m.InRange(0x2000_0000) {
		t.Fatal("expected matrix to route to RAM")
	}
	if _, err := m.Read32(0xE000_E000); err == nil {
		t.Fatal("expected internal bus access to fault")
	}
	if _, err := m.Read32(0x9000_0000); err == nil {
		t.Fatal("expected unmapped address to fault")
	}
}
