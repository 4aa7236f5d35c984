package debugger

import (
	"testing"

	"github.com/arm-cm/cmsim/cpu"
)

func TestWatchpointTripsOnValueChange(t *testing.T) {
	wm := NewWatchpointManager()
	wm.Add("r0")
	st := cpu.NewState()

	if _, tripped := wm.Check(st); tripped {
		t.Fatal("first check should only seed the baseline value, not trip")
	}
	if _, tripped := wm.Check(st); tripped {
		t.Fatal("unchanged value should not trip the watchpoint")
	}

	st.Set(cpu.R0, 42)
	expr, tripped := wm.Check(st)
	if !tripped || expr != "r0" {
		t.Fatalf("Check() = (%q, %v), want (\"r0\", true) after r0 changed", expr, tripped)
	}
}

func TestWatchpointDeleteAndList(t *testing.T) {
	wm := NewWatchpointManager()
	wp := wm.Add("sp")
	if len(wm.All()) != 1 {
		t.Fatalf("All() length = %d, want 1", len(wm.All()))
	}
	if err := wm.Delete(wp.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(wm.All()) != 0 {
		t.Fatalf("All() length = %d, want 0 after delete", len(wm.All()))
	}
}
