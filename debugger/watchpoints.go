package debugger

import (
	"fmt"
	"sync"

	"github.com/arm-cm/cmsim/cpu"
)

// Watchpoint monitors an expression (a register name, currently; memory
// watchpoints would need a bus read hooked the same way) for value
// changes. Check cannot distinguish read from write access without
// instrumenting the bus itself, so any observed change between two Check
// calls trips it.
type Watchpoint struct {
	ID         int
	Expression string
	Enabled    bool
	LastValue  uint32
	HasValue   bool
	HitCount   int
}

// WatchpointManager owns the set of active watchpoints for one debug
// session.
type WatchpointManager struct {
	mu     sync.RWMutex
	byID   map[int]*Watchpoint
	nextID int
	eval   *Evaluator
}

func NewWatchpointManager() *WatchpointManager {
	return &WatchpointManager{byID: make(map[int]*Watchpoint), nextID: 1, eval: NewEvaluator()}
}

func (wm *WatchpointManager) Add(expr string) *Watchpoint {
	wm.mu.Lock()
	defer wm.mu.Unlock()
	wp := &Watchpoint{ID: wm.nextID, Expression: expr, Enabled: true}
	wm.byID[wp.ID] = wp
	wm.nextID++
	return wp
}

func (wm *WatchpointManager) Delete(id int) error {
	wm.mu.Lock()
	defer wm.mu.Unlock()
	if _, ok := wm.byID[id]; !ok {
		return fmt.Errorf("watchpoint %d not found", id)
	}
	delete(wm.byID, id)
	return nil
}

func (wm *WatchpointManager) All() []*Watchpoint {
	wm.mu.RLock()
	defer wm.mu.RUnlock()
	out := make([]*Watchpoint, 0, len(wm.byID))
	for _, wp := range wm.byID {
		out = append(out, wp)
	}
	return out
}

// Check evaluates every enabled watchpoint's expression against st and
// reports the first one whose value differs from its last observed value.
func (wm *WatchpointManager) Check(st *cpu.State) (string, bool) {
	wm.mu.Lock()
	defer wm.mu.Unlock()
	for _, wp := range wm.byID {
		if !wp.Enabled {
			continue
		}
		v, err := wm.eval.atom(wp.Expression, st)
		if err != nil {
			continue
		}
		if wp.HasValue && v != wp.LastValue {
			wp.LastValue = v
			wp.HitCount++
			return wp.Expression, true
		}
		wp.LastValue = v
		wp.HasValue = true
	}
	return "", false
}
