package shadowmem

import "sync"

// ShadowMemory maps traced addresses to their VarState cells.
//
// Backed by sync.Map: keys are stable (a traced payload keeps its address
// for the whole run), so lookups after the first are lock-free reads.
type ShadowMemory struct {
	cells sync.Map // map[uintptr]*VarState
}

// NewShadowMemory creates a new empty shadow memory map.
func NewShadowMemory() *ShadowMemory {
	return &ShadowMemory{}
}

// GetOrCreate retrieves the VarState for addr, creating it if needed.
//
// If several goroutines race to create the cell, LoadOrStore keeps exactly
// one and every caller receives it.
func (sm *ShadowMemory) GetOrCreate(addr uintptr) *VarState {
	if val, ok := sm.cells.Load(addr); ok {
		return val.(*VarState)
	}
	actual, _ := sm.cells.LoadOrStore(addr, NewVarState())
	return actual.(*VarState)
}

// Get retrieves the VarState for addr, or nil if it was never accessed.
func (sm *ShadowMemory) Get(addr uintptr) *VarState {
	val, ok := sm.cells.Load(addr)
	if !ok {
		return nil
	}
	return val.(*VarState)
}

// Len returns the number of tracked addresses.
func (sm *ShadowMemory) Len() int {
	n := 0
	sm.cells.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Reset clears all shadow memory cells.
//
// Thread Safety: NOT safe for concurrent use with other methods.
func (sm *ShadowMemory) Reset() {
	sm.cells.Clear()
}
