package syncshadow

import (
	"sync"
)

// SyncShadow maps synchronization point addresses to their SyncVar.
//
// SyncVars are allocated on first access and kept until Reset; a tracer
// lives for one run, so nothing is reclaimed earlier.
//
// Thread Safety: All methods are safe for concurrent calls.
type SyncShadow struct {
	vars sync.Map // map[uintptr]*SyncVar
}

// NewSyncShadow creates an empty SyncShadow.
func NewSyncShadow() *SyncShadow {
	return &SyncShadow{}
}

// GetOrCreate returns the SyncVar for addr, creating it if needed.
//
// Multiple goroutines may race to create the SyncVar; LoadOrStore keeps one.
func (s *SyncShadow) GetOrCreate(addr uintptr) *SyncVar {
	if val, ok := s.vars.Load(addr); ok {
		return val.(*SyncVar)
	}
	val, _ := s.vars.LoadOrStore(addr, &SyncVar{})
	return val.(*SyncVar)
}

// Reset clears all sync variable state.
//
// Thread Safety: NOT safe for concurrent use with other methods.
func (s *SyncShadow) Reset() {
	s.vars.Clear()
}
