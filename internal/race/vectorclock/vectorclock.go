// Package vectorclock implements vector clocks for tracking happens-before relations.
//
// A vector clock records, for every traced thread, the latest logical time of
// that thread which the owner of the clock has synchronized with. The tracer
// keeps one clock per thread and one per release point (a lock word, a
// channel, a wait group).
//
// Key operations:
//   - Join: Synchronization (point-wise maximum) - used on acquire
//   - LessOrEqual: Happens-before check (partial order) - used for race detection
//
// Clocks grow on demand, so a run with 100 threads costs 100 slots per clock
// instead of a fixed thread-space array.
package vectorclock

import (
	"strconv"
	"strings"
)

// VectorClock represents logical time across multiple threads.
//
// Element vc.c[tid] stores the clock value for thread tid. Slots past the end
// of the slice are implicitly zero.
//
// Example: {0: 50, 1: 30, 2: 60} means Thread0@50, Thread1@30, Thread2@60.
type VectorClock struct {
	c []uint32
}

// New creates a zero-initialized vector clock.
//
// All thread clocks start at 0, representing the beginning of logical time.
func New() *VectorClock {
	return &VectorClock{}
}

// Clone creates a deep copy of the vector clock.
//
// Used when a snapshot of logical time must outlive further updates of the
// source, for example when a release point stores the releasing thread's clock.
func (vc *VectorClock) Clone() *VectorClock {
	clone := &VectorClock{c: make([]uint32, len(vc.c))}
	copy(clone.c, vc.c)
	return clone
}

// CopyFrom overwrites vc with the contents of other, reusing vc's storage
// when it is large enough.
func (vc *VectorClock) CopyFrom(other *VectorClock) {
	if cap(vc.c) < len(other.c) {
		vc.c = make([]uint32, len(other.c))
	}
	vc.c = vc.c[:len(other.c)]
	copy(vc.c, other.c)
}

// Join performs point-wise maximum: vc = vc ⊔ other.
//
// This is the synchronization operation for happens-before.
// Used when a thread acquires a lock: Ct := Ct ⊔ Lm (thread clock joins lock clock).
//
// Algorithm: For each thread i, vc[i] = max(vc[i], other[i])
func (vc *VectorClock) Join(other *VectorClock) {
	if other == nil {
		return
	}
	vc.grow(len(other.c))
	for i, v := range other.c {
		if v > vc.c[i] {
			vc.c[i] = v
		}
	}
}

// LessOrEqual checks partial order: vc ⊑ other.
//
// Returns true if vc[i] <= other[i] for all threads i.
// This implements the happens-before relation check.
func (vc *VectorClock) LessOrEqual(other *VectorClock) bool {
	for i, v := range vc.c {
		if v > other.Get(uint16(i)) {
			return false
		}
	}
	return true
}

// HappensBefore checks if this VectorClock happened-before another VectorClock.
//
// This is an alias for LessOrEqual for better API clarity.
func (vc *VectorClock) HappensBefore(other *VectorClock) bool {
	return vc.LessOrEqual(other)
}

// Increment advances the clock for thread tid.
func (vc *VectorClock) Increment(tid uint16) {
	vc.grow(int(tid) + 1)
	vc.c[tid]++
}

// Get returns the clock value for thread tid.
func (vc *VectorClock) Get(tid uint16) uint32 {
	if int(tid) >= len(vc.c) {
		return 0
	}
	return vc.c[tid]
}

// Set sets the clock value for thread tid.
//
// Used during initialization and when an epoch is expanded into a clock.
func (vc *VectorClock) Set(tid uint16, clock uint32) {
	vc.grow(int(tid) + 1)
	vc.c[tid] = clock
}

// Len returns the number of thread slots currently materialized.
func (vc *VectorClock) Len() int {
	return len(vc.c)
}

// String returns a debug representation of the vector clock.
//
// Format: "{tid1:clock1, tid2:clock2, ...}" showing only non-zero clocks.
// Used for race reports, not on hot path.
func (vc *VectorClock) String() string {
	var parts []string
	for i, v := range vc.c {
		if v != 0 {
			parts = append(parts, strconv.Itoa(i)+":"+strconv.FormatUint(uint64(v), 10))
		}
	}
	if len(parts) == 0 {
		return "{}"
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func (vc *VectorClock) grow(n int) {
	if n <= len(vc.c) {
		return
	}
	if n <= cap(vc.c) {
		vc.c = vc.c[:n]
		return
	}
	grown := make([]uint32, n, n+n/2)
	copy(grown, vc.c)
	vc.c = grown
}
