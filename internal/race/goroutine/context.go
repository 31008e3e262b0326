package goroutine

import (
	"github.com/kolkov/syncprim/internal/race/epoch"
	"github.com/kolkov/syncprim/internal/race/vectorclock"
)

// Context represents the tracer state for a single goroutine.
//
// Invariant: Epoch must ALWAYS equal epoch.NewEpoch(TID, C[TID]).
// This invariant is maintained by IncrementClock().
type Context struct {
	// TID is the dense thread identifier (0-65535).
	TID uint16

	// C is the full vector clock tracking logical time for all threads.
	// C[i] is the latest time of thread i this goroutine has synchronized with.
	C *vectorclock.VectorClock

	// Epoch is the cached epoch for this goroutine: Epoch == C[TID].
	Epoch epoch.Epoch
}

// Alloc creates and initializes a new Context for the given thread ID.
//
// The thread's own clock starts at 1 so that the zero Epoch can keep meaning
// "never accessed" in shadow memory, even for TID 0.
//
// Example:
//
//	ctx := Alloc(5)
//	// ctx.TID = 5
//	// ctx.C = {5:1}
//	// ctx.Epoch = 1@5
func Alloc(tid uint16) *Context {
	ctx := &Context{
		TID: tid,
		C:   vectorclock.New(),
	}
	ctx.C.Set(tid, 1)
	ctx.Epoch = epoch.NewEpoch(tid, 1)
	return ctx
}

// IncrementClock advances the logical clock for this goroutine.
//
// Called after every traced access and synchronization operation:
//  1. Increments C[TID] in the vector clock
//  2. Updates the cached Epoch to reflect the new C[TID] value
func (c *Context) IncrementClock() {
	c.C.Increment(c.TID)
	c.Epoch = epoch.NewEpoch(c.TID, uint64(c.C.Get(c.TID)))
}

// GetEpoch returns the cached epoch for this goroutine.
func (c *Context) GetEpoch() epoch.Epoch {
	return c.Epoch
}
