// Package shadowmem implements shadow memory cells for the happens-before tracer.
//
// For every traced location (a spin mutex payload, a channel element) the
// shadow memory keeps a VarState cell that records:
//   - W: The last write epoch (thread ID + logical clock)
//   - R: The last read epoch, promoted to a read vector clock when two
//     reads are concurrent
//
// The detector uses these epochs to decide whether two accesses are ordered
// by happens-before. If not, and at least one is a write, a race is reported.
//
// # Usage
//
//	sm := shadowmem.NewShadowMemory()
//	vs := sm.GetOrCreate(addr)
//	if vs.W != 0 && !vs.W.HappensBefore(ctx.C) {
//		// write-write race
//	}
//	vs.W = ctx.GetEpoch()
//
// Thread Safety: VarState is not synchronized; the detector serializes all
// access to it. ShadowMemory lookups are safe for concurrent use.
package shadowmem
