// Package goroutine implements per-thread tracer state.
//
// A Context maintains the logical clock and cached epoch for one traced
// goroutine:
//   - TID: dense thread id handed out by a Registry (0, 1, 2, ...)
//   - C: full vector clock tracking all threads
//   - Epoch: cached C[TID] for O(1) access
//
// The Registry binds Go goroutine ids to contexts. Goroutine ids are read
// from the runtime.Stack header, which is slow (~1µs) but only paid by
// traced runs.
package goroutine
