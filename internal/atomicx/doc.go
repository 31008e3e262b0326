// Package atomicx provides cache-line padded atomic words that carry a
// declared memory ordering.
//
// Go's sync/atomic operations are sequentially consistent, so the hardware
// effect of every operation here is the same whatever ordering is passed. The
// ordering decides which happens-before edges are reported to an optional
// Observer:
//
//   - an operation whose ordering Releases reports Release(addr) before the
//     store becomes visible
//   - an operation whose ordering Acquires reports Acquire(addr) after the
//     load or successful exchange
//   - Relaxed reports nothing
//
// A tracer attached as the Observer therefore sees exactly the edges a
// weakly ordered machine would guarantee.
package atomicx
