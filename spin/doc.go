// Package spin provides a guarded cell: a value owned by a spin lock whose
// acquisition comes in three memory-ordering tiers.
//
//   - Unordered: relaxed load, then a separate relaxed store. Two goroutines
//     can both see the lock free and both enter. Kept to demonstrate the
//     lost-update race.
//   - Relaxed: compare-and-exchange with Relaxed ordering. Mutual exclusion
//     holds, but no happens-before edge links one critical section to the
//     next.
//   - AcquireRelease: compare-and-exchange with Acquire on success, release
//     store with Release. The correct lock.
//
// Tiers 2 and 3 wait in a read-only loop on relaxed loads before retrying
// the exchange, so the lock word's cache line stays Shared while it is held.
//
// A Mutex is not reentrant: calling WithLock from inside the closure spins
// forever. There is no timeout, cancellation, fairness or poisoning. If the
// closure panics, the lock is released with the tier's release ordering and
// the panic propagates; the payload may be half updated.
//
// Go's sync/atomic is sequentially consistent on every platform, so on real
// hardware the Relaxed tier also happens to produce exact totals. Attach a
// happens-before tracer with WithTracer to see what the declared orderings
// actually promise.
package spin
