// Package syncshadow implements shadow memory for synchronization points.
//
// A synchronization point is any address where one thread publishes its
// logical time and another thread picks it up: the lock word of a spin
// mutex, an MPSC channel, a wait group used to join workers.
//
// Each point has a SyncVar in shadow memory:
//   - SyncVar stores the releaseClock - the vector clock at the last Release
//   - On Acquire, the thread joins the releaseClock into its own clock
//   - This establishes the happens-before edge Release(m) → Acquire(m)
//
// Algorithm:
//
//	Acquire(m):  Ct := Ct ⊔ Lm  (thread clock joins lock clock)
//	             Ct[t]++
//
//	Release(m):  Lm := Ct        (lock clock = thread clock)
//	             Ct[t]++
//
// A Relaxed operation on the lock word calls neither, which is exactly why a
// relaxed spin lock leaves consecutive critical sections unordered.
package syncshadow
