package spin

import (
	"runtime"
	"unsafe"

	"github.com/kolkov/syncprim/internal/atomicx"
)

const (
	locked   = true
	unlocked = false
)

// Mutex owns a value of type T and grants access to it through WithLock.
//
// A Mutex must not be copied after first use.
type Mutex[T any] struct {
	flag  atomicx.Bool
	value T

	tier   Tier
	tracer Tracer
	obs    Observer
}

// New returns an unlocked Mutex holding initial.
func New[T any](initial T, opts ...Option) *Mutex[T] {
	o := options{tier: AcquireRelease}
	for _, opt := range opts {
		opt(&o)
	}
	m := &Mutex[T]{value: initial, tier: o.tier, tracer: o.tracer, obs: o.obs}
	if m.tracer != nil {
		m.flag.Observe(m.tracer)
	}
	return m
}

// Tier returns the tier used by WithLock.
func (m *Mutex[T]) Tier() Tier { return m.tier }

// WithLock runs f exactly once on the calling goroutine with exclusive
// access to the value, using the Mutex's tier.
func (m *Mutex[T]) WithLock(f func(v *T)) {
	switch m.tier {
	case Unordered:
		m.WithLockUnordered(f)
	case Relaxed:
		m.WithLockRelaxed(f)
	default:
		m.WithLockAcqRel(f)
	}
}

// Compute runs f under m's lock and returns its result.
func Compute[T, R any](m *Mutex[T], f func(v *T) R) R {
	var r R
	m.WithLock(func(v *T) { r = f(v) })
	return r
}

// WithLockUnordered is tier 1. The check and the set are separate
// operations with a yield in between, so several goroutines can enter at
// once and updates get lost.
func (m *Mutex[T]) WithLockUnordered(f func(v *T)) {
	var b atomicx.Backoff
	for m.flag.Load(atomicx.Relaxed) != unlocked {
		b.Wait()
	}
	runtime.Gosched()
	m.flag.Store(locked, atomicx.Relaxed)
	m.acquired(Unordered, b.Count())

	defer m.flag.Store(unlocked, atomicx.Relaxed)
	m.run(f)
}

// WithLockRelaxed is tier 2: exclusive, but with no ordering between
// critical sections.
func (m *Mutex[T]) WithLockRelaxed(f func(v *T)) {
	var b atomicx.Backoff
	for !m.flag.CompareExchange(unlocked, locked, atomicx.Relaxed, atomicx.Relaxed) {
		for m.flag.Load(atomicx.Relaxed) == locked {
			b.Wait()
			runtime.Gosched()
		}
		runtime.Gosched()
	}
	m.acquired(Relaxed, b.Count())

	defer m.flag.Store(unlocked, atomicx.Relaxed)
	m.run(f)
}

// WithLockAcqRel is tier 3. The release store of one critical section
// synchronizes with the acquire exchange of the next, so every write made
// under the lock is visible to the next holder.
func (m *Mutex[T]) WithLockAcqRel(f func(v *T)) {
	var b atomicx.Backoff
	for !m.flag.CompareExchange(unlocked, locked, atomicx.Acquire, atomicx.Relaxed) {
		for m.flag.Load(atomicx.Relaxed) == locked {
			b.Wait()
		}
	}
	m.acquired(AcquireRelease, b.Count())

	defer m.flag.Store(unlocked, atomicx.Release)
	m.run(f)
}

func (m *Mutex[T]) acquired(t Tier, spins int) {
	if m.obs != nil {
		m.obs.Acquired(t, spins)
	}
}

func (m *Mutex[T]) run(f func(v *T)) {
	if m.tracer != nil {
		m.tracer.Write(uintptr(unsafe.Pointer(&m.value)))
	}
	f(&m.value)
}
