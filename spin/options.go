package spin

import "github.com/kolkov/syncprim/internal/atomicx"

// Tracer receives the happens-before events of a Mutex: the lock word's
// acquire and release edges and a write of the payload per critical
// section. *race.Tracer satisfies Tracer.
type Tracer interface {
	atomicx.Observer
	Write(addr uintptr)
}

// Observer is told about every completed acquisition.
type Observer interface {
	// Acquired reports that the lock was taken after spins polls of the
	// lock word.
	Acquired(tier Tier, spins int)
}

// Option configures a Mutex.
type Option func(*options)

type options struct {
	tier   Tier
	tracer Tracer
	obs    Observer
}

// WithTier sets the tier used by WithLock. The default is AcquireRelease.
func WithTier(t Tier) Option {
	return func(o *options) { o.tier = t }
}

// WithTracer reports lock edges and payload writes to t.
func WithTracer(t Tracer) Option {
	return func(o *options) { o.tracer = t }
}

// WithObserver reports acquisitions to obs.
func WithObserver(obs Observer) Option {
	return func(o *options) { o.obs = obs }
}
