package mpsc

// Tracer receives the happens-before edges of a channel. *race.Tracer
// satisfies Tracer.
type Tracer interface {
	ChannelSend(ch uintptr)
	ChannelRecv(ch uintptr)
	ChannelClose(ch uintptr)
}

// Observer is told about channel activity.
type Observer interface {
	// Sent reports a value appended to the shared queue.
	Sent()
	// Received reports a delivered value; fromBuffer is true when it came
	// from the receiver's private buffer without locking.
	Received(fromBuffer bool)
	// Waited reports that the receiver blocked on an empty queue.
	Waited()
	// Closed reports that the last sender closed.
	Closed()
}

// Option configures a channel.
type Option func(*options)

type options struct {
	tracer Tracer
	obs    Observer
}

// WithTracer reports send, receive and close edges to t.
func WithTracer(t Tracer) Option {
	return func(o *options) { o.tracer = t }
}

// WithObserver reports channel activity to obs.
func WithObserver(obs Observer) Option {
	return func(o *options) { o.obs = obs }
}
