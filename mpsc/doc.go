// Package mpsc implements an unbounded multi-producer, single-consumer
// channel built from a queue, a sync.Mutex and a sync.Cond.
//
// Values are delivered in the order their Send calls appended them to the
// shared queue. The receiver keeps a private buffer: when it takes a value
// from the shared queue it also takes everything queued behind it in one
// swap, so later receives drain that batch without locking.
//
// Go has no destructors, so dropping a sender is explicit: every Sender,
// including each Clone, must be closed once. When the last one closes, a
// receive on the empty queue reports closure instead of blocking. Closing
// the Receiver discards queued values and turns later sends into no-ops.
package mpsc
