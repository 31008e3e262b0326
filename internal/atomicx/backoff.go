package atomicx

import "runtime"

// SpinBudget is the number of polls a Backoff spends on SpinHint before it
// starts yielding the processor.
const SpinBudget = 64

// Backoff paces a busy-wait loop: SpinHint for the first SpinBudget polls,
// runtime.Gosched after that.
//
// The zero value is ready to use. A Backoff belongs to one goroutine.
type Backoff struct {
	n int
}

// Wait pauses once.
func (b *Backoff) Wait() {
	b.n++
	if b.n <= SpinBudget {
		SpinHint()
		return
	}
	runtime.Gosched()
}

// Count returns the number of Wait calls since the last Reset.
func (b *Backoff) Count() int { return b.n }

// Reset starts a new wait.
func (b *Backoff) Reset() { b.n = 0 }
