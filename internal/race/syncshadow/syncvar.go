package syncshadow

import (
	"github.com/kolkov/syncprim/internal/race/vectorclock"
)

// WaitGroupState tracks happens-before for a wait group used to join workers.
//
//   - Done() happens-before the corresponding Wait() returns
//   - doneClock accumulates the clocks of every Done()
//   - counter tracks the Add/Done balance for diagnostics
type WaitGroupState struct {
	doneClock *vectorclock.VectorClock
	counter   int32
}

// ChannelState tracks happens-before for an MPSC channel.
//
// Every send merges the sender's clock into sendClock, and a receive joins
// it. With several producers this over-approximates the edge of the single
// element received, which can hide races but never invents one.
// Closing (the last sender going away) publishes closeClock, joined by the
// receive that observes closure.
type ChannelState struct {
	sendClock  *vectorclock.VectorClock
	closeClock *vectorclock.VectorClock
	isClosed   bool
}

// SyncVar tracks happens-before relationships for a synchronization point.
//
// Lifecycle:
//   - Created on first traced operation on the address
//   - releaseClock allocated lazily on first Release
//   - channel / waitGroup allocated lazily when the address is used that way
//
// Thread Safety: NOT synchronized; the detector serializes access.
type SyncVar struct {
	// releaseClock is the vector clock from the last Release operation.
	// nil means no Release has occurred yet.
	releaseClock *vectorclock.VectorClock

	channel   *ChannelState
	waitGroup *WaitGroupState
}

// GetReleaseClock returns the release clock, or nil if never released.
func (sv *SyncVar) GetReleaseClock() *vectorclock.VectorClock {
	return sv.releaseClock
}

// SetReleaseClock copies clock into the release clock (Lm := Ct).
//
// The clock is copied, not referenced, so later increments of the releasing
// thread do not leak into the published snapshot.
func (sv *SyncVar) SetReleaseClock(clock *vectorclock.VectorClock) {
	if sv.releaseClock == nil {
		sv.releaseClock = clock.Clone()
		return
	}
	sv.releaseClock.CopyFrom(clock)
}

// MergeReleaseClock joins clock into the release clock (Lm := Lm ⊔ Ct).
func (sv *SyncVar) MergeReleaseClock(clock *vectorclock.VectorClock) {
	if sv.releaseClock == nil {
		sv.releaseClock = clock.Clone()
		return
	}
	sv.releaseClock.Join(clock)
}

// GetOrCreateChannel returns the channel state, allocating it on first use.
func (sv *SyncVar) GetOrCreateChannel() *ChannelState {
	if sv.channel == nil {
		sv.channel = &ChannelState{}
	}
	return sv.channel
}

// GetChannel returns the channel state, or nil if the address was never
// used as a channel.
func (sv *SyncVar) GetChannel() *ChannelState {
	return sv.channel
}

// MergeChannelSendClock joins a sender's clock into the channel send clock.
func (sv *SyncVar) MergeChannelSendClock(clock *vectorclock.VectorClock) {
	ch := sv.GetOrCreateChannel()
	if ch.sendClock == nil {
		ch.sendClock = clock.Clone()
		return
	}
	ch.sendClock.Join(clock)
}

// GetChannelSendClock returns the accumulated send clock, or nil.
func (sv *SyncVar) GetChannelSendClock() *vectorclock.VectorClock {
	if sv.channel == nil {
		return nil
	}
	return sv.channel.sendClock
}

// SetChannelCloseClock records the clock of the closing operation and marks
// the channel closed.
func (sv *SyncVar) SetChannelCloseClock(clock *vectorclock.VectorClock) {
	ch := sv.GetOrCreateChannel()
	ch.closeClock = clock.Clone()
	ch.isClosed = true
}

// GetChannelCloseClock returns the close clock, or nil if not closed.
func (sv *SyncVar) GetChannelCloseClock() *vectorclock.VectorClock {
	if sv.channel == nil {
		return nil
	}
	return sv.channel.closeClock
}

// IsChannelClosed reports whether a close was recorded.
func (sv *SyncVar) IsChannelClosed() bool {
	return sv.channel != nil && sv.channel.isClosed
}

// GetOrCreateWaitGroup returns the wait group state, allocating it on first use.
func (sv *SyncVar) GetOrCreateWaitGroup() *WaitGroupState {
	if sv.waitGroup == nil {
		sv.waitGroup = &WaitGroupState{}
	}
	return sv.waitGroup
}

// WaitGroupAdd adjusts the wait group counter by delta.
func (sv *SyncVar) WaitGroupAdd(delta int) {
	wg := sv.GetOrCreateWaitGroup()
	wg.counter += int32(delta) //nolint:gosec // G115: deltas are small worker counts
}

// MergeWaitGroupDoneClock joins a finishing worker's clock into the done
// clock and decrements the counter.
func (sv *SyncVar) MergeWaitGroupDoneClock(clock *vectorclock.VectorClock) {
	wg := sv.GetOrCreateWaitGroup()
	if wg.doneClock == nil {
		wg.doneClock = clock.Clone()
	} else {
		wg.doneClock.Join(clock)
	}
	wg.counter--
}

// GetWaitGroupDoneClock returns the accumulated done clock, or nil.
func (sv *SyncVar) GetWaitGroupDoneClock() *vectorclock.VectorClock {
	if sv.waitGroup == nil {
		return nil
	}
	return sv.waitGroup.doneClock
}

// GetWaitGroupCounter returns the current Add/Done balance.
func (sv *SyncVar) GetWaitGroupCounter() int32 {
	if sv.waitGroup == nil {
		return 0
	}
	return sv.waitGroup.counter
}
