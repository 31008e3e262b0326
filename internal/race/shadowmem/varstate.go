package shadowmem

import (
	"github.com/kolkov/syncprim/internal/race/epoch"
	"github.com/kolkov/syncprim/internal/race/vectorclock"
)

// VarState stores the access state for a single variable using adaptive representation.
//
//   - Common case: one writer or one reader at a time, tracked with epochs only.
//   - Conflict case: concurrent readers promote the read side to a vector clock.
//
// A write dominates all previous reads, so OnWrite demotes back to epochs.
type VarState struct {
	W epoch.Epoch // Last write epoch (0 = never written).

	// WriteStack and ReadStack are stack depot hashes of the last write and
	// read, used to print both sides of a race report.
	WriteStack uint64
	ReadStack  uint64

	readEpoch epoch.Epoch              // Single reader (fast path).
	readClock *vectorclock.VectorClock // Concurrent readers (promoted).
}

// NewVarState creates a new zero-initialized variable state.
func NewVarState() *VarState {
	return &VarState{}
}

// Reset resets the variable state to never-accessed.
func (vs *VarState) Reset() {
	*vs = VarState{}
}

// IsPromoted reports whether reads are tracked with a vector clock.
func (vs *VarState) IsPromoted() bool {
	return vs.readClock != nil
}

// PromoteToReadClock upgrades from a single read epoch to a read vector clock.
//
// The existing reader's epoch is copied into the new clock and the new
// reader's clock is merged in.
func (vs *VarState) PromoteToReadClock(newReadVC *vectorclock.VectorClock) {
	vs.readClock = vectorclock.New()
	if vs.readEpoch != 0 {
		tid, clock := vs.readEpoch.Decode()
		vs.readClock.Set(tid, uint32(clock))
	}
	vs.readClock.Join(newReadVC)
	vs.readEpoch = 0
}

// GetReadEpoch returns the read epoch; 0 when promoted or never read.
func (vs *VarState) GetReadEpoch() epoch.Epoch {
	return vs.readEpoch
}

// SetReadEpoch sets the read epoch. No-op once promoted.
func (vs *VarState) SetReadEpoch(e epoch.Epoch) {
	if vs.readClock == nil {
		vs.readEpoch = e
	}
}

// GetReadClock returns the read vector clock, or nil when not promoted.
func (vs *VarState) GetReadClock() *vectorclock.VectorClock {
	return vs.readClock
}

// Demote clears all read tracking.
func (vs *VarState) Demote() {
	vs.readEpoch = 0
	vs.readClock = nil
}

// String returns a debug representation of the variable state.
//
// Format:
//   - Unpromoted: "W:<epoch> R:<epoch>"
//   - Promoted: "W:<epoch> R:<vectorclock> [PROMOTED]"
func (vs *VarState) String() string {
	w := "W:" + vs.W.String()
	if vs.readClock != nil {
		return w + " R:" + vs.readClock.String() + " [PROMOTED]"
	}
	return w + " R:" + vs.readEpoch.String()
}
