// Package epoch implements 64-bit logical timestamps for the happens-before tracer.
//
// Epoch represents a single thread's logical time as a compact 64-bit value:
// - Top 16 bits: Thread ID (0-65535)
// - Bottom 48 bits: Clock value
//
// This encoding enables O(1) happens-before checks against a vector clock,
// which is what keeps the common single-owner access pattern cheap.
package epoch

import (
	"strconv"

	"github.com/kolkov/syncprim/internal/race/vectorclock"
)

// Epoch is a 64-bit logical timestamp encoding both thread ID and clock value.
// Layout: [TID:16][Clock:48]
//
// Example: 0x0005000000001234 represents TID=5, Clock=0x1234 (4660 decimal).
type Epoch uint64

const (
	// TIDBits is the number of bits allocated for thread ID.
	TIDBits = 16

	// ClockBits is the number of bits allocated for clock value.
	ClockBits = 48

	// ClockMask is the bitmask for extracting clock value.
	ClockMask = (1 << ClockBits) - 1
)

// NewEpoch creates an epoch from thread ID and clock value.
//
// Clock values beyond 48 bits are truncated.
func NewEpoch(tid uint16, clock uint64) Epoch {
	return Epoch(uint64(tid)<<ClockBits | (clock & ClockMask))
}

// Decode extracts the thread ID and clock value from an epoch.
func (e Epoch) Decode() (tid uint16, clock uint64) {
	//nolint:gosec // G115: Intentional truncation to extract top 16 bits as TID.
	tid = uint16(e >> ClockBits)
	clock = uint64(e) & ClockMask
	return
}

// HappensBefore checks if this epoch happened before a vector clock.
//
// Returns true if epoch's clock <= vc[epoch's TID].
func (e Epoch) HappensBefore(vc *vectorclock.VectorClock) bool {
	tid, clock := e.Decode()
	return clock <= uint64(vc.Get(tid))
}

// Same checks if two epochs are identical (same TID and clock).
func (e Epoch) Same(other Epoch) bool {
	return e == other
}

// String returns a human-readable representation of the epoch.
//
// Format: "clock@tid" (e.g., "42@5" means clock=42, tid=5).
func (e Epoch) String() string {
	tid, clock := e.Decode()
	return strconv.FormatUint(clock, 10) + "@" + strconv.FormatUint(uint64(tid), 10)
}
