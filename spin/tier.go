package spin

import (
	"fmt"
	"strings"
)

// Tier selects the acquisition protocol used by Mutex.WithLock.
type Tier uint8

const (
	// Unordered is tier 1: relaxed load then separate relaxed store. Racy.
	Unordered Tier = iota + 1
	// Relaxed is tier 2: relaxed compare-and-exchange.
	Relaxed
	// AcquireRelease is tier 3: acquire exchange, release store.
	AcquireRelease
)

func (t Tier) String() string {
	switch t {
	case Unordered:
		return "unordered"
	case Relaxed:
		return "relaxed"
	case AcquireRelease:
		return "acqrel"
	default:
		return fmt.Sprintf("Tier(%d)", uint8(t))
	}
}

// ParseTier parses a tier name or number: "unordered" or "1", "relaxed" or
// "2", "acqrel" or "3".
func ParseTier(s string) (Tier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "unordered", "1", "v1":
		return Unordered, nil
	case "relaxed", "2", "v2":
		return Relaxed, nil
	case "acqrel", "acquire-release", "3", "v3":
		return AcquireRelease, nil
	}
	return 0, fmt.Errorf("spin: unknown tier %q", s)
}
