// Package lab runs the experiments behind the syncprim command: the
// counter workload for each spin tier, channel fan-in, and the memory
// ordering litmus tests.
package lab

import (
	"errors"
	"fmt"

	"github.com/kolkov/syncprim/spin"
)

var (
	// ErrUnknownTier is returned for a tier name ParseTier does not know.
	ErrUnknownTier = errors.New("lab: unknown tier")
	// ErrUnknownLitmus is returned for a litmus name ParseLitmus does not know.
	ErrUnknownLitmus = errors.New("lab: unknown litmus test")
	// ErrInvalidConfig is returned when a count in a config is not positive.
	ErrInvalidConfig = errors.New("lab: invalid config")
)

// ParseTier parses a spin tier name.
func ParseTier(s string) (spin.Tier, error) {
	t, err := spin.ParseTier(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrUnknownTier, s)
	}
	return t, nil
}

func positive(name string, v int) error {
	if v <= 0 {
		return fmt.Errorf("%w: %s must be positive, got %d", ErrInvalidConfig, name, v)
	}
	return nil
}
