//go:build !race

package lab

import (
	"context"
	"runtime"
	"testing"

	"github.com/kolkov/syncprim/spin"
)

func TestCounterUnordered(t *testing.T) {
	defer runtime.GOMAXPROCS(runtime.GOMAXPROCS(max(4, runtime.NumCPU())))

	for attempt := range 5 {
		res, err := Counter(context.Background(), CounterConfig{
			Tier:       spin.Unordered,
			Threads:    100,
			Iterations: 1000,
		})
		if err != nil {
			t.Fatal(err)
		}
		if res.Count > res.Expected || res.Lost < 0 {
			t.Fatalf("count %d exceeds expected %d", res.Count, res.Expected)
		}
		if res.Lost > 0 {
			t.Logf("attempt %d: lost %d updates", attempt, res.Lost)
			return
		}
	}
	t.Skip("no lost update observed; the race is statistical")
}
