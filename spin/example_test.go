package spin_test

import (
	"fmt"
	"sync"

	"github.com/kolkov/syncprim/race"
	"github.com/kolkov/syncprim/spin"
)

func Example() {
	m := spin.New(0)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				m.WithLock(func(v *int) { *v++ })
			}
		}()
	}
	wg.Wait()

	fmt.Println(spin.Compute(m, func(v *int) int { return *v }))
	// Output: 1000
}

// Example_tracer compares the relaxed and acquire/release tiers under the
// happens-before tracer.
func Example_tracer() {
	for _, tier := range []spin.Tier{spin.Relaxed, spin.AcquireRelease} {
		tr := race.New()
		m := spin.New(0, spin.WithTier(tier), spin.WithTracer(tr))
		for range 2 {
			done := make(chan struct{})
			go func() {
				m.WithLock(func(v *int) { *v++ })
				close(done)
			}()
			<-done
		}
		fmt.Printf("%s: %d race(s)\n", tier, tr.Races())
	}
	// Output:
	// relaxed: 1 race(s)
	// acqrel: 0 race(s)
}
