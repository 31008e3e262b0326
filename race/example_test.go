package race_test

import (
	"fmt"
	"sync"

	"github.com/kolkov/syncprim/race"
)

// Example shows a write on one goroutine that another goroutine reads
// without any recorded synchronization.
func Example() {
	tr := race.New()

	var counter int
	done := make(chan struct{})
	go func() {
		tr.Write(race.AddrOf(&counter))
		counter = 42
		close(done)
	}()
	<-done

	// The real channel orders the accesses, but the tracer was not told.
	tr.Read(race.AddrOf(&counter))
	fmt.Println(counter, tr.Races())

	// Output:
	// 42 1
}

// Example_mutexProtected records the lock's acquire and release, so the
// tracer sees both accesses ordered.
func Example_mutexProtected() {
	tr := race.New()

	var (
		counter int
		mu      sync.Mutex
		wg      sync.WaitGroup
	)

	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			mu.Lock()
			tr.Acquire(race.AddrOf(&mu))
			tr.Write(race.AddrOf(&counter))
			counter++
			tr.Release(race.AddrOf(&mu))
			mu.Unlock()
		}()
	}
	wg.Wait()

	fmt.Println(counter, tr.Races(), tr.Threads())

	// Output:
	// 2 0 2
}

// Example_waitGroup records the fan-in of a wait group.
func Example_waitGroup() {
	tr := race.New()

	results := make([]int, 3)
	var wg sync.WaitGroup
	tr.WaitGroupAdd(race.AddrOf(&wg), len(results))
	wg.Add(len(results))
	for i := range results {
		go func() {
			tr.Write(race.AddrOf(&results[i]))
			results[i] = i * i
			tr.WaitGroupDone(race.AddrOf(&wg))
			wg.Done()
		}()
	}
	wg.Wait()
	tr.WaitGroupWait(race.AddrOf(&wg))

	for i := range results {
		tr.Read(race.AddrOf(&results[i]))
	}
	fmt.Println(results, tr.Races())

	// Output:
	// [0 1 4] 0
}
