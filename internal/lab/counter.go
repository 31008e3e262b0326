package lab

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kolkov/syncprim/log"
	"github.com/kolkov/syncprim/race"
	"github.com/kolkov/syncprim/spin"
)

// CounterConfig describes a counter run: Threads goroutines each add 1 to
// a shared spin.Mutex[int] Iterations times.
type CounterConfig struct {
	Tier       spin.Tier
	Threads    int
	Iterations int

	// Traced attaches a happens-before tracer and reports its race count.
	Traced bool

	Observer spin.Observer
	Log      log.Logger
}

// CounterResult is the outcome of a counter run.
type CounterResult struct {
	Tier       string        `json:"tier"`
	Threads    int           `json:"threads"`
	Iterations int           `json:"iterations"`
	Count      int           `json:"count"`
	Expected   int           `json:"expected"`
	Lost       int           `json:"lost"`
	Peak       int           `json:"peak_concurrency"`
	Races      int           `json:"races"`
	// Acquires and Releases count the happens-before edges the tracer saw.
	Acquires uint64        `json:"acquire_edges,omitempty"`
	Releases uint64        `json:"release_edges,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

// Exact reports whether no update was lost.
func (r CounterResult) Exact() bool { return r.Count == r.Expected }

// Counter runs the counter workload. A cancelled ctx stops the workers at
// their next check and returns ctx.Err().
func Counter(ctx context.Context, cfg CounterConfig) (CounterResult, error) {
	if err := positive("threads", cfg.Threads); err != nil {
		return CounterResult{}, err
	}
	if err := positive("iterations", cfg.Iterations); err != nil {
		return CounterResult{}, err
	}
	if cfg.Log == nil {
		cfg.Log = log.Discard()
	}
	if cfg.Tier == 0 {
		cfg.Tier = spin.AcquireRelease
	}

	opts := []spin.Option{spin.WithTier(cfg.Tier)}
	if cfg.Observer != nil {
		opts = append(opts, spin.WithObserver(cfg.Observer))
	}
	var tr *race.Tracer
	if cfg.Traced {
		tr = race.New(race.WithLogger(cfg.Log))
		opts = append(opts, spin.WithTracer(tr))
	}
	m := spin.New(0, opts...)

	cfg.Log.Debug("lab: counter tier=%s threads=%d iterations=%d traced=%v",
		m.Tier(), cfg.Threads, cfg.Iterations, cfg.Traced)

	var inside, peak atomic.Int32
	section := func(v *int) {
		n := inside.Add(1)
		for p := peak.Load(); n > p && !peak.CompareAndSwap(p, n); p = peak.Load() {
		}
		*v++
		inside.Add(-1)
	}

	start := time.Now()
	var wg sync.WaitGroup
	for range cfg.Threads {
		if tr != nil {
			tr.WaitGroupAdd(race.AddrOf(&wg), 1)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if tr != nil {
				defer tr.WaitGroupDone(race.AddrOf(&wg))
			}
			for i := range cfg.Iterations {
				if i%1024 == 0 && ctx.Err() != nil {
					return
				}
				m.WithLock(section)
			}
		}()
	}
	wg.Wait()
	if tr != nil {
		tr.WaitGroupWait(race.AddrOf(&wg))
	}
	elapsed := time.Since(start)

	if err := ctx.Err(); err != nil {
		return CounterResult{}, err
	}

	res := CounterResult{
		Tier:       m.Tier().String(),
		Threads:    cfg.Threads,
		Iterations: cfg.Iterations,
		Count:      spin.Compute(m, func(v *int) int { return *v }),
		Expected:   cfg.Threads * cfg.Iterations,
		Peak:       int(peak.Load()),
		Duration:   elapsed,
	}
	res.Lost = res.Expected - res.Count
	if tr != nil {
		res.Races = tr.Races()
		s := tr.Stats()
		res.Acquires, res.Releases = s.Acquires, s.Releases+s.ReleaseMerges
	}

	cfg.Log.Info("lab: counter tier=%s count=%d expected=%d lost=%d races=%d in %v",
		res.Tier, res.Count, res.Expected, res.Lost, res.Races, res.Duration)
	return res, nil
}
