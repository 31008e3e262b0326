package lab

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/kolkov/syncprim/internal/atomicx"
)

// LitmusKind names a memory ordering litmus test.
type LitmusKind string

const (
	// LitmusRelaxed: thread 1 copies y into x, thread 2 reads x then stores
	// 37 to y, all relaxed. (37, 37) is allowed by the memory model.
	LitmusRelaxed LitmusKind = "relaxed"
	// LitmusAcqRel: two writers publish x and y with Release; two readers
	// acquire one flag and check the other. z counts readers that saw both.
	LitmusAcqRel LitmusKind = "acqrel"
	// LitmusSeqCst is LitmusAcqRel with every operation SeqCst; z == 0 is
	// impossible.
	LitmusSeqCst LitmusKind = "seqcst"
)

// LitmusKinds lists the known litmus tests.
var LitmusKinds = []LitmusKind{LitmusRelaxed, LitmusAcqRel, LitmusSeqCst}

// ParseLitmus parses a litmus test name.
func ParseLitmus(s string) (LitmusKind, error) {
	k := LitmusKind(strings.ToLower(strings.TrimSpace(s)))
	if slices.Contains(LitmusKinds, k) {
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownLitmus, s)
}

// LitmusConfig describes a litmus run.
type LitmusConfig struct {
	Kind LitmusKind
	Runs int
}

// LitmusResult is a histogram of the outcomes of a litmus run.
type LitmusResult struct {
	Kind     LitmusKind     `json:"kind"`
	Runs     int            `json:"runs"`
	Outcomes map[string]int `json:"outcomes"`
	// Violations counts z == 0 outcomes of the flag tests.
	Violations int           `json:"violations"`
	Duration   time.Duration `json:"duration_ns"`
}

// String renders the outcomes in a stable order.
func (r LitmusResult) String() string {
	var b strings.Builder
	for i, k := range slices.Sorted(maps.Keys(r.Outcomes)) {
		if i > 0 {
			b.WriteString(" ")
		}
		fmt.Fprintf(&b, "%s:%d", k, r.Outcomes[k])
	}
	return b.String()
}

// Litmus runs cfg.Runs rounds of the chosen test, each on fresh goroutines.
func Litmus(ctx context.Context, cfg LitmusConfig) (LitmusResult, error) {
	if err := positive("runs", cfg.Runs); err != nil {
		return LitmusResult{}, err
	}

	var round func() string
	switch cfg.Kind {
	case LitmusRelaxed:
		round = relaxedRound
	case LitmusAcqRel:
		round = func() string { return flagRound(atomicx.Release, atomicx.Acquire) }
	case LitmusSeqCst:
		round = func() string { return flagRound(atomicx.SeqCst, atomicx.SeqCst) }
	default:
		return LitmusResult{}, fmt.Errorf("%w: %q", ErrUnknownLitmus, cfg.Kind)
	}

	res := LitmusResult{Kind: cfg.Kind, Outcomes: make(map[string]int)}
	start := time.Now()
	for range cfg.Runs {
		if err := ctx.Err(); err != nil {
			return LitmusResult{}, err
		}
		out := round()
		res.Outcomes[out]++
		if out == "z=0" {
			res.Violations++
		}
		res.Runs++
	}
	res.Duration = time.Since(start)
	return res, nil
}

func relaxedRound() string {
	var x, y atomicx.Uint64
	var r1, r2 uint64
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		r1 = y.Load(atomicx.Relaxed)
		x.Store(r1, atomicx.Relaxed)
	}()
	go func() {
		defer wg.Done()
		r2 = x.Load(atomicx.Relaxed)
		y.Store(37, atomicx.Relaxed)
	}()
	wg.Wait()
	return fmt.Sprintf("(%d,%d)", r1, r2)
}

func flagRound(store, load atomicx.Ordering) string {
	var x, y atomicx.Bool
	var z atomicx.Uint64
	var wg sync.WaitGroup

	reader := func(first, second *atomicx.Bool) {
		defer wg.Done()
		var b atomicx.Backoff
		for !first.Load(load) {
			b.Wait()
		}
		if second.Load(load) {
			z.Add(1, atomicx.Relaxed)
		}
	}

	wg.Add(4)
	go func() { defer wg.Done(); x.Store(true, store) }()
	go func() { defer wg.Done(); y.Store(true, store) }()
	go reader(&x, &y)
	go reader(&y, &x)
	wg.Wait()
	return fmt.Sprintf("z=%d", z.Load(atomicx.SeqCst))
}
