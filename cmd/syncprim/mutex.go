package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/kolkov/syncprim/internal/lab"
	"github.com/kolkov/syncprim/internal/runlog"
)

// mutexParams is the recorded configuration of a mutex run.
type mutexParams struct {
	Tier       string `json:"tier"`
	Threads    int    `json:"threads"`
	Iterations int    `json:"iterations"`
	Traced     bool   `json:"traced"`
}

// mutexCommand implements 'syncprim mutex'.
//
// Example:
//
//	syncprim mutex -tier unordered -threads 100 -iters 1000 -runs 10
func mutexCommand(e *env, args []string) error {
	var (
		c       common
		tierArg string
		cfg     lab.CounterConfig
	)
	fs := newFlagSet(e, "mutex", &c)
	fs.StringVar(&tierArg, "tier", "acqrel", "unordered, relaxed or acqrel")
	fs.IntVar(&cfg.Threads, "threads", 100, "goroutines incrementing the counter")
	fs.IntVar(&cfg.Iterations, "iters", 1000, "increments per goroutine")
	fs.BoolVar(&cfg.Traced, "trace", false, "attach the happens-before tracer and report races")
	if err := parse(fs, args); err != nil {
		return err
	}

	tier, err := lab.ParseTier(tierArg)
	if err != nil {
		return err
	}
	cfg.Tier = tier
	cfg.Log = e.log

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rec, err := openRecorder(e, c.database)
	if err != nil {
		return err
	}
	defer rec.Close()

	params := mutexParams{Tier: tier.String(), Threads: cfg.Threads, Iterations: cfg.Iterations, Traced: cfg.Traced}
	var last runlog.Run
	exact := 0
	for i := range c.runs {
		res, err := lab.Counter(ctx, cfg)
		if err != nil {
			return fmt.Errorf("run %d: %w", i+1, err)
		}
		if res.Exact() {
			exact++
		}

		last, err = runlog.NewRun("mutex", params)
		if err != nil {
			return err
		}
		last.Exact, last.Lost, last.Races, last.Duration = res.Exact(), res.Lost, res.Races, res.Duration
		if err := rec.record(ctx, last); err != nil {
			return err
		}

		if c.jsonOut {
			if err := writeJSON(e, res); err != nil {
				return err
			}
			continue
		}
		fmt.Fprintf(e.stdout, "run %d: tier=%s count=%d/%d lost=%d peak=%d", i+1, res.Tier, res.Count, res.Expected, res.Lost, res.Peak)
		if cfg.Traced {
			fmt.Fprintf(e.stdout, " races=%d edges=%d/%d", res.Races, res.Acquires, res.Releases)
		}
		fmt.Fprintf(e.stdout, " in %v\n", res.Duration)
	}

	if c.jsonOut {
		return nil
	}
	fmt.Fprintf(e.stdout, "%d/%d runs exact\n", exact, c.runs)
	if last.Fingerprint == "" {
		return nil
	}
	if s, ok, err := rec.summary(ctx, last); err != nil {
		return err
	} else if ok {
		printSummary(e, s)
	}
	return nil
}
