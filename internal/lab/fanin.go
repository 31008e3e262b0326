package lab

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/kolkov/syncprim/log"
	"github.com/kolkov/syncprim/mpsc"
)

// FanInConfig describes a fan-in run: Senders cloned senders plus the
// original each send PerSender distinct values to one receiver.
type FanInConfig struct {
	Senders   int
	PerSender int

	Observer mpsc.Observer
	Log      log.Logger
}

// FanInResult is the outcome of a fan-in run.
type FanInResult struct {
	Senders  int           `json:"senders"`
	Received int           `json:"received"`
	Expected int           `json:"expected"`
	Complete bool          `json:"complete"`
	Duration time.Duration `json:"duration_ns"`
}

// FanIn runs the fan-in workload. Complete is true when the sorted received
// values are exactly 0..Expected-1.
func FanIn(ctx context.Context, cfg FanInConfig) (FanInResult, error) {
	if err := positive("senders", cfg.Senders); err != nil {
		return FanInResult{}, err
	}
	if err := positive("per-sender", cfg.PerSender); err != nil {
		return FanInResult{}, err
	}
	if cfg.Log == nil {
		cfg.Log = log.Discard()
	}

	var opts []mpsc.Option
	if cfg.Observer != nil {
		opts = append(opts, mpsc.WithObserver(cfg.Observer))
	}
	tx, rx := mpsc.New[int](opts...)
	defer rx.Close()

	producers := cfg.Senders + 1
	expected := producers * cfg.PerSender
	start := time.Now()

	var wg sync.WaitGroup
	produce := func(s *mpsc.Sender[int], id int) {
		defer wg.Done()
		defer s.Close()
		for i := range cfg.PerSender {
			if ctx.Err() != nil {
				return
			}
			s.Send(id*cfg.PerSender + i)
		}
	}
	for id := range cfg.Senders {
		wg.Add(1)
		go produce(tx.Clone(), id)
	}
	wg.Add(1)
	go produce(tx, cfg.Senders)

	got := make([]int, 0, expected)
	for v := range rx.All() {
		got = append(got, v)
	}
	wg.Wait()
	elapsed := time.Since(start)

	if err := ctx.Err(); err != nil {
		return FanInResult{}, err
	}

	slices.Sort(got)
	complete := len(got) == expected
	for i := 0; complete && i < len(got); i++ {
		complete = got[i] == i
	}

	res := FanInResult{
		Senders:  producers,
		Received: len(got),
		Expected: expected,
		Complete: complete,
		Duration: elapsed,
	}
	cfg.Log.Info("lab: fan-in senders=%d received=%d/%d complete=%v in %v",
		res.Senders, res.Received, res.Expected, res.Complete, res.Duration)
	return res, nil
}
