package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kolkov/syncprim/internal/lab"
	"github.com/kolkov/syncprim/internal/metrics"
)

// serveCommand implements 'syncprim serve': it alternates counter and
// fan-in runs until interrupted and exposes their metrics on /metrics.
func serveCommand(e *env, args []string) error {
	var (
		addr    string
		tierArg string
		threads int
		iters   int
		senders int
		pause   time.Duration
	)
	fs := newFlagSet(e, "serve", nil)
	fs.StringVar(&addr, "addr", ":9090", "listen address for /metrics")
	fs.StringVar(&tierArg, "tier", "acqrel", "spin mutex tier of the counter workload")
	fs.IntVar(&threads, "threads", 8, "counter goroutines")
	fs.IntVar(&iters, "iters", 10000, "increments per counter goroutine")
	fs.IntVar(&senders, "senders", 4, "fan-in senders")
	fs.DurationVar(&pause, "pause", 100*time.Millisecond, "pause between rounds")
	if err := parse(fs, args); err != nil {
		return err
	}
	tier, err := lab.ParseTier(tierArg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	collector := metrics.New()
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errc := make(chan error, 1)
	go func() {
		e.log.Info("serve: listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	counter := lab.CounterConfig{Tier: tier, Threads: threads, Iterations: iters, Observer: collector, Log: e.log}
	fanIn := lab.FanInConfig{Senders: senders, PerSender: iters, Observer: collector, Log: e.log}
	werr := workload(ctx, e, collector, counter, fanIn, pause, errc)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		e.log.Warn("serve: shutdown: %v", err)
	}
	if err, ok := <-errc; ok && err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	return werr
}

func workload(ctx context.Context, e *env, c *metrics.Collector, counter lab.CounterConfig, fanIn lab.FanInConfig, pause time.Duration, errc <-chan error) error {
	ticker := time.NewTicker(pause)
	defer ticker.Stop()
	for round := 1; ; round++ {
		res, err := lab.Counter(ctx, counter)
		if err != nil {
			return ignoreCancel(err)
		}
		if !res.Exact() {
			e.log.Warn("serve: round %d lost %d updates on tier %s", round, res.Lost, res.Tier)
		}
		if _, err := lab.FanIn(ctx, fanIn); err != nil {
			return ignoreCancel(err)
		}
		e.log.Debug("serve: round %d done, %.0f acquisitions, %.0f sends",
			round, c.Value("syncprim_spin_acquisitions_total", nil), c.Value("syncprim_channel_sends_total", nil))

		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-errc:
			if ok {
				return fmt.Errorf("serve: %w", err)
			}
			return nil
		case <-ticker.C:
		}
	}
}

func ignoreCancel(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
