// serve_test.go tests the workload loop behind 'syncprim serve'.
package main

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/kolkov/syncprim/internal/lab"
	"github.com/kolkov/syncprim/internal/metrics"
	"github.com/kolkov/syncprim/log"
	"github.com/kolkov/syncprim/spin"
)

func quietEnv() *env {
	return &env{stdout: io.Discard, stderr: io.Discard, log: log.Discard(), getenv: func(string) string { return "" }}
}

func smallWorkload(c *metrics.Collector) (lab.CounterConfig, lab.FanInConfig) {
	return lab.CounterConfig{Tier: spin.AcquireRelease, Threads: 2, Iterations: 50, Observer: c},
		lab.FanInConfig{Senders: 1, PerSender: 20, Observer: c}
}

func TestWorkload_StopsOnCancel(t *testing.T) {
	c := metrics.New()
	counter, fanIn := smallWorkload(c)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- workload(ctx, quietEnv(), c, counter, fanIn, time.Millisecond, nil) }()

	deadline := time.Now().Add(10 * time.Second)
	for c.Value("syncprim_channel_closed_total", nil) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("no round completed")
		}
		time.Sleep(time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("workload() = %v, want nil after cancel", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("workload did not stop after cancel")
	}

	if got := c.Value("syncprim_spin_acquisitions_total", map[string]string{"tier": "acqrel"}); got < 100 {
		t.Errorf("acquisitions = %v, want at least one round of 100", got)
	}
	if got := c.Value("syncprim_channel_sends_total", nil); got < 40 {
		t.Errorf("sends = %v, want at least one round of 40", got)
	}
}

func TestWorkload_AlreadyCancelled(t *testing.T) {
	c := metrics.New()
	counter, fanIn := smallWorkload(c)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := workload(ctx, quietEnv(), c, counter, fanIn, time.Millisecond, nil); err != nil {
		t.Errorf("workload() = %v, want nil", err)
	}
}

func TestWorkload_ServerError(t *testing.T) {
	c := metrics.New()
	counter, fanIn := smallWorkload(c)
	errc := make(chan error, 1)
	errc <- errors.New("address in use")

	err := workload(context.Background(), quietEnv(), c, counter, fanIn, time.Hour, errc)
	if err == nil || err.Error() != "serve: address in use" {
		t.Errorf("workload() = %v, want the server error", err)
	}
	// One round: 2x50 increments plus the final read of the counter.
	if got := c.Value("syncprim_spin_acquisitions_total", nil); got != 101 {
		t.Errorf("acquisitions = %v, want 101", got)
	}
}

func TestServe_BadTier(t *testing.T) {
	code, _, stderr := runCLI(t, nil, "serve", "-tier", "bogus")
	if code != 1 {
		t.Errorf("exit code = %d, want 1 (stderr %q)", code, stderr)
	}
}
