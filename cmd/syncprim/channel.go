package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/kolkov/syncprim/internal/lab"
	"github.com/kolkov/syncprim/internal/runlog"
)

type channelParams struct {
	Senders   int `json:"senders"`
	PerSender int `json:"per_sender"`
}

// channelCommand implements 'syncprim channel'.
func channelCommand(e *env, args []string) error {
	var (
		c   common
		cfg lab.FanInConfig
	)
	fs := newFlagSet(e, "channel", &c)
	fs.IntVar(&cfg.Senders, "senders", 10, "cloned senders (the original sends too)")
	fs.IntVar(&cfg.PerSender, "per", 1000, "values sent by each sender")
	if err := parse(fs, args); err != nil {
		return err
	}
	cfg.Log = e.log

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rec, err := openRecorder(e, c.database)
	if err != nil {
		return err
	}
	defer rec.Close()

	params := channelParams{Senders: cfg.Senders, PerSender: cfg.PerSender}
	for i := range c.runs {
		res, err := lab.FanIn(ctx, cfg)
		if err != nil {
			return fmt.Errorf("run %d: %w", i+1, err)
		}

		run, err := runlog.NewRun("channel", params)
		if err != nil {
			return err
		}
		run.Exact, run.Lost, run.Duration = res.Complete, res.Expected-res.Received, res.Duration
		if err := rec.record(ctx, run); err != nil {
			return err
		}

		if c.jsonOut {
			if err := writeJSON(e, res); err != nil {
				return err
			}
			continue
		}
		fmt.Fprintf(e.stdout, "run %d: senders=%d received=%d/%d complete=%v in %v\n",
			i+1, res.Senders, res.Received, res.Expected, res.Complete, res.Duration)
	}
	return nil
}
