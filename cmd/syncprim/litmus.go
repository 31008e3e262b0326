package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/kolkov/syncprim/internal/lab"
	"github.com/kolkov/syncprim/internal/runlog"
)

// litmusCommand implements 'syncprim litmus'. -runs is the number of
// rounds (default 1000); the whole batch is recorded as one run whose lost count is the
// number of z == 0 outcomes.
func litmusCommand(e *env, args []string) error {
	var (
		c       common
		kindArg string
	)
	fs := newFlagSet(e, "litmus", &c)
	fs.StringVar(&kindArg, "kind", string(lab.LitmusAcqRel), "relaxed, acqrel or seqcst")
	if err := parse(fs, args); err != nil {
		return err
	}
	if !isSet(fs, "runs") {
		c.runs = 1000
	}

	kind, err := lab.ParseLitmus(kindArg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rec, err := openRecorder(e, c.database)
	if err != nil {
		return err
	}
	defer rec.Close()

	res, err := lab.Litmus(ctx, lab.LitmusConfig{Kind: kind, Runs: c.runs})
	if err != nil {
		return err
	}
	e.log.Debug("litmus: %s %s", kind, res)

	run, err := runlog.NewRun("litmus", map[string]any{"kind": string(kind), "runs": c.runs})
	if err != nil {
		return err
	}
	run.Exact, run.Lost, run.Duration = res.Violations == 0, res.Violations, res.Duration
	if err := rec.record(ctx, run); err != nil {
		return err
	}

	if c.jsonOut {
		return writeJSON(e, res)
	}
	fmt.Fprintf(e.stdout, "%s x%d: %s\n", res.Kind, res.Runs, res)
	if kind != lab.LitmusRelaxed {
		fmt.Fprintf(e.stdout, "z == 0 observed %d times\n", res.Violations)
	}
	return nil
}
