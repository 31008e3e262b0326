package main

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"github.com/sugawarayuuta/sonnet"

	"github.com/kolkov/syncprim/internal/runlog"
)

// errUsage is returned after the flag package has already printed the
// problem and the command's usage.
var errUsage = errors.New("usage")

// common holds the flags shared by the experiment commands.
type common struct {
	runs     int
	jsonOut  bool
	database string
}

func newFlagSet(e *env, name string, c *common) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	if c != nil {
		fs.IntVar(&c.runs, "runs", 1, "number of runs")
		fs.BoolVar(&c.jsonOut, "json", false, "print one JSON object per run")
		fs.StringVar(&c.database, "db", e.getenv(envDB), "record runs in this SQLite database (env "+envDB+")")
	}
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(fs.Output(), "unexpected arguments: %v\n", fs.Args())
		fs.Usage()
		return errUsage
	}
	if f := fs.Lookup("runs"); f != nil {
		if n, _ := f.Value.(flag.Getter).Get().(int); n <= 0 {
			fmt.Fprintf(fs.Output(), "-runs must be positive, got %s\n", f.Value)
			fs.Usage()
			return errUsage
		}
	}
	return nil
}

func isSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

// recorder stores runs when a database is configured.
type recorder struct {
	store *runlog.Store
	batch string
}

func openRecorder(e *env, path string) (*recorder, error) {
	if path == "" {
		return &recorder{}, nil
	}
	s, err := runlog.Open(path, runlog.WithLogger(e.log))
	if err != nil {
		return nil, err
	}
	r := &recorder{store: s, batch: runlog.NewBatch()}
	e.log.Debug("recording runs in %s as batch %s", path, r.batch)
	return r, nil
}

func (r *recorder) record(ctx context.Context, run runlog.Run) error {
	if r.store == nil {
		return nil
	}
	run.Batch = r.batch
	_, err := r.store.Record(ctx, run)
	return err
}

func (r *recorder) summary(ctx context.Context, run runlog.Run) (runlog.Summary, bool, error) {
	if r.store == nil {
		return runlog.Summary{}, false, nil
	}
	s, err := r.store.Summary(ctx, run.Experiment, run.Fingerprint)
	return s, err == nil, err
}

func (r *recorder) Close() error {
	if r.store == nil {
		return nil
	}
	return r.store.Close()
}

func writeJSON(e *env, v any) error {
	b, err := sonnet.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	b = append(b, '\n')
	_, err = e.stdout.Write(b)
	return err
}

func printSummary(e *env, s runlog.Summary) {
	fmt.Fprintf(e.stdout, "history: %d runs of this configuration, %.0f%% exact, mean lost %.1f, max lost %d\n",
		s.Runs, 100*s.ExactRatio(), s.MeanLost, s.MaxLost)
}
