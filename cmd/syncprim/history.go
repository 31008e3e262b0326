package main

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"
)

// historyCommand implements 'syncprim history'.
func historyCommand(e *env, args []string) error {
	var (
		database string
		recent   int
	)
	fs := newFlagSet(e, "history", nil)
	fs.StringVar(&database, "db", e.getenv(envDB), "SQLite database (env "+envDB+")")
	fs.IntVar(&recent, "recent", 0, "also list the most recent runs")
	if err := parse(fs, args); err != nil {
		return err
	}
	if database == "" {
		return errors.New("history: no database; pass -db or set " + envDB)
	}

	rec, err := openRecorder(e, database)
	if err != nil {
		return err
	}
	defer rec.Close()

	ctx := context.Background()
	sums, err := rec.store.Summaries(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(e.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "EXPERIMENT\tCONFIG\tRUNS\tEXACT\tMEAN LOST\tMAX LOST\tMEAN RACES\tPARAMS")
	for _, s := range sums {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%.0f%%\t%.1f\t%d\t%.1f\t%s\n",
			s.Experiment, s.Fingerprint, s.Runs, 100*s.ExactRatio(), s.MeanLost, s.MaxLost, s.MeanRaces, s.Params)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if recent <= 0 {
		return nil
	}
	runs, err := rec.store.List(ctx, recent)
	if err != nil {
		return err
	}
	fmt.Fprintln(e.stdout)
	tw = tabwriter.NewWriter(e.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tBATCH\tEXPERIMENT\tCONFIG\tEXACT\tLOST\tRACES\tDURATION\tVERSION")
	for _, r := range runs {
		version := r.Version
		if !r.Compatible {
			version += " (newer)"
		}
		batch := r.Batch
		if len(batch) > 8 {
			batch = batch[:8]
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%v\t%d\t%d\t%v\t%s\n",
			r.ID, batch, r.Experiment, r.Fingerprint, r.Exact, r.Lost, r.Races, r.Duration, version)
	}
	return tw.Flush()
}
