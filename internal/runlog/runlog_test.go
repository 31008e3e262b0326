package runlog

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/kolkov/syncprim/race"
)

type counterParams struct {
	Tier       string `json:"tier"`
	Threads    int    `json:"threads"`
	Iterations int    `json:"iterations"`
}

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestFingerprint(t *testing.T) {
	a := counterParams{"relaxed", 100, 1000}
	b := counterParams{"acqrel", 100, 1000}

	fa1, enc, err := Fingerprint("mutex", a)
	if err != nil {
		t.Fatal(err)
	}
	fa2, _, _ := Fingerprint("mutex", a)
	fb, _, _ := Fingerprint("mutex", b)
	fc, _, _ := Fingerprint("channel", a)

	if fa1 != fa2 {
		t.Errorf("fingerprint not stable: %s vs %s", fa1, fa2)
	}
	if fa1 == fb || fa1 == fc {
		t.Error("different configurations share a fingerprint")
	}
	if len(fa1) != 16 {
		t.Errorf("fingerprint length = %d, want 16", len(fa1))
	}
	if want := `{"tier":"relaxed","threads":100,"iterations":1000}`; enc != want {
		t.Errorf("encoded = %s, want %s", enc, want)
	}
}

func TestRecordAndSummary(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	params := counterParams{"relaxed", 4, 10}
	outcomes := []struct {
		lost  int
		races int
	}{{0, 3}, {2, 3}, {0, 5}, {4, 1}}

	var fp string
	for _, o := range outcomes {
		r, err := NewRun("mutex", params)
		if err != nil {
			t.Fatal(err)
		}
		fp = r.Fingerprint
		r.Lost, r.Races, r.Exact = o.lost, o.races, o.lost == 0
		r.Duration = time.Millisecond
		if _, err := s.Record(ctx, r); err != nil {
			t.Fatal(err)
		}
	}

	sum, err := s.Summary(ctx, "mutex", fp)
	if err != nil {
		t.Fatal(err)
	}
	if sum.Runs != 4 || sum.Exact != 2 || sum.MaxLost != 4 {
		t.Errorf("summary = %+v", sum)
	}
	if sum.MeanLost != 1.5 || sum.MeanRaces != 3 {
		t.Errorf("means = %v/%v, want 1.5/3", sum.MeanLost, sum.MeanRaces)
	}
	if sum.ExactRatio() != 0.5 {
		t.Errorf("ExactRatio() = %v, want 0.5", sum.ExactRatio())
	}
	if sum.Total != 4*time.Millisecond {
		t.Errorf("total = %v, want 4ms", sum.Total)
	}
	if sum.Params != `{"tier":"relaxed","threads":4,"iterations":10}` {
		t.Errorf("params = %s", sum.Params)
	}
}

func TestSummaryNotFound(t *testing.T) {
	s := openTemp(t)
	_, err := s.Summary(context.Background(), "mutex", "0000000000000000")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSummaries(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	for _, tier := range []string{"relaxed", "acqrel", "relaxed"} {
		r, err := NewRun("mutex", counterParams{tier, 2, 2})
		if err != nil {
			t.Fatal(err)
		}
		r.Exact = true
		if _, err := s.Record(ctx, r); err != nil {
			t.Fatal(err)
		}
	}
	r, _ := NewRun("channel", map[string]int{"senders": 3})
	if _, err := s.Record(ctx, r); err != nil {
		t.Fatal(err)
	}

	sums, err := s.Summaries(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(sums) != 3 {
		t.Fatalf("got %d summaries, want 3", len(sums))
	}
	if sums[0].Experiment != "channel" {
		t.Errorf("first experiment = %s, want channel", sums[0].Experiment)
	}
	if sums[1].Runs != 2 || sums[2].Runs != 1 {
		t.Errorf("mutex runs = %d/%d, want 2/1 (most recent first)", sums[1].Runs, sums[2].Runs)
	}
}

func TestListAndVersions(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	batch := NewBatch()
	versions := []string{race.Version, "v0.1.0", "v9.0.0"}
	for _, v := range versions {
		r, _ := NewRun("litmus", map[string]string{"kind": "acqrel"})
		r.Version = v
		r.Batch = batch
		if _, err := s.Record(ctx, r); err != nil {
			t.Fatal(err)
		}
	}

	runs, err := s.List(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 3 {
		t.Fatalf("got %d runs, want 3", len(runs))
	}
	want := []bool{false, true, true} // newest first
	for i, r := range runs {
		if r.Batch != batch {
			t.Errorf("run %d batch = %q, want %q", r.ID, r.Batch, batch)
		}
		if r.Compatible != want[i] {
			t.Errorf("run %d (%s) compatible = %v, want %v", r.ID, r.Version, r.Compatible, want[i])
		}
	}

	limited, err := s.List(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 1 || limited[0].Version != "v9.0.0" {
		t.Errorf("List(1) = %+v", limited)
	}
}

func TestRecordRejectsBadVersion(t *testing.T) {
	s := openTemp(t)
	r, _ := NewRun("mutex", counterParams{})
	r.Version = "latest"
	if _, err := s.Record(context.Background(), r); !errors.Is(err, ErrBadVersion) {
		t.Errorf("err = %v, want ErrBadVersion", err)
	}
}

func TestOpenBadPath(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing", "dir", "runs.db"))
	if err == nil {
		t.Error("Open succeeded in a missing directory")
	}
}

func TestNewBatch(t *testing.T) {
	a, b := NewBatch(), NewBatch()
	if a == b {
		t.Errorf("NewBatch() returned %s twice", a)
	}
	if len(a) != 36 {
		t.Errorf("batch %q is not a canonical UUID", a)
	}
}
