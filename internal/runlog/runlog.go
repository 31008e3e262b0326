// Package runlog keeps a history of experiment runs in SQLite so that
// statistical properties (lost updates of the unordered tier, exact totals
// of the relaxed tier) can be judged over many runs.
package runlog

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	uuid "github.com/satori/go.uuid"
	"github.com/sugawarayuuta/sonnet"
	"golang.org/x/crypto/sha3"
	"golang.org/x/mod/semver"

	"github.com/kolkov/syncprim/log"
	"github.com/kolkov/syncprim/race"
)

var (
	// ErrNotFound is returned when no run matches a query.
	ErrNotFound = errors.New("runlog: not found")
	// ErrBadVersion is returned when a run carries a version that is not
	// valid semver.
	ErrBadVersion = errors.New("runlog: invalid version")
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	batch       TEXT    NOT NULL DEFAULT '',
	experiment  TEXT    NOT NULL,
	fingerprint TEXT    NOT NULL,
	params      TEXT    NOT NULL,
	exact       INTEGER NOT NULL,
	lost        INTEGER NOT NULL,
	races       INTEGER NOT NULL,
	duration_ns INTEGER NOT NULL,
	version     TEXT    NOT NULL,
	created_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS runs_by_config ON runs (experiment, fingerprint);
`

// Run is one recorded experiment run.
type Run struct {
	ID int64
	// Batch groups the runs of one invocation; see NewBatch.
	Batch       string
	Experiment  string
	Fingerprint string
	// Params is the JSON encoding of the experiment configuration.
	Params   string
	Exact    bool
	Lost     int
	Races    int
	Duration time.Duration
	Version  string
	Created  time.Time

	// Compatible is set on read: false when the row was written by a newer
	// or foreign version of the tool.
	Compatible bool
}

// Summary aggregates the runs of one configuration.
type Summary struct {
	Experiment  string
	Fingerprint string
	Params      string
	Runs        int
	Exact       int
	MeanLost    float64
	MaxLost     int
	MeanRaces   float64
	Total       time.Duration
}

// ExactRatio returns the fraction of runs that lost nothing.
func (s Summary) ExactRatio() float64 {
	if s.Runs == 0 {
		return 0
	}
	return float64(s.Exact) / float64(s.Runs)
}

// Store is a run history backed by a SQLite database.
type Store struct {
	db  *sql.DB
	log log.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store's logger.
func WithLogger(l log.Logger) Option {
	return func(s *Store) { s.log = l }
}

// Open opens or creates the database at path.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("runlog: open %s: %w", path, err)
	}
	// Each connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("runlog: create schema in %s: %w", path, err)
	}

	s := &Store{db: db, log: log.Discard()}
	for _, opt := range opts {
		opt(s)
	}
	s.log.Debug("runlog: opened %s", path)
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Fingerprint identifies an experiment configuration: the first 16 hex
// digits of SHA3-256 over the experiment name and the JSON encoding of
// params. It also returns that encoding.
func Fingerprint(experiment string, params any) (fingerprint, encoded string, err error) {
	b, err := sonnet.Marshal(params)
	if err != nil {
		return "", "", fmt.Errorf("runlog: encode params: %w", err)
	}
	h := sha3.New256()
	h.Write([]byte(experiment))
	h.Write([]byte{0})
	h.Write(b)
	return hex.EncodeToString(h.Sum(nil))[:16], string(b), nil
}

// NewBatch returns a fresh batch id.
func NewBatch() string {
	return uuid.NewV4().String()
}

// NewRun builds a Run for experiment with params, stamped with the current
// tool version and time.
func NewRun(experiment string, params any) (Run, error) {
	fp, encoded, err := Fingerprint(experiment, params)
	if err != nil {
		return Run{}, err
	}
	return Run{
		Experiment:  experiment,
		Fingerprint: fp,
		Params:      encoded,
		Version:     race.Version,
		Created:     time.Now(),
	}, nil
}

// Record stores r and returns its id.
func (s *Store) Record(ctx context.Context, r Run) (int64, error) {
	if !semver.IsValid(r.Version) {
		return 0, fmt.Errorf("%w: %q", ErrBadVersion, r.Version)
	}
	if r.Created.IsZero() {
		r.Created = time.Now()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (batch, experiment, fingerprint, params, exact, lost, races, duration_ns, version, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Batch, r.Experiment, r.Fingerprint, r.Params, r.Exact, r.Lost, r.Races,
		int64(r.Duration), r.Version, r.Created.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("runlog: record %s: %w", r.Experiment, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("runlog: record %s: %w", r.Experiment, err)
	}
	s.log.Debug("runlog: recorded run %d of %s/%s", id, r.Experiment, r.Fingerprint)
	return id, nil
}

// List returns the most recent runs, newest first. limit <= 0 means all.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, batch, experiment, fingerprint, params, exact, lost, races, duration_ns, version, created_at
		 FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("runlog: list: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r        Run
			duration int64
			created  int64
		)
		if err := rows.Scan(&r.ID, &r.Batch, &r.Experiment, &r.Fingerprint, &r.Params, &r.Exact,
			&r.Lost, &r.Races, &duration, &r.Version, &created); err != nil {
			return nil, fmt.Errorf("runlog: list: %w", err)
		}
		r.Duration = time.Duration(duration)
		r.Created = time.Unix(0, created)
		r.Compatible = race.Compatible(r.Version)
		if !r.Compatible {
			s.log.Warn("runlog: run %d was written by version %s, this is %s", r.ID, r.Version, race.Version)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("runlog: list: %w", err)
	}
	return runs, nil
}

// Summary aggregates the runs of one configuration. It returns ErrNotFound
// if there are none.
func (s *Store) Summary(ctx context.Context, experiment, fingerprint string) (Summary, error) {
	row := s.db.QueryRowContext(ctx, summaryQuery+` WHERE experiment = ? AND fingerprint = ? GROUP BY experiment, fingerprint`,
		experiment, fingerprint)
	sum, err := scanSummary(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Summary{}, fmt.Errorf("%w: %s/%s", ErrNotFound, experiment, fingerprint)
	}
	if err != nil {
		return Summary{}, fmt.Errorf("runlog: summary %s/%s: %w", experiment, fingerprint, err)
	}
	return sum, nil
}

// Summaries aggregates every configuration, ordered by experiment and most
// recent run.
func (s *Store) Summaries(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, summaryQuery+` GROUP BY experiment, fingerprint ORDER BY experiment, MAX(id) DESC`)
	if err != nil {
		return nil, fmt.Errorf("runlog: summaries: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		sum, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("runlog: summaries: %w", err)
		}
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("runlog: summaries: %w", err)
	}
	return out, nil
}

const summaryQuery = `SELECT experiment, fingerprint, MAX(params), COUNT(*), SUM(exact),
	AVG(lost), MAX(lost), AVG(races), SUM(duration_ns) FROM runs`

type scanner interface {
	Scan(dest ...any) error
}

func scanSummary(sc scanner) (Summary, error) {
	var (
		s     Summary
		total int64
	)
	err := sc.Scan(&s.Experiment, &s.Fingerprint, &s.Params, &s.Runs, &s.Exact,
		&s.MeanLost, &s.MaxLost, &s.MeanRaces, &total)
	if err != nil {
		return Summary{}, err
	}
	s.Total = time.Duration(total)
	return s, nil
}
