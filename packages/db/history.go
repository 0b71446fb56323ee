package db

import (
	"context"
	"fmt"
	"time"

	"github.com/abdul-hamid-achik/hitassert/packages/core/runner"
	"github.com/google/uuid"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		id          TEXT PRIMARY KEY,
		file        TEXT NOT NULL,
		started_at  INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		passed      INTEGER NOT NULL,
		failed      INTEGER NOT NULL,
		errored     INTEGER NOT NULL,
		skipped     INTEGER NOT NULL,
		p50_us      INTEGER NOT NULL,
		p95_us      INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS requests (
		run_id      TEXT NOT NULL REFERENCES runs(id),
		position    INTEGER NOT NULL,
		name        TEXT NOT NULL,
		outcome     TEXT NOT NULL,
		status      INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		message     TEXT NOT NULL,
		PRIMARY KEY (run_id, position)
	)`,
	`CREATE INDEX IF NOT EXISTS runs_started_at ON runs(started_at)`,
}

// RunRecord is one stored run of a suite file.
type RunRecord struct {
	ID        string
	File      string
	StartedAt time.Time
	Duration  time.Duration
	Passed    int
	Failed    int
	Errored   int
	Skipped   int
	P50       time.Duration
	P95       time.Duration
	Requests  []RequestRecord
}

// RequestRecord is the stored outcome of one request.
type RequestRecord struct {
	Name     string
	Outcome  string
	Status   int
	Duration time.Duration
	Message  string
}

// Success reports whether nothing failed or errored.
func (r RunRecord) Success() bool {
	return r.Failed == 0 && r.Errored == 0
}

// FromResult converts a run result into a record. The ID is assigned by
// RecordRun.
func FromResult(result *runner.RunResult, startedAt time.Time) RunRecord {
	rec := RunRecord{
		File:      result.File,
		StartedAt: startedAt,
		Duration:  result.Duration,
		Passed:    result.Passed,
		Failed:    result.Failed,
		Errored:   result.Errored,
		Skipped:   result.Skipped,
		P50:       result.Latency.P50,
		P95:       result.Latency.P95,
	}
	for _, r := range result.Results {
		req := RequestRecord{Name: r.Name, Duration: r.Duration}
		if r.Response != nil {
			req.Status = r.Response.StatusCode
		}
		switch {
		case r.Skipped:
			req.Outcome = "skipped"
			req.Message = r.SkipReason
		case r.Error != nil:
			req.Outcome = "errored"
			req.Message = r.Error.Error()
		case r.Passed:
			req.Outcome = "passed"
		default:
			req.Outcome = "failed"
			for _, a := range r.Assertions {
				if !a.Passed {
					req.Message = a.Message
					break
				}
			}
		}
		rec.Requests = append(rec.Requests, req)
	}
	return rec
}

// RecordRun stores rec and its requests in one transaction and returns the
// generated run ID.
func (c *Client) RecordRun(ctx context.Context, rec RunRecord) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.queryTimeout)
	defer cancel()

	id := uuid.NewString()
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, file, started_at, duration_ms, passed, failed, errored, skipped, p50_us, p95_us)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, rec.File, rec.StartedAt.UnixMilli(), rec.Duration.Milliseconds(),
		rec.Passed, rec.Failed, rec.Errored, rec.Skipped,
		rec.P50.Microseconds(), rec.P95.Microseconds())
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	for i, req := range rec.Requests {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO requests (run_id, position, name, outcome, status, duration_ms, message)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			id, i, req.Name, req.Outcome, req.Status, req.Duration.Milliseconds(), req.Message)
		if err != nil {
			return "", fmt.Errorf("insert request %s: %w", req.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

// RecentRuns returns up to n runs, newest first, without their requests.
func (c *Client) RecentRuns(ctx context.Context, n int) ([]RunRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, c.queryTimeout)
	defer cancel()

	rows, err := c.db.QueryContext(ctx,
		`SELECT id, file, started_at, duration_ms, passed, failed, errored, skipped, p50_us, p95_us
		 FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var (
			rec            RunRecord
			started, durMs int64
			p50, p95       int64
		)
		if err := rows.Scan(&rec.ID, &rec.File, &started, &durMs,
			&rec.Passed, &rec.Failed, &rec.Errored, &rec.Skipped, &p50, &p95); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		rec.StartedAt = time.UnixMilli(started)
		rec.Duration = time.Duration(durMs) * time.Millisecond
		rec.P50 = time.Duration(p50) * time.Microsecond
		rec.P95 = time.Duration(p95) * time.Microsecond
		runs = append(runs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return runs, nil
}

// RunRequests returns the stored requests of a run in execution order.
func (c *Client) RunRequests(ctx context.Context, runID string) ([]RequestRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, c.queryTimeout)
	defer cancel()

	rows, err := c.db.QueryContext(ctx,
		`SELECT name, outcome, status, duration_ms, message FROM requests WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var out []RequestRecord
	for rows.Next() {
		var (
			req   RequestRecord
			durMs int64
		)
		if err := rows.Scan(&req.Name, &req.Outcome, &req.Status, &durMs, &req.Message); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		req.Duration = time.Duration(durMs) * time.Millisecond
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return out, nil
}
