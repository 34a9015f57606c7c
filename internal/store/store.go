// Package store persists analysis runs and their table rows to Postgres.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"tap-analytics-service/internal/analysis"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of pgxpool.Pool the store uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

type Run struct {
	ID           string          `json:"id"`
	ClientID     string          `json:"clientId"`
	Kind         string          `json:"kind"`
	ReportPeriod string          `json:"reportPeriod"`
	CreatedAt    time.Time       `json:"createdAt"`
	Payload      json.RawMessage `json:"payload,omitempty"`
}

type ResultStore struct {
	db DB
}

func NewResultStore(db DB) *ResultStore {
	return &ResultStore{db: db}
}

// SaveRun inserts a run, assigning an id and timestamp when unset.
func (s *ResultStore) SaveRun(ctx context.Context, run Run) (Run, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	if len(run.Payload) == 0 {
		run.Payload = json.RawMessage(`{}`)
	}
	_, err := s.db.Exec(ctx, `
		insert into analysis_runs (id, client_id, kind, report_period, created_at, payload)
		values ($1, $2, $3, $4, $5, $6)
	`, run.ID, run.ClientID, run.Kind, run.ReportPeriod, run.CreatedAt, []byte(run.Payload))
	if err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// SaveTables writes every row of every table in one batch. Tables go in
// name order and rows keep their index.
func (s *ResultStore) SaveTables(ctx context.Context, runID, reportPeriod string, tables map[string]analysis.TableResult) (int, error) {
	batch, n, err := tableBatch(runID, reportPeriod, tables)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, nil
	}

	br := s.db.SendBatch(ctx, batch)
	defer br.Close()
	for i := 0; i < n; i++ {
		if _, err := br.Exec(); err != nil {
			return i, fmt.Errorf("insert table row %d: %w", i, err)
		}
	}
	return n, nil
}

func tableBatch(runID, reportPeriod string, tables map[string]analysis.TableResult) (*pgx.Batch, int, error) {
	names := make([]string, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}
	sort.Strings(names)

	batch := &pgx.Batch{}
	n := 0
	for _, name := range names {
		for i, row := range tables[name].Data {
			body, err := json.Marshal(row)
			if err != nil {
				return nil, 0, fmt.Errorf("encode %s row %d: %w", name, i, err)
			}
			batch.Queue(`
				insert into analysis_table_rows (run_id, table_name, row_index, report_period, row)
				values ($1, $2, $3, $4, $5)
			`, runID, name, i, reportPeriod, body)
			n++
		}
	}
	return batch, n, nil
}

// ListRuns returns the most recent runs for a client, newest first,
// without payloads.
func (s *ResultStore) ListRuns(ctx context.Context, clientID string, limit int) ([]Run, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := s.db.Query(ctx, `
		select id::text, client_id, kind, report_period, created_at
		from analysis_runs
		where client_id = $1
		order by created_at desc
		limit $2
	`, clientID, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.ClientID, &r.Kind, &r.ReportPeriod, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
