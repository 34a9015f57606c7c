package store

import (
	"context"
	"errors"
	"testing"

	"tap-analytics-service/internal/analysis"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingDB struct {
	execSQL  string
	execArgs []any
	execErr  error
}

func (d *recordingDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	d.execSQL, d.execArgs = sql, args
	return pgconn.CommandTag{}, d.execErr
}

func (d *recordingDB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("not used")
}

func (d *recordingDB) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults {
	panic("not used")
}

func TestSaveRunFillsDefaults(t *testing.T) {
	db := &recordingDB{}
	run, err := NewResultStore(db).SaveRun(context.Background(), Run{ClientID: "melrose", Kind: "advanced"})
	require.NoError(t, err)

	assert.Len(t, run.ID, 36)
	assert.False(t, run.CreatedAt.IsZero())
	assert.Equal(t, `{}`, string(run.Payload))
	require.Len(t, db.execArgs, 6)
	assert.Equal(t, "melrose", db.execArgs[1])
}

func TestSaveRunWrapsError(t *testing.T) {
	db := &recordingDB{execErr: errors.New("boom")}
	_, err := NewResultStore(db).SaveRun(context.Background(), Run{ClientID: "melrose"})
	assert.ErrorContains(t, err, "insert run")
}

func TestTableBatchOrdersByName(t *testing.T) {
	tables := map[string]analysis.TableResult{
		"waste_efficiency": {Data: []map[string]any{{"Server": "Ann"}, {"Server": "Bob"}}},
		"dow_analysis":     {Data: []map[string]any{{"DayOfWeek": "Monday"}}},
		"empty":            {},
	}
	batch, n, err := tableBatch("run-1", "2024-06", tables)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	require.Equal(t, 3, batch.Len())

	first := batch.QueuedQueries[0]
	assert.Equal(t, "dow_analysis", first.Arguments[1])
	assert.Equal(t, 0, first.Arguments[2])
	assert.JSONEq(t, `{"DayOfWeek":"Monday"}`, string(first.Arguments[4].([]byte)))

	last := batch.QueuedQueries[2]
	assert.Equal(t, "waste_efficiency", last.Arguments[1])
	assert.Equal(t, 1, last.Arguments[2])
	assert.Equal(t, "2024-06", last.Arguments[3])
}
