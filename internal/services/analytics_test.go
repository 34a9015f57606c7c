package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"tap-analytics-service/internal/advanced"
	"tap-analytics-service/internal/analysis"
	"tap-analytics-service/internal/config"
	"tap-analytics-service/internal/dataset"
	"tap-analytics-service/internal/daterange"
	"tap-analytics-service/internal/loader"
	"tap-analytics-service/internal/schema"
	"tap-analytics-service/internal/storage"
	"tap-analytics-service/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLoader struct {
	files      []storage.ObjectInfo
	table      dataset.Table
	advanced   advanced.Tables
	err        error
	loads      int
	lastWindow *daterange.Window
}

func (f *fakeLoader) ClientRawFiles(_ context.Context, _, _ string, window *daterange.Window) ([]storage.ObjectInfo, error) {
	f.lastWindow = window
	if f.err != nil {
		return nil, f.err
	}
	return f.files, nil
}

func (f *fakeLoader) LoadFiles(_ context.Context, clientID string, files []storage.ObjectInfo) (dataset.Table, loader.Metadata, error) {
	f.loads++
	paths := make([]string, len(files))
	for i, file := range files {
		paths[i] = file.Key
	}
	return f.table, loader.Metadata{ClientID: clientID, Paths: paths, Rows: f.table.Len()}, nil
}

func (f *fakeLoader) LoadAdvancedTables(_ context.Context, clientID, _ string) (advanced.Tables, loader.Metadata, error) {
	if f.err != nil {
		return advanced.Tables{}, loader.Metadata{}, f.err
	}
	return f.advanced, loader.Metadata{ClientID: clientID, Paths: []string{"Melrose/June_sales.csv"}}, nil
}

type fakeStore struct {
	runs   []store.Run
	tables map[string]analysis.TableResult
}

func (f *fakeStore) SaveRun(_ context.Context, run store.Run) (store.Run, error) {
	run.ID = "run-1"
	f.runs = append(f.runs, run)
	return run, nil
}

func (f *fakeStore) SaveTables(_ context.Context, _, _ string, tables map[string]analysis.TableResult) (int, error) {
	f.tables = tables
	n := 0
	for _, t := range tables {
		n += len(t.Data)
	}
	return n, nil
}

func (f *fakeStore) ListRuns(_ context.Context, clientID string, _ int) ([]store.Run, error) {
	var out []store.Run
	for _, r := range f.runs {
		if r.ClientID == clientID {
			out = append(out, r)
		}
	}
	return out, nil
}

func newTestAnalytics(l ClientLoader, st RunStore) *Analytics {
	return NewAnalytics(l, config.NewLiveProfile(config.DefaultProfile()), st, time.Minute, nil)
}

func itemTable() dataset.Table {
	return dataset.FromRecords([][]string{
		{"Item", "Amount"},
		{"Burger", "10"},
		{"Fries", "5"},
	})
}

func TestStandardRunsAndCaches(t *testing.T) {
	l := &fakeLoader{
		files: []storage.ObjectInfo{{Key: "Melrose/June.csv", LastModified: time.Unix(100, 0)}},
		table: itemTable(),
	}
	a := newTestAnalytics(l, nil)

	out, err := a.Standard(context.Background(), "Melrose", daterange.Params{})
	require.NoError(t, err)
	assert.Equal(t, "Melrose", out.Folder)
	assert.Equal(t, []string{"Melrose/June.csv"}, out.Sources)
	revenue, ok := out.KPIs.Get(analysis.KPIRevenue)
	require.True(t, ok)
	assert.Equal(t, 15.0, revenue)

	_, err = a.Standard(context.Background(), "Melrose", daterange.Params{})
	require.NoError(t, err)
	assert.Equal(t, 1, l.loads)

	l.files[0].LastModified = time.Unix(200, 0)
	_, err = a.Standard(context.Background(), "Melrose", daterange.Params{})
	require.NoError(t, err)
	assert.Equal(t, 2, l.loads)
}

func TestStandardMonthWindow(t *testing.T) {
	l := &fakeLoader{files: []storage.ObjectInfo{{Key: "Melrose/June.csv"}}, table: itemTable()}
	a := newTestAnalytics(l, nil)

	_, err := a.Standard(context.Background(), "melrose", daterange.Params{Start: "2024-06-01", End: "2024-07-01"})
	require.NoError(t, err)
	require.NotNil(t, l.lastWindow)
	assert.Equal(t, "2024-06-01", l.lastWindow.Start)

	_, err = a.Standard(context.Background(), "melrose", daterange.Params{Start: "2024-06-01", End: "2024-07-01", Preset: "7d"})
	require.NoError(t, err)
	assert.Nil(t, l.lastWindow)
}

func TestStandardErrors(t *testing.T) {
	a := newTestAnalytics(&fakeLoader{err: loader.ErrNoFiles}, nil)

	_, err := a.Standard(context.Background(), "downtown", daterange.Params{})
	assert.ErrorIs(t, err, config.ErrUnknownClient)

	_, err = a.Standard(context.Background(), "fancy", daterange.Params{})
	assert.ErrorIs(t, err, loader.ErrNoFiles)
}

func TestAdvancedAndPersist(t *testing.T) {
	sales := dataset.FromRecords([][]string{
		{"Server", "Net Price", "Menu Item", "Sales Category", "Check Id", "Order Date"},
		{"Ann", "400", "Grey Goose BTL", "Liquor", "C1", "2024-06-14 20:00:00"},
		{"Ann", "20", "Wings", "Food", "C1", "2024-06-14 20:05:00"},
	})
	st := &fakeStore{}
	a := newTestAnalytics(&fakeLoader{advanced: advanced.Tables{Sales: sales}}, st)

	out, err := a.Advanced(context.Background(), "bestregard")
	require.NoError(t, err)
	assert.Equal(t, "Bestregard", out.Folder)
	assert.Contains(t, out.KPIs, "bottle_conversion_pct")
	require.NotEmpty(t, out.Tables)

	saved, err := a.Persist(context.Background(), out.ClientID, KindAdvanced, "2024-06", out, out.Tables)
	require.NoError(t, err)
	assert.Equal(t, "run-1", saved.RunID)
	assert.Equal(t, "2024-06", saved.ReportPeriod)
	assert.Positive(t, saved.Rows)
	require.Len(t, st.runs, 1)
	assert.Equal(t, KindAdvanced, st.runs[0].Kind)
	assert.Equal(t, "bestregard", st.runs[0].ClientID)
	assert.Contains(t, string(st.runs[0].Payload), `"folder":"Bestregard"`)

	runs, err := a.Runs(context.Background(), "bestregard", 10)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestStandardCacheFollowsProfileAndCallerCasing(t *testing.T) {
	l := &fakeLoader{
		files: []storage.ObjectInfo{{Key: "Melrose/June.csv", LastModified: time.Unix(100, 0)}},
		table: itemTable(),
	}
	live := config.NewLiveProfile(config.DefaultProfile())
	a := NewAnalytics(l, live, nil, time.Minute, nil)

	_, err := a.Standard(context.Background(), "Melrose", daterange.Params{})
	require.NoError(t, err)

	out, err := a.Standard(context.Background(), "MELROSE", daterange.Params{})
	require.NoError(t, err)
	assert.Equal(t, 1, l.loads)
	assert.Equal(t, "MELROSE", out.ClientID)

	reloaded := config.DefaultProfile()
	reloaded.Aliases.Roles[schema.RoleAmount] = []string{"price"}
	live.Set(reloaded)

	out, err = a.Standard(context.Background(), "melrose", daterange.Params{})
	require.NoError(t, err)
	assert.Equal(t, 2, l.loads)
	assert.Equal(t, "melrose", out.ClientID)
}

func TestProfileTag(t *testing.T) {
	base := config.DefaultProfile()
	assert.Equal(t, profileTag(base), profileTag(config.DefaultProfile()))
	assert.True(t, strings.HasPrefix(profileTag(base), base.Aliases.Version+"#"))

	bumped := config.DefaultProfile()
	bumped.Thresholds.WasteGood++
	assert.NotEqual(t, profileTag(base), profileTag(bumped))
}

func TestPersistWithoutStore(t *testing.T) {
	a := newTestAnalytics(&fakeLoader{}, nil)
	_, err := a.Persist(context.Background(), "melrose", KindStandard, "", nil, nil)
	assert.ErrorIs(t, err, ErrNoStore)
	_, err = a.Runs(context.Background(), "melrose", 10)
	assert.ErrorIs(t, err, ErrNoStore)
}

func TestCacheKeyAndExpiry(t *testing.T) {
	files := []storage.ObjectInfo{{Key: "a.csv", LastModified: time.Unix(0, 5)}}
	assert.Equal(t, "standard|melrose|v1|||30d|a.csv@5", cacheKey(KindStandard, "Melrose", "v1", daterange.Params{Preset: "30d"}, files))

	c := newResultCache(time.Millisecond)
	c.set("k", 1)
	time.Sleep(5 * time.Millisecond)
	_, ok := c.get("k")
	assert.False(t, ok)

	disabled := newResultCache(0)
	disabled.set("k", 1)
	_, ok = disabled.get("k")
	assert.False(t, ok)
}
