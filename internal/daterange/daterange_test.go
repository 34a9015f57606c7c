package daterange

import (
	"testing"
	"time"

	"tap-analytics-service/internal/dataset"
	"tap-analytics-service/internal/schema"
)

func TestPresetWindow(t *testing.T) {
	maxDate := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		preset string
		start  string
		end    string
	}{
		{preset: "30d", start: "2024-05-17", end: "2024-06-16"},
		{preset: "1d", start: "2024-06-15", end: "2024-06-16"},
		{preset: "2w", start: "2024-06-02", end: "2024-06-16"},
		{preset: "1y", start: "2023-06-17", end: "2024-06-16"},
		{preset: "weird", start: "2024-05-17", end: "2024-06-16"},
		{preset: "xd", start: "2024-05-17", end: "2024-06-16"},
	}

	for _, tc := range cases {
		t.Run(tc.preset, func(t *testing.T) {
			start, end := PresetWindow(tc.preset, maxDate, nil)
			if start != tc.start || end != tc.end {
				t.Fatalf("expected %s..%s, got %s..%s", tc.start, tc.end, start, end)
			}
		})
	}
}

func TestResolvePresetWins(t *testing.T) {
	maxDate := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	w, ok := Resolve(Params{Preset: "7d", Start: "2024-01-01", End: "2024-01-31"}, &maxDate, nil)
	if !ok {
		t.Fatalf("expected a window")
	}
	if w.Start != "2024-06-09" || w.End != "2024-06-16" {
		t.Fatalf("expected preset window, got %+v", w)
	}
}

func TestResolveFallbacks(t *testing.T) {
	if _, ok := Resolve(Params{Preset: "7d"}, nil, nil); ok {
		t.Fatalf("expected no window without a max date")
	}
	w, ok := Resolve(Params{Start: "2024-01-01", End: "2024-01-31"}, nil, nil)
	if !ok || w.Start != "2024-01-01" || w.End != "2024-01-31" {
		t.Fatalf("expected explicit bounds, got %+v", w)
	}
	if _, ok := Resolve(Params{Start: "2024-01-01"}, nil, nil); ok {
		t.Fatalf("expected half-open bounds to be ignored")
	}
}

func TestApplyBoundaries(t *testing.T) {
	table := dataset.New([]string{"Order Date"}, []dataset.Row{
		{"Order Date": "2024-01-01 00:00:00"},
		{"Order Date": "2024-01-15 12:00:00"},
		{"Order Date": "2024-01-31 00:00:00"},
		{"Order Date": "2023-12-31 23:59:59"},
		{"Order Date": "garbage"},
	})

	out := Apply(table, "Order Date", "2024-01-01", "2024-01-31", nil)
	if out.Len() != 2 {
		t.Fatalf("expected 2 rows, got %d", out.Len())
	}
	if out.Rows[0]["Order Date"] != "2024-01-01 00:00:00" {
		t.Fatalf("expected start-day row to be kept")
	}
	if table.Len() != 5 {
		t.Fatalf("expected input table untouched")
	}
}

func TestApplyNonFatal(t *testing.T) {
	table := dataset.New([]string{"Order Date"}, []dataset.Row{{"Order Date": "nope"}, {"Order Date": "still nope"}})
	cases := []struct {
		name  string
		col   string
		start string
		end   string
	}{
		{name: "missing column", col: "Sent Date", start: "2024-01-01", end: "2024-02-01"},
		{name: "no valid dates", col: "Order Date", start: "2024-01-01", end: "2024-02-01"},
		{name: "bad bounds", col: "Order Date", start: "soon", end: "later"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := Apply(table, tc.col, tc.start, tc.end, nil)
			if out.Len() != table.Len() {
				t.Fatalf("expected %d rows, got %d", table.Len(), out.Len())
			}
		})
	}
}

func TestFindDateColumn(t *testing.T) {
	candidates := schema.DefaultAliases().DateCandidates
	headers := []string{"Date", "Check Closed", "Sent Date"}

	if got := FindDateColumn(headers, "Check Closed", candidates); got.Header() != "Check Closed" {
		t.Fatalf("expected preferred column, got %s", got)
	}
	if got := FindDateColumn(headers, "Missing", candidates); got.Header() != "Sent Date" {
		t.Fatalf("expected Sent Date, got %s", got)
	}
	if got := FindDateColumn([]string{"amount"}, "", candidates); got.OK() {
		t.Fatalf("expected unresolved, got %s", got)
	}
}

func TestMonthsInRange(t *testing.T) {
	got := MonthsInRange("2024-10-15", "2024-12-01")
	expected := []time.Month{time.October, time.November}
	if len(got) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, got)
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Fatalf("expected %v, got %v", expected, got)
		}
	}
	if MonthsInRange("2024-02-01", "2024-01-01") != nil {
		t.Fatalf("expected nil for inverted range")
	}
}
