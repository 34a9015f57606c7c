package dataset

import (
	"testing"
	"time"
)

func TestFloat(t *testing.T) {
	cases := []struct {
		name     string
		in       any
		expected float64
		ok       bool
	}{
		{name: "plain", in: "12.5", expected: 12.5, ok: true},
		{name: "currency with separators", in: "$1,234.50", expected: 1234.5, ok: true},
		{name: "accounting negative", in: "($20.00)", expected: -20, ok: true},
		{name: "negative dollar", in: "-$3.25", expected: -3.25, ok: true},
		{name: "native float", in: 7.0, expected: 7, ok: true},
		{name: "int", in: 3, expected: 3, ok: true},
		{name: "garbage", in: "n/a", ok: false},
		{name: "empty", in: "  ", ok: false},
		{name: "nil", in: nil, ok: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := Float(tc.in)
			if ok != tc.ok {
				t.Fatalf("expected ok=%v, got %v", tc.ok, ok)
			}
			if ok && got != tc.expected {
				t.Fatalf("expected %v, got %v", tc.expected, got)
			}
		})
	}
}

func TestTruthy(t *testing.T) {
	cases := []struct {
		in       any
		expected bool
	}{
		{in: true, expected: true},
		{in: false, expected: false},
		{in: "True", expected: true},
		{in: "no", expected: false},
		{in: "1", expected: true},
		{in: "0", expected: false},
		{in: 0.0, expected: false},
		{in: 2, expected: true},
		{in: "void", expected: true},
		{in: nil, expected: false},
		{in: "", expected: false},
	}

	for _, tc := range cases {
		if got := Truthy(tc.in); got != tc.expected {
			t.Fatalf("Truthy(%#v): expected %v, got %v", tc.in, tc.expected, got)
		}
	}
}

func TestTime(t *testing.T) {
	cases := []struct {
		in       string
		expected time.Time
	}{
		{in: "2024-06-15", expected: time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)},
		{in: "2024-06-15 18:30:00", expected: time.Date(2024, 6, 15, 18, 30, 0, 0, time.UTC)},
		{in: "6/15/2024 18:30", expected: time.Date(2024, 6, 15, 18, 30, 0, 0, time.UTC)},
		{in: "6/15/24 6:30 PM", expected: time.Date(2024, 6, 15, 18, 30, 0, 0, time.UTC)},
		{in: "2024-06-15T18:30:00Z", expected: time.Date(2024, 6, 15, 18, 30, 0, 0, time.UTC)},
	}

	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, ok := Time(tc.in)
			if !ok {
				t.Fatalf("expected %q to parse", tc.in)
			}
			if !got.Equal(tc.expected) {
				t.Fatalf("expected %s, got %s", tc.expected, got)
			}
		})
	}

	if _, ok := Time("not a date"); ok {
		t.Fatalf("expected garbage to be rejected")
	}
}

func TestFromRecords(t *testing.T) {
	table := FromRecords([][]string{
		{"\ufeffOrder Id", " Net Price ", "Net Price"},
		{"1", "10.00", "x"},
		{"", "", ""},
		{"2", ""},
	})

	expectedHeaders := []string{"Order Id", "Net Price", "Net Price.1"}
	for i, h := range expectedHeaders {
		if table.Headers[i] != h {
			t.Fatalf("expected header %s, got %s", h, table.Headers[i])
		}
	}
	if table.Len() != 2 {
		t.Fatalf("expected 2 rows, got %d", table.Len())
	}
	if table.Value(1, "Net Price") != nil {
		t.Fatalf("expected empty cell to read as nil")
	}
	if table.Value(1, "Net Price.1") != nil {
		t.Fatalf("expected short record to leave trailing header unset")
	}
}

func TestFilterDoesNotTouchSource(t *testing.T) {
	table := New([]string{"a"}, []Row{{"a": "1"}, {"a": "2"}, {"a": "3"}})
	filtered := table.Filter(func(r Row) bool { return r["a"] != "2" })
	if filtered.Len() != 2 {
		t.Fatalf("expected 2 rows, got %d", filtered.Len())
	}
	if table.Len() != 3 {
		t.Fatalf("expected source to keep 3 rows, got %d", table.Len())
	}
}

func TestConcatUnionsHeaders(t *testing.T) {
	a := New([]string{"x", "y"}, []Row{{"x": "1", "y": "2"}})
	b := New([]string{"y", "z"}, []Row{{"y": "3", "z": "4"}})
	out := Concat(a, b)
	expected := []string{"x", "y", "z"}
	if len(out.Headers) != len(expected) {
		t.Fatalf("expected %d headers, got %d", len(expected), len(out.Headers))
	}
	for i, h := range expected {
		if out.Headers[i] != h {
			t.Fatalf("expected header %s, got %s", h, out.Headers[i])
		}
	}
	if out.Value(1, "x") != nil {
		t.Fatalf("expected missing header to read as nil")
	}
}
