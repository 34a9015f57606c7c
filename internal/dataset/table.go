// Package dataset holds the in-memory tabular shape every analysis consumes:
// an ordered header list plus rows keyed by header.
package dataset

import (
	"strconv"
	"strings"
)

// Row maps a header to its cell. Cells are string, float64, int, bool,
// time.Time or nil.
type Row map[string]any

type Table struct {
	Headers []string
	Rows    []Row
}

func New(headers []string, rows []Row) Table {
	return Table{Headers: headers, Rows: rows}
}

func (t Table) Len() int {
	return len(t.Rows)
}

func (t Table) Empty() bool {
	return len(t.Rows) == 0
}

func (t Table) Has(header string) bool {
	if header == "" {
		return false
	}
	for _, h := range t.Headers {
		if h == header {
			return true
		}
	}
	return false
}

// Value returns nil for a header the row does not carry.
func (t Table) Value(i int, header string) any {
	if i < 0 || i >= len(t.Rows) {
		return nil
	}
	return t.Rows[i][header]
}

// Column collects one header's cells in row order.
func (t Table) Column(header string) []any {
	out := make([]any, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = row[header]
	}
	return out
}

// Filter returns a table with a new row slice. Row maps are shared, so keep
// must not write to them.
func (t Table) Filter(keep func(Row) bool) Table {
	rows := make([]Row, 0, len(t.Rows))
	for _, row := range t.Rows {
		if keep(row) {
			rows = append(rows, row)
		}
	}
	return Table{Headers: t.Headers, Rows: rows}
}

func (t Table) Clone() Table {
	headers := append([]string(nil), t.Headers...)
	rows := make([]Row, len(t.Rows))
	for i, row := range t.Rows {
		cp := make(Row, len(row))
		for k, v := range row {
			cp[k] = v
		}
		rows[i] = cp
	}
	return Table{Headers: headers, Rows: rows}
}

// FirstHeaders returns at most n headers, for diagnostics.
func (t Table) FirstHeaders(n int) []string {
	if n > len(t.Headers) {
		n = len(t.Headers)
	}
	return append([]string{}, t.Headers[:n]...)
}

// FromRecords builds a table from CSV-style records where the first record
// is the header row. Headers are trimmed and stripped of byte order marks;
// short records leave trailing headers unset.
func FromRecords(records [][]string) Table {
	if len(records) == 0 {
		return Table{}
	}
	headers := CleanHeaders(records[0])
	rows := make([]Row, 0, len(records)-1)
	for _, rec := range records[1:] {
		if isBlankRecord(rec) {
			continue
		}
		row := make(Row, len(headers))
		for i, h := range headers {
			if i >= len(rec) {
				break
			}
			cell := strings.TrimSpace(rec[i])
			if cell == "" {
				row[h] = nil
				continue
			}
			row[h] = cell
		}
		rows = append(rows, row)
	}
	return Table{Headers: headers, Rows: rows}
}

func CleanHeaders(raw []string) []string {
	headers := make([]string, len(raw))
	seen := make(map[string]int, len(raw))
	for i, h := range raw {
		h = strings.ReplaceAll(h, "\ufeff", "")
		h = strings.ReplaceAll(h, "\u00ef\u00bb\u00bf", "")
		h = strings.TrimSpace(h)
		if n, dup := seen[h]; dup {
			seen[h] = n + 1
			h = h + "." + strconv.Itoa(n)
		} else {
			seen[h] = 1
		}
		headers[i] = h
	}
	return headers
}

// Concat stacks tables in order. The result carries the union of headers in
// first-seen order; rows missing a header read it as nil.
func Concat(tables ...Table) Table {
	if len(tables) == 1 {
		return tables[0]
	}
	var headers []string
	seen := map[string]bool{}
	total := 0
	for _, t := range tables {
		total += len(t.Rows)
		for _, h := range t.Headers {
			if !seen[h] {
				seen[h] = true
				headers = append(headers, h)
			}
		}
	}
	rows := make([]Row, 0, total)
	for _, t := range tables {
		rows = append(rows, t.Rows...)
	}
	return Table{Headers: headers, Rows: rows}
}

func isBlankRecord(rec []string) bool {
	for _, cell := range rec {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
