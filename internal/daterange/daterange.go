// Package daterange picks the filter column for a table and turns explicit
// bounds or relative presets into a half-open [start, end) window.
package daterange

import (
	"strconv"
	"strings"
	"time"

	"tap-analytics-service/internal/dataset"
	"tap-analytics-service/internal/schema"

	"go.uber.org/zap"
)

const (
	isoDate       = "2006-01-02"
	defaultPreset = 30
)

// Params mirrors the dateRange object of a request. Empty strings mean unset.
type Params struct {
	Start  string `json:"start,omitempty"`
	End    string `json:"end,omitempty"`
	Preset string `json:"preset,omitempty"`
}

func (p Params) IsZero() bool {
	return p.Start == "" && p.End == "" && p.Preset == ""
}

// Window is a resolved [Start, End) pair of YYYY-MM-DD dates.
type Window struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// FindDateColumn returns preferred when the table carries it, otherwise the
// first candidate that equals a header case-insensitively.
func FindDateColumn(headers []string, preferred string, candidates []string) schema.Match {
	if preferred != "" {
		for _, h := range headers {
			if h == preferred {
				return schema.Resolved(h)
			}
		}
	}
	for _, c := range candidates {
		lc := strings.ToLower(strings.TrimSpace(c))
		for _, h := range headers {
			if strings.ToLower(strings.TrimSpace(h)) == lc {
				return schema.Resolved(h)
			}
		}
	}
	return schema.Unresolved
}

// PresetDays parses "<n>d", "<n>w" or "<n>y". Anything else reports false.
func PresetDays(preset string) (int, bool) {
	p := strings.ToLower(strings.TrimSpace(preset))
	if len(p) < 2 {
		return 0, false
	}
	n, err := strconv.Atoi(p[:len(p)-1])
	if err != nil || n < 0 {
		return 0, false
	}
	switch p[len(p)-1] {
	case 'd':
		return n, true
	case 'w':
		return n * 7, true
	case 'y':
		return n * 365, true
	}
	return 0, false
}

// PresetWindow anchors a preset on the dataset's own max date. The window
// ends the day after maxDate so that whole day is included.
func PresetWindow(preset string, maxDate time.Time, log *zap.Logger) (string, string) {
	days, ok := PresetDays(preset)
	if !ok {
		if log != nil {
			log.Warn("unknown preset format, defaulting to 30 days", zap.String("preset", preset))
		}
		days = defaultPreset
	}
	day := time.Date(maxDate.Year(), maxDate.Month(), maxDate.Day(), 0, 0, 0, 0, time.UTC)
	end := day.AddDate(0, 0, 1)
	start := end.AddDate(0, 0, -days)
	return start.Format(isoDate), end.Format(isoDate)
}

// Resolve applies precedence: a preset beats explicit bounds, and needs a
// known max date to anchor on. Explicit bounds need both ends.
func Resolve(p Params, maxDate *time.Time, log *zap.Logger) (Window, bool) {
	if log == nil {
		log = zap.NewNop()
	}
	start, end := p.Start, p.End
	if p.Preset != "" {
		if start != "" || end != "" {
			log.Warn("date range has both preset and bounds, using preset",
				zap.String("preset", p.Preset),
				zap.String("start", start),
				zap.String("end", end),
			)
		}
		if maxDate == nil {
			log.Warn("preset requested without a known max date, skipping filter", zap.String("preset", p.Preset))
			return Window{}, false
		}
		s, e := PresetWindow(p.Preset, *maxDate, log)
		log.Info("preset window computed",
			zap.String("preset", p.Preset),
			zap.String("start", s),
			zap.String("end", e),
			zap.String("max_date", maxDate.Format(isoDate)),
		)
		return Window{Start: s, End: e}, true
	}
	if start != "" && end != "" {
		return Window{Start: start, End: end}, true
	}
	return Window{}, false
}

// Apply keeps rows with start <= date < end. It returns t unchanged when the
// column is absent, holds no valid dates, or the bounds do not parse.
func Apply(t dataset.Table, col, start, end string, log *zap.Logger) dataset.Table {
	if log == nil {
		log = zap.NewNop()
	}
	if t.Empty() {
		return t
	}
	if !t.Has(col) {
		log.Warn("date column not found, skipping filter",
			zap.String("column", col),
			zap.Strings("available", t.FirstHeaders(10)),
		)
		return t
	}

	startAt, ok := dataset.Time(start)
	if !ok {
		log.Warn("unparseable range start, skipping filter", zap.String("start", start))
		return t
	}
	endAt, ok := dataset.Time(end)
	if !ok {
		log.Warn("unparseable range end, skipping filter", zap.String("end", end))
		return t
	}

	parsed := make([]time.Time, len(t.Rows))
	valid := make([]bool, len(t.Rows))
	count := 0
	for i, row := range t.Rows {
		if ts, ok := dataset.Time(row[col]); ok {
			parsed[i] = ts.UTC()
			valid[i] = true
			count++
		}
	}
	if count == 0 {
		log.Warn("no valid dates in column, skipping filter", zap.String("column", col))
		return t
	}

	rows := make([]dataset.Row, 0, len(t.Rows))
	for i, row := range t.Rows {
		if !valid[i] {
			continue
		}
		if !parsed[i].Before(startAt) && parsed[i].Before(endAt) {
			rows = append(rows, row)
		}
	}
	log.Info("date filter applied",
		zap.String("column", col),
		zap.String("start", start),
		zap.String("end", end),
		zap.Int("rows_before", t.Len()),
		zap.Int("rows_after", len(rows)),
	)
	return dataset.New(t.Headers, rows)
}

// MonthsInRange lists the calendar months intersecting [start, end), in
// order and without repeats. Unparseable or empty ranges give nil.
func MonthsInRange(start, end string) []time.Month {
	s, ok := dataset.Time(start)
	if !ok {
		return nil
	}
	e, ok := dataset.Time(end)
	if !ok || !s.Before(e) {
		return nil
	}
	last := e.Add(-time.Nanosecond)

	var months []time.Month
	seen := map[time.Month]bool{}
	cursor := time.Date(s.Year(), s.Month(), 1, 0, 0, 0, 0, time.UTC)
	for !cursor.After(last) && len(months) < 12 {
		if !seen[cursor.Month()] {
			seen[cursor.Month()] = true
			months = append(months, cursor.Month())
		}
		cursor = cursor.AddDate(0, 1, 0)
	}
	return months
}
