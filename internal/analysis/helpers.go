package analysis

import (
	"math"
	"sort"
	"strings"

	"tap-analytics-service/internal/dataset"
)

// voidMask flags rows whose void cell is set. Boolean literals count as-is,
// numbers count when non-zero, any other non-empty text counts as void.
func voidMask(t dataset.Table, col string) []bool {
	mask := make([]bool, len(t.Rows))
	for i, row := range t.Rows {
		mask[i] = dataset.Truthy(row[col])
	}
	return mask
}

// isBoolColumn reports whether every non-null cell is boolean-like.
func isBoolColumn(t dataset.Table, col string) bool {
	seen := false
	for _, row := range t.Rows {
		v := row[col]
		if dataset.IsNull(v) {
			continue
		}
		if _, ok := dataset.Bool(v); !ok {
			return false
		}
		seen = true
	}
	return seen
}

func sumColumn(t dataset.Table, col string) float64 {
	total := 0.0
	for _, row := range t.Rows {
		total += dataset.FloatOr0(row[col])
	}
	return total
}

func distinctCount(t dataset.Table, col string) int {
	seen := make(map[string]struct{})
	for _, row := range t.Rows {
		if key, ok := dataset.GroupKey(row[col]); ok {
			seen[key] = struct{}{}
		}
	}
	return len(seen)
}

// groupIndex buckets row indexes by the text of col, dropping null keys.
// Keys come back sorted so downstream ordering is deterministic.
func groupIndex(t dataset.Table, col string) ([]string, map[string][]int) {
	groups := make(map[string][]int)
	for i, row := range t.Rows {
		key, ok := dataset.GroupKey(row[col])
		if !ok {
			continue
		}
		groups[key] = append(groups[key], i)
	}
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, groups
}

// findOrderDate returns the header equal to "order date" ignoring case.
func findOrderDate(headers []string) (string, bool) {
	for _, h := range headers {
		if strings.EqualFold(strings.TrimSpace(h), "order date") {
			return h, true
		}
	}
	return "", false
}

func pct(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return part / whole * 100
}

// sampleStdDev uses n-1 in the denominator. Fewer than two values give 0.
func sampleStdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	ss := 0.0
	for _, v := range values {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(values)-1))
}

func toFloat64(value any) float64 {
	return dataset.FloatOr0(value)
}

// sortByDesc orders rows by a numeric key, largest first, keeping the
// incoming order for ties.
func sortByDesc(rows []map[string]any, key string) {
	sort.SliceStable(rows, func(i, j int) bool {
		return toFloat64(rows[i][key]) > toFloat64(rows[j][key])
	})
}

func capRows(rows []map[string]any, n int) []map[string]any {
	if len(rows) > n {
		return rows[:n]
	}
	return rows
}
