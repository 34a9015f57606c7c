package cli

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"tap-analytics-service/internal/analysis"

	"github.com/jedib0t/go-pretty/v6/table"
)

func renderTable(w io.Writer, title string, t analysis.TableResult) {
	_, _ = fmt.Fprintf(w, "\n%s\n", title)
	if len(t.Data) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)

	header := make(table.Row, len(t.Columns))
	for i, col := range t.Columns {
		header[i] = col
	}
	tw.AppendHeader(header)

	for _, rec := range t.Data {
		row := make(table.Row, len(t.Columns))
		for i, col := range t.Columns {
			row[i] = formatValue(rec[col])
		}
		tw.AppendRow(row)
	}
	tw.Render()
	_, _ = fmt.Fprintf(w, "(%d rows)\n", len(t.Data))
}

// renderMetrics prints name/value pairs sorted by name.
func renderMetrics(w io.Writer, title string, values map[string]float64) {
	_, _ = fmt.Fprintf(w, "%s\n", title)
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"Metric", "Value"})
	for _, name := range names {
		tw.AppendRow(table.Row{name, formatValue(values[name])})
	}
	tw.Render()
}

func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(t, 'f', 2, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', 2, 64)
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}
