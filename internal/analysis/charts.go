package analysis

import (
	"time"

	"tap-analytics-service/internal/dataset"
	"tap-analytics-service/internal/schema"

	"go.uber.org/zap"
)

// Monday-first calendar order.
var (
	dayNames      = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}
	shortDayNames = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}
)

// weekdayIndex maps time.Weekday (Sunday=0) onto Monday=0.
func weekdayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}

type chartPoint struct {
	hour    int
	day     int
	amount  float64
	orderID string
	hasID   bool
}

// chartPoints parses the order-date column keeping its wall clock. Rows with
// an invalid date are dropped. ok is false when the chart cannot be built.
func chartPoints(t dataset.Table, s schema.Schema, log *zap.Logger, chart string) ([]chartPoint, bool) {
	amountCol, ok := s.Col(schema.RoleAmount)
	if !ok {
		log.Warn("chart skipped, no amount column", zap.String("chart", chart))
		return nil, false
	}
	dateCol, ok := findOrderDate(t.Headers)
	if !ok {
		log.Warn("chart skipped, order date column not found",
			zap.String("chart", chart),
			zap.Strings("available", t.FirstHeaders(10)),
		)
		return nil, false
	}
	orderCol, hasOrder := s.Col(schema.RoleOrderID)
	hasOrder = hasOrder && t.Has(orderCol)

	points := make([]chartPoint, 0, len(t.Rows))
	for _, row := range t.Rows {
		ts, ok := dataset.Time(row[dateCol])
		if !ok {
			continue
		}
		p := chartPoint{
			hour:   ts.Hour(),
			day:    weekdayIndex(ts.Weekday()),
			amount: dataset.FloatOr0(row[amountCol]),
		}
		if hasOrder {
			p.orderID, p.hasID = dataset.GroupKey(row[orderCol])
		}
		points = append(points, p)
	}
	if len(points) == 0 {
		log.Warn("chart skipped, all order dates invalid", zap.String("chart", chart))
		return nil, false
	}
	return points, true
}

// HourOfDay always returns 24 rows, hour 0 first, unless the chart cannot
// be built at all.
func HourOfDay(t dataset.Table, s schema.Schema, log *zap.Logger) []map[string]any {
	log = orNop(log)
	points, ok := chartPoints(t, s, log, "hour_of_day")
	if !ok {
		return []map[string]any{}
	}
	revenue := make([]float64, 24)
	orders := make([]map[string]struct{}, 24)
	for i := range orders {
		orders[i] = map[string]struct{}{}
	}
	for _, p := range points {
		revenue[p.hour] += p.amount
		if p.hasID {
			orders[p.hour][p.orderID] = struct{}{}
		}
	}

	out := make([]map[string]any, 24)
	for h := 0; h < 24; h++ {
		out[h] = map[string]any{"Hour": h, "Net Price": revenue[h], "Order Id": len(orders[h])}
	}
	return out
}

// DayOfWeek always returns Monday..Sunday.
func DayOfWeek(t dataset.Table, s schema.Schema, log *zap.Logger) []map[string]any {
	log = orNop(log)
	points, ok := chartPoints(t, s, log, "day_of_week")
	if !ok {
		return []map[string]any{}
	}
	revenue := make([]float64, 7)
	orders := make([]map[string]struct{}, 7)
	for i := range orders {
		orders[i] = map[string]struct{}{}
	}
	for _, p := range points {
		revenue[p.day] += p.amount
		if p.hasID {
			orders[p.day][p.orderID] = struct{}{}
		}
	}

	out := make([]map[string]any, 7)
	for d := 0; d < 7; d++ {
		out[d] = map[string]any{"Day": dayNames[d], "Net Price": revenue[d], "Order Id": len(orders[d])}
	}
	return out
}

// RevenueHeatmap is the dense 24x7 grid ordered by hour, then Mon..Sun.
func RevenueHeatmap(t dataset.Table, s schema.Schema, log *zap.Logger) []map[string]any {
	log = orNop(log)
	points, ok := chartPoints(t, s, log, "revenue_heatmap")
	if !ok {
		return []map[string]any{}
	}
	var grid [24][7]float64
	for _, p := range points {
		grid[p.hour][p.day] += p.amount
	}

	out := make([]map[string]any, 0, 24*7)
	for h := 0; h < 24; h++ {
		for d := 0; d < 7; d++ {
			out = append(out, map[string]any{"hour": h, "day": shortDayNames[d], "revenue": grid[h][d]})
		}
	}
	return out
}

func orNop(log *zap.Logger) *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log
}
