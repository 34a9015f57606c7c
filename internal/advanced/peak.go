package advanced

import (
	"sort"
	"time"

	"tap-analytics-service/internal/dataset"
	"tap-analytics-service/internal/schema"
)

var (
	hourlyColumns = []string{"Hour", "Net Price", "Order Id", "Pct_Revenue"}
	dowColumns    = []string{"DayOfWeek", "Net Price", "Order Id", "Pct_Revenue"}
	weekdays      = []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday, time.Sunday}
)

// PeakRow is one hour or weekday bucket. Key is the hour or the day name.
type PeakRow struct {
	Key        any
	keyColumn  string
	NetPrice   float64
	Orders     int
	PctRevenue float64
}

func (r PeakRow) record() map[string]any {
	return map[string]any{
		r.keyColumn:   r.Key,
		"Net Price":   r.NetPrice,
		"Order Id":    r.Orders,
		"Pct_Revenue": r.PctRevenue,
	}
}

type peakBucket struct {
	revenue float64
	orders  map[string]struct{}
}

// PeakHours buckets sales by the order timestamp. Only buckets with sales
// appear; hours are ranked by revenue and weekdays keep calendar order.
func (s *Suite) PeakHours(t Tables) ([]PeakRow, []PeakRow) {
	dateCol, ok := s.col(t.Sales, schema.AdvOrderDate)
	if !ok {
		return nil, nil
	}
	revenueCol, ok := s.col(t.Sales, schema.AdvRevenue)
	if !ok {
		return nil, nil
	}
	orderCol, hasOrder := s.col(t.Sales, schema.AdvOrderID)

	hours := map[int]*peakBucket{}
	days := map[time.Weekday]*peakBucket{}
	bucket := func(b *peakBucket, amount float64, row dataset.Row) {
		b.revenue += amount
		if hasOrder {
			if id, ok := dataset.GroupKey(row[orderCol]); ok {
				b.orders[id] = struct{}{}
			}
		}
	}
	for _, row := range t.Sales.Rows {
		ts, ok := dataset.Time(row[dateCol])
		if !ok {
			continue
		}
		amount := dataset.FloatOr0(row[revenueCol])
		h := hours[ts.Hour()]
		if h == nil {
			h = &peakBucket{orders: map[string]struct{}{}}
			hours[ts.Hour()] = h
		}
		bucket(h, amount, row)
		d := days[ts.Weekday()]
		if d == nil {
			d = &peakBucket{orders: map[string]struct{}{}}
			days[ts.Weekday()] = d
		}
		bucket(d, amount, row)
	}
	if len(hours) == 0 {
		return nil, nil
	}

	total := 0.0
	for _, b := range hours {
		total += b.revenue
	}
	share := func(v float64) float64 {
		if total == 0 {
			return 0
		}
		return v / total * 100
	}

	hourly := make([]PeakRow, 0, len(hours))
	for h := 0; h < 24; h++ {
		b, ok := hours[h]
		if !ok {
			continue
		}
		hourly = append(hourly, PeakRow{Key: h, keyColumn: "Hour", NetPrice: b.revenue, Orders: len(b.orders), PctRevenue: share(b.revenue)})
	}
	sort.SliceStable(hourly, func(i, j int) bool { return hourly[i].NetPrice > hourly[j].NetPrice })

	daily := make([]PeakRow, 0, len(days))
	for _, wd := range weekdays {
		b, ok := days[wd]
		if !ok {
			continue
		}
		daily = append(daily, PeakRow{Key: wd.String(), keyColumn: "DayOfWeek", NetPrice: b.revenue, Orders: len(b.orders), PctRevenue: share(b.revenue)})
	}
	return hourly, daily
}
