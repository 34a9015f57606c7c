package advanced

import (
	"sort"
	"strings"

	"tap-analytics-service/internal/dataset"
	"tap-analytics-service/internal/schema"
)

var bottleColumns = []string{"Server", "Bottle_Checks", "Total_Checks", "Conversion_Rate", "Revenue"}

type BottleRow struct {
	Server         string
	BottleChecks   int
	TotalChecks    int
	ConversionRate float64
	Revenue        float64
}

func (r BottleRow) record() map[string]any {
	return map[string]any{
		"Server":          r.Server,
		"Bottle_Checks":   r.BottleChecks,
		"Total_Checks":    r.TotalChecks,
		"Conversion_Rate": r.ConversionRate,
		"Revenue":         r.Revenue,
	}
}

type BottleSummary struct {
	TotalChecks       int     `json:"total_checks"`
	BottleChecks      int     `json:"bottle_checks"`
	NonBottleChecks   int     `json:"non_bottle_checks"`
	BottlePct         float64 `json:"bottle_pct"`
	AvgBottleCheck    float64 `json:"avg_bottle_check"`
	AvgNonBottleCheck float64 `json:"avg_non_bottle_check"`
	BottlePremium     float64 `json:"bottle_premium"`
}

// IsBottleItem reports whether a menu item is bottle service ("BTL" in the name).
func IsBottleItem(name string) bool {
	return strings.Contains(strings.ToUpper(name), "BTL")
}

type checkAgg struct {
	bottle  bool
	revenue float64
	server  string
	hasSrv  bool
}

// BottleConversion rolls lines up to checks, marks a check as bottle service
// when any line is, and reports per-server conversion. When a table column
// exists only seated checks count.
func (s *Suite) BottleConversion(t Tables) ([]BottleRow, BottleSummary) {
	itemCol, ok1 := s.col(t.Sales, schema.AdvBottleItem)
	checkCol, ok2 := s.col(t.Sales, schema.AdvCheckID)
	serverCol, ok3 := s.col(t.Sales, schema.AdvServer)
	revenueCol, ok4 := s.col(t.Sales, schema.AdvRevenue)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return nil, BottleSummary{}
	}
	tableCol, hasTable := s.col(t.Sales, schema.AdvTable)

	checks := map[string]*checkAgg{}
	for _, row := range t.Sales.Rows {
		if hasTable && text(row[tableCol]) == "" {
			continue
		}
		id, ok := dataset.GroupKey(row[checkCol])
		if !ok {
			continue
		}
		c := checks[id]
		if c == nil {
			c = &checkAgg{}
			checks[id] = c
		}
		if IsBottleItem(text(row[itemCol])) {
			c.bottle = true
		}
		c.revenue += dataset.FloatOr0(row[revenueCol])
		if !c.hasSrv {
			c.server, c.hasSrv = dataset.GroupKey(row[serverCol])
		}
	}

	var summary BottleSummary
	var bottleRevenue, otherRevenue float64
	type serverAgg struct {
		bottle, total int
		revenue       float64
	}
	servers := map[string]*serverAgg{}
	for _, id := range sortedKeys(checks) {
		c := checks[id]
		summary.TotalChecks++
		if c.bottle {
			summary.BottleChecks++
			bottleRevenue += c.revenue
		} else {
			summary.NonBottleChecks++
			otherRevenue += c.revenue
		}
		if !c.hasSrv {
			continue
		}
		a := servers[c.server]
		if a == nil {
			a = &serverAgg{}
			servers[c.server] = a
		}
		a.total++
		a.revenue += c.revenue
		if c.bottle {
			a.bottle++
		}
	}

	if summary.TotalChecks > 0 {
		summary.BottlePct = float64(summary.BottleChecks) / float64(summary.TotalChecks) * 100
	}
	if summary.BottleChecks > 0 {
		summary.AvgBottleCheck = bottleRevenue / float64(summary.BottleChecks)
	}
	if summary.NonBottleChecks > 0 {
		summary.AvgNonBottleCheck = otherRevenue / float64(summary.NonBottleChecks)
	}
	if summary.BottleChecks > 0 && summary.NonBottleChecks > 0 && summary.AvgNonBottleCheck > 0 {
		summary.BottlePremium = summary.AvgBottleCheck / summary.AvgNonBottleCheck
	}

	rows := make([]BottleRow, 0, len(servers))
	for _, name := range sortedKeys(servers) {
		a := servers[name]
		rows = append(rows, BottleRow{
			Server:         name,
			BottleChecks:   a.bottle,
			TotalChecks:    a.total,
			ConversionRate: float64(a.bottle) / float64(a.total) * 100,
			Revenue:        a.revenue,
		})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].ConversionRate > rows[j].ConversionRate })
	return rows, summary
}
