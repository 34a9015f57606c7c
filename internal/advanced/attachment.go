package advanced

import (
	"sort"

	"tap-analytics-service/internal/dataset"
	"tap-analytics-service/internal/schema"
)

const (
	categoryFood   = "Food"
	categoryLiquor = "Liquor"
)

var attachmentColumns = []string{
	"Server", "Food_Checks", "Liquor_Checks", "Attachment_Rate", "Revenue",
	"Potential_Food_Checks", "Missed_Checks", "Missed_Revenue",
}

type AttachmentRow struct {
	Server              string
	FoodChecks          int
	LiquorChecks        int
	AttachmentRate      float64
	Revenue             float64
	PotentialFoodChecks float64
	MissedChecks        float64
	MissedRevenue       float64
}

func (r AttachmentRow) record() map[string]any {
	return map[string]any{
		"Server":                r.Server,
		"Food_Checks":           r.FoodChecks,
		"Liquor_Checks":         r.LiquorChecks,
		"Attachment_Rate":       r.AttachmentRate,
		"Revenue":               r.Revenue,
		"Potential_Food_Checks": r.PotentialFoodChecks,
		"Missed_Checks":         r.MissedChecks,
		"Missed_Revenue":        r.MissedRevenue,
	}
}

type AttachmentSummary struct {
	TotalLiquorChecks  int     `json:"total_liquor_checks"`
	FoodAttached       int     `json:"food_attached"`
	OverallRate        float64 `json:"overall_rate"`
	AvgFoodSpend       float64 `json:"avg_food_spend"`
	TopRate            float64 `json:"top_rate"`
	TotalMissedRevenue float64 `json:"total_missed_revenue"`
}

type checkServerKey struct {
	check  string
	server string
}

type attachCheck struct {
	food, liquor bool
	revenue      float64
}

// FoodAttachment measures how often liquor checks also carry food, per
// server, and prices the gap to the best server's rate. Servers with too few
// liquor checks are left out of the ranking.
func (s *Suite) FoodAttachment(t Tables) ([]AttachmentRow, AttachmentSummary) {
	checkCol, ok1 := s.col(t.Sales, schema.AdvCheckID)
	serverCol, ok2 := s.col(t.Sales, schema.AdvServer)
	revenueCol, ok3 := s.col(t.Sales, schema.AdvRevenue)
	if !ok1 || !ok2 || !ok3 {
		return nil, AttachmentSummary{}
	}
	categoryCol, hasCategory := s.col(t.Sales, schema.AdvCategory)

	checks := map[checkServerKey]*attachCheck{}
	var order []checkServerKey
	foodRevenue, foodLines := 0.0, 0
	for _, row := range t.Sales.Rows {
		amount := dataset.FloatOr0(row[revenueCol])
		category := ""
		if hasCategory {
			category = text(row[categoryCol])
			if category == categoryFood {
				foodRevenue += amount
				foodLines++
			}
		}
		check, ok := dataset.GroupKey(row[checkCol])
		if !ok {
			continue
		}
		server, ok := dataset.GroupKey(row[serverCol])
		if !ok {
			continue
		}
		key := checkServerKey{check: check, server: server}
		c := checks[key]
		if c == nil {
			c = &attachCheck{liquor: !hasCategory}
			checks[key] = c
			order = append(order, key)
		}
		c.revenue += amount
		switch category {
		case categoryFood:
			c.food = true
		case categoryLiquor:
			c.liquor = true
		}
	}
	sort.Slice(order, func(i, j int) bool {
		if order[i].check != order[j].check {
			return order[i].check < order[j].check
		}
		return order[i].server < order[j].server
	})

	type serverAgg struct {
		food, liquor int
		revenue      float64
	}
	servers := map[string]*serverAgg{}
	var summary AttachmentSummary
	foodChecks := 0
	for _, key := range order {
		c := checks[key]
		if c.food {
			foodChecks++
		}
		if !c.liquor {
			continue
		}
		summary.TotalLiquorChecks++
		a := servers[key.server]
		if a == nil {
			a = &serverAgg{}
			servers[key.server] = a
		}
		a.liquor++
		a.revenue += c.revenue
		if c.food {
			a.food++
			summary.FoodAttached++
		}
	}
	if summary.TotalLiquorChecks == 0 {
		return nil, AttachmentSummary{}
	}
	summary.OverallRate = float64(summary.FoodAttached) / float64(summary.TotalLiquorChecks) * 100

	if foodLines > 0 && foodChecks > 0 {
		summary.AvgFoodSpend = foodRevenue / float64(foodChecks)
	}

	var rows []AttachmentRow
	for _, name := range sortedKeys(servers) {
		a := servers[name]
		if a.liquor < s.thresholds.AttachmentMinLiquorChecks {
			continue
		}
		rows = append(rows, AttachmentRow{
			Server:         name,
			FoodChecks:     a.food,
			LiquorChecks:   a.liquor,
			AttachmentRate: float64(a.food) / float64(a.liquor) * 100,
			Revenue:        a.revenue,
		})
	}
	for _, r := range rows {
		if r.AttachmentRate > summary.TopRate {
			summary.TopRate = r.AttachmentRate
		}
	}
	for i := range rows {
		r := &rows[i]
		r.PotentialFoodChecks = float64(r.LiquorChecks) * (summary.TopRate / 100)
		r.MissedChecks = r.PotentialFoodChecks - float64(r.FoodChecks)
		r.MissedRevenue = r.MissedChecks * summary.AvgFoodSpend
		summary.TotalMissedRevenue += r.MissedRevenue
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].AttachmentRate > rows[j].AttachmentRate })
	return rows, summary
}
