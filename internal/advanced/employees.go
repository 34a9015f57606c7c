package advanced

import (
	"sort"

	"tap-analytics-service/internal/dataset"
	"tap-analytics-service/internal/schema"

	"go.uber.org/zap"
)

type EmployeeRow struct {
	Server                string
	TotalRevenue          float64
	AvgCheckValue         float64
	TotalItems            int
	TotalChecks           int
	WasteRatePct          float64
	Status                string
	RevenuePerWasteDollar float64
	ConversionRate        float64
	BottleChecks          int
	AttachmentRate        float64
	FoodChecks            int
	LiquorChecks          int
	TotalDiscounts        float64
	DiscountCount         int
	DiscountRate          float64
	HustleScore           float64
	PerformanceTier       string
	RevenuePerHour        float64
	ROI                   float64
	EfficiencyScore       float64

	LaborMatched    bool
	LaborEmployee   string
	MatchConfidence float64
	LaborNetSales   float64
	TotalPay        float64
	HoursWorked     float64
}

var employeeBaseColumns = []string{
	"Server", "Total_Revenue", "Avg_Check_Value", "Total_Items", "Total_Checks",
	"Waste_Rate_Pct", "Status", "Revenue_per_Waste_Dollar", "Conversion_Rate",
	"Bottle_Checks", "Attachment_Rate", "Food_Checks", "Liquor_Checks",
	"Total_Discounts", "Discount_Count", "Discount_Rate",
}

var employeeLaborColumns = []string{"Labor_Employee", "Match_Confidence", "Labor_Net_Sales", "Total_Pay", "Hours_Worked"}

var employeeScoreColumns = []string{"Hustle_Score", "Performance_Tier", "Revenue_per_Hour", "ROI", "Efficiency_Score"}

func employeeColumns(rows []EmployeeRow) []string {
	columns := append([]string{}, employeeBaseColumns...)
	for _, r := range rows {
		if r.LaborMatched {
			columns = append(columns, employeeLaborColumns...)
			break
		}
	}
	return append(columns, employeeScoreColumns...)
}

func (r EmployeeRow) record() map[string]any {
	out := map[string]any{
		"Server":                   r.Server,
		"Total_Revenue":            r.TotalRevenue,
		"Avg_Check_Value":          r.AvgCheckValue,
		"Total_Items":              r.TotalItems,
		"Total_Checks":             r.TotalChecks,
		"Waste_Rate_Pct":           r.WasteRatePct,
		"Status":                   r.Status,
		"Revenue_per_Waste_Dollar": r.RevenuePerWasteDollar,
		"Conversion_Rate":          r.ConversionRate,
		"Bottle_Checks":            r.BottleChecks,
		"Attachment_Rate":          r.AttachmentRate,
		"Food_Checks":              r.FoodChecks,
		"Liquor_Checks":            r.LiquorChecks,
		"Total_Discounts":          r.TotalDiscounts,
		"Discount_Count":           r.DiscountCount,
		"Discount_Rate":            r.DiscountRate,
		"Hustle_Score":             r.HustleScore,
		"Performance_Tier":         r.PerformanceTier,
		"Revenue_per_Hour":         r.RevenuePerHour,
		"ROI":                      r.ROI,
		"Efficiency_Score":         r.EfficiencyScore,
	}
	if r.LaborMatched {
		out["Labor_Employee"] = r.LaborEmployee
		out["Match_Confidence"] = r.MatchConfidence
		out["Labor_Net_Sales"] = r.LaborNetSales
		out["Total_Pay"] = r.TotalPay
		out["Hours_Worked"] = r.HoursWorked
	}
	return out
}

// EmployeePerformance builds the hustle-score leaderboard, running the
// analyses it depends on.
func (s *Suite) EmployeePerformance(t Tables) []EmployeeRow {
	bottle, _ := s.BottleConversion(t)
	attach, _ := s.FoodAttachment(t)
	return s.employeePerformance(t, s.WasteEfficiency(t), bottle, attach, s.DiscountIntegrity(t).ByServer)
}

func (s *Suite) employeePerformance(t Tables, waste []WasteRow, bottle []BottleRow, attach []AttachmentRow, discounts []DiscountRow) []EmployeeRow {
	serverCol, ok := s.col(t.Sales, schema.AdvServer)
	if !ok {
		return nil
	}
	revenueCol, ok := s.col(t.Sales, schema.AdvRevenue)
	if !ok {
		return nil
	}
	checkCol, hasCheck := s.col(t.Sales, schema.AdvCheckID)

	type salesAgg struct {
		revenue float64
		items   int
		checks  map[string]struct{}
	}
	perServer := map[string]*salesAgg{}
	for _, row := range t.Sales.Rows {
		server, ok := dataset.GroupKey(row[serverCol])
		if !ok {
			continue
		}
		a := perServer[server]
		if a == nil {
			a = &salesAgg{checks: map[string]struct{}{}}
			perServer[server] = a
		}
		if amount, ok := dataset.Float(row[revenueCol]); ok {
			a.revenue += amount
			a.items++
		}
		if hasCheck {
			if id, ok := dataset.GroupKey(row[checkCol]); ok {
				a.checks[id] = struct{}{}
			}
		}
	}

	wasteBy := map[string]WasteRow{}
	for _, w := range waste {
		wasteBy[w.Server] = w
	}
	bottleBy := map[string]BottleRow{}
	for _, b := range bottle {
		bottleBy[b.Server] = b
	}
	attachBy := map[string]AttachmentRow{}
	for _, a := range attach {
		attachBy[a.Server] = a
	}
	discountBy := map[string]DiscountRow{}
	for _, d := range discounts {
		discountBy[d.Server] = d
	}
	labor := s.laborRecords(t.Labor)

	rows := make([]EmployeeRow, 0, len(perServer))
	for _, server := range sortedKeys(perServer) {
		a := perServer[server]
		r := EmployeeRow{
			Server:       server,
			TotalRevenue: a.revenue,
			TotalItems:   a.items,
			TotalChecks:  a.items,
			Status:       "Unknown",
		}
		if a.items > 0 {
			r.AvgCheckValue = a.revenue / float64(a.items)
		}
		if hasCheck {
			r.TotalChecks = len(a.checks)
		}
		if w, ok := wasteBy[server]; ok {
			r.WasteRatePct, r.Status, r.RevenuePerWasteDollar = w.WasteRatePct, w.Status, w.RevenuePerWasteDollar
		}
		if b, ok := bottleBy[server]; ok {
			r.ConversionRate, r.BottleChecks = b.ConversionRate, b.BottleChecks
		}
		if at, ok := attachBy[server]; ok {
			r.AttachmentRate, r.FoodChecks, r.LiquorChecks = at.AttachmentRate, at.FoodChecks, at.LiquorChecks
		}
		if d, ok := discountBy[server]; ok {
			r.TotalDiscounts, r.DiscountCount = d.TotalDiscounts, d.DiscountCount
		}
		if len(discounts) > 0 {
			r.DiscountRate = offsetRatio(r.TotalDiscounts, r.TotalRevenue, wasteEpsilon) * 100
		}

		if rec, confidence, ok := BestLaborMatch(server, labor); ok {
			r.LaborMatched = true
			r.LaborEmployee = rec.Employee
			r.MatchConfidence = confidence
			r.LaborNetSales = rec.NetSales
			r.TotalPay = rec.TotalPay
			hours, _ := rec.Hours()
			r.HoursWorked = hours
			r.RevenuePerHour = r.TotalRevenue / nonZero(hours)
			r.ROI = (r.TotalRevenue - r.TotalDiscounts) / nonZero(rec.TotalPay)
			s.log.Debug("labor match",
				zap.String("server", server),
				zap.String("employee", rec.Employee),
				zap.Float64("confidence", confidence),
			)
		}

		r.HustleScore = HustleScore(r)
		r.PerformanceTier = s.thresholds.PerformanceTier(r.HustleScore)
		r.EfficiencyScore = (100 - r.WasteRatePct) + r.RevenuePerWasteDollar/10
		rows = append(rows, r)
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].HustleScore > rows[j].HustleScore })
	return rows
}

// HustleScore rewards revenue, bottle conversion, food attachment and waste
// efficiency, and penalises waste and discounting.
func HustleScore(r EmployeeRow) float64 {
	return r.TotalRevenue/1000 +
		r.ConversionRate*10 +
		r.AttachmentRate*5 +
		r.RevenuePerWasteDollar/10 -
		r.WasteRatePct*2 -
		r.DiscountRate*3
}

func (s *Suite) laborRecords(t dataset.Table) []LaborRecord {
	employeeCol, ok1 := s.col(t, schema.AdvLaborEmployee)
	salesCol, ok2 := s.col(t, schema.AdvLaborNetSales)
	payCol, ok3 := s.col(t, schema.AdvLaborTotalPay)
	if !ok1 || !ok2 || !ok3 {
		return nil
	}
	regularCol, hasRegular := s.col(t, schema.AdvLaborRegularHours)
	overtimeCol, hasOvertime := s.col(t, schema.AdvLaborOvertimeHours)

	records := make([]LaborRecord, 0, len(t.Rows))
	for _, row := range t.Rows {
		name := text(row[employeeCol])
		if name == "" {
			continue
		}
		rec := LaborRecord{
			Employee:    name,
			NetSales:    dataset.FloatOr0(row[salesCol]),
			TotalPay:    dataset.FloatOr0(row[payCol]),
			HasRegular:  hasRegular,
			HasOvertime: hasOvertime,
		}
		if hasRegular {
			rec.RegularHours = dataset.FloatOr0(row[regularCol])
		}
		if hasOvertime {
			rec.OvertimeHours = dataset.FloatOr0(row[overtimeCol])
		}
		records = append(records, rec)
	}
	return records
}

func nonZero(v float64) float64 {
	if v == 0 {
		return 1
	}
	return v
}
