package advanced

import (
	"tap-analytics-service/internal/analysis"
)

// Report is the full advanced suite output.
type Report struct {
	WasteEfficiency     []WasteRow
	BottleConversion    []BottleRow
	BottleSummary       BottleSummary
	MenuVolatility      []VolatilityRow
	Discounts           DiscountAudit
	FoodAttachment      []AttachmentRow
	AttachmentSummary   AttachmentSummary
	HourlyAnalysis      []PeakRow
	DayOfWeekAnalysis   []PeakRow
	EmployeePerformance []EmployeeRow
}

// Tables keys every non-empty result by its table name.
func (r Report) Tables() map[string]analysis.TableResult {
	out := map[string]analysis.TableResult{}
	add := func(name string, t analysis.TableResult) {
		if len(t.Data) > 0 {
			out[name] = t
		}
	}
	add("waste_efficiency", toTable(wasteColumns, r.WasteEfficiency))
	add("bottle_conversion", toTable(bottleColumns, r.BottleConversion))
	add("menu_volatility", toTable(volatilityColumns, r.MenuVolatility))
	add("discount_analysis", toTable(discountColumns, r.Discounts.ByServer))
	add("approver_analysis", toTable(approverColumns, r.Discounts.ByApprover))
	add("discount_red_flags", toTable(redFlagColumns, r.Discounts.RedFlags))
	add("food_attachment", toTable(attachmentColumns, r.FoodAttachment))
	add("hourly_analysis", toTable(hourlyColumns, r.HourlyAnalysis))
	add("dow_analysis", toTable(dowColumns, r.DayOfWeekAnalysis))
	add("employee_performance", toTable(employeeColumns(r.EmployeePerformance), r.EmployeePerformance))
	return out
}

// KPIs are the headline numbers for the dashboard tiles.
func (r Report) KPIs() map[string]float64 {
	return map[string]float64{
		"bottle_conversion_pct": r.BottleSummary.BottlePct,
		"bottle_premium":        r.BottleSummary.BottlePremium,
		"food_attachment_rate":  r.AttachmentSummary.OverallRate,
		"missed_revenue":        r.AttachmentSummary.TotalMissedRevenue,
	}
}

// Charts feeds the hourly and weekday bars.
func (r Report) Charts() map[string][]map[string]any {
	return map[string][]map[string]any{
		"hourly_revenue": toTable(hourlyColumns, r.HourlyAnalysis).Data,
		"day_of_week":    toTable(dowColumns, r.DayOfWeekAnalysis).Data,
	}
}

type recorder interface {
	record() map[string]any
}

func toTable[T recorder](columns []string, rows []T) analysis.TableResult {
	data := make([]map[string]any, 0, len(rows))
	for _, r := range rows {
		data = append(data, r.record())
	}
	return analysis.TableResult{Columns: columns, Data: data}
}
