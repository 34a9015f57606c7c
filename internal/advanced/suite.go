// Package advanced runs the multi-export analyses: sales joined against the
// voids, discounts, labor and removed-items files of the same client.
package advanced

import (
	"sort"

	"tap-analytics-service/internal/analysis"
	"tap-analytics-service/internal/dataset"
	"tap-analytics-service/internal/schema"

	"go.uber.org/zap"
)

// Tables holds one client's exports. Any of them may be empty.
type Tables struct {
	Sales     dataset.Table
	Voids     dataset.Table
	Discounts dataset.Table
	Labor     dataset.Table
	Removed   dataset.Table
}

type Suite struct {
	aliases    schema.AliasTable
	thresholds analysis.Thresholds
	log        *zap.Logger
}

func New(aliases schema.AliasTable, thresholds analysis.Thresholds, log *zap.Logger) *Suite {
	if log == nil {
		log = zap.NewNop()
	}
	return &Suite{aliases: aliases, thresholds: thresholds, log: log}
}

// Run is the suite over the default alias table.
func Run(t Tables, thresholds analysis.Thresholds, log *zap.Logger) Report {
	return New(schema.DefaultAliases(), thresholds, log).Run(t)
}

// col resolves an advanced alias key against one export, exact match only.
func (s *Suite) col(t dataset.Table, key string) (string, bool) {
	if t.Empty() {
		return "", false
	}
	m := schema.ResolveExact(t.Headers, s.aliases.AdvancedAliases(key))
	return m.Header(), m.OK()
}

// Run executes every analysis. A failing analysis contributes nothing and
// is logged; the others still run.
func (s *Suite) Run(t Tables) Report {
	log := s.log
	var report Report

	report.WasteEfficiency = analysis.SafeBuild(log, "waste_efficiency", []WasteRow(nil), func() []WasteRow {
		return s.WasteEfficiency(t)
	})
	bottle := analysis.SafeBuild(log, "bottle_conversion", bottleResult{}, func() bottleResult {
		rows, summary := s.BottleConversion(t)
		return bottleResult{rows: rows, summary: summary}
	})
	report.BottleConversion, report.BottleSummary = bottle.rows, bottle.summary
	report.MenuVolatility = analysis.SafeBuild(log, "menu_volatility", []VolatilityRow(nil), func() []VolatilityRow {
		return s.MenuVolatility(t)
	})
	discounts := analysis.SafeBuild(log, "discount_integrity", DiscountAudit{}, func() DiscountAudit {
		return s.DiscountIntegrity(t)
	})
	report.Discounts = discounts
	attach := analysis.SafeBuild(log, "food_attachment", attachmentResult{}, func() attachmentResult {
		rows, summary := s.FoodAttachment(t)
		return attachmentResult{rows: rows, summary: summary}
	})
	report.FoodAttachment, report.AttachmentSummary = attach.rows, attach.summary
	peak := analysis.SafeBuild(log, "peak_hours", peakResult{}, func() peakResult {
		hourly, daily := s.PeakHours(t)
		return peakResult{hourly: hourly, daily: daily}
	})
	report.HourlyAnalysis, report.DayOfWeekAnalysis = peak.hourly, peak.daily
	report.EmployeePerformance = analysis.SafeBuild(log, "employee_performance", []EmployeeRow(nil), func() []EmployeeRow {
		return s.employeePerformance(t, report.WasteEfficiency, report.BottleConversion, report.FoodAttachment, discounts.ByServer)
	})

	log.Info("advanced analysis complete",
		zap.Int("waste_rows", len(report.WasteEfficiency)),
		zap.Int("bottle_rows", len(report.BottleConversion)),
		zap.Int("volatility_rows", len(report.MenuVolatility)),
		zap.Int("red_flags", len(report.Discounts.RedFlags)),
		zap.Int("attachment_rows", len(report.FoodAttachment)),
		zap.Int("employee_rows", len(report.EmployeePerformance)),
	)
	return report
}

type bottleResult struct {
	rows    []BottleRow
	summary BottleSummary
}

type attachmentResult struct {
	rows    []AttachmentRow
	summary AttachmentSummary
}

type peakResult struct {
	hourly []PeakRow
	daily  []PeakRow
}

// sumBy totals val per non-null key of keyCol. Keys come back sorted.
func sumBy(t dataset.Table, keyCol, valCol string) ([]string, map[string]float64) {
	sums := map[string]float64{}
	for _, row := range t.Rows {
		key, ok := dataset.GroupKey(row[keyCol])
		if !ok {
			continue
		}
		sums[key] += dataset.FloatOr0(row[valCol])
	}
	return sortedKeys(sums), sums
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func text(v any) string {
	s, _ := dataset.Text(v)
	return s
}
