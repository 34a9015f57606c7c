package analysis

import (
	"fmt"
	"time"

	"tap-analytics-service/internal/dataset"
	"tap-analytics-service/internal/daterange"
	"tap-analytics-service/internal/schema"

	"go.uber.org/zap"
)

// Run detects the schema, summarises coverage on the raw table, applies the
// requested window and builds every section. Each builder is isolated: a
// panic in one leaves its empty value and the rest of the payload intact.
func Run(t dataset.Table, clientID string, params daterange.Params, aliases schema.AliasTable, log *zap.Logger) Result {
	log = orNop(log).With(zap.String("client_id", clientID))

	sc := schema.Detect(t, aliases, log)
	log.Info("analysis input",
		zap.Int("rows", t.Len()),
		zap.Int("columns", len(t.Headers)),
		zap.Strings("columns_sample", t.FirstHeaders(columnsSampleSize)),
	)

	schemaDate, _ := sc.Col(schema.RoleDatetime)
	dateMatch := daterange.FindDateColumn(t.Headers, schemaDate, aliases.DateCandidates).Or(sc[schema.RoleDatetime])
	if dateMatch.OK() {
		sc[schema.RoleDatetime] = dateMatch
	} else if !t.Empty() {
		log.Warn("no date column detected", zap.Strings("available", t.FirstHeaders(10)))
	}

	coverage := Coverage(t, dateMatch.Header())

	maxDate := coverageMaxDate(coverage)
	if window, ok := daterange.Resolve(params, maxDate, log); ok {
		if dateMatch.OK() {
			before := t.Len()
			t = daterange.Apply(t, dateMatch.Header(), window.Start, window.End, log)
			log.Info("date range applied",
				zap.String("start", window.Start),
				zap.String("end", window.End),
				zap.Int("rows_before", before),
				zap.Int("rows_after", t.Len()),
			)
		} else {
			log.Warn("date range requested but no date column, proceeding unfiltered")
		}
	}

	if t.Empty() {
		log.Warn("no rows after filtering, returning empty result")
		return EmptyResult(clientID)
	}

	empty := []map[string]any{}
	heatmap := SafeBuild(log, "revenue_heatmap", empty, func() []map[string]any { return RevenueHeatmap(t, sc, log) })
	result := Result{
		ClientID: clientID,
		KPIs: SafeBuild(log, "kpis", KPIs{Values: map[string]float64{}}, func() KPIs {
			return ComputeKPIs(t, sc)
		}),
		Charts: Charts{
			HourOfDay:      SafeBuild(log, "hour_of_day", empty, func() []map[string]any { return HourOfDay(t, sc, log) }),
			DayOfWeek:      SafeBuild(log, "day_of_week", empty, func() []map[string]any { return DayOfWeek(t, sc, log) }),
			RevenueHeatmap: heatmap,
			HourlyRevenue:  heatmap,
		},
		Tables: Tables{
			WasteEfficiency: SafeBuild(log, "waste_efficiency", MessageTable(NoDataMessage), func() TableResult {
				return WasteEfficiency(t, sc, log)
			}),
			EmployeePerformance: SafeBuild(log, "employee_performance", MessageTable(NoDataMessage), func() TableResult {
				return EmployeePerformance(t, sc, log)
			}),
			MenuVolatility: SafeBuild(log, "menu_volatility", MessageTable(NoDataMessage), func() TableResult {
				return MenuVolatility(t, sc, log)
			}),
		},
		DataCoverage: coverage,
	}
	result.DataCoverage.RowCount = t.Len()

	log.Info("analysis complete",
		zap.Int("kpis", len(result.KPIs.Values)),
		zap.Int("hour_of_day", len(result.Charts.HourOfDay)),
		zap.Int("day_of_week", len(result.Charts.DayOfWeek)),
		zap.Int("revenue_heatmap", len(result.Charts.RevenueHeatmap)),
	)
	return result
}

func coverageMaxDate(c DataCoverage) *time.Time {
	if c.MaxDate == nil {
		return nil
	}
	ts, ok := dataset.Time(*c.MaxDate)
	if !ok {
		return nil
	}
	return &ts
}

// SafeBuild runs build and substitutes fallback if it panics.
func SafeBuild[T any](log *zap.Logger, name string, fallback T, build func() T) (out T) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("analysis builder failed",
				zap.String("builder", name),
				zap.Error(fmt.Errorf("panic: %v", r)),
			)
			out = fallback
		}
	}()
	return build()
}
