package advanced

import (
	"sort"

	"tap-analytics-service/internal/dataset"
	"tap-analytics-service/internal/schema"
)

var volatilityColumns = []string{
	"Menu Item", "Net Price", "Qty", "Void_Value", "Void_Qty",
	"Removed_Value", "Removed_Qty", "Total_Waste", "Volatility_Pct", "Action",
}

type VolatilityRow struct {
	MenuItem      string
	NetPrice      float64
	Qty           float64
	VoidValue     float64
	VoidQty       float64
	RemovedValue  float64
	RemovedQty    float64
	TotalWaste    float64
	VolatilityPct float64
	Action        string
}

func (r VolatilityRow) record() map[string]any {
	return map[string]any{
		"Menu Item":      r.MenuItem,
		"Net Price":      r.NetPrice,
		"Qty":            r.Qty,
		"Void_Value":     r.VoidValue,
		"Void_Qty":       r.VoidQty,
		"Removed_Value":  r.RemovedValue,
		"Removed_Qty":    r.RemovedQty,
		"Total_Waste":    r.TotalWaste,
		"Volatility_Pct": r.VolatilityPct,
		"Action":         r.Action,
	}
}

type itemTotals struct {
	value float64
	qty   float64
}

// itemWaste totals an auxiliary export per item. The item column may be
// named differently from the sales export.
func (s *Suite) itemWaste(t dataset.Table) map[string]itemTotals {
	out := map[string]itemTotals{}
	itemCol, ok := s.col(t, schema.AdvAuxItem)
	if !ok {
		return out
	}
	priceCol, ok := s.col(t, schema.AdvAuxPrice)
	if !ok {
		return out
	}
	qtyCol, hasQty := s.col(t, schema.AdvAuxQty)
	for _, row := range t.Rows {
		item, ok := dataset.GroupKey(row[itemCol])
		if !ok {
			continue
		}
		agg := out[item]
		agg.value += dataset.FloatOr0(row[priceCol])
		if hasQty {
			agg.qty += dataset.FloatOr0(row[qtyCol])
		}
		out[item] = agg
	}
	return out
}

// MenuVolatility compares each item's waste with its sales, keeping only
// items that sold at least the configured minimum.
func (s *Suite) MenuVolatility(t Tables) []VolatilityRow {
	itemCol, ok := s.col(t.Sales, schema.AdvMenuItem)
	if !ok {
		return nil
	}
	revenueCol, ok := s.col(t.Sales, schema.AdvItemRevenue)
	if !ok {
		return nil
	}
	qtyCol, hasQty := s.col(t.Sales, schema.AdvQty)

	sales := map[string]itemTotals{}
	for _, row := range t.Sales.Rows {
		item, ok := dataset.GroupKey(row[itemCol])
		if !ok {
			continue
		}
		agg := sales[item]
		agg.value += dataset.FloatOr0(row[revenueCol])
		if hasQty {
			agg.qty += dataset.FloatOr0(row[qtyCol])
		}
		sales[item] = agg
	}
	voids := s.itemWaste(t.Voids)
	removed := s.itemWaste(t.Removed)

	rows := make([]VolatilityRow, 0, len(sales))
	for _, item := range sortedKeys(sales) {
		r := VolatilityRow{
			MenuItem:     item,
			NetPrice:     sales[item].value,
			Qty:          sales[item].qty,
			VoidValue:    voids[item].value,
			VoidQty:      voids[item].qty,
			RemovedValue: removed[item].value,
			RemovedQty:   removed[item].qty,
		}
		r.TotalWaste = r.VoidValue + r.RemovedValue
		r.VolatilityPct = offsetRatio(r.TotalWaste, r.NetPrice, wasteEpsilon) * 100
		if r.NetPrice < s.thresholds.VolatilityMinSales {
			continue
		}
		r.Action = s.thresholds.VolatilityAction(r.VolatilityPct)
		rows = append(rows, r)
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].VolatilityPct > rows[j].VolatilityPct })
	return rows
}
