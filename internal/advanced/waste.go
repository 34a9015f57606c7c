package advanced

import (
	"math"
	"sort"

	"tap-analytics-service/internal/schema"
)

// wasteEpsilon keeps the rate finite for servers with no revenue.
const wasteEpsilon = 0.01

// offsetRatio is part / (whole + offset). A zero or non-finite result, as
// when refunds bring whole to exactly -offset, reads as 0.
func offsetRatio(part, whole, offset float64) float64 {
	den := whole + offset
	if den == 0 {
		return 0
	}
	r := part / den
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return r
}

var wasteColumns = []string{
	"Server", "Revenue", "Void_Value", "Removed_Value", "Total_Waste",
	"Waste_Rate_Pct", "Revenue_per_Waste_Dollar", "Status",
}

type WasteRow struct {
	Server                string
	Revenue               float64
	VoidValue             float64
	RemovedValue          float64
	TotalWaste            float64
	WasteRatePct          float64
	RevenuePerWasteDollar float64
	Status                string
}

func (r WasteRow) record() map[string]any {
	return map[string]any{
		"Server":                   r.Server,
		"Revenue":                  r.Revenue,
		"Void_Value":               r.VoidValue,
		"Removed_Value":            r.RemovedValue,
		"Total_Waste":              r.TotalWaste,
		"Waste_Rate_Pct":           r.WasteRatePct,
		"Revenue_per_Waste_Dollar": r.RevenuePerWasteDollar,
		"Status":                   r.Status,
	}
}

// WasteEfficiency sets each server's voided and removed value against their
// sales. Servers without voids or removals keep zero waste.
func (s *Suite) WasteEfficiency(t Tables) []WasteRow {
	revenueCol, ok := s.col(t.Sales, schema.AdvRevenue)
	if !ok {
		return nil
	}
	serverCol, ok := s.col(t.Sales, schema.AdvServer)
	if !ok {
		return nil
	}
	servers, revenue := sumBy(t.Sales, serverCol, revenueCol)

	voids := map[string]float64{}
	if priceCol, ok := s.col(t.Voids, schema.AdvAuxPrice); ok {
		if voidServer, ok := s.col(t.Voids, schema.AdvServer); ok {
			_, voids = sumBy(t.Voids, voidServer, priceCol)
		}
	}
	removed := map[string]float64{}
	if priceCol, ok := s.col(t.Removed, schema.AdvAuxPrice); ok {
		if removedServer, ok := s.col(t.Removed, schema.AdvServer); ok {
			_, removed = sumBy(t.Removed, removedServer, priceCol)
		}
	}

	rows := make([]WasteRow, 0, len(servers))
	for _, server := range servers {
		r := WasteRow{
			Server:       server,
			Revenue:      revenue[server],
			VoidValue:    voids[server],
			RemovedValue: removed[server],
		}
		r.TotalWaste = r.VoidValue + r.RemovedValue
		r.WasteRatePct = offsetRatio(r.TotalWaste, r.Revenue, wasteEpsilon) * 100
		r.RevenuePerWasteDollar = offsetRatio(r.Revenue, r.TotalWaste, 1)
		r.Status = s.thresholds.WasteStatus(r.WasteRatePct)
		rows = append(rows, r)
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Revenue > rows[j].Revenue })
	return rows
}
