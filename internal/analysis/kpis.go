package analysis

import (
	"tap-analytics-service/internal/dataset"
	"tap-analytics-service/internal/schema"
)

// ComputeKPIs needs the amount role; without it the set is empty. The void,
// discount and removal blocks are each gated on their own role.
func ComputeKPIs(t dataset.Table, s schema.Schema) KPIs {
	kpis := KPIs{Values: map[string]float64{}}
	amountCol, ok := s.Col(schema.RoleAmount)
	if !ok {
		return kpis
	}

	revenue := sumColumn(t, amountCol)
	kpis.Values[KPIRevenue] = revenue

	var transactions int
	if orderCol, ok := s.Col(schema.RoleOrderID); ok && t.Has(orderCol) {
		transactions = distinctCount(t, orderCol)
		kpis.TransactionsLabel = LabelTransactions
	} else {
		transactions = t.Len()
		kpis.TransactionsLabel = LabelLineItems
	}
	kpis.Values[KPITransactions] = float64(transactions)
	if transactions > 0 {
		kpis.Values[KPIAvgTicket] = revenue / float64(transactions)
	} else {
		kpis.Values[KPIAvgTicket] = 0
	}

	if voidCol, ok := s.Col(schema.RoleVoid); ok && t.Has(voidCol) {
		mask := voidMask(t, voidCol)
		voidAmount := 0.0
		for i, row := range t.Rows {
			if mask[i] {
				voidAmount += dataset.FloatOr0(row[amountCol])
			}
		}
		kpis.Values[KPIVoidAmount] = voidAmount
		kpis.Values[KPIVoidRate] = ratePct(voidAmount, revenue)
	}

	if discountCol, ok := s.Col(schema.RoleDiscount); ok && t.Has(discountCol) {
		discount := sumColumn(t, discountCol)
		kpis.Values[KPIDiscountAmount] = discount
		kpis.Values[KPIDiscountRate] = ratePct(discount, revenue)
	}

	if removalCol, ok := s.Col(schema.RoleRemoval); ok && t.Has(removalCol) {
		var removal float64
		if isBoolColumn(t, removalCol) {
			for _, row := range t.Rows {
				if b, _ := dataset.Bool(row[removalCol]); b {
					removal += dataset.FloatOr0(row[amountCol])
				}
			}
		} else {
			removal = sumColumn(t, removalCol)
		}
		kpis.Values[KPIRemovalAmount] = removal
		kpis.Values[KPIRemovalRate] = ratePct(removal, revenue)
	}

	return kpis
}

// ratePct is zero unless revenue is positive.
func ratePct(part, revenue float64) float64 {
	if revenue > 0 {
		return part / revenue * 100
	}
	return 0
}
