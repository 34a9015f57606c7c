package analysis

import (
	"sort"
	"strings"

	"tap-analytics-service/internal/dataset"
	"tap-analytics-service/internal/schema"

	"go.uber.org/zap"
)

const (
	wasteRowLimit    = 100
	reasonLimit      = 10
	employeeRowLimit = 50
	menuRowLimit     = 100
)

var wasteColumnOrder = []string{"Category", "Reason", "Revenue", "Void_Amount", "Void_Rate_Pct", "Count"}

var employeeAliasHint = []string{"Employee", "Server", "Server Name", "Staff", "Created By", "User", "Bartender"}

// WasteEfficiency breaks void spend down by category, or by the top void
// reasons inside each category when a reason column exists.
func WasteEfficiency(t dataset.Table, s schema.Schema, log *zap.Logger) TableResult {
	amountCol, ok := s.Col(schema.RoleAmount)
	if !ok {
		return MessageTable("Amount column not found")
	}
	voidCol, ok := s.Col(schema.RoleVoid)
	if !ok || !t.Has(voidCol) {
		return MessageTable("Void flag column not found")
	}
	mask := voidMask(t, voidCol)

	var keys []string
	var groups map[string][]int
	if categoryCol, ok := s.Col(schema.RoleCategory); ok && t.Has(categoryCol) {
		keys, groups = groupIndex(t, categoryCol)
	} else {
		all := make([]int, len(t.Rows))
		for i := range all {
			all[i] = i
		}
		keys = []string{"All"}
		groups = map[string][]int{"All": all}
	}
	reasonCol, hasReason := s.Col(schema.RoleReason)
	hasReason = hasReason && t.Has(reasonCol)

	rows := make([]map[string]any, 0)
	for _, category := range keys {
		idx := groups[category]
		if hasReason {
			rows = append(rows, topVoidReasons(t, idx, mask, category, amountCol, reasonCol)...)
			continue
		}
		revenue, voidAmount := 0.0, 0.0
		for _, i := range idx {
			amount := dataset.FloatOr0(t.Rows[i][amountCol])
			revenue += amount
			if mask[i] {
				voidAmount += amount
			}
		}
		rows = append(rows, map[string]any{
			"Category":      category,
			"Revenue":       revenue,
			"Void_Amount":   voidAmount,
			"Void_Rate_Pct": ratePct(voidAmount, revenue),
		})
	}

	return TableResult{Columns: wasteColumns(rows), Data: capRows(rows, wasteRowLimit)}
}

func topVoidReasons(t dataset.Table, idx []int, mask []bool, category, amountCol, reasonCol string) []map[string]any {
	type agg struct {
		amount float64
		count  int
	}
	byReason := map[string]*agg{}
	var order []string
	for _, i := range idx {
		if !mask[i] {
			continue
		}
		reason, ok := dataset.GroupKey(t.Rows[i][reasonCol])
		if !ok {
			continue
		}
		a := byReason[reason]
		if a == nil {
			a = &agg{}
			byReason[reason] = a
			order = append(order, reason)
		}
		if amount, ok := dataset.Float(t.Rows[i][amountCol]); ok {
			a.amount += amount
			a.count++
		}
	}
	sort.Strings(order)

	rows := make([]map[string]any, 0, len(order))
	for _, reason := range order {
		a := byReason[reason]
		rows = append(rows, map[string]any{
			"Category":    category,
			"Reason":      reason,
			"Void_Amount": a.amount,
			"Count":       a.count,
		})
	}
	sortByDesc(rows, "Void_Amount")
	return capRows(rows, reasonLimit)
}

func wasteColumns(rows []map[string]any) []string {
	if len(rows) == 0 {
		return []string{"Category", "Revenue", "Void_Amount", "Void_Rate_Pct"}
	}
	present := map[string]bool{}
	for _, row := range rows {
		for k := range row {
			present[k] = true
		}
	}
	columns := make([]string, 0, len(present))
	preferred := map[string]bool{}
	for _, c := range wasteColumnOrder {
		preferred[c] = true
		if present[c] {
			columns = append(columns, c)
		}
	}
	var extra []string
	for c := range present {
		if !preferred[c] {
			extra = append(extra, c)
		}
	}
	sort.Strings(extra)
	return append(columns, extra...)
}

// EmployeePerformance ranks servers by revenue. A missing employee column
// yields a message table listing the expected aliases and what was found.
func EmployeePerformance(t dataset.Table, s schema.Schema, log *zap.Logger) TableResult {
	log = orNop(log)
	amountCol, ok := s.Col(schema.RoleAmount)
	if !ok {
		return MessageTable("Amount column not found")
	}
	employeeCol, ok := s.Col(schema.RoleEmployee)
	if !ok || !t.Has(employeeCol) {
		message := "Employee column not found. Expected aliases: " + strings.Join(employeeAliasHint, ", ") +
			". Available columns: " + strings.Join(t.FirstHeaders(10), ", ")
		log.Warn("employee performance skipped", zap.String("reason", message))
		return MessageTable(message)
	}

	orderCol, hasOrder := s.Col(schema.RoleOrderID)
	hasOrder = hasOrder && t.Has(orderCol)
	voidCol, hasVoid := s.Col(schema.RoleVoid)
	hasVoid = hasVoid && t.Has(voidCol)
	var mask []bool
	if hasVoid {
		mask = voidMask(t, voidCol)
	}

	keys, groups := groupIndex(t, employeeCol)
	rows := make([]map[string]any, 0, len(keys))
	for _, server := range keys {
		idx := groups[server]
		revenue, voidAmount := 0.0, 0.0
		orders := map[string]struct{}{}
		for _, i := range idx {
			amount := dataset.FloatOr0(t.Rows[i][amountCol])
			revenue += amount
			if hasVoid && mask[i] {
				voidAmount += amount
			}
			if hasOrder {
				if id, ok := dataset.GroupKey(t.Rows[i][orderCol]); ok {
					orders[id] = struct{}{}
				}
			}
		}
		transactions := len(idx)
		if hasOrder {
			transactions = len(orders)
		}
		row := map[string]any{
			"Server":       server,
			"Revenue":      revenue,
			"Transactions": transactions,
		}
		if hasVoid {
			row["Void_Amount"] = voidAmount
			row["Void_Rate_Pct"] = pct(voidAmount, revenue)
		}
		rows = append(rows, row)
	}
	sortByDesc(rows, "Revenue")

	columns := []string{"Server", "Revenue", "Transactions"}
	if hasVoid {
		columns = append(columns, "Void_Amount", "Void_Rate_Pct")
	}
	return TableResult{Columns: columns, Data: capRows(rows, employeeRowLimit)}
}

// MenuVolatility ranks items by revenue. Volatility is the sample standard
// deviation of each item's daily revenue; a single trading day gives 0.
func MenuVolatility(t dataset.Table, s schema.Schema, log *zap.Logger) TableResult {
	amountCol, ok := s.Col(schema.RoleAmount)
	if !ok {
		return MessageTable("Amount column not found")
	}
	itemCol, ok := s.Col(schema.RoleItem)
	if !ok || !t.Has(itemCol) {
		return MessageTable("Item column not found")
	}
	categoryCol, hasCategory := s.Col(schema.RoleCategory)
	hasCategory = hasCategory && t.Has(categoryCol)
	dateCol, hasDate := s.Col(schema.RoleDatetime)
	hasDate = hasDate && t.Has(dateCol)

	keys, groups := groupIndex(t, itemCol)
	rows := make([]map[string]any, 0, len(keys))
	for _, item := range keys {
		idx := groups[item]
		revenue := 0.0
		count := 0
		category := ""
		hasCat := false
		daily := map[string]float64{}
		var days []string
		for _, i := range idx {
			row := t.Rows[i]
			amount, amountOK := dataset.Float(row[amountCol])
			if amountOK {
				revenue += amount
				count++
			}
			if hasCategory && !hasCat {
				category, hasCat = dataset.GroupKey(row[categoryCol])
			}
			if hasDate && amountOK {
				if ts, ok := dataset.Time(row[dateCol]); ok {
					day := ts.Format("2006-01-02")
					if _, seen := daily[day]; !seen {
						days = append(days, day)
					}
					daily[day] += amount
				}
			}
		}

		values := make([]float64, 0, len(days))
		for _, d := range days {
			values = append(values, daily[d])
		}
		out := map[string]any{
			"Item":       item,
			"Revenue":    revenue,
			"Count":      count,
			"Volatility": sampleStdDev(values),
		}
		if hasCategory {
			if hasCat {
				out["Category"] = category
			} else {
				out["Category"] = nil
			}
		}
		rows = append(rows, out)
	}
	sortByDesc(rows, "Revenue")

	columns := []string{"Item", "Revenue", "Count"}
	if hasCategory {
		columns = append(columns, "Category")
	}
	columns = append(columns, "Volatility")
	return TableResult{Columns: columns, Data: capRows(rows, menuRowLimit)}
}
