// Package analysis turns one schema-tolerant POS table into the dashboard
// payload: KPIs, zero-filled time charts and leaderboard tables.
package analysis

import (
	"encoding/json"
)

const NoDataMessage = "No data available"

// TableResult is the columns-plus-rows shape every table builder returns.
type TableResult struct {
	Columns []string         `json:"columns"`
	Data    []map[string]any `json:"data"`
}

// MessageTable is the single-row placeholder used when a table cannot be built.
func MessageTable(message string) TableResult {
	return TableResult{
		Columns: []string{"message"},
		Data:    []map[string]any{{"message": message}},
	}
}

// IsMessage reports whether the table is a placeholder.
func (t TableResult) IsMessage() bool {
	return len(t.Columns) == 1 && t.Columns[0] == "message"
}

// KPI names as they appear in the payload.
const (
	KPIRevenue         = "Revenue"
	KPITransactions    = "Transactions"
	KPIAvgTicket       = "Avg Ticket"
	KPIVoidAmount      = "Void $"
	KPIVoidRate        = "Void Rate %"
	KPIDiscountAmount  = "Discount $"
	KPIDiscountRate    = "Discount Rate %"
	KPIRemovalAmount   = "Removal $"
	KPIRemovalRate     = "Removal Rate %"
	LabelTransactions  = "Transactions"
	LabelLineItems     = "Line Items"
	transactionsLabelK = "transactionsLabel"
)

// KPIs holds only the metrics whose inputs resolved. TransactionsLabel says
// whether Transactions counts distinct orders or raw line items.
type KPIs struct {
	Values            map[string]float64
	TransactionsLabel string
}

func (k KPIs) Get(name string) (float64, bool) {
	v, ok := k.Values[name]
	return v, ok
}

func (k KPIs) Empty() bool {
	return len(k.Values) == 0
}

// MarshalJSON writes the metrics and the label into one flat object.
func (k KPIs) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(k.Values)+1)
	for name, v := range k.Values {
		out[name] = v
	}
	if k.TransactionsLabel != "" {
		out[transactionsLabelK] = k.TransactionsLabel
	}
	return json.Marshal(out)
}

func (k *KPIs) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	k.Values = make(map[string]float64, len(raw))
	for name, v := range raw {
		switch t := v.(type) {
		case float64:
			k.Values[name] = t
		case string:
			if name == transactionsLabelK {
				k.TransactionsLabel = t
			}
		}
	}
	return nil
}

type DataCoverage struct {
	MinDate       *string  `json:"minDate"`
	MaxDate       *string  `json:"maxDate"`
	RowCount      int      `json:"rowCount"`
	DateCol       *string  `json:"dateCol"`
	ColumnsSample []string `json:"columnsSample"`
}

type Charts struct {
	HourOfDay      []map[string]any `json:"hour_of_day"`
	DayOfWeek      []map[string]any `json:"day_of_week"`
	RevenueHeatmap []map[string]any `json:"revenue_heatmap"`
	HourlyRevenue  []map[string]any `json:"hourly_revenue"`
}

type Tables struct {
	WasteEfficiency     TableResult `json:"waste_efficiency"`
	EmployeePerformance TableResult `json:"employee_performance"`
	MenuVolatility      TableResult `json:"menu_volatility"`
}

// Result is the full dashboard payload for one client.
type Result struct {
	ClientID     string       `json:"clientId"`
	KPIs         KPIs         `json:"kpis"`
	Charts       Charts       `json:"charts"`
	Tables       Tables       `json:"tables"`
	DataCoverage DataCoverage `json:"dataCoverage"`
}

// EmptyResult is the valid shape returned when nothing survives filtering.
func EmptyResult(clientID string) Result {
	return Result{
		ClientID: clientID,
		KPIs:     KPIs{Values: map[string]float64{}},
		Charts: Charts{
			HourOfDay:      []map[string]any{},
			DayOfWeek:      []map[string]any{},
			RevenueHeatmap: []map[string]any{},
			HourlyRevenue:  []map[string]any{},
		},
		Tables: Tables{
			WasteEfficiency:     MessageTable(NoDataMessage),
			EmployeePerformance: MessageTable(NoDataMessage),
			MenuVolatility:      MessageTable(NoDataMessage),
		},
		DataCoverage: DataCoverage{ColumnsSample: []string{}},
	}
}

// TableMap keys the tables by their payload names, for persistence and reports.
func (t Tables) TableMap() map[string]TableResult {
	return map[string]TableResult{
		"waste_efficiency":     t.WasteEfficiency,
		"employee_performance": t.EmployeePerformance,
		"menu_volatility":      t.MenuVolatility,
	}
}
