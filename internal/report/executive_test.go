package report

import (
	"bytes"
	"testing"
	"time"

	"tap-analytics-service/internal/analysis"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() analysis.Result {
	minDate, maxDate := "2024-06-01", "2024-06-30"
	r := analysis.EmptyResult("melrose")
	r.KPIs = analysis.KPIs{
		Values: map[string]float64{
			analysis.KPIRevenue:      12500,
			analysis.KPITransactions: 410,
			analysis.KPIAvgTicket:    30.49,
			analysis.KPIVoidRate:     2.5,
		},
		TransactionsLabel: analysis.LabelTransactions,
	}
	r.Tables.MenuVolatility = analysis.TableResult{
		Columns: []string{"Item", "Revenue", "Count", "Volatility"},
		Data: []map[string]any{
			{"Item": "Grey Goose BTL", "Revenue": 4000.0, "Count": 10, "Volatility": 12.0},
			{"Item": "Crème Brûlée", "Revenue": 500.0, "Count": 50, "Volatility": 3.0},
		},
	}
	r.Tables.EmployeePerformance = analysis.TableResult{
		Columns: []string{"Server", "Revenue", "Transactions"},
		Data:    []map[string]any{{"Server": "Ann", "Revenue": 7000.0, "Transactions": 200}},
	}
	r.DataCoverage.MinDate, r.DataCoverage.MaxDate = &minDate, &maxDate
	return r
}

func TestExecutiveSummaryRendersPDF(t *testing.T) {
	buf, err := ExecutiveSummary("Melrose", sampleResult(), time.Date(2024, 7, 1, 9, 30, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	assert.Greater(t, buf.Len(), 1000)
}

func TestExecutiveSummaryEmptyResult(t *testing.T) {
	buf, err := ExecutiveSummary("Fancy", analysis.EmptyResult("fancy"), time.Now())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestOverviewLines(t *testing.T) {
	lines := overviewLines(sampleResult())
	assert.Equal(t, []string{
		"Total Revenue: $12,500.00",
		"Total Transactions: 410",
		"Average Ticket: $30.49",
		"Void Rate: 2.5%",
		"Reporting Period: 2024-06-01 to 2024-06-30",
	}, lines)

	assert.Equal(t, []string{"Reporting Period: N/A"}, overviewLines(analysis.EmptyResult("x")))
}

func TestTopRows(t *testing.T) {
	rows := topRows(sampleResult().Tables.MenuVolatility, "Item", "Revenue", 1)
	require.Len(t, rows, 1)
	assert.Equal(t, "Grey Goose BTL", rows[0].label)
	assert.Equal(t, 4000.0, rows[0].value)

	assert.Empty(t, topRows(analysis.MessageTable(analysis.NoDataMessage), "Item", "Revenue", 10))
}
