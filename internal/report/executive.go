// Package report renders the one-page executive summary PDF.
package report

import (
	"bytes"
	"fmt"
	"time"

	"tap-analytics-service/internal/analysis"

	"github.com/phpdave11/gofpdf"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	topItemsLimit = 10
	topStaffLimit = 5
	itemNameWidth = 40
)

type rgb struct{ r, g, b int }

var (
	colorNavy  = rgb{15, 23, 42}
	colorGold  = rgb{251, 191, 36}
	colorWhite = rgb{255, 255, 255}
	colorMist  = rgb{203, 213, 225}
	colorSlate = rgb{100, 116, 139}
)

var printer = message.NewPrinter(language.English)

func money(v float64) string {
	return printer.Sprintf("$%.2f", v)
}

func count(v float64) string {
	return printer.Sprintf("%d", int64(v))
}

// ExecutiveSummary lays out headline KPIs, the top menu items and the staff
// leaderboard for one client.
func ExecutiveSummary(clientName string, result analysis.Result, generatedAt time.Time) (*bytes.Buffer, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 20)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pageW, _ := pdf.GetPageSize()

	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Arial", "", 8)
		setText(pdf, colorSlate)
		pdf.CellFormat(90, 5, "TAP Analytics - Track. Analyze. Profit.", "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 5, "Confidential - For Internal Use Only", "", 0, "R", false, 0, "")
	})
	pdf.AddPage()

	// Header band with gold accent bar.
	setFill(pdf, colorNavy)
	pdf.Rect(0, 0, pageW, 42, "F")
	setFill(pdf, colorGold)
	pdf.Rect(0, 42, pageW, 1.8, "F")

	pdf.SetXY(15, 10)
	setText(pdf, colorWhite)
	pdf.SetFont("Arial", "B", 24)
	pdf.CellFormat(0, 11, "TAP Analytics", "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 14)
	pdf.CellFormat(0, 8, tr(fmt.Sprintf("%s - Executive Summary", clientName)), "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	setText(pdf, colorMist)
	pdf.CellFormat(0, 6, "Generated: "+generatedAt.Format("January 2, 2006 at 03:04 PM"), "", 1, "L", false, 0, "")

	pdf.SetY(52)
	section(pdf, "Performance Overview")
	pdf.SetFont("Arial", "", 11)
	for _, line := range overviewLines(result) {
		pdf.CellFormat(0, 7, tr(line), "", 1, "L", false, 0, "")
	}

	pdf.Ln(4)
	section(pdf, "Top 10 Menu Items")
	revenue, _ := result.KPIs.Get(analysis.KPIRevenue)
	items := topRows(result.Tables.MenuVolatility, "Item", "Revenue", topItemsLimit)
	tableHeader(pdf, []string{"Item Name", "Revenue", "% of Total"}, []float64{110, 40, 30})
	pdf.SetFont("Arial", "", 9)
	for _, it := range items {
		share := 0.0
		if revenue > 0 {
			share = it.value / revenue * 100
		}
		pdf.CellFormat(110, 6, tr(truncate(it.label, itemNameWidth)), "", 0, "L", false, 0, "")
		pdf.CellFormat(40, 6, money(it.value), "", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%.1f%%", share), "", 1, "L", false, 0, "")
	}
	if len(items) == 0 {
		pdf.CellFormat(0, 6, analysis.NoDataMessage, "", 1, "L", false, 0, "")
	}

	pdf.Ln(4)
	section(pdf, "Staff Leaderboard")
	staff := topRows(result.Tables.EmployeePerformance, "Server", "Revenue", topStaffLimit)
	tableHeader(pdf, []string{"#", "Server", "Revenue"}, []float64{12, 98, 40})
	pdf.SetFont("Arial", "", 9)
	for i, s := range staff {
		pdf.CellFormat(12, 6, fmt.Sprintf("%d", i+1), "", 0, "L", false, 0, "")
		pdf.CellFormat(98, 6, tr(truncate(s.label, itemNameWidth)), "", 0, "L", false, 0, "")
		pdf.CellFormat(40, 6, money(s.value), "", 1, "L", false, 0, "")
	}
	if len(staff) == 0 {
		pdf.CellFormat(0, 6, analysis.NoDataMessage, "", 1, "L", false, 0, "")
	}

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, fmt.Errorf("render executive summary: %w", err)
	}
	return &out, nil
}

func overviewLines(result analysis.Result) []string {
	kpis := result.KPIs
	var lines []string
	if v, ok := kpis.Get(analysis.KPIRevenue); ok {
		lines = append(lines, "Total Revenue: "+money(v))
	}
	if v, ok := kpis.Get(analysis.KPITransactions); ok {
		label := kpis.TransactionsLabel
		if label == "" {
			label = analysis.LabelTransactions
		}
		lines = append(lines, fmt.Sprintf("Total %s: %s", label, count(v)))
	}
	if v, ok := kpis.Get(analysis.KPIAvgTicket); ok {
		lines = append(lines, "Average Ticket: "+money(v))
	}
	if v, ok := kpis.Get(analysis.KPIVoidRate); ok {
		lines = append(lines, fmt.Sprintf("Void Rate: %.1f%%", v))
	}
	if v, ok := kpis.Get(analysis.KPIDiscountRate); ok {
		lines = append(lines, fmt.Sprintf("Discount Rate: %.1f%%", v))
	}
	return append(lines, "Reporting Period: "+period(result.DataCoverage))
}

func period(c analysis.DataCoverage) string {
	if c.MinDate == nil || c.MaxDate == nil {
		return "N/A"
	}
	return *c.MinDate + " to " + *c.MaxDate
}

type rankedRow struct {
	label string
	value float64
}

// topRows reads label/value pairs from a table already sorted by value.
// Placeholder tables yield nothing.
func topRows(t analysis.TableResult, labelCol, valueCol string, limit int) []rankedRow {
	if t.IsMessage() {
		return nil
	}
	var out []rankedRow
	for _, row := range t.Data {
		if len(out) == limit {
			break
		}
		label := fmt.Sprint(row[labelCol])
		value, _ := row[valueCol].(float64)
		out = append(out, rankedRow{label: label, value: value})
	}
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func section(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Arial", "B", 14)
	setText(pdf, colorNavy)
	pdf.CellFormat(0, 9, title, "", 1, "L", false, 0, "")
}

func tableHeader(pdf *gofpdf.Fpdf, labels []string, widths []float64) {
	pdf.SetFont("Arial", "B", 10)
	setDraw(pdf, colorMist)
	for i, label := range labels {
		ln := 0
		if i == len(labels)-1 {
			ln = 1
		}
		pdf.CellFormat(widths[i], 7, label, "B", ln, "L", false, 0, "")
	}
	setText(pdf, colorNavy)
}

func setFill(pdf *gofpdf.Fpdf, c rgb) { pdf.SetFillColor(c.r, c.g, c.b) }
func setText(pdf *gofpdf.Fpdf, c rgb) { pdf.SetTextColor(c.r, c.g, c.b) }
func setDraw(pdf *gofpdf.Fpdf, c rgb) { pdf.SetDrawColor(c.r, c.g, c.b) }
