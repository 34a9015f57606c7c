package analysis

import (
	"tap-analytics-service/internal/dataset"
)

const columnsSampleSize = 30

// Coverage reports the date span and size of t. It never fails; missing or
// unparseable dates leave the bounds nil.
func Coverage(t dataset.Table, dateCol string) DataCoverage {
	if t.Empty() {
		return DataCoverage{ColumnsSample: []string{}}
	}
	cov := DataCoverage{
		RowCount:      t.Len(),
		ColumnsSample: t.FirstHeaders(columnsSampleSize),
	}
	if dateCol == "" || !t.Has(dateCol) {
		return cov
	}
	col := dateCol
	cov.DateCol = &col

	var minDate, maxDate string
	for _, row := range t.Rows {
		ts, ok := dataset.Time(row[dateCol])
		if !ok {
			continue
		}
		day := ts.UTC().Format("2006-01-02")
		if minDate == "" || day < minDate {
			minDate = day
		}
		if maxDate == "" || day > maxDate {
			maxDate = day
		}
	}
	if minDate != "" {
		cov.MinDate = &minDate
		cov.MaxDate = &maxDate
	}
	return cov
}
