package loader

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"tap-analytics-service/internal/dataset"
	"tap-analytics-service/internal/schema"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Decode parses one export by file extension. CSV text that is not valid
// UTF-8 is read as Windows-1252, then ISO-8859-1.
func Decode(name string, data []byte) (dataset.Table, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".txt":
		return decodeCSV(name, data)
	case ".xlsx", ".xlsm":
		return decodeXLSX(name, data)
	default:
		return dataset.Table{}, fmt.Errorf("%s: %w", name, ErrUnsupportedFormat)
	}
}

func decodeCSV(name string, data []byte) (dataset.Table, error) {
	text, err := toUTF8(bytes.TrimPrefix(data, utf8BOM))
	if err != nil {
		return dataset.Table{}, fmt.Errorf("decode %s: %w", name, err)
	}
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	records, err := r.ReadAll()
	if err != nil {
		return dataset.Table{}, fmt.Errorf("parse %s: %w", name, err)
	}
	return dataset.FromRecords(records), nil
}

func toUTF8(data []byte) (string, error) {
	if utf8.Valid(data) {
		return string(data), nil
	}
	if out, err := charmap.Windows1252.NewDecoder().Bytes(data); err == nil {
		return string(out), nil
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// decodeXLSX reads the first sheet that has any rows.
func decodeXLSX(name string, data []byte) (dataset.Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return dataset.Table{}, fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
		if err != nil {
			return dataset.Table{}, fmt.Errorf("read %s/%s: %w", name, sheet, err)
		}
		if len(rows) > 0 {
			serialDatesToText(rows)
			return dataset.FromRecords(rows), nil
		}
	}
	return dataset.Table{}, nil
}

const (
	sheetDateLayout = "2006-01-02 15:04:05"
	// 1 is 1900-01-01 and 2958465 is 9999-12-31 in the 1900 date system.
	minSerialDate = 1
	maxSerialDate = 2958465
)

// serialDatesToText rewrites the numeric cells of date columns in place.
// Raw sheet values carry dates as day serials, which no date layout parses.
func serialDatesToText(rows [][]string) {
	cols := dateColumns(rows[0])
	if len(cols) == 0 {
		return
	}
	for _, row := range rows[1:] {
		for _, i := range cols {
			if i >= len(row) {
				continue
			}
			serial, err := strconv.ParseFloat(strings.TrimSpace(row[i]), 64)
			if err != nil || serial < minSerialDate || serial > maxSerialDate {
				continue
			}
			ts, err := excelize.ExcelDateToTime(serial, false)
			if err != nil {
				continue
			}
			row[i] = ts.Round(time.Second).Format(sheetDateLayout)
		}
	}
}

// dateColumns finds the header positions that name a date: any configured
// datetime alias, or a header mentioning "date".
func dateColumns(headers []string) []int {
	aliases := schema.DefaultAliases()
	known := map[string]bool{}
	for _, a := range aliases.Candidates(schema.RoleDatetime) {
		known[schema.Normalize(a)] = true
	}
	for _, a := range aliases.DateCandidates {
		known[schema.Normalize(a)] = true
	}

	var cols []int
	for i, h := range dataset.CleanHeaders(headers) {
		n := schema.Normalize(h)
		if n != "" && (known[n] || strings.Contains(n, "date")) {
			cols = append(cols, i)
		}
	}
	return cols
}

// headerLine returns the first line of a byte prefix, decoded leniently.
func headerLine(prefix []byte) string {
	prefix = bytes.TrimPrefix(prefix, utf8BOM)
	if i := bytes.IndexByte(prefix, '\n'); i >= 0 {
		prefix = prefix[:i]
	}
	if !utf8.Valid(prefix) {
		if out, err := charmap.ISO8859_1.NewDecoder().Bytes(prefix); err == nil {
			prefix = out
		}
	}
	return strings.ToValidUTF8(string(prefix), "")
}
