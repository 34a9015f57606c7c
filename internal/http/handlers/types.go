package handlers

import (
	"tap-analytics-service/internal/analysis"
	"tap-analytics-service/internal/daterange"
	"tap-analytics-service/internal/services"
)

type runRequest struct {
	ClientID string `json:"clientId"`
	Params   struct {
		DateRange daterange.Params `json:"dateRange"`
	} `json:"params"`
}

type advancedRequest struct {
	ClientID string `json:"clientId"`
	Params   struct {
		UploadToDB   bool   `json:"upload_to_db"`
		ReportPeriod string `json:"report_period"`
	} `json:"params"`
}

type jobRequest struct {
	ClientID string `json:"clientId"`
	Kind     string `json:"kind"`
	Params   struct {
		DateRange    daterange.Params `json:"dateRange"`
		UploadToDB   bool             `json:"upload_to_db"`
		ReportPeriod string           `json:"report_period"`
	} `json:"params"`
}

// cappedTable is a table trimmed for transport, with counts of what was cut.
type cappedTable struct {
	Columns      []string         `json:"columns"`
	Data         []map[string]any `json:"data"`
	TotalRows    int              `json:"total_rows"`
	ReturnedRows int              `json:"returned_rows"`
	Truncated    bool             `json:"truncated"`
}

type uploadStatus struct {
	Success bool                `json:"success"`
	Run     *services.Persisted `json:"run,omitempty"`
	Error   string              `json:"error,omitempty"`
}

type advancedResponse struct {
	ClientID             string                      `json:"clientId"`
	Folder               string                      `json:"folder"`
	GeneratedAt          string                      `json:"generatedAt"`
	KPIs                 map[string]float64          `json:"kpis"`
	Charts               map[string][]map[string]any `json:"charts"`
	Tables               map[string]cappedTable      `json:"tables"`
	ExecutionTimeSeconds float64                     `json:"executionTimeSeconds"`
	Sources              []string                    `json:"sources"`
	Upload               *uploadStatus               `json:"upload,omitempty"`
}

type clientEntry struct {
	ID     string `json:"id"`
	Folder string `json:"folder"`
}

func capTables(tables map[string]analysis.TableResult, limit int) map[string]cappedTable {
	out := make(map[string]cappedTable, len(tables))
	for name, t := range tables {
		data := t.Data
		if data == nil {
			data = []map[string]any{}
		}
		total := len(data)
		if total > limit {
			data = data[:limit]
		}
		out[name] = cappedTable{
			Columns:      t.Columns,
			Data:         data,
			TotalRows:    total,
			ReturnedRows: len(data),
			Truncated:    total > limit,
		}
	}
	return out
}
