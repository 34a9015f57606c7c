// Package services ties the loader, the analysis core, the advanced suite
// and the result store into the operations the API, the job worker and the
// CLI share.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tap-analytics-service/internal/advanced"
	"tap-analytics-service/internal/analysis"
	"tap-analytics-service/internal/config"
	"tap-analytics-service/internal/dataset"
	"tap-analytics-service/internal/daterange"
	"tap-analytics-service/internal/loader"
	"tap-analytics-service/internal/storage"
	"tap-analytics-service/internal/store"

	"go.uber.org/zap"
)

var ErrNoStore = errors.New("result store not configured")

const (
	KindStandard = "standard"
	KindAdvanced = "advanced"

	reportPeriodLayout = "2006-01"
)

// ClientLoader is the part of loader.Loader the service reads through.
type ClientLoader interface {
	ClientRawFiles(ctx context.Context, clientID, folder string, window *daterange.Window) ([]storage.ObjectInfo, error)
	LoadFiles(ctx context.Context, clientID string, files []storage.ObjectInfo) (dataset.Table, loader.Metadata, error)
	LoadAdvancedTables(ctx context.Context, clientID, folder string) (advanced.Tables, loader.Metadata, error)
}

// RunStore persists finished runs.
type RunStore interface {
	SaveRun(ctx context.Context, run store.Run) (store.Run, error)
	SaveTables(ctx context.Context, runID, reportPeriod string, tables map[string]analysis.TableResult) (int, error)
	ListRuns(ctx context.Context, clientID string, limit int) ([]store.Run, error)
}

type Analytics struct {
	Loader  ClientLoader
	Profile *config.LiveProfile
	Store   RunStore
	Log     *zap.Logger

	cache *resultCache
}

func NewAnalytics(l ClientLoader, profile *config.LiveProfile, st RunStore, cacheTTL time.Duration, log *zap.Logger) *Analytics {
	if log == nil {
		log = zap.NewNop()
	}
	return &Analytics{Loader: l, Profile: profile, Store: st, Log: log, cache: newResultCache(cacheTTL)}
}

// StandardReport is the core result plus where it came from.
type StandardReport struct {
	analysis.Result
	Folder               string   `json:"folder"`
	GeneratedAt          string   `json:"generatedAt"`
	ExecutionTimeSeconds float64  `json:"executionTimeSeconds"`
	Sources              []string `json:"sources"`
}

type AdvancedReport struct {
	ClientID             string                          `json:"clientId"`
	Folder               string                          `json:"folder"`
	GeneratedAt          string                          `json:"generatedAt"`
	KPIs                 map[string]float64              `json:"kpis"`
	Charts               map[string][]map[string]any     `json:"charts"`
	Tables               map[string]analysis.TableResult `json:"tables"`
	ExecutionTimeSeconds float64                         `json:"executionTimeSeconds"`
	Sources              []string                        `json:"sources"`
}

// Persisted describes a stored run.
type Persisted struct {
	RunID        string `json:"runId"`
	ReportPeriod string `json:"reportPeriod"`
	Rows         int    `json:"rows"`
}

func (a *Analytics) Folder(clientID string) (string, error) {
	return a.Profile.Get().ClientFolder(clientID)
}

// Standard loads a client's raw exports and runs the core over them.
// Results are cached per client, params and exact file versions.
func (a *Analytics) Standard(ctx context.Context, clientID string, params daterange.Params) (StandardReport, error) {
	start := time.Now()
	profile := a.Profile.Get()
	folder, err := profile.ClientFolder(clientID)
	if err != nil {
		return StandardReport{}, err
	}

	files, err := a.Loader.ClientRawFiles(ctx, clientID, folder, monthWindow(params))
	if err != nil {
		return StandardReport{}, err
	}
	key := cacheKey(KindStandard, clientID, profileTag(profile), params, files)
	if cached, ok := a.cache.get(key); ok {
		a.Log.Info("analysis cache hit", zap.String("client_id", clientID))
		out := cached.(StandardReport)
		out.ClientID = clientID
		return out, nil
	}

	table, meta, err := a.Loader.LoadFiles(ctx, clientID, files)
	if err != nil {
		return StandardReport{}, err
	}
	out := StandardReport{
		Result:               analysis.Run(table, clientID, params, profile.Aliases, a.Log),
		Folder:               folder,
		GeneratedAt:          time.Now().UTC().Format(time.RFC3339),
		ExecutionTimeSeconds: elapsed(start),
		Sources:              meta.Paths,
	}
	a.cache.set(key, out)
	return out, nil
}

// Advanced loads the five exports and runs the multi-table suite.
func (a *Analytics) Advanced(ctx context.Context, clientID string) (AdvancedReport, error) {
	start := time.Now()
	profile := a.Profile.Get()
	folder, err := profile.ClientFolder(clientID)
	if err != nil {
		return AdvancedReport{}, err
	}

	tables, meta, err := a.Loader.LoadAdvancedTables(ctx, clientID, folder)
	if err != nil {
		return AdvancedReport{}, err
	}
	rep := advanced.New(profile.Aliases, profile.Thresholds, a.Log.With(zap.String("client_id", clientID))).Run(tables)
	return AdvancedReport{
		ClientID:             clientID,
		Folder:               folder,
		GeneratedAt:          time.Now().UTC().Format(time.RFC3339),
		KPIs:                 rep.KPIs(),
		Charts:               rep.Charts(),
		Tables:               rep.Tables(),
		ExecutionTimeSeconds: elapsed(start),
		Sources:              meta.Paths,
	}, nil
}

// Persist stores a run and its table rows. An empty reportPeriod means the
// current month.
func (a *Analytics) Persist(ctx context.Context, clientID, kind, reportPeriod string, payload any, tables map[string]analysis.TableResult) (Persisted, error) {
	if a.Store == nil {
		return Persisted{}, ErrNoStore
	}
	if reportPeriod == "" {
		reportPeriod = time.Now().UTC().Format(reportPeriodLayout)
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Persisted{}, fmt.Errorf("encode run payload: %w", err)
	}

	run, err := a.Store.SaveRun(ctx, store.Run{
		ClientID:     clientID,
		Kind:         kind,
		ReportPeriod: reportPeriod,
		Payload:      body,
	})
	if err != nil {
		return Persisted{}, err
	}
	n, err := a.Store.SaveTables(ctx, run.ID, reportPeriod, tables)
	if err != nil {
		return Persisted{}, err
	}
	a.Log.Info("analysis persisted",
		zap.String("client_id", clientID),
		zap.String("run_id", run.ID),
		zap.String("kind", kind),
		zap.Int("rows", n),
	)
	return Persisted{RunID: run.ID, ReportPeriod: reportPeriod, Rows: n}, nil
}

func (a *Analytics) Runs(ctx context.Context, clientID string, limit int) ([]store.Run, error) {
	if a.Store == nil {
		return nil, ErrNoStore
	}
	if _, err := a.Folder(clientID); err != nil {
		return nil, err
	}
	return a.Store.ListRuns(ctx, clientID, limit)
}

// monthWindow narrows the listing to the months of an explicit range.
// Presets depend on the data's last date, so they load everything.
func monthWindow(p daterange.Params) *daterange.Window {
	if p.Preset != "" || p.Start == "" || p.End == "" {
		return nil
	}
	return &daterange.Window{Start: p.Start, End: p.End}
}

func elapsed(start time.Time) float64 {
	return float64(time.Since(start).Milliseconds()) / 1000
}
