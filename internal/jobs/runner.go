// Package jobs executes queued analysis requests.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tap-analytics-service/internal/analysis"
	"tap-analytics-service/internal/config"
	"tap-analytics-service/internal/loader"
	"tap-analytics-service/internal/queue"
	"tap-analytics-service/internal/services"

	"go.uber.org/zap"
)

const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Publisher announces finished jobs.
type Publisher interface {
	PublishAnalysisCompleted(ctx context.Context, evt queue.AnalysisCompleted) error
}

type Runner struct {
	Analytics *services.Analytics
	Publisher Publisher
	Log       *zap.Logger
}

// Handle runs one queued job. Client errors are final and only reported;
// anything else is returned so the consumer retries it.
func (r *Runner) Handle(ctx context.Context, body []byte) error {
	var job queue.AnalysisJob
	if err := json.Unmarshal(body, &job); err != nil {
		r.Log.Warn("analysis job malformed, dropping", zap.Error(err))
		return nil
	}
	log := r.Log.With(zap.String("job_id", job.JobID), zap.String("client_id", job.ClientID), zap.String("kind", job.Kind))
	log.Info("analysis job started")

	evt := queue.AnalysisCompleted{JobID: job.JobID, ClientID: job.ClientID, Kind: job.Kind}
	persisted, err := r.run(ctx, job)
	if err != nil {
		if !final(err) {
			log.Warn("analysis job failed, will retry", zap.Error(err))
			return err
		}
		log.Warn("analysis job rejected", zap.Error(err))
		evt.Status = StatusFailed
		evt.Error = err.Error()
	} else {
		evt.Status = StatusSucceeded
		evt.RunID = persisted.RunID
		evt.Rows = persisted.Rows
	}

	evt.CompletedAt = time.Now().UTC()
	if r.Publisher != nil {
		if err := r.Publisher.PublishAnalysisCompleted(ctx, evt); err != nil {
			log.Warn("analysis completion publish failed", zap.Error(err))
		}
	}
	log.Info("analysis job finished", zap.String("status", evt.Status), zap.Int("rows", evt.Rows))
	return nil
}

func (r *Runner) run(ctx context.Context, job queue.AnalysisJob) (services.Persisted, error) {
	var (
		payload any
		tables  map[string]analysis.TableResult
	)
	switch job.Kind {
	case queue.KindAdvanced:
		rep, err := r.Analytics.Advanced(ctx, job.ClientID)
		if err != nil {
			return services.Persisted{}, err
		}
		payload, tables = rep, rep.Tables
	case queue.KindStandard, "":
		rep, err := r.Analytics.Standard(ctx, job.ClientID, job.Params)
		if err != nil {
			return services.Persisted{}, err
		}
		payload, tables = rep, rep.Tables.TableMap()
	default:
		return services.Persisted{}, fmt.Errorf("%w: %q", errUnknownKind, job.Kind)
	}

	if !job.UploadToDB {
		return services.Persisted{}, nil
	}
	kind := job.Kind
	if kind == "" {
		kind = queue.KindStandard
	}
	return r.Analytics.Persist(ctx, job.ClientID, kind, job.ReportPeriod, payload, tables)
}

var errUnknownKind = errors.New("unknown job kind")

// final reports errors a retry cannot fix.
func final(err error) bool {
	for _, target := range []error{
		config.ErrUnknownClient,
		errUnknownKind,
		services.ErrNoStore,
		loader.ErrNoFiles,
		loader.ErrNoRawFiles,
		loader.ErrNothingLoaded,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
