package handlers

import (
	"context"
	"time"

	"tap-analytics-service/internal/config"
	"tap-analytics-service/internal/queue"
	"tap-analytics-service/internal/services"

	"go.uber.org/zap"
)

// ReportStore keeps rendered reports and hands out download links.
type ReportStore interface {
	PutObject(ctx context.Context, key string, body []byte, contentType string) (string, error)
	PresignGetObject(ctx context.Context, key string, expires time.Duration) (string, error)
}

// JobQueue accepts async analysis requests.
type JobQueue interface {
	PublishAnalysisJob(ctx context.Context, job queue.AnalysisJob) error
}

// Handler serves the analysis API. Reports and Queue are nil when object
// storage or RabbitMQ are not configured.
type Handler struct {
	Analytics *services.Analytics
	Reports   ReportStore
	Queue     JobQueue
	Logger    *zap.Logger
	Config    config.Config
}
