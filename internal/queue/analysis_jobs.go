package queue

import (
	"context"
	"time"

	"tap-analytics-service/internal/daterange"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	EventsExchange      = "tap.events"
	DeadLetterExchange  = "tap.events.dlx"
	AnalysisJobsQueue   = "tap.analysis.jobs"
	AnalysisJobsDLQ     = "tap.analysis.jobs.dlq"
	AnalysisRequestedRK = "analysis.requested"
	AnalysisCompletedRK = "analysis.completed"
	AnalysisDeadRK      = "analysis.dead"
)

const (
	KindStandard = "standard"
	KindAdvanced = "advanced"
)

// AnalysisJob asks a worker to run one client's analysis.
type AnalysisJob struct {
	JobID        string           `json:"jobId"`
	ClientID     string           `json:"clientId"`
	Kind         string           `json:"kind"`
	Params       daterange.Params `json:"params"`
	ReportPeriod string           `json:"reportPeriod,omitempty"`
	UploadToDB   bool             `json:"uploadToDb"`
	RequestedAt  time.Time        `json:"requestedAt"`
}

// AnalysisCompleted is published once a job finishes, successfully or not.
type AnalysisCompleted struct {
	JobID       string    `json:"jobId"`
	ClientID    string    `json:"clientId"`
	Kind        string    `json:"kind"`
	RunID       string    `json:"runId,omitempty"`
	Status      string    `json:"status"`
	Error       string    `json:"error,omitempty"`
	Rows        int       `json:"rows"`
	CompletedAt time.Time `json:"completedAt"`
}

func analysisTopology() topology {
	return topology{
		exchanges: []exchangeDecl{
			{name: EventsExchange, kind: amqp.ExchangeTopic},
			{name: DeadLetterExchange, kind: amqp.ExchangeDirect},
		},
		queues: []queueDecl{
			{name: AnalysisJobsDLQ, exchange: DeadLetterExchange, key: AnalysisDeadRK},
			{
				name: AnalysisJobsQueue,
				args: amqp.Table{
					"x-dead-letter-exchange":    DeadLetterExchange,
					"x-dead-letter-routing-key": AnalysisDeadRK,
				},
				exchange: EventsExchange,
				key:      AnalysisRequestedRK,
			},
		},
	}
}

// EnsureAnalysisTopology declares the exchanges and queues the API and the
// worker share. The dead-letter queue is declared first so rejected jobs
// always have somewhere to land.
func EnsureAnalysisTopology(ctx context.Context, qc *Client) error {
	if qc == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return qc.declare(analysisTopology())
}

func (c *Client) PublishAnalysisJob(ctx context.Context, job AnalysisJob) error {
	return c.publishJSON(ctx, EventsExchange, AnalysisRequestedRK, job)
}

func (c *Client) PublishAnalysisCompleted(ctx context.Context, evt AnalysisCompleted) error {
	return c.publishJSON(ctx, EventsExchange, AnalysisCompletedRK, evt)
}
