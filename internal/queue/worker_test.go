package queue

import (
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
)

func TestGetRetryCount(t *testing.T) {
	cases := []struct {
		name     string
		headers  amqp.Table
		expected int
	}{
		{name: "nil headers", headers: nil, expected: 0},
		{name: "missing", headers: amqp.Table{"other": "x"}, expected: 0},
		{name: "int32", headers: amqp.Table{"x-retry-count": int32(2)}, expected: 2},
		{name: "int64", headers: amqp.Table{"x-retry-count": int64(3)}, expected: 3},
		{name: "int", headers: amqp.Table{"x-retry-count": 1}, expected: 1},
		{name: "wrong type", headers: amqp.Table{"x-retry-count": "4"}, expected: 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := getRetryCount(tc.headers); got != tc.expected {
				t.Fatalf("expected %d, got %d", tc.expected, got)
			}
		})
	}
}

func TestAnalysisTopologyDeadLetters(t *testing.T) {
	topo := analysisTopology()
	if len(topo.exchanges) != 2 {
		t.Fatalf("expected 2 exchanges, got %d", len(topo.exchanges))
	}
	if topo.queues[0].name != AnalysisJobsDLQ {
		t.Fatalf("expected the dead-letter queue to be declared first, got %s", topo.queues[0].name)
	}

	jobs := topo.queues[1]
	if jobs.name != AnalysisJobsQueue || jobs.key != AnalysisRequestedRK {
		t.Fatalf("unexpected jobs queue %+v", jobs)
	}
	if jobs.args["x-dead-letter-exchange"] != DeadLetterExchange {
		t.Fatalf("expected jobs to dead-letter to %s, got %v", DeadLetterExchange, jobs.args["x-dead-letter-exchange"])
	}
	if jobs.args["x-dead-letter-routing-key"] != topo.queues[0].key {
		t.Fatalf("expected dead-letter routing key %s, got %v", topo.queues[0].key, jobs.args["x-dead-letter-routing-key"])
	}
}
