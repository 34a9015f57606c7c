package middleware

import (
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const latencySamples = 200

// RouteLatency is the rolling latency summary of one route.
type RouteLatency struct {
	Samples int   `json:"samples"`
	P50Ms   int64 `json:"p50_ms"`
	P95Ms   int64 `json:"p95_ms"`
}

// ring keeps the most recent samples of one route.
type ring struct {
	buf  []int64
	next int
}

func (r *ring) push(v int64, size int) {
	if len(r.buf) < size {
		r.buf = append(r.buf, v)
		return
	}
	r.buf[r.next] = v
	r.next = (r.next + 1) % size
}

func (r *ring) summary() RouteLatency {
	sorted := append([]int64(nil), r.buf...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return RouteLatency{
		Samples: len(sorted),
		P50Ms:   nearestRank(sorted, 50),
		P95Ms:   nearestRank(sorted, 95),
	}
}

// nearestRank reads the pct-th percentile of an ascending slice.
func nearestRank(sorted []int64, pct int) int64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	rank := (pct*n + 99) / 100
	if rank < 1 {
		rank = 1
	}
	if rank > n {
		rank = n
	}
	return sorted[rank-1]
}

type latencyBook struct {
	mu     sync.Mutex
	size   int
	routes map[string]*ring
}

func newLatencyBook(size int) *latencyBook {
	return &latencyBook{size: size, routes: map[string]*ring{}}
}

func (b *latencyBook) observe(route string, ms int64) RouteLatency {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.routes[route]
	if !ok {
		r = &ring{}
		b.routes[route] = r
	}
	r.push(ms, b.size)
	return r.summary()
}

func (b *latencyBook) snapshot() map[string]RouteLatency {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[string]RouteLatency, len(b.routes))
	for route, r := range b.routes {
		out[route] = r.summary()
	}
	return out
}

var routeLatency = newLatencyBook(latencySamples)

// LatencySnapshot reports every route seen so far, keyed "METHOD pattern".
func LatencySnapshot() map[string]RouteLatency {
	return routeLatency.snapshot()
}

type telemetryRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *telemetryRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *telemetryRecorder) Write(data []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(data)
	r.bytes += n
	return n, err
}

func routeKey(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if pattern := rc.RoutePattern(); pattern != "" {
			return r.Method + " " + pattern
		}
	}
	return r.Method + " " + r.URL.Path
}

// Telemetry records per-route latency and logs one line per request.
// Analysis runs can take seconds, so the rolling p95 is logged alongside
// each request to make slow clients visible.
func Telemetry(logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &telemetryRecorder{ResponseWriter: w}

			next.ServeHTTP(rec, r)

			status := rec.status
			if status == 0 {
				status = http.StatusOK
			}
			elapsed := time.Since(start).Milliseconds()
			route := routeKey(r)
			lat := routeLatency.observe(route, elapsed)

			fields := []zap.Field{
				zap.String("route", route),
				zap.String("requestId", RequestIDFromContext(r.Context())),
				zap.Int("status", status),
				zap.Int("bytes", rec.bytes),
				zap.Int64("duration_ms", elapsed),
				zap.Int64("p95_ms", lat.P95Ms),
			}
			if clientID := r.URL.Query().Get("clientId"); clientID != "" {
				fields = append(fields, zap.String("client_id", clientID))
			}
			if status >= http.StatusInternalServerError {
				logger.Warn("http request failed", fields...)
				return
			}
			logger.Info("http request", fields...)
		})
	}
}
