package httpapi

import (
	"net/http"

	"tap-analytics-service/internal/config"
	"tap-analytics-service/internal/http/handlers"
	"tap-analytics-service/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// NewRouter mounts the health probe and the authenticated /api surface.
func NewRouter(logger *zap.Logger, cfg config.Config, h *handlers.Handler) http.Handler {
	if h.Logger == nil {
		h.Logger = logger
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID())
	r.Use(middleware.Telemetry(logger))
	if opts, ok := corsOptions(cfg); ok {
		r.Use(cors.Handler(opts))
	}

	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Use(setResponseHeader("Cache-Control", "no-store"))
		r.Use(middleware.APIAuth(cfg.JWTSecret, logger))

		r.Get("/clients", h.Clients)

		r.Route("/analysis", func(r chi.Router) {
			r.Post("/run", h.AnalysisRun)
			r.Post("/upload", h.AnalysisUpload)
			r.Post("/advanced", h.AnalysisAdvanced)
			r.Get("/report.pdf", h.AnalysisReportPDF)
			r.Post("/jobs", h.AnalysisJobCreate)
			r.Get("/runs", h.AnalysisRuns)
		})
	})

	return r
}

// corsOptions reports false when no browser origin needs access. Development
// accepts any origin so local dashboards work without configuration.
func corsOptions(cfg config.Config) (cors.Options, bool) {
	dev := cfg.Env == "development"
	if !dev && len(cfg.CorsAllowedOrigins) == 0 {
		return cors.Options{}, false
	}

	opts := cors.Options{
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id", "X-Correlation-Id"},
		ExposedHeaders:   []string{"X-Request-Id", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if dev {
		opts.AllowOriginFunc = func(*http.Request, string) bool { return true }
	} else {
		opts.AllowedOrigins = cfg.CorsAllowedOrigins
	}
	return opts, true
}

func setResponseHeader(name string, value string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set(name, value)
			next.ServeHTTP(w, r)
		})
	}
}
