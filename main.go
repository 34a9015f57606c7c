package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tap-analytics-service/internal/config"
	"tap-analytics-service/internal/db"
	httpapi "tap-analytics-service/internal/http"
	"tap-analytics-service/internal/http/handlers"
	"tap-analytics-service/internal/jobs"
	"tap-analytics-service/internal/loader"
	"tap-analytics-service/internal/logger"
	"tap-analytics-service/internal/queue"
	"tap-analytics-service/internal/services"
	"tap-analytics-service/internal/storage"
	"tap-analytics-service/internal/store"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log, err := logger.New(cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	profile, err := config.LoadProfile(cfg.AnalyticsProfile)
	if err != nil {
		log.Fatal("analytics profile failed", zap.Error(err))
	}
	live := config.NewLiveProfile(profile.WithClients(cfg.ClientFolders))
	if cfg.AnalyticsProfile != "" {
		unwatch, err := config.WatchProfile(cfg.AnalyticsProfile, log, func(p config.Profile) {
			live.Set(p.WithClients(cfg.ClientFolders))
		})
		if err != nil {
			log.Warn("profile watch disabled", zap.Error(err))
		} else {
			defer unwatch()
		}
	}
	log.Info("analytics profile loaded",
		zap.Strings("clients", live.Get().ClientIDs()),
		zap.String("aliases_version", live.Get().Aliases.Version),
	)

	h := &handlers.Handler{Logger: log, Config: cfg}

	var src loader.ObjectSource = storage.Offline{}
	objectStore, err := storage.NewObjectStore(ctx, cfg.ObjectStore)
	switch {
	case err == nil:
		src = objectStore
		h.Reports = objectStore
		log.Info("object store enabled", zap.String("bucket", cfg.ObjectStore.Bucket))
	case errors.Is(err, storage.ErrNotConfigured):
		log.Warn("object store not configured; client analyses will fail until OBJECT_STORE_* is set")
	default:
		log.Fatal("object store init failed", zap.Error(err))
	}

	var runStore services.RunStore
	if cfg.DatabaseURL != "" {
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal("database connection failed", zap.Error(err))
		}
		defer pool.Close()
		if err := db.Migrate(ctx, pool); err != nil {
			log.Fatal("database migration failed", zap.Error(err))
		}
		runStore = store.NewResultStore(pool)
		log.Info("result store enabled")
	} else {
		log.Info("result store disabled (DATABASE_URL is empty)")
	}

	analytics := services.NewAnalytics(loader.New(src, log), live, runStore, cfg.ResultCacheTTL, log)
	h.Analytics = analytics

	if cfg.RabbitMQURL != "" {
		qc, err := queue.New(cfg.RabbitMQURL)
		if err == nil {
			err = queue.EnsureAnalysisTopology(ctx, qc)
			if err != nil {
				_ = qc.Close()
			}
		}
		if err != nil {
			if cfg.IsProduction() {
				log.Fatal("rabbitmq setup failed", zap.Error(err))
			}
			log.Warn("rabbitmq setup failed; continuing without jobs", zap.Error(err))
		} else {
			defer qc.Close()
			h.Queue = qc
			log.Info("rabbitmq enabled", zap.String("queue", queue.AnalysisJobsQueue))

			if cfg.RabbitMQWorkerMode == "daemon" {
				runner := &jobs.Runner{Analytics: analytics, Publisher: qc, Log: log.Named("jobs")}
				go func() {
					err := qc.ConsumeWithRetry(ctx, queue.AnalysisJobsQueue, runner.Handle, 5, 5*time.Second, log)
					if err != nil && !errors.Is(err, context.Canceled) {
						log.Error("consumer stopped", zap.Error(err))
					}
				}()
				log.Info("analysis worker enabled", zap.String("mode", "daemon"))
			} else {
				log.Info("analysis worker disabled", zap.String("mode", cfg.RabbitMQWorkerMode))
			}
		}
	} else {
		log.Info("analysis jobs disabled (RABBITMQ_URL is empty)")
	}

	apiServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      httpapi.NewRouter(log, cfg, h),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("analytics api ready", zap.String("base", "/api"))
		log.Info("analytics service listening", zap.String("addr", cfg.HTTPAddr))
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	cancel()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := apiServer.Shutdown(ctxShutdown); err != nil {
		log.Error("http server shutdown failed", zap.Error(err))
	}
}
