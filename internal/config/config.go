package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"tap-analytics-service/internal/storage"
)

type Config struct {
	Env                string
	HTTPAddr           string
	DatabaseURL        string
	JWTSecret          string
	RabbitMQURL        string
	RabbitMQWorkerMode string
	CorsAllowedOrigins []string
	AnalyticsProfile   string
	MaxUploadBytes     int64
	ResultCacheTTL     time.Duration
	ClientFolders      map[string]string

	ObjectStore storage.Config
}

func Load() Config {
	cfg := Config{
		Env:                getEnv("APP_ENV", "development"),
		HTTPAddr:           getEnv("HTTP_ADDR", ":8090"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		RabbitMQURL:        getEnv("RABBITMQ_URL", ""),
		RabbitMQWorkerMode: getEnv("RABBITMQ_WORKER_MODE", "daemon"),
		CorsAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "")),
		AnalyticsProfile:   getEnv("ANALYTICS_PROFILE", ""),
		MaxUploadBytes:     getEnvInt64("MAX_UPLOAD_SIZE", 50*1024*1024),
		ResultCacheTTL:     getEnvDuration("RESULT_CACHE_TTL", 5*time.Minute),
		ClientFolders:      parseFolders(getEnv("CLIENT_FOLDERS", "")),

		// S3-compatible object store holding the client export folders
		ObjectStore: storage.Config{
			Endpoint:        getEnvFirst([]string{"OBJECT_STORE_ENDPOINT", "R2_S3_ENDPOINT"}, ""),
			Region:          getEnvFirst([]string{"OBJECT_STORE_REGION", "R2_REGION"}, "auto"),
			AccessKeyID:     getEnvFirst([]string{"OBJECT_STORE_ACCESS_KEY_ID", "R2_ACCESS_KEY_ID"}, ""),
			SecretAccessKey: getEnvFirst([]string{"OBJECT_STORE_SECRET_ACCESS_KEY", "R2_SECRET_ACCESS_KEY"}, ""),
			Bucket:          getEnvFirst([]string{"OBJECT_STORE_BUCKET", "R2_BUCKET"}, ""),
			PublicBaseURL:   getEnvFirst([]string{"OBJECT_STORE_PUBLIC_BASE_URL", "R2_PUBLIC_BASE_URL"}, ""),
			StorageClass:    getEnvFirst([]string{"OBJECT_STORE_STORAGE_CLASS", "R2_STORAGE_CLASS"}, ""),
		},
	}

	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 50 * 1024 * 1024
	}

	// R2_ACCOUNT_ID implies the account endpoint.
	if strings.TrimSpace(cfg.ObjectStore.Endpoint) == "" {
		accountID := strings.TrimSpace(os.Getenv("R2_ACCOUNT_ID"))
		if accountID != "" {
			cfg.ObjectStore.Endpoint = "https://" + accountID + ".r2.cloudflarestorage.com"
		}
	}

	return cfg
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getEnvFirst(keys []string, fallback string) string {
	for _, k := range keys {
		value := strings.TrimSpace(os.Getenv(k))
		if value != "" {
			return value
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

func splitCSV(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// parseFolders reads "id=Folder,id2=Folder2".
func parseFolders(value string) map[string]string {
	out := map[string]string{}
	for _, part := range splitCSV(value) {
		id, folder, ok := strings.Cut(part, "=")
		id, folder = strings.ToLower(strings.TrimSpace(id)), strings.TrimSpace(folder)
		if !ok || id == "" || folder == "" {
			continue
		}
		out[id] = folder
	}
	return out
}
