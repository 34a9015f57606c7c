package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"APP_ENV", "HTTP_ADDR", "MAX_UPLOAD_SIZE", "RESULT_CACHE_TTL", "CLIENT_FOLDERS", "OBJECT_STORE_ENDPOINT", "R2_S3_ENDPOINT", "R2_ACCOUNT_ID", "OBJECT_STORE_REGION", "R2_REGION"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, ":8090", cfg.HTTPAddr)
	assert.Equal(t, int64(50*1024*1024), cfg.MaxUploadBytes)
	assert.Equal(t, 5*time.Minute, cfg.ResultCacheTTL)
	assert.Equal(t, "auto", cfg.ObjectStore.Region)
	assert.Empty(t, cfg.ClientFolders)
	assert.False(t, cfg.IsProduction())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "Production")
	t.Setenv("MAX_UPLOAD_SIZE", "-5")
	t.Setenv("RESULT_CACHE_TTL", "90s")
	t.Setenv("CLIENT_FOLDERS", "Downtown=DowntownBar, broken, =x")
	t.Setenv("OBJECT_STORE_ENDPOINT", "")
	t.Setenv("R2_S3_ENDPOINT", "")
	t.Setenv("R2_ACCOUNT_ID", "acct42")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")

	cfg := Load()
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, int64(50*1024*1024), cfg.MaxUploadBytes)
	assert.Equal(t, 90*time.Second, cfg.ResultCacheTTL)
	assert.Equal(t, map[string]string{"downtown": "DowntownBar"}, cfg.ClientFolders)
	assert.Equal(t, "https://acct42.r2.cloudflarestorage.com", cfg.ObjectStore.Endpoint)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CorsAllowedOrigins)
}
