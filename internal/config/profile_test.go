package config

import (
	"os"
	"path/filepath"
	"testing"

	"tap-analytics-service/internal/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadProfileDefaults(t *testing.T) {
	p, err := LoadProfile("")
	require.NoError(t, err)

	assert.Equal(t, DefaultProfile().Thresholds, p.Thresholds)
	assert.Equal(t, DefaultClients(), p.Clients)
	assert.Equal(t, schema.DefaultAliases().Candidates(schema.RoleAmount), p.Aliases.Candidates(schema.RoleAmount))
}

func TestLoadProfileFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
aliases:
  version: "2025.2"
  roles:
    amount: ["Gross Total"]
thresholds:
  waste_good: 8
  large_discount: 250
clients:
  uptown: Uptown
`), 0o600))
	t.Setenv("TAP_THRESHOLDS_WASTE_GOOD", "12")

	p, err := LoadProfile(path)
	require.NoError(t, err)

	assert.Equal(t, 12.0, p.Thresholds.WasteGood, "env wins over file")
	assert.Equal(t, 250.0, p.Thresholds.LargeDiscount)
	assert.Equal(t, 15.0, p.Thresholds.WasteMonitor, "unset keys keep defaults")
	assert.Equal(t, "2025.2", p.Aliases.Version)
	assert.Equal(t, []string{"Gross Total"}, p.Aliases.Candidates(schema.RoleAmount))
	assert.Equal(t, schema.DefaultAliases().Candidates(schema.RoleItem), p.Aliases.Candidates(schema.RoleItem))

	folder, err := p.ClientFolder("UPTOWN")
	require.NoError(t, err)
	assert.Equal(t, "Uptown", folder)
}

func TestLoadProfileMissingFile(t *testing.T) {
	_, err := LoadProfile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestClientFolder(t *testing.T) {
	p := DefaultProfile()

	folder, err := p.ClientFolder(" Melrose ")
	require.NoError(t, err)
	assert.Equal(t, "Melrose", folder)

	_, err = p.ClientFolder("downtown")
	assert.ErrorIs(t, err, ErrUnknownClient)
	assert.Equal(t, "clientId must be one of: bestregard, fancy, melrose", p.ClientHint())
}

func TestWithClients(t *testing.T) {
	p := DefaultProfile().WithClients(parseFolders("Uptown=Uptown Bar, broken, =x"))
	assert.Len(t, p.Clients, 4)
	assert.Equal(t, "Uptown Bar", p.Clients["uptown"])
	assert.Len(t, DefaultProfile().Clients, 3)
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("OBJECT_STORE_BUCKET", "")
	t.Setenv("R2_BUCKET", "exports")
	t.Setenv("OBJECT_STORE_ENDPOINT", "")
	t.Setenv("R2_ACCOUNT_ID", "abc")
	t.Setenv("RESULT_CACHE_TTL", "90s")

	cfg := Load()
	assert.Equal(t, ":8090", cfg.HTTPAddr)
	assert.Equal(t, "exports", cfg.ObjectStore.Bucket)
	assert.Equal(t, "https://abc.r2.cloudflarestorage.com", cfg.ObjectStore.Endpoint)
	assert.Equal(t, "1m30s", cfg.ResultCacheTTL.String())
	assert.True(t, cfg.ObjectStore.Configured())
}

func TestLiveProfileSwap(t *testing.T) {
	live := NewLiveProfile(DefaultProfile())
	require.Contains(t, live.Get().Clients, "melrose")

	live.Set(DefaultProfile().WithClients(map[string]string{"Harbor": "Harbor"}))
	folder, err := live.Get().ClientFolder("harbor")
	require.NoError(t, err)
	assert.Equal(t, "Harbor", folder)
}
