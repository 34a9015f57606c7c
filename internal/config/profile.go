package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"tap-analytics-service/internal/analysis"
	"tap-analytics-service/internal/schema"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"go.uber.org/zap"
)

var ErrUnknownClient = errors.New("unknown client")

const envPrefix = "TAP_"

// Profile is the tunable analytics configuration: column aliases,
// classification thresholds and the client to folder map.
type Profile struct {
	Aliases    schema.AliasTable   `koanf:"aliases"`
	Thresholds analysis.Thresholds `koanf:"thresholds"`
	Clients    map[string]string   `koanf:"clients"`
}

func DefaultClients() map[string]string {
	return map[string]string{
		"melrose":    "Melrose",
		"bestregard": "Bestregard",
		"fancy":      "Fancy",
	}
}

func DefaultProfile() Profile {
	return Profile{
		Aliases:    schema.DefaultAliases(),
		Thresholds: analysis.DefaultThresholds(),
		Clients:    DefaultClients(),
	}
}

func defaultsMap() map[string]any {
	th := analysis.DefaultThresholds()
	out := map[string]any{
		"thresholds.waste_good":                   th.WasteGood,
		"thresholds.waste_monitor":                th.WasteMonitor,
		"thresholds.waste_caution":                th.WasteCaution,
		"thresholds.volatility_monitor":           th.VolatilityMonitor,
		"thresholds.volatility_investigate":       th.VolatilityInvestigate,
		"thresholds.volatility_remove":            th.VolatilityRemove,
		"thresholds.volatility_min_sales":         th.VolatilityMinSales,
		"thresholds.attachment_min_liquor_checks": th.AttachmentMinLiquorChecks,
		"thresholds.large_discount":               th.LargeDiscount,
		"thresholds.tier_average":                 th.TierAverage,
		"thresholds.tier_strong":                  th.TierStrong,
		"thresholds.tier_top":                     th.TierTop,
		"thresholds.tier_elite":                   th.TierElite,
	}
	for id, folder := range DefaultClients() {
		out["clients."+id] = folder
	}
	return out
}

// envKey maps TAP_THRESHOLDS_WASTE_GOOD to thresholds.waste_good and
// TAP_CLIENTS_MELROSE to clients.melrose. Other keys are ignored.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
	for _, section := range []string{"thresholds", "clients"} {
		if rest, ok := strings.CutPrefix(key, section+"_"); ok && rest != "" {
			return section + "." + rest
		}
	}
	return ""
}

// LoadProfile layers defaults, the YAML file at path (when given) and TAP_
// environment overrides. Aliases in the file overlay the built-in table
// role by role.
func LoadProfile(path string) (Profile, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaultsMap(), "."), nil); err != nil {
		return Profile{}, fmt.Errorf("load profile defaults: %w", err)
	}
	if strings.TrimSpace(path) != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Profile{}, fmt.Errorf("read profile %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return Profile{}, fmt.Errorf("load profile env: %w", err)
	}

	var p Profile
	if err := k.Unmarshal("", &p); err != nil {
		return Profile{}, fmt.Errorf("decode profile: %w", err)
	}
	p.Aliases = schema.DefaultAliases().Merge(p.Aliases)

	clients := make(map[string]string, len(p.Clients))
	for id, folder := range p.Clients {
		if strings.TrimSpace(folder) != "" {
			clients[strings.ToLower(id)] = folder
		}
	}
	p.Clients = clients
	return p, nil
}

// WatchProfile reloads the profile whenever the file changes. Failed
// reloads are logged and the previous profile stays in effect.
func WatchProfile(path string, log *zap.Logger, onChange func(Profile)) (func() error, error) {
	fp := file.Provider(path)
	err := fp.Watch(func(_ any, err error) {
		if err != nil {
			log.Warn("profile watch error", zap.String("path", path), zap.Error(err))
			return
		}
		p, err := LoadProfile(path)
		if err != nil {
			log.Warn("profile reload failed", zap.String("path", path), zap.Error(err))
			return
		}
		log.Info("profile reloaded", zap.String("path", path), zap.String("aliases_version", p.Aliases.Version))
		onChange(p)
	})
	if err != nil {
		return nil, fmt.Errorf("watch profile %s: %w", path, err)
	}
	return fp.Unwatch, nil
}

// WithClients overlays extra client folders, such as CLIENT_FOLDERS.
func (p Profile) WithClients(extra map[string]string) Profile {
	clients := make(map[string]string, len(p.Clients)+len(extra))
	for id, folder := range p.Clients {
		clients[id] = folder
	}
	for id, folder := range extra {
		clients[strings.ToLower(id)] = folder
	}
	p.Clients = clients
	return p
}

// ClientIDs lists the configured ids in sorted order.
func (p Profile) ClientIDs() []string {
	ids := make([]string, 0, len(p.Clients))
	for id := range p.Clients {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ClientFolder resolves a client id case-insensitively.
func (p Profile) ClientFolder(id string) (string, error) {
	folder, ok := p.Clients[strings.ToLower(strings.TrimSpace(id))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownClient, id)
	}
	return folder, nil
}

// ClientHint is the message shown to callers that pass an unknown id.
func (p Profile) ClientHint() string {
	return "clientId must be one of: " + strings.Join(p.ClientIDs(), ", ")
}

// LiveProfile holds the profile in effect while WatchProfile swaps in
// reloaded versions.
type LiveProfile struct {
	mu sync.RWMutex
	p  Profile
}

func NewLiveProfile(p Profile) *LiveProfile {
	return &LiveProfile{p: p}
}

func (l *LiveProfile) Get() Profile {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.p
}

func (l *LiveProfile) Set(p Profile) {
	l.mu.Lock()
	l.p = p
	l.mu.Unlock()
}
