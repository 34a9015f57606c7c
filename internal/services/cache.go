package services

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"tap-analytics-service/internal/config"
	"tap-analytics-service/internal/daterange"
	"tap-analytics-service/internal/storage"
)

type cacheEntry struct {
	value     any
	expiresAt time.Time
}

const resultCacheMaxEntries = 500

type resultCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]cacheEntry
}

func newResultCache(ttl time.Duration) *resultCache {
	return &resultCache{ttl: ttl, entries: map[string]cacheEntry{}}
}

// cacheKey pins a result to the profile and the exact object versions it
// was built from, so a re-uploaded export or a profile reload misses.
func cacheKey(kind, clientID, profile string, p daterange.Params, files []storage.ObjectInfo) string {
	segments := make([]string, 0, 6+len(files))
	segments = append(segments, kind, strings.ToLower(clientID), profile, p.Start, p.End, p.Preset)
	for _, f := range files {
		segments = append(segments, fmt.Sprintf("%s@%d", f.Key, f.LastModified.UnixNano()))
	}
	return strings.Join(segments, "|")
}

// profileTag identifies the alias table and thresholds a result depends on.
// The content hash catches reloads that change aliases without a new version.
func profileTag(p config.Profile) string {
	h := fnv.New64a()
	if err := json.NewEncoder(h).Encode(struct {
		Aliases    any `json:"aliases"`
		Thresholds any `json:"thresholds"`
	}{p.Aliases, p.Thresholds}); err != nil {
		return p.Aliases.Version
	}
	return fmt.Sprintf("%s#%x", p.Aliases.Version, h.Sum64())
}

func (c *resultCache) get(key string) (any, bool) {
	if c == nil || c.ttl <= 0 {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	return entry.value, true
}

func (c *resultCache) set(key string, value any) {
	if c == nil || c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{value: value, expiresAt: time.Now().Add(c.ttl)}
	if len(c.entries) > resultCacheMaxEntries {
		c.entries = map[string]cacheEntry{key: c.entries[key]}
	}
}
