package cache

import (
	"encoding/json"
	"time"
)

// DefaultPrefix is prepended to every key the manager writes.
const DefaultPrefix = "fortune_cache_"

// Entry is the persisted form of a cached value.
type Entry struct {
	Key       string          `json:"key"`
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"createdAt"`
	ExpiresAt time.Time       `json:"expiresAt"`
}

// Expired reports whether the entry is stale at now.
func (e Entry) Expired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

// Options controls a single Set.
type Options struct {
	TTL       time.Duration // Must be positive for anything to be stored
	Namespace string        // Usually the reading kind
}

// Stats holds cache performance metrics
type Stats struct {
	Hits          int64   // Fresh entries returned
	Misses        int64   // Absent, expired or corrupt lookups
	Writes        int64   // Successful writes
	WriteFailures int64   // Writes rejected by the store
	Expired       int64   // Entries evicted on read or by ClearExpired
	Removed       int64   // Entries removed by ClearByNamespace
	HitRate       float64 // hits / (hits + misses)

	LastAccess time.Time
}
