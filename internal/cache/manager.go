package cache

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/mordoo/internal/kv"
)

// Manager is a best-effort TTL cache on top of a kv.Store. None of its
// methods fail: a write that cannot be persisted simply turns the next
// read into a miss.
type Manager struct {
	store  kv.Store // nil when no persistence is available
	prefix string
	now    func() time.Time
	logger *log.Logger

	mu    sync.Mutex
	stats Stats
}

// Option configures a Manager.
type Option func(*Manager)

// WithPrefix overrides DefaultPrefix.
func WithPrefix(prefix string) Option {
	return func(m *Manager) {
		m.prefix = prefix
	}
}

// WithClock sets the time source used for expiry decisions.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a cache manager writing to store. A nil store yields
// a manager where every lookup misses and every write is dropped.
func NewManager(store kv.Store, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		prefix: DefaultPrefix,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = log.Default().WithPrefix("cache")
	}
	return m
}

// Available reports whether the manager has a store to write to.
func (m *Manager) Available() bool {
	return m.store != nil
}

// Set stores data under key in opts.Namespace until now + opts.TTL.
func (m *Manager) Set(key string, data any, opts Options) {
	if m.store == nil {
		return
	}
	if opts.TTL <= 0 {
		m.logger.Debug("Skipping cache write with non-positive TTL", "key", key, "ttl", opts.TTL)
		return
	}

	raw, err := json.Marshal(data)
	if err != nil {
		m.logger.Warn("Failed to encode cache value", "key", key, "error", err)
		return
	}

	now := m.now()
	entry := Entry{
		Key:       key,
		Data:      raw,
		CreatedAt: now,
		ExpiresAt: now.Add(opts.TTL),
	}
	blob, err := json.Marshal(entry)
	if err != nil {
		m.logger.Warn("Failed to encode cache entry", "key", key, "error", err)
		return
	}

	fullKey := m.fullKey(key, opts.Namespace)
	if err := m.store.Set(fullKey, blob); err != nil {
		m.record(func(s *Stats) { s.WriteFailures++ })
		if errors.Is(err, kv.ErrQuotaExceeded) {
			m.logger.Debug("Cache write rejected, storage full", "key", fullKey)
		} else {
			m.logger.Warn("Cache write failed", "key", fullKey, "error", err)
		}
		return
	}

	m.record(func(s *Stats) { s.Writes++ })
}

// Get returns the cached payload for key in namespace exactly as it was
// stored. Expired and unreadable entries are deleted and reported as a
// miss.
func (m *Manager) Get(key, namespace string) (json.RawMessage, bool) {
	if m.store == nil {
		return nil, false
	}

	fullKey := m.fullKey(key, namespace)
	entry, found, corrupt := m.load(fullKey)

	switch {
	case !found:
		m.record(func(s *Stats) { s.Misses++ })
		return nil, false
	case corrupt:
		m.delete(fullKey)
		m.record(func(s *Stats) { s.Misses++ })
		return nil, false
	case entry.Expired(m.now()):
		m.delete(fullKey)
		m.record(func(s *Stats) {
			s.Misses++
			s.Expired++
		})
		return nil, false
	}

	m.record(func(s *Stats) { s.Hits++ })
	return entry.Data, true
}

// IsValid reports whether a fresh entry exists without modifying the store.
func (m *Manager) IsValid(key, namespace string) bool {
	if m.store == nil {
		return false
	}

	entry, found, corrupt := m.load(m.fullKey(key, namespace))
	return found && !corrupt && !entry.Expired(m.now())
}

// ClearExpired deletes every entry under the prefix that expired before
// now, along with entries that cannot be decoded. It returns the number
// of entries removed.
func (m *Manager) ClearExpired() int {
	if m.store == nil {
		return 0
	}

	keys, err := kv.KeysWithPrefix(m.store, m.prefix)
	if err != nil {
		m.logger.Warn("Failed to list cache keys", "error", err)
		return 0
	}

	now := m.now()
	removed := 0
	for _, key := range keys {
		entry, found, corrupt := m.load(key)
		if !found {
			continue
		}
		if corrupt || entry.ExpiresAt.Before(now) {
			if m.delete(key) {
				removed++
			}
		}
	}

	if removed > 0 {
		m.record(func(s *Stats) { s.Expired += int64(removed) })
		m.logger.Debug("Cleared expired cache entries", "count", removed)
	}
	return removed
}

// ClearByNamespace deletes every entry whose key starts with the prefix
// followed by namespace.
func (m *Manager) ClearByNamespace(namespace string) int {
	if m.store == nil {
		return 0
	}

	keys, err := kv.KeysWithPrefix(m.store, m.prefix+namespace)
	if err != nil {
		m.logger.Warn("Failed to list cache keys", "namespace", namespace, "error", err)
		return 0
	}

	removed := 0
	for _, key := range keys {
		if m.delete(key) {
			removed++
		}
	}

	m.record(func(s *Stats) { s.Removed += int64(removed) })
	return removed
}

// Stats returns cache statistics.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := m.stats
	if stats.Hits+stats.Misses > 0 {
		stats.HitRate = float64(stats.Hits) / float64(stats.Hits+stats.Misses)
	}
	return stats
}

// Fetch decodes the cached payload into T. A payload that does not decode
// into T is reported as a miss and left in place.
func Fetch[T any](m *Manager, key, namespace string) (T, bool) {
	var value T

	raw, ok := m.Get(key, namespace)
	if !ok {
		return value, false
	}
	if err := json.Unmarshal(raw, &value); err != nil {
		m.logger.Debug("Cached payload has unexpected shape", "key", key, "namespace", namespace, "error", err)
		var zero T
		return zero, false
	}
	return value, true
}

// Remember returns the cached value for key or computes, stores and
// returns it. Errors from compute are returned and nothing is cached.
func Remember[T any](m *Manager, key string, opts Options, compute func() (T, error)) (T, error) {
	if value, ok := Fetch[T](m, key, opts.Namespace); ok {
		return value, nil
	}

	value, err := compute()
	if err != nil {
		var zero T
		return zero, err
	}

	m.Set(key, value, opts)
	return value, nil
}

// Private helper methods

func (m *Manager) fullKey(key, namespace string) string {
	return m.prefix + namespace + "_" + key
}

// load reads and decodes the entry at fullKey. Read errors from the store
// are treated as absence.
func (m *Manager) load(fullKey string) (entry Entry, found, corrupt bool) {
	blob, ok, err := m.store.Get(fullKey)
	if err != nil {
		if errors.Is(err, kv.ErrCorrupted) {
			return Entry{}, true, true
		}
		m.logger.Warn("Cache read failed", "key", fullKey, "error", err)
		return Entry{}, false, false
	}
	if !ok {
		return Entry{}, false, false
	}

	if err := json.Unmarshal(blob, &entry); err != nil || entry.ExpiresAt.IsZero() {
		m.logger.Debug("Discarding corrupt cache entry", "key", fullKey, "error", err)
		return Entry{}, true, true
	}
	return entry, true, false
}

func (m *Manager) delete(fullKey string) bool {
	if err := m.store.Delete(fullKey); err != nil {
		m.logger.Warn("Cache delete failed", "key", fullKey, "error", err)
		return false
	}
	return true
}

func (m *Manager) record(update func(*Stats)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	update(&m.stats)
	m.stats.LastAccess = m.now()
}
