// Package favorites tracks which saved readings the user has starred.
//
// The library only ever asks whether an id is a favorite, through the
// one-method Set interface, so eviction can be tested against a plain
// IDSet without any persistence.
package favorites

import (
	"encoding/json"
	"sort"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/mordoo/internal/kv"
)

// DefaultKey is the persistence key holding the JSON array of ids.
const DefaultKey = "fortune_favorites"

// Set answers favorite lookups.
type Set interface {
	Contains(id string) bool
}

// Snapshotter is a Set that can be copied into an IDSet, so a batch of
// lookups reads the backing store once.
type Snapshotter interface {
	Set
	Snapshot() IDSet
}

// IDSet is an in-memory Set.
type IDSet map[string]struct{}

// NewIDSet returns a set holding ids.
func NewIDSet(ids ...string) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Contains reports whether id is in the set.
func (s IDSet) Contains(id string) bool {
	_, ok := s[id]
	return ok
}

// Snapshot returns s.
func (s IDSet) Snapshot() IDSet { return s }

// Registry is the persisted favorites set.
type Registry struct {
	store  kv.Store
	key    string
	logger *log.Logger
	mu     sync.Mutex
}

// Option configures a Registry.
type Option func(*Registry)

// WithKey overrides DefaultKey.
func WithKey(key string) Option {
	return func(r *Registry) {
		r.key = key
	}
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// NewRegistry creates a registry backed by store. With a nil store the
// registry is always empty and ignores writes.
func NewRegistry(store kv.Store, opts ...Option) *Registry {
	r := &Registry{
		store: store,
		key:   DefaultKey,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = log.Default().WithPrefix("favorites")
	}
	return r
}

// IDs returns the favorite ids in sorted order.
func (r *Registry) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0)
	for id := range r.load() {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Contains reports whether id is a favorite.
func (r *Registry) Contains(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.load().Contains(id)
}

// Snapshot returns the favorites as they are stored now.
func (r *Registry) Snapshot() IDSet {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.load()
}

// Add marks id as a favorite.
func (r *Registry) Add(id string) {
	r.update(func(s IDSet) { s[id] = struct{}{} })
}

// Remove unmarks id.
func (r *Registry) Remove(id string) {
	r.update(func(s IDSet) { delete(s, id) })
}

// Toggle flips id and returns whether it is now a favorite.
func (r *Registry) Toggle(id string) bool {
	var now bool
	r.update(func(s IDSet) {
		if s.Contains(id) {
			delete(s, id)
			return
		}
		s[id] = struct{}{}
		now = true
	})
	return now
}

// Prune drops every id for which keep returns false and returns how many
// were dropped. It is used to forget favorites of deleted readings.
func (r *Registry) Prune(keep func(id string) bool) int {
	dropped := 0
	r.update(func(s IDSet) {
		for id := range s {
			if !keep(id) {
				delete(s, id)
				dropped++
			}
		}
	})
	return dropped
}

func (r *Registry) update(fn func(IDSet)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set := r.load()
	fn(set)
	r.save(set)
}

// load reads the persisted set. Missing or unreadable data is an empty set.
func (r *Registry) load() IDSet {
	set := IDSet{}
	if r.store == nil {
		return set
	}

	blob, ok, err := r.store.Get(r.key)
	if err != nil {
		r.logger.Warn("Failed to read favorites", "error", err)
		return set
	}
	if !ok {
		return set
	}

	var ids []string
	if err := json.Unmarshal(blob, &ids); err != nil {
		r.logger.Debug("Ignoring malformed favorites", "error", err)
		return set
	}
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func (r *Registry) save(set IDSet) {
	if r.store == nil {
		return
	}

	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	blob, err := json.Marshal(ids)
	if err != nil {
		r.logger.Warn("Failed to encode favorites", "error", err)
		return
	}
	if err := r.store.Set(r.key, blob); err != nil {
		r.logger.Warn("Failed to save favorites", "error", err)
	}
}
