package library

import (
	"encoding/json"
	"slices"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/sahilm/fuzzy"

	"github.com/dgnsrekt/mordoo/internal/favorites"
	"github.com/dgnsrekt/mordoo/internal/kv"
	"github.com/dgnsrekt/mordoo/internal/reading"
)

const (
	// DefaultCapacity is the maximum number of saved readings.
	DefaultCapacity = 50
	// DefaultKey is the persistence key of the library state.
	DefaultKey = "fortune_library"
)

// Outcome reports what Upsert did with a reading.
type Outcome int

const (
	Inserted Outcome = iota // New reading added at the front
	Updated                 // Existing reading replaced in place
	Dropped                 // No room: the library is full of favorites
)

func (o Outcome) String() string {
	switch o {
	case Inserted:
		return "inserted"
	case Updated:
		return "updated"
	case Dropped:
		return "dropped"
	}
	return "unknown"
}

// Store is the bounded library of saved readings. Every method reads the
// persisted state, applies one change and writes it back. Persistence
// failures are logged and never returned.
type Store struct {
	kv       kv.Store
	favs     favorites.Set
	capacity int
	key      string
	logger   *log.Logger

	mu sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithCapacity overrides DefaultCapacity. Values below one are ignored.
func WithCapacity(capacity int) Option {
	return func(s *Store) {
		if capacity > 0 {
			s.capacity = capacity
		}
	}
}

// WithKey overrides DefaultKey.
func WithKey(key string) Option {
	return func(s *Store) {
		s.key = key
	}
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// NewStore creates a library persisted in store whose eviction spares the
// ids in favs. A nil store keeps the library permanently empty; a nil favs
// means nothing is a favorite.
func NewStore(store kv.Store, favs favorites.Set, opts ...Option) *Store {
	if favs == nil {
		favs = favorites.IDSet{}
	}
	s := &Store{
		kv:       store,
		favs:     favs,
		capacity: DefaultCapacity,
		key:      DefaultKey,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.Default().WithPrefix("library")
	}
	return s
}

// Capacity returns the maximum number of readings kept.
func (s *Store) Capacity() int {
	return s.capacity
}

// Load returns the persisted state, or an empty one when nothing usable
// is stored.
func (s *Store) Load() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.load()
}

// Save persists state as given.
func (s *Store) Save(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.save(state)
}

// Upsert saves r. An existing id is replaced where it stands. A new id is
// put first, after evicting the oldest non-favorites needed to make room.
// A nil reading or one without an id is dropped without touching the
// library.
func (s *Store) Upsert(r Reading) Outcome {
	r = detach(r)
	if r == nil {
		return Dropped
	}
	id := r.Header().ID
	if id == "" {
		s.logger.Warn("Reading has no id, not saved", "kind", r.Kind())
		return Dropped
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.load()
	favs := s.snapshot()

	if i := indexOf(state.Items, id); i >= 0 {
		state.Items[i] = r
		state.Items = s.evict(state.Items, s.capacity, favs)
		s.save(state)
		return Updated
	}

	state.Items = s.evict(state.Items, s.capacity-1, favs)
	if len(state.Items) >= s.capacity {
		s.logger.Warn("Library full of favorites, reading not saved", "id", id, "capacity", s.capacity)
		s.save(state)
		return Dropped
	}

	state.Items = append([]Reading{r}, state.Items...)
	s.save(state)
	return Inserted
}

// Remove deletes the reading with id and reports whether it existed.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.load()
	i := indexOf(state.Items, id)
	if i < 0 {
		return false
	}

	state.Items = slices.Delete(state.Items, i, i+1)
	s.save(state)
	return true
}

// Clear removes every reading.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.save(EmptyState())
}

// Get returns the reading with id.
func (s *Store) Get(id string) (Reading, bool) {
	state := s.Load()
	if i := indexOf(state.Items, id); i >= 0 {
		return state.Items[i], true
	}
	return nil, false
}

// Entries returns the library as entries, newest first.
func (s *Store) Entries() []Entry {
	state := s.Load()
	favs := s.snapshot()

	entries := make([]Entry, 0, len(state.Items))
	for _, r := range state.Items {
		entries = append(entries, ToLibraryEntry(r, favs.Contains(r.Header().ID)))
	}
	return entries
}

// Entry returns the entry for id.
func (s *Store) Entry(id string) (Entry, bool) {
	r, ok := s.Get(id)
	if !ok {
		return Entry{}, false
	}
	return ToLibraryEntry(r, s.favs.Contains(id)), true
}

// Filter returns the entries of the given kind.
func (s *Store) Filter(kind reading.Kind) []Entry {
	var matched []Entry
	for _, e := range s.Entries() {
		if e.Kind() == kind {
			matched = append(matched, e)
		}
	}
	return matched
}

// FavoriteEntries returns the favorited entries.
func (s *Store) FavoriteEntries() []Entry {
	var matched []Entry
	for _, e := range s.Entries() {
		if e.Favorite {
			matched = append(matched, e)
		}
	}
	return matched
}

// Search fuzzy-matches query against each entry's preview and kind label,
// best match first. An empty query returns every entry.
func (s *Store) Search(query string) []Entry {
	entries := s.Entries()
	if query == "" {
		return entries
	}

	matches := fuzzy.FindFrom(query, searchSource(entries))
	results := make([]Entry, 0, len(matches))
	for _, m := range matches {
		results = append(results, entries[m.Index])
	}
	return results
}

type searchSource []Entry

func (src searchSource) String(i int) string {
	e := src[i]
	return e.Kind().Label() + " " + e.Preview
}

func (src searchSource) Len() int { return len(src) }

// Private helper methods

func (s *Store) load() State {
	if s.kv == nil {
		return EmptyState()
	}

	blob, ok, err := s.kv.Get(s.key)
	if err != nil {
		s.logger.Warn("Failed to read library", "error", err)
		return EmptyState()
	}
	if !ok {
		return EmptyState()
	}

	state, skipped, err := decodeState(blob)
	if err != nil {
		s.logger.Warn("Ignoring unreadable library", "error", err)
		return EmptyState()
	}
	for _, err := range skipped {
		s.logger.Warn("Skipping unreadable library item", "error", err)
	}
	return state
}

func (s *Store) save(state State) {
	if s.kv == nil {
		return
	}
	if state.Items == nil {
		state.Items = []Reading{}
	}

	blob, err := json.Marshal(state)
	if err != nil {
		s.logger.Warn("Failed to encode library", "error", err)
		return
	}
	if err := s.kv.Set(s.key, blob); err != nil {
		s.logger.Warn("Failed to save library", "error", err)
	}
}

// snapshot returns the favorites for one operation's worth of lookups.
func (s *Store) snapshot() favorites.Set {
	if snap, ok := s.favs.(favorites.Snapshotter); ok {
		return snap.Snapshot()
	}
	return s.favs
}

// evict removes the oldest non-favorite readings until at most limit
// remain or only favorites are left. Ties on CreatedAt go to the reading
// inserted earliest, which sits furthest from the front.
func (s *Store) evict(items []Reading, limit int, favs favorites.Set) []Reading {
	for len(items) > limit {
		victim := -1
		for i, r := range items {
			h := r.Header()
			if favs.Contains(h.ID) {
				continue
			}
			if victim < 0 || !h.CreatedAt.After(items[victim].Header().CreatedAt) {
				victim = i
			}
		}
		if victim < 0 {
			break
		}

		s.logger.Debug("Evicting reading", "id", items[victim].Header().ID)
		items = slices.Delete(items, victim, victim+1)
	}
	return items
}

func indexOf(items []Reading, id string) int {
	return slices.IndexFunc(items, func(r Reading) bool {
		return r.Header().ID == id
	})
}
