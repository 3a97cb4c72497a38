package library

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgnsrekt/mordoo/internal/favorites"
	"github.com/dgnsrekt/mordoo/internal/kv"
	"github.com/dgnsrekt/mordoo/internal/reading"
)

var day0 = time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)

func tarotAt(id string, createdAt time.Time) *TarotReading {
	return &TarotReading{
		Meta: Meta{ID: id, Type: reading.KindTarot, CreatedAt: createdAt},
		TarotFields: TarotFields{
			Spread: "three_card",
			Cards:  []TarotCard{{Name: "The Star", Position: "present", Meaning: "hope for " + id}},
		},
	}
}

// fillLibrary inserts reading-0..reading-(n-1), one day apart.
func fillLibrary(t *testing.T, store *Store, n int) {
	t.Helper()

	for i := 0; i < n; i++ {
		outcome := store.Upsert(tarotAt(fmt.Sprintf("reading-%d", i), day0.AddDate(0, 0, i)))
		require.Equal(t, Inserted, outcome)
	}
}

func ids(state State) []string {
	out := make([]string, 0, len(state.Items))
	for _, r := range state.Items {
		out = append(out, r.Header().ID)
	}
	return out
}

func TestStore_EvictsOldestNonFavorite(t *testing.T) {
	favs := favorites.IDSet{}
	store := NewStore(kv.NewMemoryStore(0), favs)
	fillLibrary(t, store, 50)

	for i := 10; i <= 14; i++ {
		favs[fmt.Sprintf("reading-%d", i)] = struct{}{}
	}

	outcome := store.Upsert(tarotAt("reading-50", day0.AddDate(0, 0, 50)))
	assert.Equal(t, Inserted, outcome)

	state := store.Load()
	got := ids(state)
	require.Len(t, got, 50)
	assert.NotContains(t, got, "reading-0")
	assert.Equal(t, "reading-50", got[0])
	for i := 10; i <= 14; i++ {
		assert.Contains(t, got, fmt.Sprintf("reading-%d", i))
	}
}

func TestStore_SparesOldestWhenFavorite(t *testing.T) {
	favs := favorites.NewIDSet("reading-0")
	store := NewStore(kv.NewMemoryStore(0), favs)
	fillLibrary(t, store, 50)

	store.Upsert(tarotAt("reading-50", day0.AddDate(0, 0, 50)))

	got := ids(store.Load())
	assert.Contains(t, got, "reading-0")
	assert.NotContains(t, got, "reading-1")
	assert.Len(t, got, 50)
}

func TestStore_FavoriteFloor(t *testing.T) {
	favs := favorites.IDSet{}
	store := NewStore(kv.NewMemoryStore(0), favs)
	fillLibrary(t, store, 50)
	for _, id := range ids(store.Load()) {
		favs[id] = struct{}{}
	}
	before := ids(store.Load())

	outcome := store.Upsert(tarotAt("newcomer", day0.AddDate(1, 0, 0)))

	assert.Equal(t, Dropped, outcome)
	assert.Equal(t, before, ids(store.Load()))
}

func TestStore_DropsReadingWithoutID(t *testing.T) {
	store := NewStore(kv.NewMemoryStore(0), nil)
	fillLibrary(t, store, 50)
	before := ids(store.Load())

	outcome := store.Upsert(&SpecializedReading{
		Meta:              Meta{Type: reading.KindSpecialized, CreatedAt: day0.AddDate(1, 0, 0)},
		SpecializedFields: SpecializedFields{Topic: "career", Prediction: "A door opens"},
	})

	assert.Equal(t, Dropped, outcome)
	assert.Equal(t, before, ids(store.Load()))
}

func TestStore_DropsNilVariant(t *testing.T) {
	store := NewStore(kv.NewMemoryStore(0), nil)

	assert.NotPanics(t, func() {
		assert.Equal(t, Dropped, store.Upsert((*TarotReading)(nil)))
		assert.Equal(t, Dropped, store.Upsert(nil))
	})
	assert.Empty(t, store.Load().Items)
}

func TestStore_DoesNotAliasCaller(t *testing.T) {
	store := NewStore(kv.NewMemoryStore(0), nil)
	r := tarotAt("a", day0)
	r.Type = ""

	store.Upsert(r)
	r.AISummary = "changed after saving"

	assert.Empty(t, r.Type)
	got, ok := store.Get("a")
	require.True(t, ok)
	assert.Empty(t, got.(*TarotReading).AISummary)
}

// countingStore counts reads of one key.
type countingStore struct {
	kv.Store
	key   string
	reads int
}

func (c *countingStore) Get(key string) ([]byte, bool, error) {
	if key == c.key {
		c.reads++
	}
	return c.Store.Get(key)
}

func TestStore_ReadsFavoritesOncePerOperation(t *testing.T) {
	backend := &countingStore{Store: kv.NewMemoryStore(0), key: favorites.DefaultKey}
	registry := favorites.NewRegistry(backend)
	store := NewStore(backend, registry)
	fillLibrary(t, store, 50)
	registry.Add("reading-0")

	backend.reads = 0
	assert.Equal(t, Inserted, store.Upsert(tarotAt("reading-50", day0.AddDate(0, 0, 50))))
	assert.Equal(t, 1, backend.reads)

	got := ids(store.Load())
	assert.Contains(t, got, "reading-0")
	assert.NotContains(t, got, "reading-1")

	backend.reads = 0
	entries := store.Entries()
	require.Len(t, entries, 50)
	assert.Equal(t, 1, backend.reads)
	assert.True(t, entries[len(entries)-1].Favorite)
}

func TestStore_TiesEvictEarliestInserted(t *testing.T) {
	store := NewStore(kv.NewMemoryStore(0), nil, WithCapacity(3))

	store.Upsert(tarotAt("first", day0))
	store.Upsert(tarotAt("second", day0))
	store.Upsert(tarotAt("third", day0))
	store.Upsert(tarotAt("fourth", day0))

	assert.Equal(t, []string{"fourth", "third", "second"}, ids(store.Load()))
}

func TestStore_UpdateInPlace(t *testing.T) {
	store := NewStore(kv.NewMemoryStore(0), nil)
	fillLibrary(t, store, 50)
	before := ids(store.Load())

	updated := tarotAt("reading-25", day0.AddDate(0, 0, 25))
	updated.AISummary = "revised summary"

	assert.Equal(t, Updated, store.Upsert(updated))

	state := store.Load()
	assert.Equal(t, before, ids(state))

	r, ok := store.Get("reading-25")
	require.True(t, ok)
	assert.Equal(t, "revised summary", r.(*TarotReading).AISummary)
}

func TestStore_UpdateCorrectsOverflow(t *testing.T) {
	store := NewStore(kv.NewMemoryStore(0), nil, WithCapacity(5))

	overflowing := EmptyState()
	for i := 7; i >= 0; i-- {
		overflowing.Items = append(overflowing.Items, tarotAt(fmt.Sprintf("reading-%d", i), day0.AddDate(0, 0, i)))
	}
	store.Save(overflowing)
	require.Len(t, store.Load().Items, 8)

	assert.Equal(t, Updated, store.Upsert(tarotAt("reading-7", day0.AddDate(0, 0, 7))))

	assert.Equal(t, []string{"reading-7", "reading-6", "reading-5", "reading-4", "reading-3"}, ids(store.Load()))
}

func TestStore_CapacityInvariant(t *testing.T) {
	favs := favorites.IDSet{}
	store := NewStore(kv.NewMemoryStore(0), favs, WithCapacity(10))
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 300; i++ {
		id := fmt.Sprintf("reading-%d", rng.Intn(40))
		if rng.Intn(8) == 0 {
			favs[id] = struct{}{}
		}

		var favoritesBefore []string
		for _, existing := range ids(store.Load()) {
			if favs.Contains(existing) {
				favoritesBefore = append(favoritesBefore, existing)
			}
		}

		store.Upsert(tarotAt(id, day0.Add(time.Duration(rng.Intn(1000))*time.Hour)))

		after := ids(store.Load())
		require.LessOrEqual(t, len(after), 10, "step %d", i)
		for _, fav := range favoritesBefore {
			require.Contains(t, after, fav, "favorite evicted at step %d", i)
		}
	}
}

func TestStore_Remove(t *testing.T) {
	store := NewStore(kv.NewMemoryStore(0), nil)
	fillLibrary(t, store, 5)

	assert.True(t, store.Remove("reading-2"))
	got := ids(store.Load())
	assert.Len(t, got, 4)
	assert.NotContains(t, got, "reading-2")

	assert.False(t, store.Remove("reading-2"))
	assert.False(t, store.Remove("never-existed"))
	assert.Len(t, store.Load().Items, 4)
}

func TestStore_Clear(t *testing.T) {
	backend := kv.NewMemoryStore(0)
	store := NewStore(backend, nil)
	fillLibrary(t, store, 3)

	store.Clear()

	assert.Empty(t, store.Load().Items)
	blob, ok, err := backend.Get(DefaultKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"formatVersion":1,"items":[]}`, string(blob))
}

func TestStore_MalformedData(t *testing.T) {
	tests := []struct {
		name string
		blob string
		want []string
	}{
		{"not json", `{"formatVersion":1,"items":[`, []string{}},
		{"wrong version", `{"formatVersion":2,"items":[]}`, []string{}},
		{"items not a list", `{"formatVersion":1,"items":{}}`, []string{}},
		{
			"bad items skipped",
			`{"formatVersion":1,"items":[
				{"type":"tarot","id":"good","createdAt":"2026-01-01T00:00:00Z","spread":"single","cards":[]},
				{"type":"astrology","id":"unknown-kind"},
				{"type":"horoscope","id":"bad-body","luckyNumbers":"seven"},
				{"type":"specialized","createdAt":"2026-01-01T00:00:00Z","topic":"career"},
				"not an object"
			]}`,
			[]string{"good"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := kv.NewMemoryStore(0)
			require.NoError(t, backend.Set(DefaultKey, []byte(tt.blob)))

			state := NewStore(backend, nil).Load()
			assert.Equal(t, FormatVersion, state.FormatVersion)
			assert.Equal(t, tt.want, ids(state))
		})
	}
}

func TestStore_NoPersistence(t *testing.T) {
	store := NewStore(nil, nil)

	store.Upsert(tarotAt("a", day0))
	assert.Empty(t, store.Load().Items)
	assert.False(t, store.Remove("a"))
	store.Clear()
	assert.Empty(t, store.Entries())
}

func TestStore_FavoritesReferencingMissingIDs(t *testing.T) {
	favs := favorites.NewIDSet("ghost-1", "ghost-2")
	store := NewStore(kv.NewMemoryStore(0), favs, WithCapacity(2))

	store.Upsert(tarotAt("a", day0))
	store.Upsert(tarotAt("b", day0.Add(time.Hour)))
	store.Upsert(tarotAt("c", day0.Add(2*time.Hour)))

	assert.Equal(t, []string{"c", "b"}, ids(store.Load()))
	assert.Empty(t, store.FavoriteEntries())
}

func TestStore_PersistsThroughFileStore(t *testing.T) {
	dir := t.TempDir()

	backend, err := kv.OpenFileStore(dir, 0, 3)
	require.NoError(t, err)
	store := NewStore(backend, nil)
	fillLibrary(t, store, 3)
	require.NoError(t, backend.Close())

	reopened, err := kv.OpenFileStore(dir, 0, 3)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	assert.Equal(t, []string{"reading-2", "reading-1", "reading-0"}, ids(NewStore(reopened, nil).Load()))
}

func TestStore_Entries(t *testing.T) {
	favs := favorites.NewIDSet("h1")
	store := NewStore(kv.NewMemoryStore(0), favs)
	b := NewBuilder(WithBuilderClock(func() time.Time { return day0 }))

	horoscope := b.Horoscope(HoroscopeFields{ZodiacSign: "leo", Period: reading.PeriodDaily, Love: "ความรักสดใส"})
	horoscope.ID = "h1"
	store.Upsert(horoscope)
	store.Upsert(b.Specialized(SpecializedFields{Topic: "career", Prediction: "A promotion is near"}))

	entries := store.Entries()
	require.Len(t, entries, 2)

	assert.Equal(t, EntrySpecialized, entries[0].Type)
	assert.Equal(t, "A promotion is near", entries[0].Preview)
	assert.False(t, entries[0].Favorite)

	assert.Equal(t, EntryHoroscope, entries[1].Type)
	assert.Equal(t, "ความรักสดใส", entries[1].Preview)
	assert.True(t, entries[1].Favorite)
	assert.Equal(t, day0, entries[1].CreatedAt)

	entry, ok := store.Entry("h1")
	require.True(t, ok)
	assert.Equal(t, entries[1].Preview, entry.Preview)

	_, ok = store.Entry("missing")
	assert.False(t, ok)

	assert.Len(t, store.Filter(reading.KindHoroscope), 1)
	assert.Empty(t, store.Filter(reading.KindTarot))
	assert.Len(t, store.FavoriteEntries(), 1)
}

func TestStore_Search(t *testing.T) {
	store := NewStore(kv.NewMemoryStore(0), nil)
	b := NewBuilder()

	store.Upsert(b.Specialized(SpecializedFields{Topic: "career", Prediction: "Career growth arrives in spring"}))
	store.Upsert(b.Horoscope(HoroscopeFields{ZodiacSign: "aries", Love: "Romance is in the air"}))
	store.Upsert(b.Compatibility(CompatibilityFields{Sign1: "leo", Sign2: "aries", Advice: "Listen more"}))

	results := store.Search("romance")
	require.NotEmpty(t, results)
	assert.Equal(t, EntryHoroscope, results[0].Type)

	results = store.Search("compat")
	require.NotEmpty(t, results)
	assert.Equal(t, EntryCompatibility, results[0].Type)

	assert.Len(t, store.Search(""), 3)
	assert.Empty(t, store.Search("zzzzqqq"))
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "inserted", Inserted.String())
	assert.Equal(t, "updated", Updated.String())
	assert.Equal(t, "dropped", Dropped.String())
	assert.Equal(t, "unknown", Outcome(9).String())
}
