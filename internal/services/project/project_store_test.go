package project

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curaious/folio/internal/storage"
)

// failingStorage accepts reads from an inner store but rejects every write.
type failingStorage struct {
	storage.Storage
}

func (failingStorage) Set(context.Context, string, []byte) error {
	return errors.New("quota exceeded")
}

func fixedClock(ms int64) func() time.Time {
	return func() time.Time { return time.UnixMilli(ms) }
}

func sampleRecord(title string) Record {
	return Record{
		Title:        title,
		Description:  title + " description",
		Technologies: []string{"Go"},
		Category:     CategoryBackend,
	}
}

func TestStore_LoadEmpty(t *testing.T) {
	s := NewStore(storage.NewMemoryStorage())

	c := s.Load(context.Background())
	assert.NotNil(t, c)
	assert.Empty(t, c)
}

func TestStore_LoadCorruptIsEmpty(t *testing.T) {
	ctx := context.Background()
	st := storage.NewMemoryStorage()
	require.NoError(t, st.Set(ctx, storage.KeyProjects, []byte("{not json")))

	s := NewStore(st)
	assert.Empty(t, s.Load(ctx))
	assert.Equal(t, FallbackProjects(), s.LoadOr(ctx, FallbackProjects()))
}

func TestStore_LoadPersisted(t *testing.T) {
	ctx := context.Background()
	st := storage.NewMemoryStorage()

	first := NewStore(st)
	_, err := first.Upsert(ctx, sampleRecord("Alpha"), false)
	require.NoError(t, err)

	second := NewStore(st)
	loaded := second.Load(ctx)
	require.Len(t, loaded, 1)
	assert.Equal(t, "Alpha", loaded[0].Title)
	assert.Equal(t, loaded, second.LoadOr(ctx, FallbackProjects()))
}

func TestStore_AddAppendsWithFreshID(t *testing.T) {
	ctx := context.Background()
	s := NewStore(storage.NewMemoryStorage(), WithClock(fixedClock(1700000000000)))

	c, err := s.Upsert(ctx, sampleRecord("Alpha"), false)
	require.NoError(t, err)
	require.Len(t, c, 1)

	in := sampleRecord("Beta")
	in.ID = 42
	c, err = s.Upsert(ctx, in, false)
	require.NoError(t, err)
	require.Len(t, c, 2)

	got := c[1]
	assert.NotEqual(t, int64(42), got.ID)
	assert.Greater(t, got.ID, c[0].ID)
	got.ID = in.ID
	assert.Equal(t, in, got)
}

func TestStore_IDsStayUniqueUnderFrozenClock(t *testing.T) {
	ctx := context.Background()
	s := NewStore(storage.NewMemoryStorage(), WithClock(fixedClock(1000)))

	var c Collection
	var err error
	for i := 0; i < 20; i++ {
		c, err = s.Upsert(ctx, sampleRecord("P"), false)
		require.NoError(t, err)
		if i%3 == 0 {
			c, err = s.Upsert(ctx, c[0], true)
			require.NoError(t, err)
		}
		if i%5 == 4 {
			c, err = s.Remove(ctx, c[len(c)-1].ID)
			require.NoError(t, err)
		}
	}

	seen := map[int64]bool{}
	for _, r := range c {
		assert.False(t, seen[r.ID], "duplicate id %d", r.ID)
		seen[r.ID] = true
	}
}

func TestStore_RemovedIDIsNotReused(t *testing.T) {
	ctx := context.Background()
	s := NewStore(storage.NewMemoryStorage(), WithClock(fixedClock(1000)))

	c, err := s.Upsert(ctx, sampleRecord("A"), false)
	require.NoError(t, err)
	removed := c[0].ID

	_, err = s.Remove(ctx, removed)
	require.NoError(t, err)

	c, err = s.Upsert(ctx, sampleRecord("B"), false)
	require.NoError(t, err)
	assert.NotEqual(t, removed, c[0].ID)
}

func TestStore_EditPreservesPosition(t *testing.T) {
	ctx := context.Background()
	s := NewStore(storage.NewMemoryStorage())

	for _, title := range []string{"A", "B", "C"} {
		_, err := s.Upsert(ctx, sampleRecord(title), false)
		require.NoError(t, err)
	}
	before := s.List()

	edited := before[1]
	edited.Title = "B2"
	edited.Featured = true
	edited.Technologies = append(edited.Technologies, "Redis")

	after, err := s.Upsert(ctx, edited, true)
	require.NoError(t, err)
	require.Len(t, after, 3)
	assert.Equal(t, before[0], after[0])
	assert.Equal(t, edited, after[1])
	assert.Equal(t, before[2], after[2])
}

func TestStore_EditMissingID(t *testing.T) {
	ctx := context.Background()
	s := NewStore(storage.NewMemoryStorage())

	rec := sampleRecord("Ghost")
	rec.ID = 99
	c, err := s.Upsert(ctx, rec, true)
	assert.ErrorIs(t, err, ErrProjectNotFound)
	assert.Empty(t, c)
}

func TestStore_RejectsInvalidRecords(t *testing.T) {
	ctx := context.Background()
	s := NewStore(storage.NewMemoryStorage())

	tests := []struct {
		name   string
		modify func(*Record)
	}{
		{"blank title", func(r *Record) { r.Title = "  " }},
		{"blank description", func(r *Record) { r.Description = "" }},
		{"unknown category", func(r *Record) { r.Category = "mobile" }},
		{"duplicate tags", func(r *Record) { r.Technologies = []string{"Go", "Go"} }},
		{"invalid utf-8 title", func(r *Record) { r.Title = "\xff bad" }},
		{"invalid utf-8 url", func(r *Record) { r.GithubURL = "https://x/\xfe" }},
		{"invalid utf-8 tag", func(r *Record) { r.Technologies = []string{"Go", "\xc3"} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := sampleRecord("X")
			tt.modify(&rec)
			c, err := s.Upsert(ctx, rec, false)
			assert.ErrorIs(t, err, ErrInvalidRecord)
			assert.Empty(t, c)
		})
	}
}

func TestStore_DefaultsCategory(t *testing.T) {
	s := NewStore(storage.NewMemoryStorage())

	rec := sampleRecord("NoCategory")
	rec.Category = ""
	c, err := s.Upsert(context.Background(), rec, false)
	require.NoError(t, err)
	assert.Equal(t, CategoryFrontend, c[0].Category)
}

func TestStore_RemoveAbsentIsNoop(t *testing.T) {
	ctx := context.Background()
	s := NewStore(storage.NewMemoryStorage())
	_, err := s.Upsert(ctx, sampleRecord("A"), false)
	require.NoError(t, err)
	before := s.List()

	after, err := s.Remove(ctx, -1)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestStore_RemovePersists(t *testing.T) {
	ctx := context.Background()
	st := storage.NewMemoryStorage()
	s := NewStore(st)

	c, err := s.Upsert(ctx, sampleRecord("A"), false)
	require.NoError(t, err)
	_, err = s.Upsert(ctx, sampleRecord("B"), false)
	require.NoError(t, err)

	c, err = s.Remove(ctx, c[0].ID)
	require.NoError(t, err)
	require.Len(t, c, 1)
	assert.Equal(t, "B", c[0].Title)

	reloaded := NewStore(st).Load(ctx)
	assert.Equal(t, c, reloaded)
}

func TestStore_ExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := NewStore(storage.NewMemoryStorage())

	recs := []Record{
		sampleRecord("Alpha"),
		{Title: "Beta", Description: "d", Image: "/img/b.png", Technologies: []string{}, LiveURL: "https://b.dev", GithubURL: "https://github.com/x/b", Category: CategoryFullstack, Featured: true},
		{Title: "Gamma <&>", Description: "quotes \" and unicode ✓", Technologies: []string{"React", "react"}, Category: CategoryFrontend},
	}
	for _, r := range recs {
		_, err := src.Upsert(ctx, r, false)
		require.NoError(t, err)
	}
	want := src.List()

	data, err := src.ExportSnapshot()
	require.NoError(t, err)

	dst := NewStore(storage.NewMemoryStorage())
	got, err := dst.ImportSnapshot(ctx, data)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, want, dst.List())
}

func TestStore_ImportReplacesWholesale(t *testing.T) {
	ctx := context.Background()
	st := storage.NewMemoryStorage()
	s := NewStore(st)
	_, err := s.Upsert(ctx, sampleRecord("Old"), false)
	require.NoError(t, err)

	c, err := s.ImportSnapshot(ctx, []byte(`[{"id":7,"title":"New","description":"D","technologies":["Go"],"category":"backend","featured":false}]`))
	require.NoError(t, err)
	require.Len(t, c, 1)
	assert.Equal(t, int64(7), c[0].ID)

	assert.Equal(t, c, NewStore(st).Load(ctx))
}

func TestStore_NextIDAfterImportSkipsImported(t *testing.T) {
	ctx := context.Background()
	s := NewStore(storage.NewMemoryStorage(), WithClock(fixedClock(5)))

	_, err := s.ImportSnapshot(ctx, []byte(`[{"id":10,"title":"T","description":"D"}]`))
	require.NoError(t, err)

	c, err := s.Upsert(ctx, sampleRecord("Next"), false)
	require.NoError(t, err)
	assert.Equal(t, int64(11), c[1].ID)
}

func TestStore_MalformedImportIsNoop(t *testing.T) {
	ctx := context.Background()
	st := storage.NewMemoryStorage()
	s := NewStore(st)
	_, err := s.Upsert(ctx, sampleRecord("Keep"), false)
	require.NoError(t, err)
	before := s.List()
	persisted, err := st.Get(ctx, storage.KeyProjects)
	require.NoError(t, err)

	inputs := map[string]string{
		"garbage":      "\x00\x01garbage",
		"object":       `{"id":1}`,
		"null":         `null`,
		"missing id":   `[{"title":"T","description":"D"}]`,
		"string id":    `[{"id":"1","title":"T","description":"D"}]`,
		"bad category": `[{"id":1,"title":"T","description":"D","category":"mobile"}]`,
		"bad tags":     `[{"id":1,"title":"T","description":"D","technologies":[1]}]`,
		"duplicate id": `[{"id":1,"title":"T","description":"D"},{"id":1,"title":"U","description":"E"}]`,
	}

	for name, input := range inputs {
		t.Run(name, func(t *testing.T) {
			c, err := s.ImportSnapshot(ctx, []byte(input))
			assert.ErrorIs(t, err, ErrMalformedImport)
			assert.Equal(t, before, c)
			assert.Equal(t, before, s.List())

			stored, err := st.Get(ctx, storage.KeyProjects)
			require.NoError(t, err)
			assert.Equal(t, persisted, stored)
		})
	}
}

func TestStore_PersistenceFailureKeepsSessionState(t *testing.T) {
	ctx := context.Background()
	inner := storage.NewMemoryStorage()
	s := NewStore(failingStorage{Storage: inner})

	c, err := s.Upsert(ctx, sampleRecord("Unsaved"), false)
	assert.ErrorIs(t, err, ErrPersistenceUnavailable)
	require.Len(t, c, 1)
	assert.Equal(t, c, s.List())

	_, err = inner.Get(ctx, storage.KeyProjects)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStore_ReturnedCollectionsAreCopies(t *testing.T) {
	ctx := context.Background()
	s := NewStore(storage.NewMemoryStorage())

	c, err := s.Upsert(ctx, sampleRecord("A"), false)
	require.NoError(t, err)
	c[0].Title = "mutated"
	c[0].Technologies[0] = "mutated"

	got := s.List()
	assert.Equal(t, "A", got[0].Title)
	assert.Equal(t, []string{"Go"}, got[0].Technologies)
}

func TestStore_Stats(t *testing.T) {
	ctx := context.Background()
	s := NewStore(storage.NewMemoryStorage())

	recs := []Record{sampleRecord("A"), sampleRecord("B"), sampleRecord("C")}
	recs[0].Featured = true
	recs[1].Category = CategoryFullstack
	for _, r := range recs {
		_, err := s.Upsert(ctx, r, false)
		require.NoError(t, err)
	}

	stats := s.Stats()
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.Featured)
	assert.Equal(t, map[Category]int{CategoryFrontend: 0, CategoryFullstack: 1, CategoryBackend: 2}, stats.ByCategory)
}
