package project

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/curaious/folio/internal/storage"
)

var ErrInvalidRecord = errors.New("invalid project record")

var tracer = otel.Tracer("github.com/curaious/folio/internal/services/project")

// Store owns the authoritative collection for an admin editing session.
// Every mutation persists the whole collection before returning.
type Store struct {
	mu       sync.Mutex
	storage  storage.Storage
	key      string
	now      func() time.Time
	projects Collection
	lastID   int64
}

type StoreOption func(*Store)

// WithKey overrides the storage key, storage.KeyProjects by default.
func WithKey(key string) StoreOption {
	return func(s *Store) { s.key = key }
}

// WithClock sets the time source used for new ids.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// NewStore creates an empty store. Call Load to read the persisted state.
func NewStore(st storage.Storage, opts ...StoreOption) *Store {
	s := &Store{
		storage:  st,
		key:      storage.KeyProjects,
		now:      time.Now,
		projects: Collection{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ReadCollection reads and validates the collection persisted under key.
// ok is false when nothing readable is stored; unreadable data is logged and
// treated as absent.
func ReadCollection(ctx context.Context, st storage.Storage, key string) (c Collection, ok bool) {
	data, err := st.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			slog.WarnContext(ctx, "Unable to read persisted projects", slog.String("key", key), slog.Any("error", err))
		}
		return nil, false
	}

	c, err = ParseSnapshot(data)
	if err != nil {
		slog.WarnContext(ctx, "Ignoring unreadable persisted projects", slog.String("key", key), slog.Any("error", err))
		return nil, false
	}

	return c, true
}

// Load replaces the in-memory collection with the persisted one, or an
// empty collection when none is readable.
func (s *Store) Load(ctx context.Context) Collection {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := ReadCollection(ctx, s.storage, s.key)
	if !ok {
		c = Collection{}
	}

	s.projects = c
	if max := c.maxID(); max > s.lastID {
		s.lastID = max
	}

	return s.projects.Clone()
}

// LoadOr returns the persisted collection without touching the store's
// state, or fallback when nothing readable is persisted.
func (s *Store) LoadOr(ctx context.Context, fallback Collection) Collection {
	c, ok := ReadCollection(ctx, s.storage, s.key)
	if !ok {
		return fallback.Clone()
	}
	return c
}

// Key is the storage key the collection is persisted under.
func (s *Store) Key() string {
	return s.key
}

// List returns a copy of the current collection.
func (s *Store) List() Collection {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.projects.Clone()
}

func (s *Store) Get(id int64) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.projects.Index(id)
	if idx < 0 {
		return Record{}, fmt.Errorf("%w: %d", ErrProjectNotFound, id)
	}
	return s.projects[idx].Clone(), nil
}

func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.projects.Stats()
}

// Upsert replaces the record sharing rec.ID in place when isEdit is set, and
// otherwise appends rec under a fresh id. The returned collection reflects
// the change even when persisting it fails; in that case the error wraps
// ErrPersistenceUnavailable.
func (s *Store) Upsert(ctx context.Context, rec Record, isEdit bool) (Collection, error) {
	ctx, span := tracer.Start(ctx, "project.upsert")
	defer span.End()
	span.SetAttributes(attribute.Bool("project.edit", isEdit))

	s.mu.Lock()
	defer s.mu.Unlock()

	rec = rec.normalized()
	if err := checkRecord(rec); err != nil {
		return s.projects.Clone(), err
	}

	next := s.projects.Clone()
	if isEdit {
		idx := next.Index(rec.ID)
		if idx < 0 {
			return s.projects.Clone(), fmt.Errorf("%w: %d", ErrProjectNotFound, rec.ID)
		}
		next[idx] = rec
	} else {
		rec.ID = s.nextID()
		next = append(next, rec)
	}
	span.SetAttributes(attribute.Int64("project.id", rec.ID))

	return s.commit(ctx, next)
}

// Remove deletes the record with id. An absent id leaves the collection
// unchanged and is not an error. Callers are expected to have confirmed the
// deletion with the user.
func (s *Store) Remove(ctx context.Context, id int64) (Collection, error) {
	ctx, span := tracer.Start(ctx, "project.remove")
	defer span.End()
	span.SetAttributes(attribute.Int64("project.id", id))

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.projects.Index(id)
	if idx < 0 {
		return s.projects.Clone(), nil
	}

	next := make(Collection, 0, len(s.projects)-1)
	next = append(next, s.projects[:idx].Clone()...)
	next = append(next, s.projects[idx+1:].Clone()...)

	return s.commit(ctx, next)
}

// ExportSnapshot serializes the current collection for download.
func (s *Store) ExportSnapshot() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return MarshalSnapshot(s.projects)
}

// ImportSnapshot replaces the whole collection with the one encoded in data.
// Malformed data returns ErrMalformedImport and leaves the collection as is.
func (s *Store) ImportSnapshot(ctx context.Context, data []byte) (Collection, error) {
	ctx, span := tracer.Start(ctx, "project.import")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	imported, err := ParseSnapshot(data)
	if err != nil {
		span.RecordError(err)
		return s.projects.Clone(), err
	}
	span.SetAttributes(attribute.Int("project.count", len(imported)))

	if max := imported.maxID(); max > s.lastID {
		s.lastID = max
	}

	return s.commit(ctx, imported)
}

// nextID is the current time in milliseconds, bumped past every id handed
// out or seen in this session.
func (s *Store) nextID() int64 {
	id := s.now().UnixMilli()
	if max := s.projects.maxID(); id <= max {
		id = max + 1
	}
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return id
}

// commit installs next as the current collection and persists it. Must be
// called with s.mu held.
func (s *Store) commit(ctx context.Context, next Collection) (Collection, error) {
	s.projects = next

	data, err := marshalCompact(next)
	if err == nil {
		err = s.storage.Set(ctx, s.key, data)
	}
	if err != nil {
		slog.WarnContext(ctx, "Unable to persist projects, change kept for this session only", slog.Any("error", err))
		return next.Clone(), fmt.Errorf("%w: %v", ErrPersistenceUnavailable, err)
	}

	return next.Clone(), nil
}

// checkRecord enforces what every persisted record must satisfy so that a
// stored collection always re-imports.
func checkRecord(rec Record) error {
	switch {
	case strings.TrimSpace(rec.Title) == "":
		return fmt.Errorf("%w: title is required", ErrInvalidRecord)
	case strings.TrimSpace(rec.Description) == "":
		return fmt.Errorf("%w: description is required", ErrInvalidRecord)
	case !rec.Category.IsValid():
		return fmt.Errorf("%w: %w: %q", ErrInvalidRecord, ErrUnknownCategory, rec.Category)
	}

	for name, v := range map[string]string{
		"title":       rec.Title,
		"description": rec.Description,
		"image":       rec.Image,
		"liveUrl":     rec.LiveURL,
		"githubUrl":   rec.GithubURL,
	} {
		if !utf8.ValidString(v) {
			return fmt.Errorf("%w: %s is not valid UTF-8", ErrInvalidRecord, name)
		}
	}

	seen := make(map[string]struct{}, len(rec.Technologies))
	for _, tag := range rec.Technologies {
		if !utf8.ValidString(tag) {
			return fmt.Errorf("%w: technology %q is not valid UTF-8", ErrInvalidRecord, tag)
		}
		if _, dup := seen[tag]; dup {
			return fmt.Errorf("%w: duplicate technology %q", ErrInvalidRecord, tag)
		}
		seen[tag] = struct{}{}
	}

	return nil
}
