package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/curaious/folio/internal/config"
	"github.com/curaious/folio/internal/db"
	"github.com/curaious/folio/internal/pubsub"
	"github.com/curaious/folio/internal/services/project"
	"github.com/curaious/folio/internal/services/session"
	"github.com/curaious/folio/internal/storage"
)

type Services struct {
	Storage  storage.Storage
	Projects *project.Store
	Catalog  *project.Catalog
	Gate     *session.Gate

	// Tokens is nil when ADMIN_TOKEN_SECRET is not configured; admin HTTP
	// routes then reject every request.
	Tokens *session.Tokens

	// Changes is nil for backends that are private to one process.
	Changes pubsub.Listener

	closers []func() error
}

func NewServices(ctx context.Context, conf *config.Config) (*Services, error) {
	st, closer, err := NewStorage(ctx, conf)
	if err != nil {
		return nil, err
	}

	svc, err := newServices(ctx, conf, st)
	if err != nil {
		_ = closer()
		return nil, err
	}
	svc.closers = append(svc.closers, closer)

	switch st := st.(type) {
	case *storage.PostgresStorage:
		svc.Changes = pubsub.NewPostgresListener(conf.PostgresDSN())
	case *storage.RedisStorage:
		svc.Changes = pubsub.NewRedisListener(st.Client(), st.ChangesChannel())
	}

	return svc, nil
}

// newServices wires everything on top of an already opened storage.
func newServices(ctx context.Context, conf *config.Config, st storage.Storage) (*Services, error) {
	fallback, err := project.LoadFallback(conf.FALLBACK_PROJECTS_PATH)
	if err != nil {
		return nil, err
	}

	store := project.NewStore(st)
	loaded := store.Load(ctx)
	slog.InfoContext(ctx, "Loaded projects", slog.Int("count", len(loaded)))

	svc := &Services{
		Storage:  st,
		Projects: store,
		Catalog:  project.NewCatalog(st, fallback, project.WithCatalogKey(store.Key())),
		Gate:     session.NewGate(st),
	}

	tokens, err := session.NewTokens(conf.ADMIN_TOKEN_SECRET, conf.ADMIN_TOKEN_TTL)
	switch {
	case err == nil:
		svc.Tokens = tokens
	case errors.Is(err, session.ErrNoSecret):
		slog.WarnContext(ctx, "ADMIN_TOKEN_SECRET is not set, admin API is disabled")
	default:
		return nil, err
	}

	return svc, nil
}

// NewStorage opens the backend selected by STORAGE_DRIVER. The returned func
// releases any connection it holds.
func NewStorage(ctx context.Context, conf *config.Config) (storage.Storage, func() error, error) {
	noop := func() error { return nil }

	switch conf.STORAGE_DRIVER {
	case config.StorageMemory:
		slog.Warn("Using in-memory storage, changes will not survive a restart")
		return storage.NewMemoryStorage(), noop, nil

	case config.StorageDisk:
		slog.Info("Using disk storage", slog.String("path", conf.DATA_PATH))
		return storage.NewDiskStorage(conf.DATA_PATH), noop, nil

	case config.StoragePostgres:
		conn, err := db.NewConn(conf)
		if err != nil {
			return nil, nil, err
		}
		return storage.NewPostgresStorage(conn), conn.Close, nil

	case config.StorageRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     conf.REDIS_ADDR,
			Password: conf.REDIS_PASSWORD,
			DB:       conf.REDIS_DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("unable to connect to redis at %s: %w", conf.REDIS_ADDR, err)
		}
		slog.Info("Connected to redis", slog.String("addr", conf.REDIS_ADDR))
		return storage.NewRedisStorage(client, ""), client.Close, nil
	}

	return nil, nil, fmt.Errorf("unknown STORAGE_DRIVER %q", conf.STORAGE_DRIVER)
}

// Watch reloads the project store whenever another process changes the
// persisted collection. It is a no-op without a change listener.
func (s *Services) Watch(ctx context.Context) error {
	if s.Changes == nil {
		return nil
	}

	s.Changes.Subscribe(s.reloadOn(ctx))
	if err := s.Changes.Start(); err != nil {
		return err
	}

	s.closers = append(s.closers, func() error {
		s.Changes.Stop()
		return nil
	})
	return nil
}

func (s *Services) reloadOn(ctx context.Context) pubsub.ChangeHandler {
	return func(e pubsub.ChangeEvent) {
		if !e.Affects(storage.KeyProjects) {
			return
		}
		loaded := s.Projects.Load(ctx)
		slog.InfoContext(ctx, "Reloaded projects after storage change", slog.String("operation", e.Operation), slog.Int("count", len(loaded)))
	}
}

// Close stops the change listener and releases the storage connection.
func (s *Services) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	return errors.Join(errs...)
}
