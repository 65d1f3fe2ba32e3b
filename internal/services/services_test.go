package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curaious/folio/internal/config"
	"github.com/curaious/folio/internal/pubsub"
	"github.com/curaious/folio/internal/storage"
)

func TestNewServices_Disk(t *testing.T) {
	ctx := context.Background()
	conf := &config.Config{
		STORAGE_DRIVER:     config.StorageDisk,
		DATA_PATH:          t.TempDir(),
		ADMIN_TOKEN_SECRET: "secret",
		ADMIN_TOKEN_TTL:    time.Hour,
	}

	svc, err := NewServices(ctx, conf)
	require.NoError(t, err)
	defer svc.Close()

	assert.IsType(t, &storage.DiskStorage{}, svc.Storage)
	assert.NotNil(t, svc.Tokens)
	assert.Empty(t, svc.Projects.List())
	assert.Len(t, svc.Catalog.Projects(ctx), 2, "fallback dataset is shown before anything is saved")
	assert.False(t, svc.Gate.Authenticated(ctx))
}

func TestNewServices_WithoutSecretDisablesTokens(t *testing.T) {
	svc, err := NewServices(context.Background(), &config.Config{STORAGE_DRIVER: config.StorageMemory})
	require.NoError(t, err)
	assert.Nil(t, svc.Tokens)
	assert.NoError(t, svc.Close())
}

func TestNewServices_FallbackFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fallback.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id":9,"title":"Only","description":"One"}]`), 0644))

	svc, err := NewServices(context.Background(), &config.Config{
		STORAGE_DRIVER:         config.StorageMemory,
		FALLBACK_PROJECTS_PATH: path,
	})
	require.NoError(t, err)

	projects := svc.Catalog.Projects(context.Background())
	require.Len(t, projects, 1)
	assert.Equal(t, "Only", projects[0].Title)
}

func TestNewServices_BadFallbackFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fallback.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"not":"an array"}`), 0644))

	_, err := NewServices(context.Background(), &config.Config{
		STORAGE_DRIVER:         config.StorageMemory,
		FALLBACK_PROJECTS_PATH: path,
	})
	assert.Error(t, err)
}

func TestNewStorage_UnknownDriver(t *testing.T) {
	_, _, err := NewStorage(context.Background(), &config.Config{STORAGE_DRIVER: "s3"})
	assert.ErrorContains(t, err, "unknown STORAGE_DRIVER")
}

func TestWatch_ReloadsOnProjectChanges(t *testing.T) {
	ctx := context.Background()
	st := storage.NewMemoryStorage()
	svc, err := newServices(ctx, &config.Config{}, st)
	require.NoError(t, err)
	assert.Empty(t, svc.Projects.List())

	// another process writes the collection
	require.NoError(t, st.Set(ctx, storage.KeyProjects, []byte(`[{"id":1,"title":"t","description":"d"}]`)))

	reload := svc.reloadOn(ctx)
	reload(pubsub.ChangeEvent{Key: storage.KeyAuthenticated, Operation: "SET"})
	assert.Empty(t, svc.Projects.List())

	reload(pubsub.ChangeEvent{Key: storage.KeyProjects, Operation: "UPDATE"})
	assert.Len(t, svc.Projects.List(), 1)
}

func TestWatch_NoListener(t *testing.T) {
	svc, err := NewServices(context.Background(), &config.Config{STORAGE_DRIVER: config.StorageMemory})
	require.NoError(t, err)
	assert.Nil(t, svc.Changes)
	assert.NoError(t, svc.Watch(context.Background()))
}
