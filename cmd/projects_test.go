package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curaious/folio/internal/services/project"
	"github.com/curaious/folio/internal/services/session"
	"github.com/curaious/folio/internal/storage"
)

const seedSnapshot = `[
  {"id":1,"title":"Alpha","description":"first","technologies":["Go"],"category":"backend"},
  {"id":2,"title":"Beta","description":"second","technologies":["React"],"category":"frontend","featured":true}
]`

// setupDataDir points the disk driver at a temp dir holding two projects and
// returns that storage.
func setupDataDir(t *testing.T, loggedIn bool) *storage.DiskStorage {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("STORAGE_DRIVER", "disk")
	t.Setenv("DATA_PATH", dir)
	t.Setenv("FALLBACK_PROJECTS_PATH", "")
	t.Setenv("ADMIN_TOKEN_SECRET", "")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	st := storage.NewDiskStorage(dir)
	require.NoError(t, st.Set(context.Background(), storage.KeyProjects, []byte(seedSnapshot)))
	if loggedIn {
		require.NoError(t, st.Set(context.Background(), storage.KeyAuthenticated, []byte("true")))
	}
	return st
}

// runCLI executes the root command with args and stdin and returns what it
// printed.
func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	err := rootCmd.Execute()
	return out.String(), err
}

func persisted(t *testing.T, st storage.Storage) project.Collection {
	t.Helper()
	c, ok := project.ReadCollection(context.Background(), st, storage.KeyProjects)
	require.True(t, ok)
	return c
}

func TestProjects_RequireSession(t *testing.T) {
	setupDataDir(t, false)

	_, err := runCLI(t, "", "projects", "list")
	assert.ErrorIs(t, err, session.ErrLocked)
}

func TestProjectsRemove(t *testing.T) {
	t.Run("absent id", func(t *testing.T) {
		st := setupDataDir(t, true)

		out, err := runCLI(t, "", "projects", "remove", "99", "--yes=false")
		require.NoError(t, err)
		assert.Contains(t, out, "No project with id 99")
		assert.Len(t, persisted(t, st), 2)
	})

	t.Run("declined", func(t *testing.T) {
		st := setupDataDir(t, true)

		out, err := runCLI(t, "n\n", "projects", "remove", "1", "--yes=false")
		require.NoError(t, err)
		assert.Contains(t, out, `Are you sure you want to delete "Alpha"? [y/N]: `)
		assert.Contains(t, out, "Aborted")
		assert.Len(t, persisted(t, st), 2)
	})

	t.Run("confirmed", func(t *testing.T) {
		st := setupDataDir(t, true)

		out, err := runCLI(t, "y\n", "projects", "remove", "1", "--yes=false")
		require.NoError(t, err)
		assert.Contains(t, out, "Removed project 1, 1 remaining")

		left := persisted(t, st)
		require.Len(t, left, 1)
		assert.Equal(t, int64(2), left[0].ID)
	})

	t.Run("yes flag skips the prompt", func(t *testing.T) {
		st := setupDataDir(t, true)

		out, err := runCLI(t, "", "projects", "remove", "2", "--yes")
		require.NoError(t, err)
		assert.NotContains(t, out, "[y/N]")
		assert.Len(t, persisted(t, st), 1)
	})
}

func TestProjectsImport(t *testing.T) {
	t.Run("malformed file leaves projects untouched", func(t *testing.T) {
		st := setupDataDir(t, true)
		path := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(path, []byte(`[{"id":"x","title":"T","description":"D"}]`), 0644))

		_, err := runCLI(t, "", "projects", "import", path)
		assert.ErrorIs(t, err, project.ErrMalformedImport)
		assert.Len(t, persisted(t, st), 2)
	})

	t.Run("valid file replaces projects", func(t *testing.T) {
		st := setupDataDir(t, true)
		path := filepath.Join(t.TempDir(), "good.json")
		require.NoError(t, os.WriteFile(path, []byte(`[{"id":7,"title":"Seven","description":"D"}]`), 0644))

		out, err := runCLI(t, "", "projects", "import", path)
		require.NoError(t, err)
		assert.Contains(t, out, "Imported 1 projects")

		c := persisted(t, st)
		require.Len(t, c, 1)
		assert.Equal(t, "Seven", c[0].Title)
	})

	t.Run("missing file", func(t *testing.T) {
		setupDataDir(t, true)

		_, err := runCLI(t, "", "projects", "import", filepath.Join(t.TempDir(), "nope.json"))
		assert.ErrorContains(t, err, "failed to read")
	})
}

func TestProjectsExport(t *testing.T) {
	t.Run("stdout", func(t *testing.T) {
		st := setupDataDir(t, true)

		out, err := runCLI(t, "", "projects", "export", "-o", "-")
		require.NoError(t, err)

		c, err := project.ParseSnapshot([]byte(out))
		require.NoError(t, err)
		assert.Equal(t, persisted(t, st), c)
		assert.True(t, strings.HasPrefix(out, "[\n  {\n    \"id\": 1,"))
	})

	t.Run("file", func(t *testing.T) {
		st := setupDataDir(t, true)
		path := filepath.Join(t.TempDir(), project.SnapshotFilename)

		out, err := runCLI(t, "", "projects", "export", "-o", path)
		require.NoError(t, err)
		assert.Contains(t, out, "Exported 2 projects")

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		c, err := project.ParseSnapshot(data)
		require.NoError(t, err)
		assert.Equal(t, persisted(t, st), c)
	})
}
