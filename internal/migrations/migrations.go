package migrations

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"

	"github.com/jmoiron/sqlx"
)

// migration ..
type migration struct {
	version string
	up      func(*sqlx.Tx) error
	down    func(*sqlx.Tx) error
}

// registry holds every migration compiled into the binary, keyed by version.
var registry = map[string]*migration{}

func addMigration(mg *migration) {
	if _, dup := registry[mg.version]; dup {
		panic(fmt.Sprintf("duplicate migration version %s", mg.version))
	}
	registry[mg.version] = mg
}

// versions returns the registered versions in ascending order.
func versions() []string {
	out := make([]string, 0, len(registry))
	for v := range registry {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Status describes one registered migration.
type Status struct {
	Version string
	Done    bool
}

// Migrator runs registered migrations against a Postgres database, tracking
// completed versions in metadata.schema_migrations.
type Migrator struct {
	db   *sqlx.DB
	done map[string]bool
}

// NewMigrator ..
func NewMigrator(ctx context.Context, db *sqlx.DB) (*Migrator, error) {
	if _, err := db.ExecContext(ctx, `CREATE SCHEMA IF NOT EXISTS metadata`); err != nil {
		slog.Error("Unable to create metadata schema", slog.Any("error", err))
		return nil, err
	}

	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS metadata.schema_migrations (
		version varchar(255)
	);`); err != nil {
		slog.Error("Unable to create `schema_migrations` table", slog.Any("error", err))
		return nil, err
	}

	var completed []string
	if err := db.SelectContext(ctx, &completed, "SELECT version FROM metadata.schema_migrations;"); err != nil {
		slog.Error("Unable to fetch completed migrations", slog.Any("error", err))
		return nil, err
	}

	m := &Migrator{db: db, done: map[string]bool{}}
	for _, v := range completed {
		m.done[v] = true
	}

	return m, nil
}

// Status lists every registered migration in the order it would run.
func (m *Migrator) Status() []Status {
	vs := versions()
	out := make([]Status, 0, len(vs))
	for _, v := range vs {
		out = append(out, Status{Version: v, Done: m.done[v]})
	}
	return out
}

// Up applies up to step pending migrations, or all of them when step is 0.
func (m *Migrator) Up(ctx context.Context, step int) error {
	return m.run(ctx, pending(versions(), m.done, step), true)
}

// Down reverts up to step applied migrations, newest first, or all of them
// when step is 0.
func (m *Migrator) Down(ctx context.Context, step int) error {
	return m.run(ctx, applied(versions(), m.done, step), false)
}

func (m *Migrator) run(ctx context.Context, todo []string, up bool) (err error) {
	if len(todo) == 0 {
		slog.InfoContext(ctx, "No migrations to run")
		return nil
	}

	tx, err := m.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		slog.Error("Unable to start transaction to run migrations", slog.Any("error", err))
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic", slog.Any("details", r))
			tx.Rollback()
			err = fmt.Errorf("migration panicked: %v", r)
		}
	}()

	for _, v := range todo {
		mg := registry[v]
		l := slog.With(slog.String("version", v))

		if up {
			l.Info("Running up migration...")
			if err := mg.up(tx); err != nil {
				tx.Rollback()
				l.Error("Error occurred while running migration", slog.Any("error", err))
				return err
			}
			if _, err := tx.ExecContext(ctx, "INSERT INTO metadata.schema_migrations VALUES($1);", v); err != nil {
				tx.Rollback()
				l.Error("Failed to insert completed migrations to `metadata.schema_migrations`", slog.Any("error", err))
				return err
			}
			l.Info("Finished up migration...")
			continue
		}

		l.Info("Running down migration...")
		if err := mg.down(tx); err != nil {
			tx.Rollback()
			l.Error("Error occurred while running migration", slog.Any("error", err))
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM metadata.schema_migrations WHERE version = $1;", v); err != nil {
			tx.Rollback()
			l.Error("Failed to remove reverted migrations from `metadata.schema_migrations`", slog.Any("error", err))
			return err
		}
		l.Info("Finished down migration...")
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migrations: %w", err)
	}

	for _, v := range todo {
		m.done[v] = up
	}

	return nil
}

// pending picks, oldest first, up to step versions that are not done.
func pending(vs []string, done map[string]bool, step int) []string {
	var out []string
	for _, v := range vs {
		if step > 0 && len(out) == step {
			break
		}
		if !done[v] {
			out = append(out, v)
		}
	}
	return out
}

// applied picks, newest first, up to step versions that are done.
func applied(vs []string, done map[string]bool, step int) []string {
	var out []string
	for i := len(vs) - 1; i >= 0; i-- {
		if step > 0 && len(out) == step {
			break
		}
		if done[vs[i]] {
			out = append(out, vs[i])
		}
	}
	return out
}
