package db

import (
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/curaious/folio/internal/config"
)

func NewConn(conf *config.Config) (*sqlx.DB, error) {
	slog.Info("Connecting to database", slog.String("host", conf.DB_HOST), slog.String("name", conf.DB_NAME))

	db, err := sqlx.Open("postgres", conf.PostgresDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	slog.Info("Connected to database")

	return db, nil
}
