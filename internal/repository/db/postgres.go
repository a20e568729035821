package db

import (
	"context"
	"fmt"
	"time"

	"marketplace/internal/config"
	"marketplace/internal/logger"

	"github.com/cenkalti/backoff/v4"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// NewPostgresDB opens the pool and waits for the server to accept connections.
func NewPostgresDB(ctx context.Context, cfg *config.PostgresConfig) (*sqlx.DB, error) {
	log := logger.NewSublogger("db")

	db, err := sqlx.Open("postgres", cfg.Conn)
	if err != nil {
		return nil, fmt.Errorf("db.NewPostgresDB: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = cfg.ConnectTimeout

	err = backoff.RetryNotify(func() error {
		return db.PingContext(ctx)
	}, backoff.WithContext(b, ctx), func(err error, d time.Duration) {
		log.WithError(err).Warnf("Database is not reachable, retrying in %s", d)
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("db.NewPostgresDB: %w", err)
	}

	log.Info("Connected to database")
	return db, nil
}
