package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"marketplace/internal/config"
	"marketplace/internal/models"

	postgres "marketplace/internal/repository/db"

	"github.com/jmoiron/sqlx"
)

type Repository struct {
	queries
	db  *sqlx.DB
	cfg *config.PostgresConfig
}

func NewRepository(ctx context.Context, db *sqlx.DB, cfg *config.PostgresConfig) (*Repository, error) {
	var err error

	repo := &Repository{
		db:  db,
		cfg: cfg,
	}

	if repo.cfg == nil {
		repo.cfg, err = config.NewPostgresConfig()
		if err != nil {
			return nil, fmt.Errorf("repository.NewRepository: could not load postgres config: %w", err)
		}
	}

	if repo.db == nil {
		repo.db, err = postgres.NewPostgresDB(ctx, repo.cfg)
		if err != nil {
			return nil, fmt.Errorf("repository.NewRepository: could not open postgres db: %w", err)
		}
	}
	repo.queries = queries{q: repo.db}

	if repo.cfg.AutoMigrateUp == "true" {
		err = repo.MigrateUp()
		if err != nil {
			return nil, err
		}
	}

	return repo, nil
}

func (repo *Repository) MigrateUp() error {
	err := postgres.MigrateUp(repo.db.DB)
	if err != nil {
		return fmt.Errorf("repository.Repository.MigrateUp: %w", err)
	}
	return nil
}

func (repo *Repository) MigrateDown() error {
	err := postgres.MigrateDown(repo.db.DB)
	if err != nil {
		return fmt.Errorf("repository.Repository.MigrateDown: %w", err)
	}
	return nil
}

func (repo *Repository) Close() error {
	var migErr error
	if repo.cfg.AutoMigrateDown == "true" {
		migErr = repo.MigrateDown()
	}

	err := repo.db.Close()
	return errors.Join(migErr, err)
}

// Tx is a unit of work. Every statement issued through it commits or rolls back together.
type Tx struct {
	queries
	tx *sqlx.Tx
}

// InTx runs fn inside a transaction. The transaction is rolled back if fn
// returns an error or panics, and committed otherwise.
func (repo *Repository) InTx(ctx context.Context, fn func(tx *Tx) error) error {
	sqltx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return dbError("repository.Repository.InTx: failed to start transaction", err)
	}

	defer func() {
		if p := recover(); p != nil {
			sqltx.Rollback()
			panic(p)
		}
	}()

	err = fn(&Tx{queries: queries{q: sqltx}, tx: sqltx})
	if err != nil {
		return wrapRollbackErr(sqltx, err)
	}

	err = sqltx.Commit()
	if err != nil {
		return dbError("repository.Repository.InTx: failed to commit transaction", err)
	}
	return nil
}

// queries holds the statements that run both inside and outside a transaction.
type queries struct {
	q sqlx.ExtContext
}

//// Service

func wrapRollbackErr(tx *sqlx.Tx, err error) error {
	rollerr := tx.Rollback()
	if rollerr == nil {
		return err
	}
	return fmt.Errorf("failed to rollback transaction after previous error: %w, %w", rollerr, err)
}

func dbError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, models.ErrPersistence, err)
}

// getOne scans a single row into dest and reports whether it existed.
func getOne(ctx context.Context, q sqlx.QueryerContext, dest any, query string, args ...any) (bool, error) {
	err := sqlx.GetContext(ctx, q, dest, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func sqlDate(t time.Time) string {
	return t.Format(time.DateOnly)
}

//// Test utils

func (repo *Repository) TestGetDB() *sqlx.DB {
	return repo.db
}
