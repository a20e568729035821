package repository

import (
	"context"
	"errors"

	"marketplace/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

func (repo *Repository) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	query := `
	INSERT INTO users (username, password_hash, role)
	VALUES ($1, $2, $3)
	RETURNING id, created_at
	`

	err := repo.db.QueryRowxContext(ctx, query, user.Username, user.PasswordHash, user.Role).Scan(&user.Id, &user.CreatedAt)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return user, models.NewError(models.ErrDuplicateUsername, "username %q is already taken", user.Username)
	}
	if err != nil {
		return user, dbError("repository.Repository.CreateUser", err)
	}

	return user, nil
}

func (repo *Repository) UserByUsername(ctx context.Context, username string) (models.User, bool, error) {
	var user models.User
	query := `
	SELECT id, username, password_hash, role, created_at
	FROM users
	WHERE username = $1
	`

	ok, err := getOne(ctx, repo.db, &user, query, username)
	if err != nil {
		return user, false, dbError("repository.Repository.UserByUsername", err)
	}
	return user, ok, nil
}

func (q queries) UserById(ctx context.Context, id int64) (models.User, bool, error) {
	var user models.User
	query := `
	SELECT id, username, password_hash, role, created_at
	FROM users
	WHERE id = $1
	`

	ok, err := getOne(ctx, q.q, &user, query, id)
	if err != nil {
		return user, false, dbError("repository.UserById", err)
	}
	return user, ok, nil
}

func (repo *Repository) Contractors(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	query := `
	SELECT id, username, role, created_at
	FROM users
	WHERE role = 'contractor'
	ORDER BY username
	`

	err := sqlx.SelectContext(ctx, repo.db, &users, query)
	if err != nil {
		return nil, dbError("repository.Repository.Contractors", err)
	}
	return users, nil
}
