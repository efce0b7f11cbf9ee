package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/Clark-Hu/moviestore/internal/domain"
)

// UsersRepository stores the accounts rentals are attributed to.
type UsersRepository struct {
	db DBTX
}

// Create inserts a user. A taken username yields ErrDuplicate.
func (r *UsersRepository) Create(ctx context.Context, username string, superuser bool) (domain.User, error) {
	var u domain.User
	err := r.db.QueryRow(ctx, `
        INSERT INTO users (username, is_superuser)
        VALUES ($1, $2)
        RETURNING id, username, is_superuser, created_at
    `, username, superuser).Scan(&u.ID, &u.Username, &u.IsSuperuser, &u.CreatedAt)
	if err != nil {
		return domain.User{}, mapWriteError("insert user", err)
	}
	return u, nil
}

// GetByID fetches a user by id.
func (r *UsersRepository) GetByID(ctx context.Context, id int64) (domain.User, error) {
	var u domain.User
	err := r.db.QueryRow(ctx, `
        SELECT id, username, is_superuser, created_at FROM users WHERE id = $1
    `, id).Scan(&u.ID, &u.Username, &u.IsSuperuser, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrNotFound
		}
		return domain.User{}, err
	}
	return u, nil
}
