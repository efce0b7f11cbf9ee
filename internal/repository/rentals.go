package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Clark-Hu/moviestore/internal/domain"
)

// RentalsRepository persists rentals.
type RentalsRepository struct {
	db DBTX
}

const rentalColumns = `r.id, r.movie_id, r.user_id, r.rented_at, r.updated_at, r.activated, r.price`

// Create inserts an unsettled rental. A second open rental for the same user
// and movie is rejected by uq_rentals_open_user_movie and yields ErrDuplicate.
func (r *RentalsRepository) Create(ctx context.Context, userID, movieID int64, rentedAt time.Time) (domain.Rental, error) {
	query := fmt.Sprintf(`
        INSERT INTO rentals AS r (movie_id, user_id, rented_at, updated_at)
        VALUES ($1, $2, $3, $3)
        RETURNING %s
    `, rentalColumns)
	rental, err := scanRental(r.db.QueryRow(ctx, query, movieID, userID, rentedAt))
	if err != nil {
		return domain.Rental{}, mapWriteError("insert rental", err)
	}
	return rental, nil
}

// GetByID fetches a rental.
func (r *RentalsRepository) GetByID(ctx context.Context, id int64) (domain.Rental, error) {
	return r.get(ctx, fmt.Sprintf(`SELECT %s FROM rentals r WHERE r.id = $1`, rentalColumns), id)
}

// GetForUpdate fetches a rental and locks its row until the enclosing
// transaction ends.
func (r *RentalsRepository) GetForUpdate(ctx context.Context, id int64) (domain.Rental, error) {
	return r.get(ctx, fmt.Sprintf(`SELECT %s FROM rentals r WHERE r.id = $1 FOR UPDATE`, rentalColumns), id)
}

func (r *RentalsRepository) get(ctx context.Context, query string, id int64) (domain.Rental, error) {
	rental, err := scanRental(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Rental{}, ErrNotFound
		}
		return domain.Rental{}, err
	}
	return rental, nil
}

// HasOpen reports whether the user holds an unsettled rental for the movie.
func (r *RentalsRepository) HasOpen(ctx context.Context, userID, movieID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT 1 FROM rentals WHERE user_id = $1 AND movie_id = $2 AND NOT activated
        )
    `, userID, movieID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check open rental: %w", err)
	}
	return exists, nil
}

// UpdatePrice stores a recomputed price on an unsettled rental and returns the
// fresh row. Settled rentals are left untouched.
func (r *RentalsRepository) UpdatePrice(ctx context.Context, id int64, price float64) (domain.Rental, error) {
	query := fmt.Sprintf(`
        UPDATE rentals AS r
        SET price = $2,
            updated_at = now()
        WHERE r.id = $1 AND NOT r.activated
        RETURNING %s
    `, rentalColumns)
	rental, err := scanRental(r.db.QueryRow(ctx, query, id, price))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return r.GetByID(ctx, id)
		}
		return domain.Rental{}, fmt.Errorf("update rental price: %w", err)
	}
	return rental, nil
}

// Settle freezes the price and marks the rental as paid.
func (r *RentalsRepository) Settle(ctx context.Context, id int64, price float64) (domain.Rental, error) {
	query := fmt.Sprintf(`
        UPDATE rentals AS r
        SET price = $2,
            activated = TRUE,
            updated_at = now()
        WHERE r.id = $1
        RETURNING %s
    `, rentalColumns)
	rental, err := scanRental(r.db.QueryRow(ctx, query, id, price))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Rental{}, ErrNotFound
		}
		return domain.Rental{}, fmt.Errorf("settle rental: %w", err)
	}
	return rental, nil
}

// Delete removes the rental together with its payment. Call it inside
// Repository.WithTx so both deletes commit together.
func (r *RentalsRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM payments WHERE rental_id = $1`, id); err != nil {
		return fmt.Errorf("delete rental payment: %w", err)
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM rentals WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete rental: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns rentals matching the filter, ordered by id.
func (r *RentalsRepository) List(ctx context.Context, filter domain.RentalFilter) ([]domain.Rental, error) {
	where, args := ownershipClauses(filter.UserID, filter.MovieID, filter.UserName, filter.MovieTitle)

	queryBuilder := strings.Builder{}
	queryBuilder.WriteString("SELECT ")
	queryBuilder.WriteString(rentalColumns)
	queryBuilder.WriteString(" FROM rentals r JOIN users u ON u.id = r.user_id JOIN movies m ON m.id = r.movie_id")
	if len(where) > 0 {
		queryBuilder.WriteString(" WHERE ")
		queryBuilder.WriteString(strings.Join(where, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY r.id")

	rows, err := r.db.Query(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.Rental, 0)
	for rows.Next() {
		rental, err := scanRental(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, rental)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// ownershipClauses renders the shared rental/payment filter against the
// r (rentals), u (users) and m (movies) aliases.
func ownershipClauses(userID, movieID int64, userName, movieTitle string) ([]string, []interface{}) {
	where := make([]string, 0)
	args := make([]interface{}, 0)
	arg := func(value interface{}) string {
		args = append(args, value)
		return fmt.Sprintf("$%d", len(args))
	}

	if userID != 0 {
		where = append(where, fmt.Sprintf("r.user_id = %s", arg(userID)))
	}
	if movieID != 0 {
		where = append(where, fmt.Sprintf("r.movie_id = %s", arg(movieID)))
	}
	if s := strings.TrimSpace(userName); s != "" {
		where = append(where, fmt.Sprintf("u.username ILIKE %s", arg(likePattern(s))))
	}
	if s := strings.TrimSpace(movieTitle); s != "" {
		where = append(where, fmt.Sprintf("m.title ILIKE %s", arg(likePattern(s))))
	}
	return where, args
}

func scanRental(row pgx.Row) (domain.Rental, error) {
	var rental domain.Rental
	err := row.Scan(
		&rental.ID,
		&rental.MovieID,
		&rental.UserID,
		&rental.RentedAt,
		&rental.UpdatedAt,
		&rental.Activated,
		&rental.Price,
	)
	if err != nil {
		return domain.Rental{}, err
	}
	return rental, nil
}
