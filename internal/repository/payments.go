package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/Clark-Hu/moviestore/internal/domain"
)

// PaymentsRepository persists payment records.
type PaymentsRepository struct {
	db DBTX
}

const paymentColumns = `p.id, p.amount, p.created_at, p.updated_at, ` + rentalColumns

// Create records the payment for a rental. The embedded rental is the one
// passed in, so callers settle it first within the same transaction.
func (r *PaymentsRepository) Create(ctx context.Context, rental domain.Rental, amount float64) (domain.Payment, error) {
	payment := domain.Payment{Rental: rental, Amount: amount}
	err := r.db.QueryRow(ctx, `
        INSERT INTO payments (rental_id, amount)
        VALUES ($1, $2)
        RETURNING id, created_at, updated_at
    `, rental.ID, amount).Scan(&payment.ID, &payment.CreatedAt, &payment.UpdatedAt)
	if err != nil {
		return domain.Payment{}, mapWriteError("insert payment", err)
	}
	return payment, nil
}

// List returns payments whose rental matches the filter, ordered by id.
func (r *PaymentsRepository) List(ctx context.Context, filter domain.PaymentFilter) ([]domain.Payment, error) {
	where, args := ownershipClauses(filter.UserID, filter.MovieID, filter.UserName, filter.MovieTitle)

	queryBuilder := strings.Builder{}
	queryBuilder.WriteString("SELECT ")
	queryBuilder.WriteString(paymentColumns)
	queryBuilder.WriteString(` FROM payments p
        JOIN rentals r ON r.id = p.rental_id
        JOIN users u ON u.id = r.user_id
        JOIN movies m ON m.id = r.movie_id`)
	if len(where) > 0 {
		queryBuilder.WriteString(" WHERE ")
		queryBuilder.WriteString(strings.Join(where, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY p.id")

	rows, err := r.db.Query(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	items := make([]domain.Payment, 0)
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, payment)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func scanPayment(row pgx.Row) (domain.Payment, error) {
	var p domain.Payment
	err := row.Scan(
		&p.ID,
		&p.Amount,
		&p.CreatedAt,
		&p.UpdatedAt,
		&p.Rental.ID,
		&p.Rental.MovieID,
		&p.Rental.UserID,
		&p.Rental.RentedAt,
		&p.Rental.UpdatedAt,
		&p.Rental.Activated,
		&p.Rental.Price,
	)
	if err != nil {
		return domain.Payment{}, err
	}
	return p, nil
}
