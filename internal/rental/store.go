package rental

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Clark-Hu/moviestore/internal/domain"
	"github.com/Clark-Hu/moviestore/internal/repository"
)

// RentalStore is the persistence surface the lifecycle and settlement need.
// Implementations report missing rows with repository.ErrNotFound and unique
// violations with repository.ErrDuplicate.
type RentalStore interface {
	GetByID(ctx context.Context, id int64) (domain.Rental, error)
	GetForUpdate(ctx context.Context, id int64) (domain.Rental, error)
	HasOpen(ctx context.Context, userID, movieID int64) (bool, error)
	Create(ctx context.Context, userID, movieID int64, rentedAt time.Time) (domain.Rental, error)
	UpdatePrice(ctx context.Context, id int64, price float64) (domain.Rental, error)
	Settle(ctx context.Context, id int64, price float64) (domain.Rental, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter domain.RentalFilter) ([]domain.Rental, error)
}

// PaymentStore records and lists settlements.
type PaymentStore interface {
	Create(ctx context.Context, rental domain.Rental, amount float64) (domain.Payment, error)
	List(ctx context.Context, filter domain.PaymentFilter) ([]domain.Payment, error)
}

// MovieLookup resolves catalog ids.
type MovieLookup interface {
	GetByID(ctx context.Context, id int64) (domain.Movie, error)
}

// Store groups the stores and runs work inside one transaction.
type Store interface {
	Rentals() RentalStore
	Payments() PaymentStore
	Movies() MovieLookup
	WithinTx(ctx context.Context, fn func(tx Store) error) error
}

type postgresStore struct {
	repo *repository.Repository
}

// NewPostgresStore adapts the pgx repositories to Store.
func NewPostgresStore(repo *repository.Repository) Store {
	return postgresStore{repo: repo}
}

func (s postgresStore) Rentals() RentalStore   { return s.repo.Rentals }
func (s postgresStore) Payments() PaymentStore { return s.repo.Payments }
func (s postgresStore) Movies() MovieLookup    { return s.repo.Movies }

func (s postgresStore) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	return s.repo.WithTx(ctx, func(tx *repository.Repository) error {
		return fn(postgresStore{repo: tx})
	})
}

// lookupError maps a store read failure to the domain taxonomy.
func lookupError(op string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}
