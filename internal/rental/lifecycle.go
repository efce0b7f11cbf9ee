// Package rental implements the rental lifecycle and payment settlement on top
// of the pricing policy and the authorization rules.
package rental

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Clark-Hu/moviestore/internal/authz"
	"github.com/Clark-Hu/moviestore/internal/domain"
	"github.com/Clark-Hu/moviestore/internal/pricing"
	"github.com/Clark-Hu/moviestore/internal/repository"
)

// Lifecycle creates, reads, prices and deletes rentals.
type Lifecycle struct {
	store  Store
	policy pricing.Policy
	now    func() time.Time
	logger *log.Logger
}

// NewLifecycle wires a lifecycle. A nil now defaults to time.Now.
func NewLifecycle(store Store, policy pricing.Policy, now func() time.Time, logger *log.Logger) *Lifecycle {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Lifecycle{store: store, policy: policy, now: now, logger: logger}
}

// List returns stored rentals without refreshing prices. Customers only ever
// see their own rentals and may narrow them by movie title.
func (l *Lifecycle) List(ctx context.Context, caller domain.Identity, filter domain.RentalFilter) ([]domain.Rental, error) {
	if !authz.IsAuthenticated(caller) {
		return nil, domain.ErrUnauthorized
	}
	if !authz.CanListAll(caller) {
		filter.UserID = caller.UserID
		filter.UserName = ""
	}
	items, err := l.store.Rentals().List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list rentals: %w", err)
	}
	return items, nil
}

// Get returns the rental with a freshly computed price.
func (l *Lifecycle) Get(ctx context.Context, caller domain.Identity, id int64) (domain.Rental, error) {
	if !authz.IsAuthenticated(caller) {
		return domain.Rental{}, domain.ErrUnauthorized
	}
	var out domain.Rental
	err := l.store.WithinTx(ctx, func(tx Store) error {
		rental, err := tx.Rentals().GetByID(ctx, id)
		if err != nil {
			return lookupError("get rental", err)
		}
		if !authz.CanViewRental(caller, rental) {
			return domain.ErrUnauthorized
		}
		out, err = refreshPrice(ctx, tx, l.policy, l.now(), rental)
		return err
	})
	return out, err
}

// Create opens a new rental for the caller at the current time.
func (l *Lifecycle) Create(ctx context.Context, caller domain.Identity, movieID int64) (domain.Rental, error) {
	if !authz.CanCreateRental(caller) {
		return domain.Rental{}, domain.ErrUnauthorized
	}
	var out domain.Rental
	err := l.store.WithinTx(ctx, func(tx Store) error {
		if _, err := tx.Movies().GetByID(ctx, movieID); err != nil {
			return lookupError("get movie", err)
		}
		open, err := tx.Rentals().HasOpen(ctx, caller.UserID, movieID)
		if err != nil {
			return fmt.Errorf("create rental: %w", err)
		}
		if open {
			return duplicateRental()
		}
		out, err = tx.Rentals().Create(ctx, caller.UserID, movieID, l.now())
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return duplicateRental()
		case err != nil:
			return lookupError("create rental", err)
		}
		return nil
	})
	if err != nil {
		return domain.Rental{}, err
	}
	l.logger.Printf("rental %d opened by user %d for movie %d", out.ID, out.UserID, out.MovieID)
	return out, nil
}

// Delete removes the rental and any payment recorded for it.
func (l *Lifecycle) Delete(ctx context.Context, caller domain.Identity, id int64) error {
	if !authz.IsAuthenticated(caller) {
		return domain.ErrUnauthorized
	}
	return l.store.WithinTx(ctx, func(tx Store) error {
		rental, err := tx.Rentals().GetByID(ctx, id)
		if err != nil {
			return lookupError("get rental", err)
		}
		if !authz.CanModifyRental(caller, rental) {
			return domain.ErrUnauthorized
		}
		if err := tx.Rentals().Delete(ctx, id); err != nil {
			return lookupError("delete rental", err)
		}
		return nil
	})
}

// ListByMovie returns the movie's rentals visible to the caller, each with a
// refreshed price.
func (l *Lifecycle) ListByMovie(ctx context.Context, caller domain.Identity, movieID int64) ([]domain.Rental, error) {
	if !authz.IsAuthenticated(caller) {
		return nil, domain.ErrUnauthorized
	}
	filter := domain.RentalFilter{MovieID: movieID}
	if !authz.CanListAll(caller) {
		filter.UserID = caller.UserID
	}
	var out []domain.Rental
	err := l.store.WithinTx(ctx, func(tx Store) error {
		if _, err := tx.Movies().GetByID(ctx, movieID); err != nil {
			return lookupError("get movie", err)
		}
		rentals, err := tx.Rentals().List(ctx, filter)
		if err != nil {
			return fmt.Errorf("list movie rentals: %w", err)
		}
		now := l.now()
		out = make([]domain.Rental, 0, len(rentals))
		for _, rental := range rentals {
			fresh, err := refreshPrice(ctx, tx, l.policy, now, rental)
			if err != nil {
				return err
			}
			out = append(out, fresh)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// refreshPrice recomputes and stores the price of an unsettled rental. Settled
// rentals keep the amount they were paid at.
func refreshPrice(ctx context.Context, tx Store, policy pricing.Policy, now time.Time, rental domain.Rental) (domain.Rental, error) {
	if rental.Settled() {
		return rental, nil
	}
	price, err := policy.PriceFor(rental.RentedAt, now)
	if err != nil {
		return domain.Rental{}, fmt.Errorf("price rental %d: %w", rental.ID, err)
	}
	updated, err := tx.Rentals().UpdatePrice(ctx, rental.ID, price.InexactFloat64())
	if err != nil {
		return domain.Rental{}, lookupError("update rental price", err)
	}
	return updated, nil
}

func duplicateRental() error {
	return &domain.FieldError{
		Err:     domain.ErrDuplicateRental,
		Field:   "movie",
		Message: domain.ErrDuplicateRental.Error(),
	}
}
