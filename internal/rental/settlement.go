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

// Settlement turns a claimed amount into a recorded payment.
type Settlement struct {
	store  Store
	policy pricing.Policy
	now    func() time.Time
	logger *log.Logger
}

// NewSettlement wires a settlement service. A nil now defaults to time.Now.
func NewSettlement(store Store, policy pricing.Policy, now func() time.Time, logger *log.Logger) *Settlement {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Settlement{store: store, policy: policy, now: now, logger: logger}
}

// CreatePayment settles the rental when claimed equals the price owed right
// now. The rental row stays locked from the read until commit; on any failure
// nothing is written.
func (s *Settlement) CreatePayment(ctx context.Context, caller domain.Identity, rentalID int64, claimed float64) (domain.Payment, error) {
	if !authz.IsAuthenticated(caller) {
		return domain.Payment{}, domain.ErrUnauthorized
	}
	var out domain.Payment
	err := s.store.WithinTx(ctx, func(tx Store) error {
		rental, err := tx.Rentals().GetForUpdate(ctx, rentalID)
		if err != nil {
			return lookupError("lock rental", err)
		}
		if !authz.CanSettleRental(caller, rental) {
			return domain.ErrUnauthorized
		}
		if rental.Settled() {
			return &domain.FieldError{
				Err:     domain.ErrAlreadySettled,
				Field:   "rental",
				Message: domain.ErrAlreadySettled.Error(),
			}
		}

		expected, err := s.policy.PriceFor(rental.RentedAt, s.now())
		if err != nil {
			return fmt.Errorf("price rental %d: %w", rental.ID, err)
		}
		if !pricing.Matches(claimed, expected) {
			return &domain.AmountMismatchError{Claimed: claimed, Expected: expected.InexactFloat64()}
		}

		amount := expected.InexactFloat64()
		settled, err := tx.Rentals().Settle(ctx, rental.ID, amount)
		if err != nil {
			return lookupError("settle rental", err)
		}
		out, err = tx.Payments().Create(ctx, settled, amount)
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return fmt.Errorf("%w: second payment for rental %d", domain.ErrInvariantViolation, rental.ID)
		case err != nil:
			return fmt.Errorf("record payment: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Payment{}, err
	}
	s.logger.Printf("rental %d settled for %s", out.Rental.ID, domain.FormatAmount(out.Amount))
	return out, nil
}

// ListPayments mirrors Lifecycle.List for payments.
func (s *Settlement) ListPayments(ctx context.Context, caller domain.Identity, filter domain.PaymentFilter) ([]domain.Payment, error) {
	if !authz.IsAuthenticated(caller) {
		return nil, domain.ErrUnauthorized
	}
	if !authz.CanListAll(caller) {
		filter.UserID = caller.UserID
		filter.UserName = ""
	}
	items, err := s.store.Payments().List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return items, nil
}

// ListPaymentsByMovie returns the movie's payments visible to the caller.
func (s *Settlement) ListPaymentsByMovie(ctx context.Context, caller domain.Identity, movieID int64) ([]domain.Payment, error) {
	if !authz.IsAuthenticated(caller) {
		return nil, domain.ErrUnauthorized
	}
	if _, err := s.store.Movies().GetByID(ctx, movieID); err != nil {
		return nil, lookupError("get movie", err)
	}
	filter := domain.PaymentFilter{MovieID: movieID}
	if !authz.CanListAll(caller) {
		filter.UserID = caller.UserID
	}
	items, err := s.store.Payments().List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list movie payments: %w", err)
	}
	return items, nil
}
