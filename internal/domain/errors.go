package domain

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	// ErrUnauthorized means the caller has no identity or may not touch the resource.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound means a referenced id does not resolve.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateRental means the caller already holds an unsettled rental for the movie.
	ErrDuplicateRental = errors.New("an unpaid rental for this movie already exists")
	// ErrAlreadySettled means a payment has already been recorded for the rental.
	ErrAlreadySettled = errors.New("rental has already been paid")
	// ErrValidation means the request payload was rejected.
	ErrValidation = errors.New("validation failed")
	// ErrInvariantViolation aborts the request; nothing is applied.
	ErrInvariantViolation = errors.New("invariant violation")
)

// FieldError attaches a field-level message to one of the sentinel errors above.
type FieldError struct {
	Err     error
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// Fields renders the error as a field -> messages map.
func (e *FieldError) Fields() map[string][]string {
	return map[string][]string{e.Field: {e.Message}}
}

// AmountMismatchError is returned when a claimed payment amount differs from the
// amount the pricing policy computes for the rental at settlement time.
type AmountMismatchError struct {
	Claimed  float64
	Expected float64
}

func (e *AmountMismatchError) Error() string {
	return "amount should be equal to " + FormatAmount(e.Expected)
}

func (e *AmountMismatchError) Unwrap() error {
	return ErrValidation
}

// Fields renders the mismatch under the "amount" key.
func (e *AmountMismatchError) Fields() map[string][]string {
	return map[string][]string{"amount": {e.Error()}}
}

// FormatAmount prints an amount without trailing zeros (4, 6.5).
func FormatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
