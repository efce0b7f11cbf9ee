package domain

import "time"

// Rental is a user's loan of a movie. Price is a derived value refreshed on
// authorized reads; Activated flips to true once a matching payment exists.
type Rental struct {
	ID        int64
	MovieID   int64
	UserID    int64
	RentedAt  time.Time
	UpdatedAt time.Time
	Activated bool
	Price     float64
}

// Settled reports whether a payment has been recorded for the rental.
func (r Rental) Settled() bool {
	return r.Activated
}

// Payment is the immutable record of a rental's settlement.
type Payment struct {
	ID        int64
	Rental    Rental
	Amount    float64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RentalFilter narrows rental listings. Empty fields are ignored; UserID
// scopes the result to one owner when non-zero.
type RentalFilter struct {
	UserID     int64
	MovieID    int64
	UserName   string
	MovieTitle string
}

// PaymentFilter narrows payment listings the same way RentalFilter does.
type PaymentFilter struct {
	UserID     int64
	MovieID    int64
	UserName   string
	MovieTitle string
}
