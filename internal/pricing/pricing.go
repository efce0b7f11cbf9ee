// Package pricing computes what a rental costs from how long it has been out.
package pricing

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Clark-Hu/moviestore/internal/domain"
)

var (
	flatDays     = decimal.NewFromInt(3)
	minimumPrice = decimal.NewFromInt(1)
	lateDayRate  = decimal.New(5, -1)
)

// Policy prices rentals by whole calendar days elapsed in Location.
type Policy struct {
	Location *time.Location
}

// NewPolicy returns a policy evaluating calendar dates in loc (UTC when nil).
func NewPolicy(loc *time.Location) Policy {
	if loc == nil {
		loc = time.UTC
	}
	return Policy{Location: loc}
}

// ElapsedDays is the number of calendar-day boundaries between rentedAt and now.
// Times within the same calendar day yield zero.
func (p Policy) ElapsedDays(rentedAt, now time.Time) int {
	loc := p.Location
	if loc == nil {
		loc = time.UTC
	}
	return int(calendarDate(now, loc).Sub(calendarDate(rentedAt, loc)).Hours() / 24)
}

// PriceFor returns the amount owed for a rental started at rentedAt, evaluated at now.
//
//	0 days      -> 1
//	1..3 days   -> days
//	> 3 days    -> 3 + (days-3) * 0.5
func (p Policy) PriceFor(rentedAt, now time.Time) (decimal.Decimal, error) {
	days := p.ElapsedDays(rentedAt, now)
	switch {
	case days < 0:
		return decimal.Zero, fmt.Errorf("%w: rental starts %d days after pricing time", domain.ErrInvariantViolation, -days)
	case days == 0:
		return minimumPrice, nil
	case days <= 3:
		return decimal.NewFromInt(int64(days)), nil
	default:
		late := decimal.NewFromInt(int64(days)).Sub(flatDays)
		return flatDays.Add(late.Mul(lateDayRate)), nil
	}
}

// Matches reports whether a claimed float amount equals the computed price exactly.
func Matches(claimed float64, expected decimal.Decimal) bool {
	return decimal.NewFromFloat(claimed).Equal(expected)
}

// calendarDate truncates t to midnight of its date in loc, re-anchored in UTC so
// day arithmetic is immune to DST shifts.
func calendarDate(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
