package domain

import "time"

// Category groups movies in the catalog.
type Category struct {
	ID   int64
	Name string
}

// Movie represents the canonical catalog entity in the database/service.
type Movie struct {
	ID          int64
	Title       string
	Description string
	Year        int
	IMDBRating  float64
	CategoryIDs []int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// User is the minimal account record rentals and payments are attributed to.
type User struct {
	ID          int64
	Username    string
	IsSuperuser bool
	CreatedAt   time.Time
}
