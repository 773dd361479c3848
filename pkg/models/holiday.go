package models

import "time"

// Holiday is a non-working calendar date. Fixed holidays recur on the same
// date every year (religious holidays move and are seeded per year).
type Holiday struct {
	ID    int64     `json:"id" db:"id"`
	Date  time.Time `json:"date" db:"date"`
	Label string    `json:"label" db:"label"`
	Fixed bool      `json:"fixed" db:"fixed"`
}
