package model

import (
	"database/sql"
	"math"
	"strconv"
	"time"
)

const DateLayout = "2006-01-02"

// Trip is a departure published by a carrier. Immutable once created.
type Trip struct {
	ID          int64     `db:"id" json:"id"`
	CarrierID   int64     `db:"carrier_id" json:"carrier_id"`
	Date        time.Time `db:"date" json:"date"`
	Origin      string    `db:"origin" json:"origin"`
	Destination string    `db:"destination" json:"destination"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// TripQuery holds the search criteria of the matching query. Origin may be empty.
type TripQuery struct {
	Date        time.Time
	Origin      string
	Destination string
}

// TripMatch is a trip joined with its carrier and the carrier's rating aggregate.
type TripMatch struct {
	TripID         int64           `db:"trip_id" json:"trip_id"`
	Date           time.Time       `db:"date" json:"date"`
	Origin         string          `db:"origin" json:"origin"`
	Destination    string          `db:"destination" json:"destination"`
	Description    string          `db:"description" json:"description"`
	CarrierID      int64           `db:"carrier_id" json:"carrier_id"`
	CarrierName    sql.NullString  `db:"carrier_name" json:"-"`
	CarrierAddress string          `db:"carrier_address" json:"carrier_address"`
	AvgScore       sql.NullFloat64 `db:"avg_score" json:"-"`
	RatingCount    int             `db:"rating_count" json:"rating_count"`
	LastComment    sql.NullString  `db:"last_comment" json:"-"`
}

// Carrier returns the carrier display name.
func (m TripMatch) Carrier() string {
	if m.CarrierName.Valid && m.CarrierName.String != "" {
		return m.CarrierName.String
	}
	return m.CarrierAddress
}

// Summary returns the rating aggregate of the carrier.
func (m TripMatch) Summary() RatingSummary {
	s := RatingSummary{Count: m.RatingCount}
	if m.AvgScore.Valid && m.RatingCount > 0 {
		mean := math.Round(m.AvgScore.Float64*10) / 10
		s.Mean = &mean
	}
	if m.LastComment.Valid {
		s.LastComment = m.LastComment.String
	}
	return s
}

// RatingSummary is the aggregate of all ratings of one carrier.
// Mean is nil when the carrier has never been rated.
type RatingSummary struct {
	Mean        *float64 `json:"mean"`
	Count       int      `json:"count"`
	LastComment string   `json:"last_comment,omitempty"`
}

const Unrated = "unrated"

func (s RatingSummary) Rated() bool { return s.Mean != nil }

// Display formats the mean with one decimal, or the unrated marker.
func (s RatingSummary) Display() string {
	if s.Mean == nil {
		return Unrated
	}
	return strconv.FormatFloat(*s.Mean, 'f', 1, 64) + "/5"
}
