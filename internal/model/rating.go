package model

import "time"

const (
	MinScore = 1
	MaxScore = 5
)

// Rating is a score left for a carrier. Never updated.
type Rating struct {
	ID        int64     `db:"id" json:"id"`
	CarrierID int64     `db:"carrier_id" json:"carrier_id"`
	Score     int       `db:"score" json:"score"`
	Comment   string    `db:"comment" json:"comment"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
