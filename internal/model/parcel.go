package model

import "time"

type ParcelStatus string

const (
	ParcelPending   ParcelStatus = "pending"
	ParcelAssigned  ParcelStatus = "assigned"
	ParcelDelivered ParcelStatus = "delivered"
)

func (s ParcelStatus) String() string { return string(s) }

// ParcelRequest is a client's request to ship a parcel.
type ParcelRequest struct {
	ID          int64        `db:"id" json:"id"`
	Reference   string       `db:"reference" json:"reference"`
	UserID      int64        `db:"user_id" json:"user_id"`
	Description string       `db:"description" json:"description"`
	Date        time.Time    `db:"date" json:"date"`
	Destination string       `db:"destination" json:"destination"`
	Status      ParcelStatus `db:"status" json:"status"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
}
