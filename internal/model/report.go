package model

import "time"

// EventRow is the flattened analytics row stored in ClickHouse relay.events.
type EventRow struct {
	ID          string    `db:"id" json:"id"`
	Kind        string    `db:"kind" json:"kind"`
	UserID      int64     `db:"user_id" json:"user_id"`
	CarrierID   int64     `db:"carrier_id" json:"carrier_id"`
	Date        string    `db:"date" json:"date,omitempty"`
	Origin      string    `db:"origin" json:"origin,omitempty"`
	Destination string    `db:"destination" json:"destination,omitempty"`
	Score       uint8     `db:"score" json:"score,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// FlattenEvent projects a domain event into an analytics row.
func FlattenEvent(e Event) EventRow {
	row := EventRow{
		ID:        e.ID,
		Kind:      e.Kind.String(),
		UserID:    e.UserID,
		CreatedAt: e.OccurredAt,
	}
	switch {
	case e.Trip != nil:
		row.CarrierID = e.Trip.CarrierID
		row.Date = e.Trip.Date.Format(DateLayout)
		row.Origin = e.Trip.Origin
		row.Destination = e.Trip.Destination
	case e.Parcel != nil:
		row.Date = e.Parcel.Date.Format(DateLayout)
		row.Destination = e.Parcel.Destination
	case e.Rating != nil:
		row.CarrierID = e.Rating.CarrierID
		row.Score = uint8(e.Rating.Score)
	}
	return row
}
