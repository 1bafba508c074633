package model

import "time"

type EventKind string

const (
	EventTripPublished   EventKind = "trip.published"
	EventParcelRequested EventKind = "parcel.requested"
	EventRatingRecorded  EventKind = "rating.recorded"
)

func (k EventKind) String() string { return string(k) }

func (k EventKind) Valid() bool {
	return k == EventTripPublished || k == EventParcelRequested || k == EventRatingRecorded
}

// Event is the payload written to outbox and published to Kafka (via Debezium outbox SMT).
// Exactly one of Trip, Parcel, Rating is set, matching Kind.
type Event struct {
	ID         string         `json:"id"` // ULID
	Kind       EventKind      `json:"kind"`
	UserID     int64          `json:"user_id"`
	OccurredAt time.Time      `json:"occurred_at"`
	Trip       *Trip          `json:"trip,omitempty"`
	Parcel     *ParcelRequest `json:"parcel,omitempty"`
	Rating     *Rating        `json:"rating,omitempty"`
}

// Notification is an outbound SMS to a carrier.
type Notification struct {
	To   string `json:"to"`
	Text string `json:"text"`
}
