package model

import "time"

// OutboxEvent is a row of the outbox table; Payload is a JSON encoded Event.
type OutboxEvent struct {
	ID          int64     `db:"id"`
	Aggregate   string    `db:"aggregate"`    // trip | parcel | rating
	AggregateID string    `db:"aggregate_id"` // Event.ID
	Topic       string    `db:"topic"`
	Payload     []byte    `db:"payload"`
	CreatedAt   time.Time `db:"created_at"`
}
