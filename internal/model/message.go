package model

import "time"

// Message is one conversation turn persisted in messages table.
type Message struct {
	ID          string    `db:"id" json:"id"`
	UserID      int64     `db:"user_id" json:"user_id"`
	Inbound     string    `db:"inbound" json:"inbound"`
	Reply       string    `db:"reply" json:"reply"`
	StateBefore State     `db:"state_before" json:"state_before"`
	StateAfter  State     `db:"state_after" json:"state_after"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
