package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type State string

const (
	StateMenu State = "menu"

	// carrier flow
	StateRegisterName       State = "register_name"
	StatePublishDate        State = "publish_date"
	StatePublishOrigin      State = "publish_origin"
	StatePublishDestination State = "publish_destination"
	StatePublishDescription State = "publish_description"

	// client flow
	StateSearchDate        State = "search_date"
	StateSearchOrigin      State = "search_origin"
	StateSearchDestination State = "search_destination"

	StateParcelDescription State = "parcel_description"
	StateParcelDate        State = "parcel_date"
	StateParcelDestination State = "parcel_destination"

	StateTrackReference State = "track_reference"
)

var states = map[State]struct{}{
	StateMenu:               {},
	StateRegisterName:       {},
	StatePublishDate:        {},
	StatePublishOrigin:      {},
	StatePublishDestination: {},
	StatePublishDescription: {},
	StateSearchDate:         {},
	StateSearchOrigin:       {},
	StateSearchDestination:  {},
	StateParcelDescription:  {},
	StateParcelDate:         {},
	StateParcelDestination:  {},
	StateTrackReference:     {},
}

func (s State) String() string { return string(s) }

func (s State) Valid() bool {
	_, ok := states[s]
	return ok
}

// Draft carries the fields collected so far by a multi-step flow.
// Every state fills exactly one slot; the last state of a flow reads them back.
type Draft struct {
	Date        string `json:"date,omitempty"`
	Origin      string `json:"origin,omitempty"`
	Destination string `json:"destination,omitempty"`
	Description string `json:"description,omitempty"`
}

func (d Draft) Empty() bool { return d == Draft{} }

// Value implements driver.Valuer; drafts are stored as a JSON column.
func (d Draft) Value() (driver.Value, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (d *Draft) Scan(src any) error {
	*d = Draft{}
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, d)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), d)
	default:
		return fmt.Errorf("draft: unsupported scan type %T", src)
	}
}

// Session is the DB entity persisted in sessions table (one row per user).
type Session struct {
	UserID    int64     `db:"user_id"`
	State     State     `db:"state"`
	Scratch   Draft     `db:"scratch"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Reset moves the session back to the menu and clears the draft.
func (s *Session) Reset() {
	s.State = StateMenu
	s.Scratch = Draft{}
}
