package model

import (
	"database/sql"
	"strings"
	"time"
)

type Role string

const (
	RoleUnset   Role = "unset"
	RoleClient  Role = "client"
	RoleCarrier Role = "carrier"
)

func (r Role) String() string { return string(r) }

// ParseRole normalizes a stored role; unknown values map to RoleUnset.
func ParseRole(s string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleClient:
		return RoleClient
	case RoleCarrier:
		return RoleCarrier
	default:
		return RoleUnset
	}
}

// User is the DB entity persisted in users table. Address is the normalized sender address.
type User struct {
	ID        int64          `db:"id"`
	Address   string         `db:"address"`
	Role      Role           `db:"role"`
	Name      sql.NullString `db:"name"` // set on carrier registration
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}

func (u User) IsCarrier() bool { return u.Role == RoleCarrier }

// DisplayName falls back to the address when no name was registered.
func (u User) DisplayName() string {
	if u.Name.Valid && strings.TrimSpace(u.Name.String) != "" {
		return u.Name.String
	}
	return u.Address
}
