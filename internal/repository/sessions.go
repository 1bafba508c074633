package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmehdipour/parcel-relay/internal/model"
	"github.com/jmoiron/sqlx"
)

// SessionsRepository persists one conversation session per user.
type SessionsRepository interface {
	// GetForUpdate returns nil when the user has no session yet.
	GetForUpdate(ctx context.Context, tx *sqlx.Tx, userID int64) (*model.Session, error)
	// Upsert writes s with s.UpdatedAt; idle expiry compares it with the service clock.
	Upsert(ctx context.Context, tx *sqlx.Tx, s model.Session) error
}

type sessionsRepo struct{}

func NewSessionsRepository() SessionsRepository { return &sessionsRepo{} }

func (r *sessionsRepo) GetForUpdate(ctx context.Context, tx *sqlx.Tx, userID int64) (*model.Session, error) {
	var s model.Session
	err := tx.GetContext(ctx, &s, `
		SELECT user_id, state, scratch, updated_at
		  FROM sessions
		 WHERE user_id = ?
		   FOR UPDATE
	`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sessionsRepo) Upsert(ctx context.Context, tx *sqlx.Tx, s model.Session) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO sessions (user_id, state, scratch, updated_at)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
		    state      = VALUES(state),
		    scratch    = VALUES(scratch),
		    updated_at = VALUES(updated_at)
	`, s.UserID, s.State.String(), s.Scratch, s.UpdatedAt)
	return err
}
