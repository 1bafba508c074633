package repository

import (
	"context"

	"github.com/jmehdipour/parcel-relay/internal/model"
	"github.com/jmoiron/sqlx"
)

// MessagesRepository keeps the conversation log (one row per inbound turn).
type MessagesRepository interface {
	InsertTurn(ctx context.Context, tx *sqlx.Tx, m model.Message) error
	ListByUser(ctx context.Context, userID int64, limit int) ([]model.Message, error)
}

type MessagesRepositoryImpl struct {
	db *sqlx.DB
}

func NewMessagesRepository(db *sqlx.DB) *MessagesRepositoryImpl {
	return &MessagesRepositoryImpl{db: db}
}

func (r *MessagesRepositoryImpl) withTx(ctx context.Context, tx *sqlx.Tx, fn func(*sqlx.Tx) error) error {
	if tx != nil {
		return fn(tx)
	}
	t, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = t.Rollback() }()
	if err := fn(t); err != nil {
		return err
	}
	return t.Commit()
}

// InsertTurn logs one turn. If tx is nil, it will open/commit its own transaction.
func (r *MessagesRepositoryImpl) InsertTurn(ctx context.Context, tx *sqlx.Tx, m model.Message) error {
	const q = `
		INSERT INTO messages
		    (id, user_id, inbound, reply, state_before, state_after, created_at)
		VALUES
		    (?,  ?,       ?,       ?,     ?,            ?,           ?)
	`
	return r.withTx(ctx, tx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, q,
			m.ID, m.UserID, m.Inbound, m.Reply, m.StateBefore.String(), m.StateAfter.String(), m.CreatedAt,
		)
		return err
	})
}

// ListByUser returns the latest turns of a user, newest first.
func (r *MessagesRepositoryImpl) ListByUser(ctx context.Context, userID int64, limit int) ([]model.Message, error) {
	if limit <= 0 || limit > 200 {
		limit = 20
	}
	msgs := []model.Message{}
	err := r.db.SelectContext(ctx, &msgs, `
		SELECT id, user_id, inbound, reply, state_before, state_after, created_at
		  FROM messages
		 WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	return msgs, nil
}
