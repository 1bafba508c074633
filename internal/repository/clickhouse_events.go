package repository

import (
	"context"
	"fmt"

	"github.com/jmehdipour/parcel-relay/internal/model"
	"github.com/jmoiron/sqlx"
)

// CHEventsRepository reads and writes the analytics projection in ClickHouse.
type CHEventsRepository interface {
	InsertBatch(ctx context.Context, rows []model.EventRow) error
	List(ctx context.Context, kind string, userID int64, limit, offset int) ([]model.EventRow, error)
}

type chEventsRepository struct {
	ch *sqlx.DB // ClickHouse connection
}

func NewCHEventsRepository(ch *sqlx.DB) CHEventsRepository {
	return &chEventsRepository{ch: ch}
}

// InsertBatch writes rows as one ClickHouse block (prepare + exec per row + commit).
func (r *chEventsRepository) InsertBatch(ctx context.Context, rows []model.EventRow) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := r.ch.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO relay.events
		    (id, kind, user_id, carrier_id, date, origin, destination, score, created_at)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}
	defer stmt.Close()

	for _, rw := range rows {
		if _, err := stmt.ExecContext(ctx,
			rw.ID, rw.Kind, rw.UserID, rw.CarrierID, rw.Date, rw.Origin, rw.Destination, rw.Score, rw.CreatedAt,
		); err != nil {
			return fmt.Errorf("append %s: %w", rw.ID, err)
		}
	}

	return tx.Commit()
}

func (r *chEventsRepository) List(ctx context.Context, kind string, userID int64, limit, offset int) ([]model.EventRow, error) {
	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	q := `
		SELECT id, kind, user_id, carrier_id, date, origin, destination, score, created_at
		FROM relay.events FINAL
		WHERE 1 = 1
	`
	args := []any{}

	if kind != "" {
		q += " AND kind = ?"
		args = append(args, kind)
	}
	if userID > 0 {
		q += " AND (user_id = ? OR carrier_id = ?)"
		args = append(args, userID, userID)
	}

	q += " ORDER BY created_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows := []model.EventRow{}
	if err := r.ch.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, err
	}
	return rows, nil
}
