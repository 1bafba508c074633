package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmehdipour/parcel-relay/internal/model"
	"github.com/jmoiron/sqlx"
)

type ParcelsRepository interface {
	Insert(ctx context.Context, tx *sqlx.Tx, p model.ParcelRequest) (int64, error)
	// GetByReference returns nil when no parcel carries ref.
	GetByReference(ctx context.Context, q sqlx.QueryerContext, ref string) (*model.ParcelRequest, error)
}

type parcelsRepo struct{}

func NewParcelsRepository() ParcelsRepository { return &parcelsRepo{} }

func (r *parcelsRepo) Insert(ctx context.Context, tx *sqlx.Tx, p model.ParcelRequest) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO parcel_requests
		    (reference, user_id, description, date, destination, status, created_at)
		VALUES
		    (?,         ?,       ?,           ?,    ?,           ?,      ?)
	`, p.Reference, p.UserID, p.Description, p.Date.Format(model.DateLayout), p.Destination, p.Status.String(), p.CreatedAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *parcelsRepo) GetByReference(ctx context.Context, q sqlx.QueryerContext, ref string) (*model.ParcelRequest, error) {
	var p model.ParcelRequest
	err := sqlx.GetContext(ctx, q, &p, `
		SELECT id, reference, user_id, description, date, destination, status, created_at
		  FROM parcel_requests
		 WHERE reference = ?
		 LIMIT 1
	`, ref)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
