package repository

import (
	"context"

	"github.com/jmehdipour/parcel-relay/internal/model"
	"github.com/jmoiron/sqlx"
)

type RatingsRepository interface {
	Insert(ctx context.Context, tx *sqlx.Tx, rt model.Rating) (int64, error)
}

type ratingsRepo struct{}

func NewRatingsRepository() RatingsRepository { return &ratingsRepo{} }

func (r *ratingsRepo) Insert(ctx context.Context, tx *sqlx.Tx, rt model.Rating) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO ratings (carrier_id, score, comment, created_at)
		VALUES (?, ?, ?, ?)
	`, rt.CarrierID, rt.Score, rt.Comment, rt.CreatedAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
