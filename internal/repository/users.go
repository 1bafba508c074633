package repository

import (
	"context"
	"time"

	"github.com/jmehdipour/parcel-relay/internal/model"
	"github.com/jmoiron/sqlx"
)

type UsersRepository interface {
	// Ensure creates the user on first contact and locks its row for the rest of tx.
	// The lock serializes concurrent turns of the same sender.
	Ensure(ctx context.Context, tx *sqlx.Tx, address string, now time.Time) (*model.User, error)
	Register(ctx context.Context, tx *sqlx.Tx, userID int64, name string, now time.Time) error
	CarriersByNamePrefix(ctx context.Context, q sqlx.QueryerContext, prefix string) ([]model.User, error)
}

type UsersRepositoryImpl struct {
	db *sqlx.DB
}

func NewUsersRepository(db *sqlx.DB) *UsersRepositoryImpl {
	return &UsersRepositoryImpl{db: db}
}

var _ UsersRepository = (*UsersRepositoryImpl)(nil)

const userColumns = `id, address, role, name, created_at, updated_at`

func (r *UsersRepositoryImpl) Ensure(ctx context.Context, tx *sqlx.Tx, address string, now time.Time) (*model.User, error) {
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO users (address, role, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE updated_at = VALUES(updated_at)
	`, address, model.RoleClient.String(), now, now); err != nil {
		return nil, err
	}

	var u model.User
	if err := tx.GetContext(ctx, &u, `
		SELECT `+userColumns+`
		  FROM users
		 WHERE address = ?
		   FOR UPDATE
	`, address); err != nil {
		return nil, err
	}
	u.Role = model.ParseRole(u.Role.String())
	return &u, nil
}

// Register stores the carrier name and promotes the user to carrier.
func (r *UsersRepositoryImpl) Register(ctx context.Context, tx *sqlx.Tx, userID int64, name string, now time.Time) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE users
		   SET name = ?, role = ?, updated_at = ?
		 WHERE id = ?
	`, name, model.RoleCarrier.String(), now, userID)
	return err
}

// CarriersByNamePrefix returns carriers whose name starts with prefix (case-insensitive).
// An exact name match sorts first so the result cap never hides it.
func (r *UsersRepositoryImpl) CarriersByNamePrefix(ctx context.Context, q sqlx.QueryerContext, prefix string) ([]model.User, error) {
	if q == nil {
		q = r.db
	}
	var users []model.User
	if err := sqlx.SelectContext(ctx, q, &users, `
		SELECT `+userColumns+`
		  FROM users
		 WHERE role = ?
		   AND LOWER(name) LIKE CONCAT(?, '%')
		 ORDER BY LOWER(name) = ? DESC, id
		 LIMIT 20
	`, model.RoleCarrier.String(), escapeLike(prefix), prefix); err != nil {
		return nil, err
	}
	return users, nil
}
