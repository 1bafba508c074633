package repository

import (
	"context"
	"strings"
	"time"

	"github.com/jmehdipour/parcel-relay/internal/model"
	"github.com/jmoiron/sqlx"
)

type TripsRepository interface {
	Insert(ctx context.Context, tx *sqlx.Tx, t model.Trip) (int64, error)
	// Search is the matching query: exact date, case-insensitive cities, insertion order.
	Search(ctx context.Context, q sqlx.QueryerContext, query model.TripQuery) ([]model.TripMatch, error)
	// CarriersGoingTo lists distinct carriers with a trip on date to destination.
	CarriersGoingTo(ctx context.Context, date time.Time, destination string) ([]model.User, error)
}

type TripsRepositoryImpl struct {
	db *sqlx.DB
}

func NewTripsRepository(db *sqlx.DB) *TripsRepositoryImpl {
	return &TripsRepositoryImpl{db: db}
}

var _ TripsRepository = (*TripsRepositoryImpl)(nil)

func (r *TripsRepositoryImpl) Insert(ctx context.Context, tx *sqlx.Tx, t model.Trip) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO trips
		    (carrier_id, date, origin, destination, description, created_at)
		VALUES
		    (?,          ?,    ?,      ?,           ?,           ?)
	`, t.CarrierID, t.Date.Format(model.DateLayout), t.Origin, t.Destination, t.Description, t.CreatedAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const searchTrips = `
	SELECT t.id          AS trip_id,
	       t.date        AS date,
	       t.origin      AS origin,
	       t.destination AS destination,
	       t.description AS description,
	       u.id          AS carrier_id,
	       u.name        AS carrier_name,
	       u.address     AS carrier_address,
	       r.avg_score   AS avg_score,
	       COALESCE(r.rating_count, 0) AS rating_count,
	       (SELECT lr.comment
	          FROM ratings lr
	         WHERE lr.carrier_id = u.id
	         ORDER BY lr.created_at DESC, lr.id DESC
	         LIMIT 1) AS last_comment
	  FROM trips t
	  JOIN users u ON u.id = t.carrier_id
	  LEFT JOIN (
	        SELECT carrier_id, AVG(score) AS avg_score, COUNT(*) AS rating_count
	          FROM ratings
	         GROUP BY carrier_id
	  ) r ON r.carrier_id = u.id
	 WHERE t.date = ?
	   AND LOWER(t.destination) = ?
`

func (r *TripsRepositoryImpl) Search(ctx context.Context, q sqlx.QueryerContext, query model.TripQuery) ([]model.TripMatch, error) {
	if q == nil {
		q = r.db
	}

	sqlText := searchTrips
	args := []any{query.Date.Format(model.DateLayout), strings.ToLower(strings.TrimSpace(query.Destination))}

	if origin := strings.TrimSpace(query.Origin); origin != "" {
		sqlText += " AND LOWER(t.origin) = ?"
		args = append(args, strings.ToLower(origin))
	}
	sqlText += " ORDER BY t.id ASC LIMIT 50"

	matches := []model.TripMatch{}
	if err := sqlx.SelectContext(ctx, q, &matches, sqlText, args...); err != nil {
		return nil, err
	}
	return matches, nil
}

func (r *TripsRepositoryImpl) CarriersGoingTo(ctx context.Context, date time.Time, destination string) ([]model.User, error) {
	var users []model.User
	err := r.db.SelectContext(ctx, &users, `
		SELECT DISTINCT u.id, u.address, u.role, u.name, u.created_at, u.updated_at
		  FROM trips t
		  JOIN users u ON u.id = t.carrier_id
		 WHERE t.date = ?
		   AND LOWER(t.destination) = ?
		 ORDER BY u.id
	`, date.Format(model.DateLayout), strings.ToLower(strings.TrimSpace(destination)))
	if err != nil {
		return nil, err
	}
	return users, nil
}

// escapeLike makes user input safe inside a LIKE pattern.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
