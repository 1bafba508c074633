package repository

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmehdipour/parcel-relay/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// eventPayload matches a JSON encoded event of the given kind.
type eventPayload struct{ kind model.EventKind }

func (m eventPayload) Match(v driver.Value) bool {
	b, ok := v.([]byte)
	if !ok {
		return false
	}
	var ev model.Event
	return json.Unmarshal(b, &ev) == nil && ev.Kind == m.kind
}

func TestOutboxAppend(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewOutboxRepository()

	ev := model.Event{
		ID:         "01J000000000000000000000R1",
		Kind:       model.EventRatingRecorded,
		UserID:     7,
		OccurredAt: time.Date(2025, 5, 20, 10, 0, 0, 0, time.UTC),
		Rating:     &model.Rating{CarrierID: 9, Score: 4},
	}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO outbox \(aggregate, aggregate_id, topic, payload, created_at\)`).
		WithArgs("rating", ev.ID, "relay.ratings", eventPayload{kind: model.EventRatingRecorded}, ev.OccurredAt).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	tx, err := db.Beginx()
	require.NoError(t, err)
	require.NoError(t, repo.Append(context.Background(), tx, "rating", "relay.ratings", ev))
	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOutboxAppend_RequiresTx(t *testing.T) {
	err := NewOutboxRepository().Append(context.Background(), nil, "trip", "relay.trips", model.Event{})
	assert.ErrorIs(t, err, errOutboxNoTx)
}
