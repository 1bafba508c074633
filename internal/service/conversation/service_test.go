package conversation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmehdipour/parcel-relay/internal/engine"
	"github.com/jmehdipour/parcel-relay/internal/model"
	"github.com/jmehdipour/parcel-relay/internal/repository"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	userCols    = []string{"id", "address", "role", "name", "created_at", "updated_at"}
	sessionCols = []string{"user_id", "state", "scratch", "updated_at"}
	fixedNow    = time.Date(2025, 5, 20, 10, 0, 0, 0, time.UTC)
)

func newTestService(t *testing.T, idleTTL time.Duration) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	db := sqlx.NewDb(mockDB, "mysql")
	svc := New(db, Repos{
		Users:    repository.NewUsersRepository(db),
		Sessions: repository.NewSessionsRepository(),
		Trips:    repository.NewTripsRepository(db),
		Parcels:  repository.NewParcelsRepository(),
		Ratings:  repository.NewRatingsRepository(),
		Messages: repository.NewMessagesRepository(db),
		Outbox:   repository.NewOutboxRepository(),
	}, engine.New().WithReferenceFunc(func() string { return "AXTEST0001" }), idleTTL)
	svc.now = func() time.Time { return fixedNow }
	return svc, mock
}

func expectUser(mock sqlmock.Sqlmock, id int64, address string, role model.Role, name any) {
	mock.ExpectExec(`INSERT INTO users .+ ON DUPLICATE KEY UPDATE`).
		WithArgs(address, "client", fixedNow, fixedNow).
		WillReturnResult(sqlmock.NewResult(id, 1))
	mock.ExpectQuery(`FROM users\s+WHERE address = \?\s+FOR UPDATE`).
		WithArgs(address).
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(id, address, role.String(), name, fixedNow, fixedNow))
}

func expectSession(mock sqlmock.Sqlmock, userID int64, state model.State, scratch string, updated time.Time) {
	rows := sqlmock.NewRows(sessionCols)
	if state != "" {
		rows.AddRow(userID, state.String(), []byte(scratch), updated)
	}
	mock.ExpectQuery(`FROM sessions\s+WHERE user_id = \?\s+FOR UPDATE`).
		WithArgs(userID).
		WillReturnRows(rows)
}

func expectSave(mock sqlmock.Sqlmock, userID int64, state model.State, scratch string) {
	mock.ExpectExec(`INSERT INTO sessions`).
		WithArgs(userID, state.String(), scratch, fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO messages`).
		WithArgs(sqlmock.AnyArg(), userID, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
}

func TestHandle_FirstContactCreatesSessionAtMenu(t *testing.T) {
	svc, mock := newTestService(t, 0)

	mock.ExpectBegin()
	expectUser(mock, 7, "+33611111111", model.RoleClient, nil)
	expectSession(mock, 7, "", "", time.Time{})
	expectSave(mock, 7, model.StateMenu, `{}`)
	mock.ExpectCommit()

	reply, err := svc.Handle(context.Background(), "whatsapp:+33 6 11 11 11 11", "hello there")
	require.NoError(t, err)
	assert.Equal(t, engine.KindWelcome, reply.Kind)
	assert.Equal(t, model.StateMenu, reply.State)
	assert.Contains(t, reply.Text, "1. Find a carrier")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHandle_PublishCreatesTripAndOutboxAtomically(t *testing.T) {
	svc, mock := newTestService(t, 0)

	mock.ExpectBegin()
	expectUser(mock, 9, "+33600000001", model.RoleCarrier, "Ali")
	expectSession(mock, 9, model.StatePublishDescription,
		`{"date":"2025-06-01","origin":"Paris","destination":"Lyon"}`, fixedNow.Add(-time.Minute))
	mock.ExpectExec(`INSERT INTO trips`).
		WithArgs(int64(9), "2025-06-01", "Paris", "Lyon", "Fragile box", fixedNow).
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectExec(`INSERT INTO outbox`).
		WithArgs("trip", sqlmock.AnyArg(), TripsTopic, sqlmock.AnyArg(), fixedNow).
		WillReturnResult(sqlmock.NewResult(1, 1))
	expectSave(mock, 9, model.StateMenu, `{}`)
	mock.ExpectCommit()

	reply, err := svc.Handle(context.Background(), "+33600000001", "Fragile box")
	require.NoError(t, err)
	assert.Equal(t, engine.KindOK, reply.Kind)
	assert.Equal(t, model.StateMenu, reply.State)
	assert.Contains(t, reply.Text, "Paris → Lyon on 2025-06-01")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHandle_RegisterPromotesToCarrier(t *testing.T) {
	svc, mock := newTestService(t, 0)

	mock.ExpectBegin()
	expectUser(mock, 7, "+33611111111", model.RoleClient, nil)
	expectSession(mock, 7, model.StateRegisterName, `{}`, fixedNow)
	mock.ExpectExec(`UPDATE users\s+SET name = \?, role = \?`).
		WithArgs("Moussa Diop", "carrier", fixedNow, int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	expectSave(mock, 7, model.StatePublishDate, `{}`)
	mock.ExpectCommit()

	reply, err := svc.Handle(context.Background(), "+33611111111", "moussa diop")
	require.NoError(t, err)
	assert.Equal(t, model.StatePublishDate, reply.State)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHandle_ValidationErrorKeepsState(t *testing.T) {
	svc, mock := newTestService(t, 0)

	mock.ExpectBegin()
	expectUser(mock, 9, "+33600000001", model.RoleCarrier, "Ali")
	expectSession(mock, 9, model.StatePublishDate, `{}`, fixedNow)
	expectSave(mock, 9, model.StatePublishDate, `{}`)
	mock.ExpectCommit()

	reply, err := svc.Handle(context.Background(), "+33600000001", "01-06-2025")
	require.NoError(t, err)
	assert.Equal(t, engine.KindValidation, reply.Kind)
	assert.Equal(t, model.StatePublishDate, reply.State)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHandle_RatingRecordsWithoutChangingState(t *testing.T) {
	svc, mock := newTestService(t, 0)
	scratch := `{"date":"2025-06-01"}`

	mock.ExpectBegin()
	expectUser(mock, 7, "+33611111111", model.RoleClient, nil)
	expectSession(mock, 7, model.StateSearchOrigin, scratch, fixedNow)
	mock.ExpectQuery(`FROM users\s+WHERE role = \?`).
		WithArgs("carrier", "ali", "ali").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(int64(9), "+33600000001", "carrier", "Ali", fixedNow, fixedNow))
	mock.ExpectExec(`INSERT INTO ratings`).
		WithArgs(int64(9), 4, "rapide", fixedNow).
		WillReturnResult(sqlmock.NewResult(3, 1))
	mock.ExpectExec(`INSERT INTO outbox`).
		WithArgs("rating", sqlmock.AnyArg(), RatingsTopic, sqlmock.AnyArg(), fixedNow).
		WillReturnResult(sqlmock.NewResult(1, 1))
	expectSave(mock, 7, model.StateSearchOrigin, scratch)
	mock.ExpectCommit()

	reply, err := svc.Handle(context.Background(), "+33611111111", "note Ali rapide 4")
	require.NoError(t, err)
	assert.Equal(t, model.StateSearchOrigin, reply.State)
	assert.Contains(t, reply.Text, "4/5 for Ali")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHandle_IdleSessionExpires(t *testing.T) {
	svc, mock := newTestService(t, time.Hour)

	mock.ExpectBegin()
	expectUser(mock, 7, "+33611111111", model.RoleClient, nil)
	expectSession(mock, 7, model.StateSearchOrigin, `{"date":"2025-06-01"}`, fixedNow.Add(-2*time.Hour))
	expectSave(mock, 7, model.StateMenu, `{}`)
	mock.ExpectCommit()

	reply, err := svc.Handle(context.Background(), "+33611111111", "Paris")
	require.NoError(t, err)
	assert.Equal(t, engine.KindWelcome, reply.Kind)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHandle_SessionWithinTTLIsKept(t *testing.T) {
	svc, mock := newTestService(t, time.Hour)
	scratch := `{"date":"2025-06-01"}`

	// stored by a previous turn 59 minutes earlier on the service clock
	mock.ExpectBegin()
	expectUser(mock, 7, "+33611111111", model.RoleClient, nil)
	expectSession(mock, 7, model.StateSearchOrigin, scratch, fixedNow.Add(-59*time.Minute))
	expectSave(mock, 7, model.StateSearchDestination, `{"date":"2025-06-01","origin":"Paris"}`)
	mock.ExpectCommit()

	reply, err := svc.Handle(context.Background(), "+33611111111", "Paris")
	require.NoError(t, err)
	assert.Equal(t, model.StateSearchDestination, reply.State)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHandle_StoreFailureRollsBack(t *testing.T) {
	svc, mock := newTestService(t, 0)

	mock.ExpectBegin()
	expectUser(mock, 9, "+33600000001", model.RoleCarrier, "Ali")
	expectSession(mock, 9, model.StatePublishDescription,
		`{"date":"2025-06-01","origin":"Paris","destination":"Lyon"}`, fixedNow)
	mock.ExpectExec(`INSERT INTO trips`).WillReturnError(errors.New("connection refused"))
	mock.ExpectRollback()

	_, err := svc.Handle(context.Background(), "+33600000001", "Fragile box")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert trip")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHandle_EmptyAddress(t *testing.T) {
	svc, _ := newTestService(t, 0)
	_, err := svc.Handle(context.Background(), "  ", "menu")
	require.ErrorIs(t, err, ErrEmptyAddress)
}
