package worker

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jmehdipour/parcel-relay/internal/kafka"
	"github.com/jmehdipour/parcel-relay/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCarriers struct {
	users   []model.User
	err     error
	gotDate time.Time
	gotDest string
}

func (f *fakeCarriers) CarriersGoingTo(_ context.Context, date time.Time, dest string) ([]model.User, error) {
	f.gotDate, f.gotDest = date, dest
	return f.users, f.err
}

type fakeSender struct {
	mu   sync.Mutex
	sent []model.Notification
	fail map[string]bool
}

func (f *fakeSender) Send(_ context.Context, n model.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail[n.To] {
		return errors.New("provider down")
	}
	f.sent = append(f.sent, n)
	return nil
}

func runNotifier(t *testing.T, n *Notifier, c *fakeConsumer, want int) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = n.Run(ctx)
		close(done)
	}()
	require.Eventually(t, func() bool { return c.committedCount() == want }, 2*time.Second, 5*time.Millisecond)
	cancel()
	<-done
}

func parcelEvent(userID int64) model.Event {
	return model.Event{
		ID:     "01J0000000000000000000000A",
		Kind:   model.EventParcelRequested,
		UserID: userID,
		Parcel: &model.ParcelRequest{
			Reference:   "AX1234ABCD",
			UserID:      userID,
			Description: "Books",
			Date:        time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
			Destination: "Lyon",
			Status:      model.ParcelPending,
		},
	}
}

func TestNotifier_SendsToMatchingCarriers(t *testing.T) {
	c := newFakeConsumer(eventMessage(t, "relay.parcels", 1, parcelEvent(7)))
	carriers := &fakeCarriers{users: []model.User{
		{ID: 9, Address: "+33600000001", Role: model.RoleCarrier, Name: sql.NullString{String: "Ali", Valid: true}},
		{ID: 7, Address: "+33611111111", Role: model.RoleCarrier}, // the requester
		{ID: 11, Address: "+33600000002", Role: model.RoleCarrier},
	}}
	sender := &fakeSender{fail: map[string]bool{"+33600000002": true}}

	runNotifier(t, NewNotifier(c, carriers, sender), c, 1)

	assert.Equal(t, "Lyon", carriers.gotDest)
	assert.Equal(t, "2025-06-01", carriers.gotDate.Format(model.DateLayout))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "+33600000001", sender.sent[0].To)
	assert.Contains(t, sender.sent[0].Text, "AX1234ABCD")
	assert.Contains(t, sender.sent[0].Text, "Lyon on 2025-06-01")
}

func TestNotifier_SkipsPoisonAndOtherKinds(t *testing.T) {
	trip := model.Event{ID: "01J0000000000000000000000B", Kind: model.EventTripPublished, Trip: &model.Trip{CarrierID: 9}}
	c := newFakeConsumer(
		kafka.Message{Topic: "relay.parcels", Offset: 1, Value: []byte("{not json")},
		eventMessage(t, "relay.parcels", 2, trip),
	)
	carriers := &fakeCarriers{}
	sender := &fakeSender{}

	runNotifier(t, NewNotifier(c, carriers, sender), c, 2)

	assert.Empty(t, sender.sent)
	assert.Empty(t, carriers.gotDest)
}

func TestNotifier_LookupFailureStillCommits(t *testing.T) {
	c := newFakeConsumer(eventMessage(t, "relay.parcels", 1, parcelEvent(7)))
	sender := &fakeSender{}

	runNotifier(t, NewNotifier(c, &fakeCarriers{err: errors.New("db down")}, sender), c, 1)

	assert.Empty(t, sender.sent)
}
