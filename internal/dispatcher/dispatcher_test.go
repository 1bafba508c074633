package dispatcher

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/jmehdipour/parcel-relay/internal/config"
	"github.com/jmehdipour/parcel-relay/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	name  string
	ready bool
	err   error
	sent  int
}

func (s *stubProvider) Name() string  { return s.name }
func (s *stubProvider) Ready() bool   { return s.ready }
func (s *stubProvider) Acquire() bool { return true }
func (s *stubProvider) Send(context.Context, model.Notification) error {
	s.sent++
	return s.err
}

func TestDispatcher_RoundRobinOverHealthy(t *testing.T) {
	a := &stubProvider{name: "a", ready: true}
	b := &stubProvider{name: "b", ready: true}
	down := &stubProvider{name: "down", ready: false}
	d := NewDispatcher([]Provider{a, down, b}, 1)

	for i := 0; i < 4; i++ {
		require.NoError(t, d.Send(context.Background(), model.Notification{To: "+33600000001", Text: "hi"}))
	}
	assert.Equal(t, 2, a.sent)
	assert.Equal(t, 2, b.sent)
	assert.Zero(t, down.sent)
}

func TestDispatcher_RetriesUpToMaxAttempts(t *testing.T) {
	boom := errors.New("boom")
	p := &stubProvider{name: "a", ready: true, err: boom}
	d := NewDispatcher([]Provider{p}, 3)

	err := d.Send(context.Background(), model.Notification{To: "+33600000001"})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, p.sent)
}

func TestDispatcher_RetryPrefersAnotherProvider(t *testing.T) {
	bad := &stubProvider{name: "bad", ready: true, err: errors.New("502")}
	good := &stubProvider{name: "good", ready: true}
	d := NewDispatcher([]Provider{bad, good}, 2)

	// first pick lands on "bad", the retry must go to "good"
	require.NoError(t, d.Send(context.Background(), model.Notification{To: "+33600000001"}))
	assert.Equal(t, 1, bad.sent)
	assert.Equal(t, 1, good.sent)
}

func TestDispatcher_NoHealthy(t *testing.T) {
	d := NewDispatcher([]Provider{&stubProvider{ready: false}}, 2)
	assert.ErrorIs(t, d.Send(context.Background(), model.Notification{}), ErrNoHealthy)
}

func TestHTTPProvider_PostsJSONAndTripsBreaker(t *testing.T) {
	var fail atomic.Bool
	var got model.Notification
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sms", r.URL.Path)
		_ = json.NewDecoder(r.Body).Decode(&got)
		if fail.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	provs := FromConfig([]config.ProviderConfig{
		{Name: "off", Enabled: false, BaseURL: "http://127.0.0.1:1"},
		{Name: "gw", Enabled: true, BaseURL: srv.URL, Breaker: config.BreakerConfig{FailThreshold: 1, OpenForMs: 60000}},
	})
	require.Len(t, provs, 1)
	p := provs[0]

	n := model.Notification{To: "+33600000001", Text: "New parcel to Lyon"}
	require.NoError(t, p.Send(context.Background(), n))
	assert.Equal(t, n, got)

	fail.Store(true)
	require.Error(t, p.Send(context.Background(), n))
	assert.False(t, p.Ready())
}
