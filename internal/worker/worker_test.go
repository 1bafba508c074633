package worker

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/jmehdipour/parcel-relay/internal/kafka"
	"github.com/jmehdipour/parcel-relay/internal/model"
	"github.com/stretchr/testify/require"
)

// fakeConsumer serves queued messages, then blocks until ctx is cancelled.
type fakeConsumer struct {
	mu        sync.Mutex
	queue     []kafka.Message
	committed []kafka.Message
}

func newFakeConsumer(msgs ...kafka.Message) *fakeConsumer {
	return &fakeConsumer{queue: msgs}
}

func (f *fakeConsumer) Fetch(ctx context.Context) (kafka.Message, error) {
	f.mu.Lock()
	if len(f.queue) > 0 {
		m := f.queue[0]
		f.queue = f.queue[1:]
		f.mu.Unlock()
		return m, nil
	}
	f.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (f *fakeConsumer) Commit(_ context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.committed = append(f.committed, msgs...)
	return nil
}

func (f *fakeConsumer) remaining() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queue)
}

func (f *fakeConsumer) committedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.committed)
}

func eventMessage(t *testing.T, topic string, offset int64, ev model.Event) kafka.Message {
	t.Helper()
	b, err := json.Marshal(ev)
	require.NoError(t, err)
	return kafka.Message{Topic: topic, Offset: offset, Value: b}
}
