package worker

import (
	"context"
	"time"

	"github.com/jmehdipour/parcel-relay/internal/kafka"
	"github.com/jmehdipour/parcel-relay/internal/logger"
	"go.uber.org/zap"
)

// Consumer is the part of the Kafka reader the workers use.
type Consumer interface {
	Fetch(ctx context.Context) (kafka.Message, error)
	Commit(ctx context.Context, msgs ...kafka.Message) error
}

// fetchLoop feeds out until ctx is cancelled, then closes it.
func fetchLoop(ctx context.Context, name string, c Consumer, out chan<- kafka.Message) {
	defer close(out)
	for {
		m, err := c.Fetch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.L().Warn("kafka fetch failed", zap.String("worker", name), zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(200 * time.Millisecond):
			}
			continue
		}
		select {
		case out <- m:
		case <-ctx.Done():
			return
		}
	}
}
