package dispatcher

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/jmehdipour/parcel-relay/internal/logger"
	"github.com/jmehdipour/parcel-relay/internal/model"
	"go.uber.org/zap"
)

var (
	ErrNoHealthy = errors.New("no healthy providers")
	ErrNoAcquire = errors.New("provider not acquired")
)

// Dispatcher sends notifications round-robin over the providers whose breaker
// admits calls. A retry prefers a provider that was not tried yet.
type Dispatcher struct {
	providers []Provider
	rr        atomic.Uint64
	attempts  int
}

func NewDispatcher(provs []Provider, maxAttempts int) *Dispatcher {
	if maxAttempts < 1 {
		maxAttempts = 3
	}
	return &Dispatcher{providers: provs, attempts: maxAttempts}
}

// pick returns the next healthy provider, skipping tried ones while any other is healthy.
func (d *Dispatcher) pick(tried map[string]bool) (Provider, error) {
	var fresh, healthy []Provider
	for _, p := range d.providers {
		if !p.Ready() {
			continue
		}
		healthy = append(healthy, p)
		if !tried[p.Name()] {
			fresh = append(fresh, p)
		}
	}
	if len(healthy) == 0 {
		return nil, ErrNoHealthy
	}
	if len(fresh) > 0 {
		healthy = fresh
	}

	idx := (d.rr.Add(1) - 1) % uint64(len(healthy))
	return healthy[idx], nil
}

// Send tries up to maxAttempts times and returns the last error.
func (d *Dispatcher) Send(ctx context.Context, n model.Notification) error {
	tried := make(map[string]bool, len(d.providers))
	var last error

	for i := 0; i < d.attempts; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		p, err := d.pick(tried)
		if err != nil {
			return err
		}
		tried[p.Name()] = true

		if !p.Acquire() {
			last = ErrNoAcquire
			continue
		}
		if err := p.Send(ctx, n); err != nil {
			logger.L().Debug("provider send failed",
				zap.String("provider", p.Name()), zap.Int("attempt", i+1), zap.Error(err))
			last = err
			continue
		}
		return nil
	}

	if last == nil {
		last = errors.New("send notification failed")
	}
	return last
}
