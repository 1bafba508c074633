package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/jmehdipour/parcel-relay/internal/kafka"
	"github.com/jmehdipour/parcel-relay/internal/logger"
	"github.com/jmehdipour/parcel-relay/internal/metrics"
	"github.com/jmehdipour/parcel-relay/internal/model"
	"go.uber.org/zap"
)

type CarrierFinder interface {
	CarriersGoingTo(ctx context.Context, date time.Time, destination string) ([]model.User, error)
}

type Sender interface {
	Send(ctx context.Context, n model.Notification) error
}

// Notifier tells carriers travelling on the same date to the same destination
// about every new parcel request.
type Notifier struct {
	Consumer Consumer
	Carriers CarrierFinder
	Dispatch Sender
	Workers  int
}

func NewNotifier(c Consumer, carriers CarrierFinder, dispatch Sender) *Notifier {
	return &Notifier{Consumer: c, Carriers: carriers, Dispatch: dispatch, Workers: 8}
}

// Run blocks until ctx is cancelled and in-flight messages are done.
func (w *Notifier) Run(ctx context.Context) error {
	if w.Workers <= 0 {
		w.Workers = 8
	}

	msgCh := make(chan kafka.Message, w.Workers*2)
	go fetchLoop(ctx, "notifier", w.Consumer, msgCh)

	var wg sync.WaitGroup
	for i := 0; i < w.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for m := range msgCh {
				w.processOne(ctx, m)
			}
		}()
	}
	wg.Wait()
	return nil
}

func (w *Notifier) processOne(ctx context.Context, m kafka.Message) {
	// commit whatever happens: notifications are best effort
	defer func() {
		if err := w.Consumer.Commit(ctx, m); err != nil && ctx.Err() == nil {
			logger.L().Warn("notifier commit failed", zap.Error(err))
		}
	}()

	var ev model.Event
	if err := json.Unmarshal(m.Value, &ev); err != nil {
		logger.L().Warn("notifier: bad event json", zap.Int64("offset", m.Offset), zap.Error(err))
		return
	}
	if ev.Kind != model.EventParcelRequested || ev.Parcel == nil {
		return
	}
	p := ev.Parcel

	carriers, err := w.Carriers.CarriersGoingTo(ctx, p.Date, p.Destination)
	if err != nil {
		logger.L().Error("notifier: carrier lookup failed", zap.String("ref", p.Reference), zap.Error(err))
		metrics.NotificationsTotal.WithLabelValues("failed").Inc()
		return
	}

	text := parcelNotice(*p)
	for _, c := range carriers {
		if c.ID == p.UserID {
			continue
		}
		if err := w.Dispatch.Send(ctx, model.Notification{To: c.Address, Text: text}); err != nil {
			metrics.NotificationsTotal.WithLabelValues("failed").Inc()
			logger.L().Warn("notifier: send failed",
				zap.String("ref", p.Reference), zap.Int64("carrier_id", c.ID), zap.Error(err))
			continue
		}
		metrics.NotificationsTotal.WithLabelValues("sent").Inc()
	}
}

func parcelNotice(p model.ParcelRequest) string {
	return fmt.Sprintf("New parcel request %s for %s on %s: %s. Reply \"menu\" to see your options.",
		p.Reference, p.Destination, p.Date.Format(model.DateLayout), p.Description)
}
