package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jmehdipour/parcel-relay/internal/kafka"
	"github.com/jmehdipour/parcel-relay/internal/logger"
	"github.com/jmehdipour/parcel-relay/internal/metrics"
	"github.com/jmehdipour/parcel-relay/internal/model"
	"go.uber.org/zap"
)

type EventWriter interface {
	InsertBatch(ctx context.Context, rows []model.EventRow) error
}

// Projector copies domain events into the ClickHouse analytics table in batches.
// Offsets are committed only after the batch holding them is written.
// While a full batch cannot be written, reading stops, so at most BatchSize
// messages are held in memory (plus what the fetch channel buffers).
type Projector struct {
	Consumer  Consumer
	Events    EventWriter
	BatchSize int
	BatchWait time.Duration
}

func NewProjector(c Consumer, events EventWriter) *Projector {
	return &Projector{Consumer: c, Events: events, BatchSize: 500, BatchWait: time.Second}
}

func (w *Projector) Run(ctx context.Context) error {
	if w.BatchSize <= 0 {
		w.BatchSize = 500
	}
	if w.BatchWait <= 0 {
		w.BatchWait = time.Second
	}

	msgCh := make(chan kafka.Message, w.BatchSize)
	go fetchLoop(ctx, "projector", w.Consumer, msgCh)

	w.runBatchWriter(ctx, msgCh)
	return nil
}

func (w *Projector) runBatchWriter(ctx context.Context, in <-chan kafka.Message) {
	tick := time.NewTicker(w.BatchWait)
	defer tick.Stop()

	var rows []model.EventRow
	var pending []kafka.Message

	flush := func(ctx context.Context) bool {
		if len(pending) == 0 {
			return true
		}
		if err := w.Events.InsertBatch(ctx, rows); err != nil {
			// kept for the next tick; ids make the retry idempotent
			logger.L().Error("projector: insert batch failed", zap.Int("rows", len(rows)), zap.Error(err))
			return false
		}
		for _, r := range rows {
			metrics.ProjectedEventsTotal.WithLabelValues(r.Kind).Inc()
		}
		if err := w.Consumer.Commit(ctx, pending...); err != nil {
			logger.L().Warn("projector: commit failed", zap.Error(err))
		}
		logger.L().Debug("projector: flushed", zap.Int("rows", len(rows)), zap.Int("messages", len(pending)))
		rows = rows[:0]
		pending = pending[:0]
		return true
	}

	// src is nil while paused on a full batch; done only fires then,
	// since an unpaused loop learns about shutdown from the closed channel.
	src := in
	var done <-chan struct{}
	pause := func(paused bool) {
		if paused {
			src, done = nil, ctx.Done()
			return
		}
		src, done = in, nil
	}

	for {
		select {
		case m, ok := <-src:
			if !ok {
				// drain on shutdown with a fresh deadline
				fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
				flush(fctx)
				cancel()
				return
			}
			pending = append(pending, m)
			var ev model.Event
			if err := json.Unmarshal(m.Value, &ev); err != nil || ev.ID == "" || !ev.Kind.Valid() {
				logger.L().Warn("projector: skipping malformed event", zap.String("topic", m.Topic), zap.Int64("offset", m.Offset))
			} else {
				rows = append(rows, model.FlattenEvent(ev))
			}
			if len(pending) >= w.BatchSize {
				pause(!flush(ctx))
			}

		case <-tick.C:
			pause(!flush(ctx) && len(pending) >= w.BatchSize)

		case <-done:
			logger.L().Warn("projector: stopping with unwritten batch", zap.Int("messages", len(pending)))
			return
		}
	}
}
