package worker

import (
	"fmt"

	"github.com/jmehdipour/parcel-relay/internal/db"
	"github.com/jmehdipour/parcel-relay/internal/logger"
	"github.com/jmehdipour/parcel-relay/internal/repository"
	"github.com/jmehdipour/parcel-relay/internal/service/conversation"
	"github.com/jmehdipour/parcel-relay/internal/worker"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var projectorCmd = &cobra.Command{
	Use:   "projector",
	Short: "Project domain events into ClickHouse",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup(cmd)
		if err != nil {
			return err
		}
		defer logger.Sync()

		chDB, err := db.NewClickHouseConnection(cfg.ClickHouse)
		if err != nil {
			return fmt.Errorf("clickhouse connect: %w", err)
		}
		defer chDB.Close()

		topics := []string{conversation.TripsTopic, conversation.ParcelsTopic, conversation.RatingsTopic}
		consumer := newConsumer(cfg.Kafka, "projector", topics...)
		defer consumer.Close()

		w := worker.NewProjector(consumer, repository.NewCHEventsRepository(chDB))
		if cfg.Projector.BatchSize > 0 {
			w.BatchSize = cfg.Projector.BatchSize
		}
		if cfg.Projector.BatchWait > 0 {
			w.BatchWait = cfg.Projector.BatchWait
		}

		ctx, stop := signalContext()
		defer stop()

		logger.L().Info("projector started",
			zap.Strings("topics", topics),
			zap.Int("batch_size", w.BatchSize),
			zap.Duration("batch_wait", w.BatchWait))

		return w.Run(ctx)
	},
}
