package worker

import (
	"fmt"

	"github.com/jmehdipour/parcel-relay/internal/db"
	"github.com/jmehdipour/parcel-relay/internal/dispatcher"
	"github.com/jmehdipour/parcel-relay/internal/logger"
	"github.com/jmehdipour/parcel-relay/internal/repository"
	"github.com/jmehdipour/parcel-relay/internal/service/conversation"
	"github.com/jmehdipour/parcel-relay/internal/worker"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var notifierCmd = &cobra.Command{
	Use:   "notifier",
	Short: "Notify carriers about parcel requests on their route",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup(cmd)
		if err != nil {
			return err
		}
		defer logger.Sync()

		dbx, err := db.NewMySQLConnection(cfg.MySQL)
		if err != nil {
			return fmt.Errorf("mysql connect: %w", err)
		}
		defer dbx.Close()

		provs := dispatcher.FromConfig(cfg.Providers)
		if len(provs) == 0 {
			return fmt.Errorf("no providers enabled in config")
		}
		disp := dispatcher.NewDispatcher(provs, cfg.Notifier.MaxAttempts)

		consumer := newConsumer(cfg.Kafka, "notifier", conversation.ParcelsTopic)
		defer consumer.Close()

		w := worker.NewNotifier(consumer, repository.NewTripsRepository(dbx), disp)
		if cfg.Notifier.WorkerCount > 0 {
			w.Workers = cfg.Notifier.WorkerCount
		}

		ctx, stop := signalContext()
		defer stop()

		logger.L().Info("notifier started",
			zap.String("topic", conversation.ParcelsTopic),
			zap.Int("providers", len(provs)),
			zap.Int("workers", w.Workers))

		return w.Run(ctx)
	},
}
