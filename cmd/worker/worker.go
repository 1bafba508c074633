package worker

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmehdipour/parcel-relay/internal/config"
	"github.com/jmehdipour/parcel-relay/internal/kafka"
	"github.com/jmehdipour/parcel-relay/internal/logger"
	"github.com/jmehdipour/parcel-relay/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

// NewWorkerCmd returns the parent "worker" command.
func NewWorkerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Run background workers",
	}
	// attach subcommands
	cmd.AddCommand(notifierCmd)
	cmd.AddCommand(projectorCmd)

	return cmd
}

// setup loads config and initializes the ambient stack shared by workers.
func setup(cmd *cobra.Command) (config.Config, error) {
	cfgPath, _ := cmd.Root().PersistentFlags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	logger.Init(cfg.Log.Level)
	metrics.MustRegister(prometheus.DefaultRegisterer)
	return cfg, nil
}

func newConsumer(cfg config.KafkaConfig, suffix string, topics ...string) *kafka.Consumer {
	groupID := cfg.GroupID
	if groupID == "" {
		groupID = "relay"
	}
	return kafka.NewConsumerFromConfig(kafka.Config{
		Brokers:        cfg.Brokers,
		Topics:         topics,
		GroupID:        groupID + "-" + suffix,
		MinBytes:       cfg.MinBytes,
		MaxBytes:       cfg.MaxBytes,
		CommitInterval: time.Duration(cfg.CommitInterval) * time.Millisecond,
	})
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
