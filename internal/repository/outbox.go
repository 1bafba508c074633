package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmehdipour/parcel-relay/internal/model"
	"github.com/jmoiron/sqlx"
)

// OutboxRepository appends domain events next to the rows they describe.
// Debezium's outbox router publishes each row to the Kafka topic in its `topic`
// column; the notifier and projector workers consume from there.
type OutboxRepository interface {
	Append(ctx context.Context, tx *sqlx.Tx, aggregate, topic string, ev model.Event) error
}

type outboxRepo struct{}

func NewOutboxRepository() OutboxRepository { return &outboxRepo{} }

var errOutboxNoTx = errors.New("outbox append outside of a transaction")

// Append must run in the transaction that wrote the aggregate.
func (r *outboxRepo) Append(ctx context.Context, tx *sqlx.Tx, aggregate, topic string, ev model.Event) error {
	if tx == nil {
		return errOutboxNoTx
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", ev.Kind, err)
	}
	row := model.OutboxEvent{
		Aggregate:   aggregate,
		AggregateID: ev.ID,
		Topic:       topic,
		Payload:     payload,
		CreatedAt:   ev.OccurredAt,
	}

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO outbox (aggregate, aggregate_id, topic, payload, created_at)
		VALUES (:aggregate, :aggregate_id, :topic, CAST(:payload AS CHAR CHARACTER SET utf8mb4), :created_at)
	`, row)
	return err
}
