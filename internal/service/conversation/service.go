package conversation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmehdipour/parcel-relay/internal/engine"
	"github.com/jmehdipour/parcel-relay/internal/logger"
	"github.com/jmehdipour/parcel-relay/internal/metrics"
	"github.com/jmehdipour/parcel-relay/internal/model"
	"github.com/jmehdipour/parcel-relay/internal/repository"
	"github.com/jmehdipour/parcel-relay/internal/util"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

const (
	TripsTopic   = "relay.trips"
	ParcelsTopic = "relay.parcels"
	RatingsTopic = "relay.ratings"
)

var ErrEmptyAddress = errors.New("empty sender address")

// Repos groups the MySQL repositories a turn touches.
type Repos struct {
	Users    repository.UsersRepository
	Sessions repository.SessionsRepository
	Trips    repository.TripsRepository
	Parcels  repository.ParcelsRepository
	Ratings  repository.RatingsRepository
	Messages repository.MessagesRepository
	Outbox   repository.OutboxRepository
}

// Service runs one conversation turn per inbound message: identity, session,
// transition, and every resulting write happen in a single transaction.
type Service struct {
	db      *sqlx.DB
	repos   Repos
	engine  *engine.Engine
	idleTTL time.Duration
	now     func() time.Time
}

// New constructs the conversation service. idleTTL <= 0 disables session expiry.
func New(db *sqlx.DB, repos Repos, eng *engine.Engine, idleTTL time.Duration) *Service {
	return &Service{
		db:      db,
		repos:   repos,
		engine:  eng,
		idleTTL: idleTTL,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Reply is what the transport sends back to the sender.
type Reply struct {
	Text  string
	Kind  engine.Kind
	State model.State
}

// Handle processes one inbound message. A returned error means the store failed
// and nothing was persisted; the transport should fail the request.
func (s *Service) Handle(ctx context.Context, address, text string) (Reply, error) {
	address = util.NormalizeAddress(address)
	if address == "" {
		return Reply{}, ErrEmptyAddress
	}
	now := s.now()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return Reply{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	user, err := s.repos.Users.Ensure(ctx, tx, address, now)
	if err != nil {
		return Reply{}, fmt.Errorf("ensure user: %w", err)
	}

	stored, err := s.repos.Sessions.GetForUpdate(ctx, tx, user.ID)
	if err != nil {
		return Reply{}, fmt.Errorf("get session: %w", err)
	}

	in := engine.Input{User: *user, Text: text, Now: now, Fresh: stored == nil}
	if stored != nil {
		in.Session = *stored
		if s.idleTTL > 0 && now.Sub(stored.UpdatedAt) > s.idleTTL {
			in.Fresh = true
		}
	}

	out, err := s.engine.Step(ctx, txLookup{tx: tx, repos: s.repos}, in)
	if err != nil {
		return Reply{}, err
	}

	if err := s.apply(ctx, tx, user, &out, now); err != nil {
		return Reply{}, err
	}

	out.Session.UpdatedAt = now
	if err := s.repos.Sessions.Upsert(ctx, tx, out.Session); err != nil {
		return Reply{}, fmt.Errorf("upsert session: %w", err)
	}

	if err := s.repos.Messages.InsertTurn(ctx, tx, model.Message{
		ID:          util.New(),
		UserID:      user.ID,
		Inbound:     text,
		Reply:       out.Reply,
		StateBefore: in.Session.State,
		StateAfter:  out.Session.State,
		CreatedAt:   now,
	}); err != nil {
		return Reply{}, fmt.Errorf("insert turn: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Reply{}, fmt.Errorf("commit turn: %w", err)
	}

	metrics.TurnsTotal.WithLabelValues(in.Session.State.String(), string(out.Kind)).Inc()
	logger.L().Debug("turn handled",
		zap.Int64("user_id", user.ID),
		zap.String("from", in.Session.State.String()),
		zap.String("to", out.Session.State.String()),
		zap.String("kind", string(out.Kind)),
	)

	return Reply{Text: out.Reply, Kind: out.Kind, State: out.Session.State}, nil
}

// apply persists the side effects of a transition, each with its outbox event.
func (s *Service) apply(ctx context.Context, tx *sqlx.Tx, user *model.User, out *engine.Outcome, now time.Time) error {
	if out.Register != "" {
		if err := s.repos.Users.Register(ctx, tx, user.ID, out.Register, now); err != nil {
			return fmt.Errorf("register carrier: %w", err)
		}
		metrics.EntitiesTotal.WithLabelValues("carrier").Inc()
	}

	switch {
	case out.Trip != nil:
		id, err := s.repos.Trips.Insert(ctx, tx, *out.Trip)
		if err != nil {
			return fmt.Errorf("insert trip: %w", err)
		}
		out.Trip.ID = id
		if err := s.publish(ctx, tx, "trip", TripsTopic, model.Event{
			Kind: model.EventTripPublished, UserID: user.ID, OccurredAt: now, Trip: out.Trip,
		}); err != nil {
			return err
		}
		metrics.EntitiesTotal.WithLabelValues("trip").Inc()

	case out.Parcel != nil:
		id, err := s.repos.Parcels.Insert(ctx, tx, *out.Parcel)
		if err != nil {
			return fmt.Errorf("insert parcel: %w", err)
		}
		out.Parcel.ID = id
		if err := s.publish(ctx, tx, "parcel", ParcelsTopic, model.Event{
			Kind: model.EventParcelRequested, UserID: user.ID, OccurredAt: now, Parcel: out.Parcel,
		}); err != nil {
			return err
		}
		metrics.EntitiesTotal.WithLabelValues("parcel").Inc()

	case out.Rating != nil:
		id, err := s.repos.Ratings.Insert(ctx, tx, *out.Rating)
		if err != nil {
			return fmt.Errorf("insert rating: %w", err)
		}
		out.Rating.ID = id
		if err := s.publish(ctx, tx, "rating", RatingsTopic, model.Event{
			Kind: model.EventRatingRecorded, UserID: user.ID, OccurredAt: now, Rating: out.Rating,
		}); err != nil {
			return err
		}
		metrics.EntitiesTotal.WithLabelValues("rating").Inc()
	}
	return nil
}

func (s *Service) publish(ctx context.Context, tx *sqlx.Tx, aggregate, topic string, ev model.Event) error {
	ev.ID = util.New()
	if err := s.repos.Outbox.Append(ctx, tx, aggregate, topic, ev); err != nil {
		return fmt.Errorf("append outbox: %w", err)
	}
	return nil
}

// SearchTrips runs the matching query outside of a conversation (operator API).
func (s *Service) SearchTrips(ctx context.Context, q model.TripQuery) ([]model.TripMatch, error) {
	return s.repos.Trips.Search(ctx, s.db, q)
}

// txLookup serves the engine's reads from the turn's transaction.
type txLookup struct {
	tx    *sqlx.Tx
	repos Repos
}

func (l txLookup) SearchTrips(ctx context.Context, q model.TripQuery) ([]model.TripMatch, error) {
	return l.repos.Trips.Search(ctx, l.tx, q)
}

func (l txLookup) CarriersByName(ctx context.Context, prefix string) ([]model.User, error) {
	return l.repos.Users.CarriersByNamePrefix(ctx, l.tx, prefix)
}

func (l txLookup) ParcelByReference(ctx context.Context, ref string) (*model.ParcelRequest, error) {
	return l.repos.Parcels.GetByReference(ctx, l.tx, ref)
}
