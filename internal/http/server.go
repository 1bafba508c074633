package http

import (
	"context"
	"net/http"
	"time"

	"github.com/jmehdipour/parcel-relay/internal/config"
	"github.com/jmehdipour/parcel-relay/internal/engine"
	"github.com/jmehdipour/parcel-relay/internal/http/middleware"
	"github.com/jmehdipour/parcel-relay/internal/logger"
	"github.com/jmehdipour/parcel-relay/internal/metrics"
	"github.com/jmehdipour/parcel-relay/internal/repository"
	"github.com/jmehdipour/parcel-relay/internal/service/conversation"
	"github.com/jmehdipour/parcel-relay/internal/util"
	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	echoMid "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct{ e *echo.Echo }

// Deps are the collaborators behind the routes. Events may be nil (no ClickHouse).
type Deps struct {
	Conversation Conversation
	Trips        TripSearcher
	Messages     repository.MessagesRepository
	Events       repository.CHEventsRepository
	Redis        *redis.Client
	RateLimit    config.RateLimitConfig
	APIKeys      []string
}

func NewServer(cfg config.Config, mysqlDB, clickhouseDB *sqlx.DB, rds *redis.Client) *Server {
	// repos (MySQL)
	repos := conversation.Repos{
		Users:    repository.NewUsersRepository(mysqlDB),
		Sessions: repository.NewSessionsRepository(),
		Trips:    repository.NewTripsRepository(mysqlDB),
		Parcels:  repository.NewParcelsRepository(),
		Ratings:  repository.NewRatingsRepository(),
		Messages: repository.NewMessagesRepository(mysqlDB),
		Outbox:   repository.NewOutboxRepository(),
	}

	// services
	convSvc := conversation.New(mysqlDB, repos, engine.New(), cfg.Session.IdleTTL)

	deps := Deps{
		Conversation: convSvc,
		Trips:        convSvc,
		Messages:     repos.Messages,
		Redis:        rds,
		RateLimit:    cfg.RateLimit,
		APIKeys:      cfg.APIKeys,
	}
	// repos (ClickHouse)
	if clickhouseDB != nil {
		deps.Events = repository.NewCHEventsRepository(clickhouseDB)
	}

	metrics.MustRegister(prometheus.DefaultRegisterer)

	return newServer(deps)
}

func newServer(d Deps) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Logger.SetLevel(log.WARN)
	e.Use(echoMid.Recover(), echoMid.Logger())

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// health
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	// inbound messages, limited per sender
	rlMW := middleware.RateLimitMiddleware(middleware.RateLimitConfig{
		Redis:          d.Redis,
		Max:            d.RateLimit.RPS,
		KeyPrefix:      "rl:sender:",
		Window:         d.RateLimit.Window,
		KeyFunc:        func(c echo.Context) string { return util.NormalizeAddress(senderAddress(c)) },
		RetryAfterHint: true,
	})
	e.POST("/webhook", webhookHandler(d.Conversation), rlMW)

	// operator routes
	v1 := e.Group("/v1", middleware.APIKeyMiddleware(d.APIKeys))
	v1.GET("/trips/search", searchTripsHandler(d.Trips))
	if d.Messages != nil {
		v1.GET("/users/:id/turns", listTurnsHandler(d.Messages))
	}
	if d.Events != nil {
		v1.GET("/reports/events", listEventsHandler(d.Events))
	}

	return &Server{e: e}
}

// Handler exposes the router (tests, embedding).
func (s *Server) Handler() http.Handler { return s.e }

func (s *Server) Start(addr string) error {
	logger.L().Info("http: listening", zap.String("addr", addr))
	return s.e.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.e.Shutdown(ctx)
}
