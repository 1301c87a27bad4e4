package server

import (
	"log/slog"
	"time"

	"backend-fitquest/internal/auth"
	"backend-fitquest/internal/config"
	"backend-fitquest/internal/journal"
	"backend-fitquest/internal/logging"
	"backend-fitquest/internal/reporting"
	"backend-fitquest/internal/stats"
	"backend-fitquest/internal/stream"
	"backend-fitquest/internal/tracking"
	"backend-fitquest/internal/workout"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	App      *fiber.App
	Cfg      config.Config
	DB       *pgxpool.Pool
	Redis    *redis.Client
	Stream   *stream.Hub
	Runs     *tracking.Registry
	Workouts *workout.Service
	Stats    *stats.Aggregator
	Logger   *slog.Logger
}

// NewServer wires every route. db, redisClient and j may be nil; the features
// backed by them then degrade (local-only completion, no stats, no journal).
func NewServer(cfg config.Config, db *pgxpool.Pool, redisClient *redis.Client, log *slog.Logger, j *journal.Journal) *Server {
	if log == nil {
		log = logging.Discard()
	}
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	s := &Server{
		App:    app,
		Cfg:    cfg,
		DB:     db,
		Redis:  redisClient,
		Stream: stream.NewHub(redisClient, log),
		Stats:  stats.NewAggregator(redisClient),
		Logger: log,
	}
	if db != nil {
		s.Workouts = workout.NewService(db)
	}

	authSvc := auth.NewService(cfg.JWTSecret)
	finalizer := tracking.NewRunFinalizer(s.completer(authSvc), s.statsRecorder(), log)
	if cfg.SentryDSN != "" {
		finalizer.Report = reporting.Capture
	}

	var pointJournal tracking.PointJournal
	if j != nil {
		pointJournal = j
	}
	s.Runs = tracking.NewRegistry(finalizer, trackingConfig(cfg), s.Stream, pointJournal, log)

	registerRoutes(s, authSvc)
	return s
}

// Close stops every live run and the stream hub.
func (s *Server) Close() {
	s.Runs.Close()
	if err := s.Stream.Close(); err != nil {
		s.Logger.Warn("stream hub close", "error", err)
	}
}

func registerRoutes(s *Server, authSvc *auth.Service) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":   "ok",
			"runs":     s.Runs.Len(),
			"postgres": s.DB != nil,
			"redis":    s.Redis != nil,
		})
	})

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)

	auth.RegisterRoutes(s.App.Group("/auth"), authSvc)
	tracking.RegisterRoutes(s.App.Group("/runs"), s.Runs, jwtMiddleware)
	if s.Workouts != nil {
		workout.RegisterRoutes(s.App.Group("/workouts"), s.Workouts, jwtMiddleware)
	}
	stats.RegisterRoutes(s.App.Group("/stats"), s.Stats, jwtMiddleware)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream)
}

// completer prefers a remote workout API, then the local store. With neither,
// runs complete locally only.
func (s *Server) completer(authSvc *auth.Service) tracking.Completer {
	switch {
	case s.Cfg.WorkoutAPIURL != "":
		return workout.NewClient(s.Cfg.WorkoutAPIURL, 10*time.Second)
	case s.Workouts != nil:
		return workout.NewLocalCompleter(s.Workouts, authSvc)
	default:
		s.Logger.Warn("no workout store configured, completed runs are not persisted")
		return nil
	}
}

func (s *Server) statsRecorder() tracking.StatsRecorder {
	if s.Redis == nil {
		return nil
	}
	return s.Stats
}

func trackingConfig(cfg config.Config) tracking.Config {
	tc := tracking.DefaultConfig()
	if cfg.MetricsInterval > 0 {
		tc.MetricsInterval = cfg.MetricsInterval
	}
	if cfg.WarmupTimeout > 0 {
		tc.WarmupTimeout = cfg.WarmupTimeout
	}
	if cfg.UpgradeSamples > 0 {
		tc.UpgradeAfterSamples = cfg.UpgradeSamples
	}
	if cfg.UpgradeAfter > 0 {
		tc.UpgradeAfter = cfg.UpgradeAfter
	}
	return tc
}
