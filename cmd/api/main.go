package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"backend-fitquest/internal/config"
	"backend-fitquest/internal/db"
	"backend-fitquest/internal/journal"
	"backend-fitquest/internal/logging"
	"backend-fitquest/internal/reporting"
	"backend-fitquest/internal/server"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

const serviceName = "fitquest-api"

var mainDepsProvider = defaultDeps
var mainRunner = realMain

func main() {
	mainRunner(mainDepsProvider())
}

type mainDeps struct {
	loadConfig      func() config.Config
	connectPostgres func(config.Config) (*pgxpool.Pool, error)
	migrate         func(context.Context, db.Querier) error
	connectRedis    func(config.Config) *redis.Client
	notify          func(chan<- os.Signal, ...os.Signal)
	run             func(context.Context, config.Config, *pgxpool.Pool, *redis.Client, <-chan os.Signal, ListenFunc) error
}

func defaultDeps() mainDeps {
	return mainDeps{
		loadConfig:      config.Load,
		connectPostgres: db.ConnectPostgres,
		migrate:         db.Migrate,
		connectRedis:    db.ConnectRedis,
		notify:          signal.Notify,
		run:             Run,
	}
}

func realMain(deps mainDeps) {
	cfg := deps.loadConfig()
	logger := logging.New(serviceName, cfg.LogLevel)
	slog.SetDefault(logger)

	if _, err := reporting.Init(reporting.Config{DSN: cfg.SentryDSN, Environment: cfg.SentryEnvironment}, logger); err != nil {
		logger.Error("sentry init failed", "error", err)
	}
	defer reporting.Flush(2 * time.Second)

	pg, err := deps.connectPostgres(cfg)
	if err != nil {
		logger.Error("postgres connection failed", "error", err)
		pg = nil
	}
	if pg != nil && deps.migrate != nil {
		if err := deps.migrate(context.Background(), pg); err != nil {
			logger.Error("schema migration failed", "error", err)
		}
	}

	rdb := deps.connectRedis(cfg)

	signals := make(chan os.Signal, 1)
	deps.notify(signals, syscall.SIGINT, syscall.SIGTERM)

	if err := deps.run(context.Background(), cfg, pg, rdb, signals, nil); err != nil {
		logger.Error("server exited with error", "error", err)
	}
}

type ListenFunc func(app *fiber.App, addr string) error

var defaultListen ListenFunc = func(app *fiber.App, addr string) error {
	return app.Listen(addr)
}

var shutdownFn = func(app *fiber.App, ctx context.Context) error {
	return app.ShutdownWithContext(ctx)
}

// Run starts the HTTP server and waits for termination signals.
func Run(ctx context.Context, cfg config.Config, pg *pgxpool.Pool, rdb *redis.Client, signals <-chan os.Signal, listen ListenFunc) error {
	logger := slog.Default().With("service", serviceName)

	j := openJournal(ctx, cfg.JournalPath, logger)
	srv := server.NewServer(cfg, pg, rdb, logger, j)

	if listen == nil {
		listen = defaultListen
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- listen(srv.App, cfg.ServerPort)
	}()

	select {
	case <-signals:
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			srv.Close()
			closeJournal(j, logger)
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := shutdownFn(srv.App, shutdownCtx)
	srv.Close()
	closeJournal(j, logger)
	if err != nil {
		return err
	}
	if pg != nil {
		pg.Close()
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	return nil
}

// openJournal opens the point journal when a path is configured and reports
// runs left behind by a previous process.
func openJournal(ctx context.Context, path string, logger *slog.Logger) *journal.Journal {
	if path == "" {
		return nil
	}
	j, err := journal.Open(path)
	if err != nil {
		logger.Error("journal unavailable", "path", path, "error", err)
		return nil
	}
	orphans, err := j.Sessions(ctx)
	if err != nil {
		logger.Warn("journal scan failed", "error", err)
	}
	for _, o := range orphans {
		logger.Warn("unfinished run in journal", "session_id", o.SessionID, "points", o.Points)
	}
	return j
}

func closeJournal(j *journal.Journal, logger *slog.Logger) {
	if j == nil {
		return
	}
	if err := j.Close(); err != nil {
		logger.Warn("journal close", "error", err)
	}
}
