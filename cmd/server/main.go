// cmd/server/main.go
// This is the entry point for the Golf Society API server.
// The cmd/ folder holds executable binaries, and internal/ holds the packages they are built
// from, which other modules can't import.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	// cors lets the browser admin page call the API from a different origin
	"github.com/gofiber/fiber/v2/middleware/cors"
	// logger prints one line per request: method, path, status code and duration
	"github.com/gofiber/fiber/v2/middleware/logger"
	// recover turns a panicking handler into a 500 instead of killing the process
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"

	"github.com/trentd187/golf-society/internal/config"
	"github.com/trentd187/golf-society/internal/database"
	"github.com/trentd187/golf-society/internal/feed"
	"github.com/trentd187/golf-society/internal/handlers"
	"github.com/trentd187/golf-society/internal/lock"
	applog "github.com/trentd187/golf-society/internal/logger"
	"github.com/trentd187/golf-society/internal/society"
)

func main() {
	// Load configuration from environment variables (and optionally a .env file).
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}

	log := applog.New(cfg.LogLevel, cfg.IsDevelopment())

	// Cancelled on SIGINT/SIGTERM; everything long-running below watches it.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to the database behind the versioned store: Postgres in production,
	// a SQLite file for local runs.
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}

	// Bring the schema up to date before serving anything.
	if err := database.RunMigrations(db, cfg.DatabaseURL); err != nil {
		log.WithError(err).Fatal("failed to run migrations")
	}

	repo := database.NewRepository(db, log)

	// Writers are serialised per branch. With REDIS_URL set the lock is shared by every
	// instance of the server; otherwise it only covers this process, and the store's
	// revision check still rejects a write computed from stale data.
	var locker lock.Locker = lock.NewLocal()
	if cfg.RedisURL != "" {
		redisLock, err := lock.NewRedis(cfg.RedisURL, 30*time.Second)
		if err != nil {
			log.WithError(err).Fatal("failed to connect to redis")
		}
		defer redisLock.Close()
		locker = redisLock
		log.Info("using redis writer lock")
	}

	// The hub fans change notices out to /api/v1/feed listeners.
	// "go hub.Run(ctx)" runs it in the background until shutdown.
	hub := feed.NewHub()
	go hub.Run(ctx)

	svc := society.NewService(repo, locker, hub, cfg.DataBranch, log)

	app := fiber.New(fiber.Config{
		AppName:      "Golf Society API",
		// Middleware and fiber's own errors get the same JSON body as handler errors.
		ErrorHandler: handlers.ErrorHandler,
	})

	// --- Global middleware ---
	app.Use(recover.New())
	app.Use(logger.New())
	// In production, lock CORS down to the admin page's origin.
	app.Use(cors.New())

	handlers.Register(app, handlers.Deps{
		Config:  cfg,
		Service: svc,
		Hub:     hub,
		DB:      repo,
		History: repo,
	})

	go func() {
		<-ctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.WithError(err).Warn("shutdown did not complete cleanly")
		}
	}()

	log.WithFields(logrus.Fields{
		"port":   cfg.Port,
		"env":    cfg.Env,
		"branch": cfg.DataBranch,
	}).Info("starting server")
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}
