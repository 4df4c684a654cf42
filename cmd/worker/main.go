package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/akc-construction/crm/internal/config"
	"github.com/akc-construction/crm/internal/db"
	"github.com/akc-construction/crm/internal/events"
	"github.com/akc-construction/crm/internal/repositories"
	"github.com/akc-construction/crm/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	cfg.Validate(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, 5, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	activityRepo := repositories.NewActivityRepo(pool)
	publisher := events.NewRedisPublisher(rdb, log)
	relay := services.NewActivityRelay(activityRepo, publisher, cfg.OutboxBatchSize, log)

	go serveHealth(cfg.WorkerPort, log)

	log.Info("worker started", zap.Duration("poll_interval", cfg.OutboxPollInterval))

	relayTicker := time.NewTicker(cfg.OutboxPollInterval)
	defer relayTicker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-relayTicker.C:
			runRelay(ctx, relay, log)
		case <-sigCh:
			log.Info("shutting down worker")
			cancel()
			return
		case <-ctx.Done():
			return
		}
	}
}

// runRelay drains the outbox until a batch comes back short or fails.
func runRelay(ctx context.Context, relay *services.ActivityRelay, log *zap.Logger) {
	for {
		n, err := relay.RunOnce(ctx)
		if err != nil {
			log.Error("activity relay failed", zap.Int("published", n), zap.Error(err))
			return
		}
		if !relay.Full(n) || ctx.Err() != nil {
			return
		}
	}
}

func serveHealth(port string, log *zap.Logger) {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	addr := fmt.Sprintf(":%s", port)
	if err := app.Listen(addr); err != nil {
		log.Error("worker health server stopped", zap.String("addr", addr), zap.Error(err))
	}
}
