package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/akc-construction/crm/internal/blob"
	"github.com/akc-construction/crm/internal/config"
	"github.com/akc-construction/crm/internal/db"
	"github.com/akc-construction/crm/internal/events"
	apphttp "github.com/akc-construction/crm/internal/http"
	"github.com/akc-construction/crm/internal/http/handlers"
	"github.com/akc-construction/crm/internal/repositories"
	"github.com/akc-construction/crm/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	cfg.Validate(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, int32(cfg.PostgresMaxConns), log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	// Run migrations
	if err := db.RunMigrations(ctx, pool, cfg.MigrationsDir, log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	// Redis
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	// Object storage for receipt attachments
	var objects services.ObjectStore
	if cfg.AttachmentsEnabled() {
		store, err := blob.NewS3Store(ctx, blob.Config{
			Region:          cfg.S3Region,
			Bucket:          cfg.S3Bucket,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			PathStyle:       cfg.S3PathStyle,
		})
		if err != nil {
			log.Fatal("failed to configure object storage", zap.Error(err))
		}
		objects = store
	}

	// Repositories
	txManager := repositories.NewTxManager(pool)
	customerRepo := repositories.NewCustomerRepo(pool)
	projectRepo := repositories.NewProjectRepo(pool)
	timeLogRepo := repositories.NewTimeLogRepo(pool)
	receiptRepo := repositories.NewReceiptRepo(pool)
	subInvoiceRepo := repositories.NewSubInvoiceRepo(pool)
	estimateRepo := repositories.NewEstimateRepo(pool)
	employeeRepo := repositories.NewEmployeeRepo(pool)
	vendorRepo := repositories.NewVendorRepo(pool)
	activityRepo := repositories.NewActivityRepo(pool)
	sequenceRepo := repositories.NewSequenceRepo(pool)
	userRepo := repositories.NewUserRepo(pool)

	// Events
	subscriber := events.NewRedisSubscriber(rdb, log)

	// Services
	recorder := services.NewActivityRecorder(activityRepo)
	authService := services.NewAuthService(userRepo, cfg.JWTSecret, cfg.JWTExpiration, log)
	customerService := services.NewCustomerService(txManager, customerRepo, sequenceRepo, recorder, log)
	projectService := services.NewProjectService(txManager, projectRepo, customerRepo, timeLogRepo, receiptRepo,
		subInvoiceRepo, estimateRepo, sequenceRepo, recorder, log)
	costService := services.NewCostService(txManager, projectRepo, employeeRepo, vendorRepo, timeLogRepo, receiptRepo,
		subInvoiceRepo, objects, cfg.AttachmentURLTTL, recorder, log)
	estimateService := services.NewEstimateService(txManager, projectRepo, estimateRepo, recorder, log)
	employeeService := services.NewEmployeeService(txManager, employeeRepo, sequenceRepo, recorder, log)
	vendorService := services.NewVendorService(txManager, vendorRepo, subInvoiceRepo, sequenceRepo, recorder, log)

	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		if err := authService.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			log.Fatal("failed to bootstrap admin", zap.Error(err))
		}
	}

	// Handlers
	wsHub := handlers.NewWSHub(cfg.JWTSecret, subscriber, log)
	h := apphttp.Handlers{
		Auth:     handlers.NewAuthHandler(authService, log),
		Customer: handlers.NewCustomerHandler(customerService, log),
		Project:  handlers.NewProjectHandler(projectService, log),
		Cost:     handlers.NewCostHandler(costService, int64(cfg.MaxUploadBytes), cfg.AttachmentURLTTL, log),
		Estimate: handlers.NewEstimateHandler(estimateService, log),
		Employee: handlers.NewEmployeeHandler(employeeService, log),
		Vendor:   handlers.NewVendorHandler(vendorService, log),
		Activity: handlers.NewActivityHandler(recorder, log),
		WSHub:    wsHub,
	}

	// Start WS hub
	if err := wsHub.Start(ctx); err != nil {
		log.Fatal("failed to subscribe to activity events", zap.Error(err))
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit: cfg.MaxUploadBytes + 1024*1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	apphttp.SetupRouter(app, cfg, log, rdb, h)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")
		cancel()
		_ = app.Shutdown()
	}()

	addr := fmt.Sprintf(":%s", cfg.APIPort)
	log.Info("starting API server",
		zap.String("addr", addr),
		zap.Bool("attachments", cfg.AttachmentsEnabled()),
	)
	if err := app.Listen(addr); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
