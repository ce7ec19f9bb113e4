package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"paybridge/internal/bootstrap"
	"paybridge/internal/config"
	cronpkg "paybridge/internal/cron"
	"paybridge/internal/handler"
	"paybridge/internal/handler/api"
	"paybridge/internal/middleware"
	"paybridge/internal/payment"
	"paybridge/internal/pkg/commerce"
	"paybridge/internal/repository"
	"paybridge/internal/router"
)

func main() {
	// --- Logger ---
	logger, err := newLogger(os.Getenv("APP_ENV"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if hasArg("--bootstrap-db") {
		if err := runDBBootstrap(logger); err != nil {
			logger.Fatal("Database bootstrap failed", zap.Error(err))
		}
		logger.Info("Database bootstrap completed")
		return
	}

	// --- Config ---
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	// --- Payment store ---
	var (
		store   repository.PaymentStore
		carts   api.CartProvider
		archive handler.CallbackArchive
	)
	switch cfg.Store.Backend {
	case config.BackendGorm:
		db, err := config.NewDatabase(&cfg.Database, logger)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		if err := bootstrap.Migrate(db); err != nil {
			logger.Fatal("Failed to bootstrap database schema", zap.Error(err))
		}
		store = repository.NewPaymentRepository(db)
		archive = repository.NewCallbackRepository(db)
	case config.BackendCommercetools:
		client := commerce.NewClient(commerce.Config{
			ProjectKey:   cfg.Commerce.ProjectKey,
			ClientID:     cfg.Commerce.ClientID,
			ClientSecret: cfg.Commerce.ClientSecret,
			AuthURL:      cfg.Commerce.AuthURL,
			APIURL:       cfg.Commerce.APIURL,
		})
		store = repository.NewCommercePaymentRepository(client)
		carts = repository.NewCommerceCartRepository(client)
		archive = repository.NewMemoryCallbackRepository()
	case config.BackendMemory:
		logger.Warn("Using in-memory payment store, state is lost on restart")
		store = repository.NewMemoryPaymentRepository()
		archive = repository.NewMemoryCallbackRepository()
	default:
		logger.Fatal("Unknown store backend", zap.String("backend", cfg.Store.Backend))
	}

	// --- Redis (sessions + callback replay barrier, in-memory fallback) ---
	redisClient, err := config.NewRedis(&cfg.Redis)
	if err != nil {
		logger.Warn("Redis unavailable, using in-memory sessions and dedup", zap.Error(err))
		redisClient = nil
	}
	var sessions repository.SessionRepository
	if redisClient != nil {
		sessions = repository.NewRedisSessionRepository(redisClient)
	} else {
		sessions = repository.NewMemorySessionRepository()
	}
	deduper := middleware.NewCallbackDeduper(redisClient, cfg.Checkout.ReplayTTL)

	// --- Gateway ---
	gateway := payment.NewNovalnetGateway(payment.NovalnetConfig{
		AccessKey:  cfg.Novalnet.AccessKey,
		Signature:  cfg.Novalnet.Signature,
		Tariff:     cfg.Novalnet.Tariff,
		PayportURL: cfg.Novalnet.PayportURL,
		TestMode:   cfg.Novalnet.TestMode,
	})

	// --- Echo ---
	e := echo.New()
	e.HideBanner = true

	// --- Routes ---
	router.Setup(e, router.Deps{
		Store:            store,
		Carts:            carts,
		Archive:          archive,
		Deduper:          deduper,
		Sessions:         sessions,
		Verifier:         payment.NewVerifier(cfg.Novalnet.AccessKey),
		Gateway:          gateway,
		ProcessorBaseURL: cfg.Checkout.ProcessorBaseURL,
		ShopFrontendURL:  cfg.Checkout.ShopFrontendURL,
		GatewayOrigin:    cfg.Novalnet.Origin,
		AttemptTimeout:   cfg.Checkout.AttemptTimeout,
	}, logger)

	// --- Cron Scheduler ---
	scheduler := cronpkg.New(cfg.Maintenance, store, logger)
	if err := scheduler.Start(); err != nil {
		logger.Fatal("Failed to start scheduler", zap.Error(err))
	}

	// --- Start Server ---
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	go func() {
		logger.Info("Starting paybridge server",
			zap.String("addr", addr),
			zap.String("backend", cfg.Store.Backend),
		)
		if err := e.Start(addr); err != nil {
			logger.Info("Server stopped", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")

	// Stop cron
	ctx := scheduler.Stop()
	<-ctx.Done()

	// Stop HTTP server
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	closeRedis(redisClient, logger)
	logger.Info("Server exited")
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func closeRedis(client *redis.Client, logger *zap.Logger) {
	if client == nil {
		return
	}
	if err := client.Close(); err != nil {
		logger.Warn("Redis close failed", zap.Error(err))
	}
}

func hasArg(name string) bool {
	for _, arg := range os.Args[1:] {
		if arg == name {
			return true
		}
	}
	return false
}

func runDBBootstrap(logger *zap.Logger) error {
	dbCfg, err := config.LoadDatabaseOnly()
	if err != nil {
		return err
	}
	db, err := config.NewDatabase(dbCfg, logger)
	if err != nil {
		return err
	}
	if err := bootstrap.Migrate(db); err != nil {
		return err
	}
	logger.Info("Schema migration completed")
	return nil
}
