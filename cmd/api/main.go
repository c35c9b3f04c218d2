package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pottery-store/internal/bulkupload"
	"pottery-store/internal/config"
	"pottery-store/internal/database"
	"pottery-store/internal/handler"
	"pottery-store/internal/metrics"
	"pottery-store/internal/notify"
	"pottery-store/internal/payment"
	"pottery-store/internal/payment/iyzico"
	"pottery-store/internal/repository"
	"pottery-store/internal/router"
	"pottery-store/internal/service"

	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().Str("payment_mode", cfg.Payment.Mode).Msg("starting pottery store API server")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, pool, logger); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}

	// Initialize repositories
	productRepo := repository.NewProductRepository(pool, logger)
	categoryRepo := repository.NewCategoryRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)
	refundRepo := repository.NewRefundRepository(pool, logger)

	m := metrics.New()

	// Initialize services
	productService := service.NewProductService(productRepo, categoryRepo, logger)
	categoryService := service.NewCategoryService(categoryRepo, logger)
	cartService := service.NewCartService(productRepo, logger)
	orderService := service.NewOrderService(orderRepo, productRepo, m, logger)
	paymentService := service.NewPaymentService(orderRepo, productRepo, newGateway(cfg.Payment, logger), cfg.Payment, m, logger)
	adminOrderService := service.NewAdminOrderService(orderRepo, productRepo, refundRepo, newNotifier(cfg.Notifications, logger), m, logger)
	uploadService := service.NewBulkUploadService(orderRepo, productRepo, categoryRepo, newImportLoader(ctx, cfg, logger), m, logger)
	analyticsService := service.NewAnalyticsService(orderRepo, productRepo, cfg.Analytics.LowStockThreshold, logger)

	// Initialize HTTP handlers and router
	mux := router.New(router.Handlers{
		Products:   handler.NewProductHandler(productService, logger),
		Categories: handler.NewCategoryHandler(categoryService, logger),
		Orders:     handler.NewOrderHandler(orderService, cartService, logger),
		Payments:   handler.NewPaymentHandler(paymentService, logger),
		Admin:      handler.NewAdminHandler(adminOrderService, uploadService, analyticsService, cfg.BulkUpload.MaxBytes, logger),
	}, cfg.Auth.AdminAPIKeyHash, pool, m, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}

// newGateway returns the simulator in testing mode and the Iyzico client otherwise.
func newGateway(cfg config.PaymentConfig, logger zerolog.Logger) payment.Gateway {
	if cfg.Testing() {
		logger.Warn().Dur("delay", cfg.SimulatedDelay).Msg("payments are simulated, no card will be charged")
		return payment.NewSimulator(cfg.SimulatedDelay, logger)
	}
	return iyzico.NewClient(cfg, logger)
}

func newNotifier(cfg config.NotificationConfig, logger zerolog.Logger) notify.Notifier {
	if !cfg.Enabled {
		return notify.NopNotifier{}
	}
	return notify.NewLogNotifier(cfg.From, logger)
}

// newImportLoader reads import files from S3 when enabled, falling back to the local directory.
func newImportLoader(ctx context.Context, cfg *config.Config, logger zerolog.Logger) bulkupload.Loader {
	fileLoader := bulkupload.NewFileLoader(cfg.BulkUpload.LocalDir, logger)
	if !cfg.S3.Enabled {
		logger.Info().Str("dir", cfg.BulkUpload.LocalDir).Msg("using local file system for product imports (S3 disabled)")
		return fileLoader
	}

	s3Loader, err := bulkupload.NewS3Loader(ctx, cfg.S3.Bucket, cfg.S3.Region, logger)
	if err != nil {
		logger.Warn().
			Err(err).
			Msg("failed to initialise S3 loader, falling back to local file system only")
		return fileLoader
	}
	return bulkupload.NewFallbackLoader(s3Loader, fileLoader, cfg.S3.Prefix, true, logger)
}
