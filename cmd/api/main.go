package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/config"
	"storefront/internal/coupon"
	"storefront/internal/database"
	"storefront/internal/handler"
	"storefront/internal/metrics"
	"storefront/internal/notify"
	"storefront/internal/payment"
	"storefront/internal/repository"
	"storefront/internal/router"
	"storefront/internal/service"

	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if err := config.LoadDotEnv(".env"); err != nil {
		return err
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger, "storefront-api")
	logger.Info().Msg("starting storefront API server")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	registry := metrics.NewRegistry()
	m := metrics.New(registry)

	// Initialize repositories
	productRepo := repository.NewProductRepository(pool, logger)
	cartRepo := repository.NewCartRepository(pool, logger)
	couponRepo := repository.NewCouponRepository(pool, logger)
	addressRepo := repository.NewAddressRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)
	paymentRepo := repository.NewPaymentRepository(pool, logger)
	searchRepo := repository.NewSearchRepository(pool, logger)
	analyticsRepo := repository.NewAnalyticsRepository(pool, logger)

	notifier, closeNotifier := newNotifier(cfg, m, logger)
	defer closeNotifier()

	gateways := newGateways(cfg, logger)

	// Initialize services
	productService := service.NewProductService(productRepo, logger)
	cartService := service.NewCartService(cartRepo, productRepo, logger)
	paymentService := service.NewPaymentService(orderRepo, paymentRepo, gateways, notifier, m, cfg.Payments, logger)
	checkoutService := service.NewCheckoutService(
		orderRepo, productRepo, cartRepo, couponRepo, addressRepo,
		coupon.NewEngine(), paymentService, notifier, m, cfg.Checkout, logger,
	)
	webhookService := service.NewWebhookService(gateways, orderRepo, paymentService, m, logger)
	searchService := service.NewSearchService(searchRepo, productRepo, cfg.Search, m, logger)
	analyticsService := service.NewAnalyticsService(analyticsRepo, productRepo, cfg.Checkout.LowStockThreshold, logger)

	if cfg.Checkout.LowStockDigestEvery > 0 {
		digest := service.NewLowStockDigest(productRepo, notifier, cfg.Checkout.LowStockThreshold, cfg.Checkout.LowStockDigestEvery, logger)
		go digest.Run(ctx)
	}

	// Initialize router
	mux := router.New(router.Handlers{
		Product:   handler.NewProductHandler(productService, logger),
		Search:    handler.NewSearchHandler(searchService, logger),
		Cart:      handler.NewCartHandler(cartService, logger),
		Order:     handler.NewOrderHandler(checkoutService, cartService, logger),
		Webhook:   handler.NewWebhookHandler(webhookService, logger),
		Analytics: handler.NewAnalyticsHandler(analyticsService, logger),
		Metrics:   metrics.Handler(registry),
		Ping:      pool.Ping,
	}, cfg.Auth, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second + cfg.Payments.ProviderTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Int("payment_providers", len(gateways)).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		// Stop background jobs before draining requests
		cancel()

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

// newGateways registers cash on delivery plus every provider with credentials.
func newGateways(cfg *config.Config, logger zerolog.Logger) payment.Gateways {
	gateways := []payment.Gateway{payment.NewCODGateway()}

	if cfg.Payments.Stripe.SecretKey != "" {
		gateways = append(gateways, payment.NewStripeGateway(cfg.Payments.Stripe, cfg.Payments.Currency, cfg.App.Name, logger))
	} else {
		logger.Warn().Msg("stripe is not configured")
	}

	if cfg.Payments.Razorpay.KeyID != "" && cfg.Payments.Razorpay.KeySecret != "" {
		gateways = append(gateways, payment.NewRazorpayGateway(cfg.Payments.Razorpay, cfg.Payments.Currency, logger))
	} else {
		logger.Warn().Msg("razorpay is not configured")
	}

	return payment.NewGateways(gateways...)
}

// newNotifier publishes to Kafka when enabled and logs events otherwise.
func newNotifier(cfg *config.Config, m *metrics.Metrics, logger zerolog.Logger) (notify.Notifier, func()) {
	if !cfg.Kafka.Enabled {
		logger.Info().Msg("kafka disabled, notifications are logged only")
		return notify.NewLogNotifier(logger), func() {}
	}

	kn := notify.NewKafkaNotifier(cfg.Kafka, cfg.Checkout.NotificationQueueSize, m, logger)
	return kn, func() {
		if err := kn.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to flush notifications")
		}
	}
}
