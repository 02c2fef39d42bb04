package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Lixing-Zhang/sweetheart-kart/internal/cart"
	"github.com/Lixing-Zhang/sweetheart-kart/internal/catalog"
	"github.com/Lixing-Zhang/sweetheart-kart/internal/config"
	"github.com/Lixing-Zhang/sweetheart-kart/internal/coupon"
	"github.com/Lixing-Zhang/sweetheart-kart/internal/gesture"
	"github.com/Lixing-Zhang/sweetheart-kart/internal/handlers"
	"github.com/Lixing-Zhang/sweetheart-kart/internal/middleware"
	"github.com/Lixing-Zhang/sweetheart-kart/internal/notify"
	"github.com/Lixing-Zhang/sweetheart-kart/internal/repository"
	"github.com/Lixing-Zhang/sweetheart-kart/internal/service"
	"github.com/Lixing-Zhang/sweetheart-kart/internal/session"
	"github.com/Lixing-Zhang/sweetheart-kart/internal/token"
	"github.com/Lixing-Zhang/sweetheart-kart/pkg/logger"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

// expectedIssuedCodes sizes the issuer's collision filter
const expectedIssuedCodes = 100000

func main() {
	serve := &cli.Command{
		Name:   "serve",
		Usage:  "start the HTTP API server",
		Action: runServer,
	}

	app := &cli.App{
		Name:  "sweetheart-kart",
		Usage: "gesture-verified coupons and checkout API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "override LOG_LEVEL (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
			},
		},
		Commands: []*cli.Command{serve},
		Action:   runServer,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func runServer(c *cli.Context) error {
	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}
	if level := c.String("log-level"); level != "" {
		cfg.LogLevel = level
		if err := cfg.Validate(); err != nil {
			return errors.Wrap(err, "invalid --log-level")
		}
	}

	// Initialize structured logger
	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	log.Info("starting sweetheart kart api server",
		"port", cfg.Server.Port,
		"host", cfg.Server.Host,
		"log_level", cfg.LogLevel,
		"notify_channel", cfg.Notify.Channel,
	)

	ctx := c.Context

	// Pre-existing coupons offered to every session
	coupons, err := loadCatalog(ctx, cfg.Catalog, log)
	if err != nil {
		return err
	}

	issuer := coupon.NewIssuer(token.NewSource(), expectedIssuedCodes)
	issuer.Reserve(coupons.Codes()...)

	store := session.NewStore(func(l *cart.Ledger) {
		for _, cp := range coupons.All() {
			l.Offer(cp)
		}
	})

	// Gesture verification
	if cfg.Gesture.Endpoint == "" {
		log.Warn("GESTURE_ENDPOINT is not set, every gesture photo will be rejected")
	}
	estimator := gesture.NewHTTPEstimator(cfg.Gesture.Endpoint, cfg.Gesture.Timeout)
	verifier := gesture.NewVerifier(estimator, cfg.Gesture.Timeout, log, gesture.WithMaxPixels(cfg.Gesture.MaxPixels))

	// Notification dispatch
	channel, closeChannel := newChannel(cfg.Notify, log)
	defer closeChannel()
	dispatcher := notify.NewDispatcher(channel, cfg.Notify.Target, notify.NewLogSink(log), log)

	// Initialize repositories and services
	dishRepo := repository.NewInMemoryDishRepository()
	dishService := service.NewDishService(dishRepo)
	couponService := service.NewCouponService(verifier, issuer, service.CouponServiceConfig{
		SpoolDir:       cfg.Upload.SpoolDir,
		MaxUploadBytes: cfg.Upload.MaxBytes,
		VerifyTimeout:  cfg.Gesture.Timeout,
	}, log)
	checkoutService := service.NewCheckoutService(dispatcher, token.NewSource(), log)

	uploadLimiter := middleware.NewRateLimiter(cfg.Upload.Rate, cfg.Upload.Burst)

	// Create router
	r := chi.NewRouter()

	// Apply middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", middleware.SessionHeader},
		ExposedHeaders:   []string{middleware.SessionHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	handlers.Routes{
		Health: handlers.NewHealthHandler(log, func() map[string]interface{} {
			return map[string]interface{}{
				"sessions":        store.Len(),
				"catalog_coupons": len(coupons.All()),
			}
		}),
		Dishes:        handlers.NewDishHandler(dishService, log),
		Cart:          handlers.NewCartHandler(dishService, log),
		Coupons:       handlers.NewCouponHandler(couponService, log),
		Orders:        handlers.NewOrderHandler(checkoutService, log),
		Sessions:      store,
		UploadLimiter: uploadLimiter,
	}.Register(r)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go sweepIdle(sweepCtx, cfg.Session, store, uploadLimiter, log)

	// Start server in a goroutine
	serverErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "address", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		return errors.Wrap(err, "server failed to start")
	}

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "server forced to shutdown")
	}
	if err := couponService.Drain(shutdownCtx); err != nil {
		log.Warn("gesture verifications still running at shutdown", "error", err)
	}

	log.Info("server stopped gracefully")
	return nil
}

func loadCatalog(ctx context.Context, cfg config.CatalogConfig, log *slog.Logger) (*catalog.Coupons, error) {
	coupons := catalog.NewCoupons()
	if len(cfg.URLs) == 0 && len(cfg.Files) == 0 {
		return coupons, nil
	}

	log.Info("loading coupon catalog...", "urls", len(cfg.URLs), "files", len(cfg.Files))
	if err := coupons.Load(ctx, cfg.URLs, cfg.Files); err != nil {
		return nil, errors.Wrap(err, "failed to load coupon catalog")
	}

	stats := coupons.GetStats()
	log.Info("coupon catalog loaded successfully",
		"total_sources", stats["total_sources"],
		"total_coupons", stats["total_coupons"],
	)
	return coupons, nil
}

func newChannel(cfg config.NotifyConfig, log *slog.Logger) (notify.Channel, func()) {
	switch cfg.Channel {
	case config.ChannelHTTP:
		return notify.NewHTTPChannel(cfg.Endpoint, cfg.Timeout), func() {}
	case config.ChannelKafka:
		ch := notify.NewKafkaChannel(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.Timeout)
		return ch, func() {
			if err := ch.Close(); err != nil {
				log.Error("failed to close kafka writer", "error", err)
			}
		}
	default:
		return notify.NewLogChannel(log), func() {}
	}
}

func sweepIdle(ctx context.Context, cfg config.SessionConfig, store *session.Store, limiter *middleware.RateLimiter, log *slog.Logger) {
	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sessions := store.Sweep(cfg.IdleTimeout)
			clients := limiter.Sweep(cfg.IdleTimeout)
			if sessions > 0 || clients > 0 {
				log.Debug("swept idle state", "sessions", sessions, "rate_limit_clients", clients)
			}
		}
	}
}
