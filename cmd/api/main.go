package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/calorsos/calorsos/internal/adapters/http"
	natsadapter "github.com/calorsos/calorsos/internal/adapters/nats"
	"github.com/calorsos/calorsos/internal/adapters/openweather"
	"github.com/calorsos/calorsos/internal/adapters/postgres"
	"github.com/calorsos/calorsos/internal/adapters/valkey"
	"github.com/calorsos/calorsos/internal/core/domain"
	"github.com/calorsos/calorsos/internal/core/ports"
	"github.com/calorsos/calorsos/internal/core/usecases"
	"github.com/calorsos/calorsos/internal/pkg/config"
	"github.com/calorsos/calorsos/internal/pkg/logging"
	"github.com/calorsos/calorsos/internal/pkg/metrics"
	"github.com/calorsos/calorsos/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("calorsos-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPEndpoint)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	go reportPoolStats(ctx, db)

	// Cache
	var cache ports.CacheService
	var cachePinger http.Pinger
	vc, err := valkey.New(cfg.Valkey.Addr, cfg.Valkey.Password, cfg.Valkey.Prefix)
	if err != nil {
		slog.Warn("valkey unavailable, serving uncached", "error", err)
	} else {
		defer vc.Close()
		cache, cachePinger = vc, vc
	}

	// NATS
	var publisher ports.EventPublisher
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		defer pub.Close()
		publisher = pub
	}

	// Raw NATS connection for WebSocket relay
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	} else {
		defer natsConn.Close()
	}

	var weather ports.WeatherProvider
	if cfg.Weather.APIKey != "" {
		weather = openweather.NewClient(cfg.Weather.APIKey, cfg.Weather.BaseURL, time.Duration(cfg.Weather.Timeout)*time.Second)
	} else {
		slog.Warn("weather.api_key not set, /v1/weather disabled")
	}

	// Use cases
	locationSvc := usecases.NewLocationService(postgres.NewLocationRepo(db.Pool), cache, publisher)
	reportSvc := usecases.NewReportService(postgres.NewReportRepo(db.Pool), locationSvc, publisher)
	alertSvc := usecases.NewAlertService(postgres.NewAlertRepo(db.Pool), weather, cache, publisher, usecases.AlertOptions{
		City:           cfg.Weather.City,
		BroadcastLevel: domain.RiskLevel(cfg.Weather.BroadcastLevel),
	})

	// Other instances change locations too; drop our cached lists when they do.
	if sub, err := natsadapter.NewSubscriber(cfg.NATS.URL, "calorsos-api-cache"); err != nil {
		slog.Warn("nats subscriber unavailable", "error", err)
	} else {
		defer sub.Close()
		err := sub.SubscribeLocationsChanged(ctx, func(ctx context.Context, kind domain.LocationKind) error {
			locationSvc.Invalidate(ctx, kind)
			return nil
		})
		if err != nil {
			slog.Warn("subscribe locations.changed", "error", err)
		}
	}

	deps := &http.Dependencies{
		Locations: locationSvc,
		Reports:   reportSvc,
		Alerts:    alertSvc,
		Auth:      http.AuthConfig{Secret: cfg.Auth.JWTSecret, AdminRole: cfg.Auth.AdminRole},
		NATS:      natsConn,
		DB:        db,
		Cache:     cachePinger,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "CalorSOS API",
		ErrorHandler: http.ErrorHandler,
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		ExposeHeaders:    "Link, ETag, Deprecation, Sunset, X-Request-ID",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}

// reportPoolStats refreshes the pool gauges until ctx ends.
func reportPoolStats(ctx context.Context, db *postgres.DB) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		metrics.UpdateDBPoolMetrics(db.Pool.Stat())
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
