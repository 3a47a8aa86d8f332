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
	_ "time/tzdata"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/robfig/cron/v3"

	"github.com/samirrijal/flyover/internal/adapters/directions"
	"github.com/samirrijal/flyover/internal/adapters/geocoder"
	"github.com/samirrijal/flyover/internal/adapters/http"
	natsadapter "github.com/samirrijal/flyover/internal/adapters/nats"
	"github.com/samirrijal/flyover/internal/adapters/postgres"
	"github.com/samirrijal/flyover/internal/adapters/valkey"
	"github.com/samirrijal/flyover/internal/core/domain"
	"github.com/samirrijal/flyover/internal/core/ports"
	"github.com/samirrijal/flyover/internal/core/usecases"
	"github.com/samirrijal/flyover/internal/pkg/config"
	"github.com/samirrijal/flyover/internal/pkg/logging"
	"github.com/samirrijal/flyover/internal/pkg/metrics"
	"github.com/samirrijal/flyover/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("flyover-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	appLogger := logging.Setup(cfg.Log.Level, cfg.Log.Format, cfg.Telemetry.ServiceName)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	session, err := cfg.Session()
	if err != nil {
		log.Fatalf("session config: %v", err)
	}

	// Routing database
	db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Cache
	var cacheSvc ports.CacheService
	var cachePinger http.Pinger
	cache, err := valkey.New(cfg.Valkey.Addr, cfg.Valkey.Prefix)
	if err != nil {
		slog.Warn("valkey unavailable, running without cache", "error", err)
	} else {
		defer cache.Close()
		cacheSvc = cache
		cachePinger = cache
	}

	// NATS session events
	var events ports.EventPublisher
	var natsStatus interface{ Connected() bool }
	if cfg.NATS.Enabled {
		pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable, session events disabled", "error", err)
		} else {
			defer pub.Close()
			events = pub
			natsStatus = pub
		}
	}

	// Geocoder
	center := domain.GeoPoint{Lon: cfg.Map.CenterLon, Lat: cfg.Map.CenterLat}
	nominatim := geocoder.New(geocoder.Options{
		BaseURL:      cfg.Geocoder.BaseURL,
		UserAgent:    cfg.Geocoder.UserAgent,
		CountryCodes: cfg.Geocoder.CountryCodes,
		Limit:        cfg.Geocoder.Limit,
		Proximity:    &center,
		Timeout:      time.Duration(cfg.Geocoder.Timeout) * time.Second,
	})

	// Use cases
	placeSvc := usecases.NewPlaceService(nominatim, cacheSvc, time.Duration(cfg.Geocoder.CacheTTL)*time.Second)
	directionsSvc := usecases.NewDirectionsService(
		postgres.NewRoutingRepo(db, cfg.Directions.SnapRadiusM),
		cacheSvc,
		time.Duration(cfg.Directions.CacheTTL)*time.Second,
		cfg.Directions.MaxSpanM,
	)

	var routes ports.RouteFetcher = directionsSvc
	if cfg.Directions.BaseURL != "" {
		routes = directions.New(cfg.Directions.BaseURL, time.Duration(cfg.Directions.Timeout)*time.Second)
		slog.Info("map sessions route through remote directions service", "url", cfg.Directions.BaseURL)
	}

	// Shared scheduler for session light ticks
	scheduler := cron.New(cron.WithLocation(session.Location))
	scheduler.Start()
	defer scheduler.Stop()

	// DB pool gauges
	if _, err := scheduler.AddFunc("@every 15s", func() {
		metrics.UpdateDBPoolMetrics(db.Pool.Stat())
	}); err != nil {
		slog.Warn("pool metrics disabled", "error", err)
	}

	deps := &http.Dependencies{
		Directions:            directionsSvc,
		Places:                placeSvc,
		Routes:                routes,
		Events:                events,
		Cron:                  scheduler,
		Session:               session,
		Logger:                appLogger,
		DB:                    db,
		Graph:                 db,
		Cache:                 cachePinger,
		NATS:                  natsStatus,
		RequestTimeoutSeconds: cfg.Server.RequestTimeout,
		RateLimit:             cfg.Server.RateLimit,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "Flyover API",
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173",
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "map_timezone", session.Location.String())
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests and open map sessions up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
