package main

import (
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"

	"github.com/volm-robotics/volm-backend/internal/apps"
	"github.com/volm-robotics/volm-backend/internal/apps/robots"
	"github.com/volm-robotics/volm-backend/internal/config"
	"github.com/volm-robotics/volm-backend/internal/database"
	"github.com/volm-robotics/volm-backend/internal/dto"
	"github.com/volm-robotics/volm-backend/internal/handlers"
	"github.com/volm-robotics/volm-backend/internal/logging"
	"github.com/volm-robotics/volm-backend/internal/middleware"
	"github.com/volm-robotics/volm-backend/internal/routes"
	"github.com/volm-robotics/volm-backend/internal/services"
)

func main() {
	// Structured logging (JSON to stdout); level is refined once config is read.
	logging.Setup("info")

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.LogLevel)

	if cfg.UsesDefaultJWTSecret() {
		slog.Warn("JWT_SECRET not set, using the built-in fallback secret")
	}

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Database
	db, err := database.Connect(cfg)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}

	plugins := []apps.Plugin{
		robots.New(),
	}

	if cfg.DBAutoMigrate {
		if err := database.MigrateShared(db, cfg.DBSchema); err != nil {
			slog.Error("shared migration failed", "error", err)
			os.Exit(1)
		}
		for _, p := range plugins {
			if !cfg.Enabled(p.ID()) {
				continue
			}
			if err := database.MigrateModels(db, p.Models()); err != nil {
				slog.Error("plugin migration failed", "plugin", p.ID(), "error", err)
				os.Exit(1)
			}
			slog.Info("plugin migrated", "plugin", p.ID(), "models", len(p.Models()))
		}
	}

	// Services
	tokens := services.NewTokenService(cfg.JWTSecret, cfg.JWTExpiry)
	yandex := services.NewYandexClient(cfg.Yandex)
	authService := services.NewAuthService(db, tokens, yandex)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	healthHandler := handlers.NewHealthHandler(db)

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    1 * 1024 * 1024,
		ErrorHandler: customErrorHandler,
	})

	// Sentry middleware
	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path} | ${respHeader:X-Request-ID}\n",
	}))
	app.Use(middleware.AllowOrigin())
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		return c.Next()
	})

	// Routes
	routes.Setup(app, cfg, db, tokens, authHandler, healthHandler, plugins)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port, "services", cfg.Services)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	// Close database connections
	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			slog.Error("database close error", "error", err)
		}
	}

	slog.Info("server stopped")
}

// customErrorHandler renders errors that escape handlers (fiber errors,
// recovered panics) in the same {"error": ...} shape as handled ones.
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := err.Error()
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	}

	if code >= fiber.StatusInternalServerError {
		slog.Error("unhandled server error",
			"method", c.Method(),
			"path", c.Path(),
			"request_id", c.GetRespHeader(fiber.HeaderXRequestID),
			"error", err.Error(),
		)
	}

	c.Set(fiber.HeaderAccessControlAllowOrigin, "*")
	return c.Status(code).JSON(dto.ErrorResponse{Error: message})
}
