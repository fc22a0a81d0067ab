package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/volm-robotics/volm-backend/internal/apps"
	"github.com/volm-robotics/volm-backend/internal/config"
	"github.com/volm-robotics/volm-backend/internal/handlers"
	"github.com/volm-robotics/volm-backend/internal/middleware"
	"github.com/volm-robotics/volm-backend/internal/services"
)

const authMethods = "GET, POST, OPTIONS"

func Setup(
	app *fiber.App,
	cfg *config.Config,
	db *gorm.DB,
	tokens *services.TokenService,
	authHandler *handlers.AuthHandler,
	healthHandler *handlers.HealthHandler,
	plugins []apps.Plugin,
) {
	// Health (no auth)
	app.Get("/health", healthHandler.Check)

	// Auth: public except /me
	if cfg.Enabled(config.ServiceAuth) {
		auth := app.Group("/auth", middleware.Preflight(authMethods))
		auth.All("/yandex/login", authHandler.YandexLogin)
		auth.All("/yandex/callback", authHandler.YandexCallback)
		auth.Post("/register", authHandler.Register)
		auth.Post("/login", authHandler.Login)
		auth.Get("/me", middleware.JWTCurrentUser(tokens), authHandler.Me)
		auth.Use(handlers.EndpointNotFound)
	}

	// Plugin groups: preflight first, then the token gate, so unmatched
	// paths still answer 401 to anonymous callers.
	for _, p := range plugins {
		if !cfg.Enabled(p.ID()) {
			continue
		}
		group := app.Group("/"+p.ID(),
			middleware.Preflight(p.AllowedMethods()),
			middleware.JWTProtected(tokens),
		)
		p.RegisterRoutes(group, db, cfg)
		group.Use(handlers.EndpointNotFound)
	}

	app.Use(handlers.EndpointNotFound)
}
