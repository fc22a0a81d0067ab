package robots

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/volm-robotics/volm-backend/internal/config"
)

type RobotsPlugin struct{}

func New() *RobotsPlugin {
	return &RobotsPlugin{}
}

func (p *RobotsPlugin) ID() string { return config.ServiceRobots }

func (p *RobotsPlugin) Models() []interface{} {
	return []interface{}{
		&Robot{},
	}
}

func (p *RobotsPlugin) AllowedMethods() string {
	return "GET, POST, PUT, DELETE, OPTIONS"
}

func (p *RobotsPlugin) RegisterRoutes(router fiber.Router, db *gorm.DB, _ *config.Config) {
	mountRoutes(router, NewRobotHandler(NewRobotService(db)))
}

// mountRoutes registers literal paths before their parameterised siblings.
func mountRoutes(router fiber.Router, h *RobotHandler) {
	router.Get("/", h.List)
	router.Get("/:id", h.Get)
	router.Post("/connect", h.Connect)
	router.Put("/:id", h.Update)
	router.Post("/:id/control", h.Control)
	router.Delete("/:id", h.Delete)
}
