package apps

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/volm-robotics/volm-backend/internal/config"
)

// Plugin defines the interface every service group must implement.
type Plugin interface {
	// ID returns the service name. It is also the base path of the group and
	// the name used in the SERVICES setting.
	ID() string

	// Models returns the list of GORM model pointers for AutoMigrate.
	Models() []interface{}

	// AllowedMethods is advertised in preflight responses for the group.
	AllowedMethods() string

	// RegisterRoutes mounts the service routes on the given Fiber group.
	// The group already answers preflight and has JWT middleware applied.
	RegisterRoutes(router fiber.Router, db *gorm.DB, cfg *config.Config)
}
