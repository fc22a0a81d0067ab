package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/volm-robotics/volm-backend/internal/apperror"
)

var ErrEndpointNotFound = apperror.NotFound("Endpoint not found")

// EndpointNotFound is mounted after a group's routes to catch everything
// they did not match.
func EndpointNotFound(c *fiber.Ctx) error {
	return apperror.Respond(c, ErrEndpointNotFound)
}
