package middleware

import (
	"github.com/gofiber/fiber/v2"
)

const (
	preflightHeaders = "Content-Type, Authorization"
	preflightMaxAge  = "86400"
)

// AllowOrigin marks every response, errors included, as readable from any
// origin.
func AllowOrigin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderAccessControlAllowOrigin, "*")
		return c.Next()
	}
}

// Preflight answers OPTIONS with 200 and an empty body before any token
// check. Clients expect 200 here, not the 204 of fiber's cors middleware.
func Preflight(methods string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Method() != fiber.MethodOptions {
			return c.Next()
		}
		c.Set(fiber.HeaderAccessControlAllowOrigin, "*")
		c.Set(fiber.HeaderAccessControlAllowMethods, methods)
		c.Set(fiber.HeaderAccessControlAllowHeaders, preflightHeaders)
		c.Set(fiber.HeaderAccessControlMaxAge, preflightMaxAge)
		return c.Status(fiber.StatusOK).Send(nil)
	}
}
