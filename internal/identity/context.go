package identity

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/volm-robotics/volm-backend/internal/services"
)

// ContextKey is where the token middleware stores the verified *jwt.Token.
const ContextKey = "user"

// Claims extracts the verified token claims from Fiber context locals.
func Claims(c *fiber.Ctx) (*services.TokenClaims, error) {
	token, ok := c.Locals(ContextKey).(*jwt.Token)
	if !ok {
		return nil, errors.New("invalid token in context")
	}

	claims, ok := token.Claims.(*services.TokenClaims)
	if !ok {
		return nil, errors.New("invalid claims")
	}
	if claims.UserID == 0 {
		return nil, errors.New("missing user_id claim")
	}
	return claims, nil
}

// UserID returns the caller's user id from the verified token.
func UserID(c *fiber.Ctx) (int64, error) {
	claims, err := Claims(c)
	if err != nil {
		return 0, err
	}
	return claims.UserID, nil
}
