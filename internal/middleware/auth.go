package middleware

import (
	"errors"

	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"

	"github.com/volm-robotics/volm-backend/internal/apperror"
	"github.com/volm-robotics/volm-backend/internal/identity"
	"github.com/volm-robotics/volm-backend/internal/services"
)

// AuthHeader carries "Bearer <token>".
const AuthHeader = "X-Authorization"

// JWTProtected rejects any request without a valid token with a bare 401.
func JWTProtected(tokens *services.TokenService) fiber.Handler {
	return newJWT(tokens, func(c *fiber.Ctx, err error) error {
		return apperror.Respond(c, apperror.Unauthorized("Unauthorized"))
	})
}

// JWTCurrentUser tells a missing token apart from one that failed
// verification. A signed token without user_id fails verification.
func JWTCurrentUser(tokens *services.TokenService) fiber.Handler {
	return newJWT(tokens, func(c *fiber.Ctx, err error) error {
		if errors.Is(err, jwtware.ErrJWTMissingOrMalformed) {
			return apperror.Respond(c, apperror.Unauthorized("Unauthorized"))
		}
		return apperror.Respond(c, apperror.Unauthorized("Invalid token: "+err.Error()))
	})
}

func newJWT(tokens *services.TokenService, onError fiber.ErrorHandler) fiber.Handler {
	return jwtware.New(jwtware.Config{
		TokenLookup:  "header:" + AuthHeader,
		AuthScheme:   "Bearer",
		ContextKey:   identity.ContextKey,
		Claims:       &services.TokenClaims{},
		KeyFunc:      tokens.KeyFunc,
		ErrorHandler: onError,
	})
}
