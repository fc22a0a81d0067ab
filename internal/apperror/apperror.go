// Package apperror holds the error kinds shared by the auth and robot
// services and their mapping onto HTTP responses.
package apperror

import (
	"errors"
	"log/slog"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"

	"github.com/volm-robotics/volm-backend/internal/dto"
)

var (
	ErrValidation   = errors.New("validation error")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrConfig       = errors.New("configuration error")
	ErrUpstream     = errors.New("upstream error")
)

// Error is a user-facing error: Message goes to the response body verbatim,
// Kind decides the status code.
type Error struct {
	Kind    error
	Message string
	Cause   error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

func New(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap keeps cause reachable through errors.Is/As while exposing only message.
func Wrap(kind error, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

func Validation(message string) *Error { return New(ErrValidation, message) }

func NotFound(message string) *Error { return New(ErrNotFound, message) }

func Conflict(message string) *Error { return New(ErrConflict, message) }

func Unauthorized(message string) *Error { return New(ErrUnauthorized, message) }

func Config(message string) *Error { return New(ErrConfig, message) }

func Upstream(message string) *Error { return New(ErrUpstream, message) }

// StatusCode maps an error onto its HTTP status.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ErrConflict):
		return fiber.StatusConflict
	case errors.Is(err, ErrUnauthorized):
		return fiber.StatusUnauthorized
	default:
		return fiber.StatusInternalServerError
	}
}

// Respond writes err as {"error": message}. Server errors are logged and
// reported to Sentry; their message is still passed through.
func Respond(c *fiber.Ctx, err error) error {
	code := StatusCode(err)
	if code >= fiber.StatusInternalServerError {
		slog.Error("request failed",
			"method", c.Method(),
			"path", c.Path(),
			"request_id", c.GetRespHeader(fiber.HeaderXRequestID),
			"error", err.Error(),
		)
		if hub := sentryfiber.GetHubFromContext(c); hub != nil {
			hub.CaptureException(err)
		} else if sentry.CurrentHub().Client() != nil {
			sentry.CaptureException(err)
		}
	}
	return c.Status(code).JSON(dto.ErrorResponse{Error: err.Error()})
}
