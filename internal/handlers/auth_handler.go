package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/volm-robotics/volm-backend/internal/apperror"
	"github.com/volm-robotics/volm-backend/internal/dto"
	"github.com/volm-robotics/volm-backend/internal/identity"
)

type authService interface {
	YandexAuthURL(redirectURI string) (string, error)
	YandexCallback(ctx context.Context, code string) (*dto.AuthResponse, error)
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error)
	CurrentUser(ctx context.Context, userID int64) (*dto.UserProfile, error)
}

type AuthHandler struct {
	authService authService
}

func NewAuthHandler(authService authService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) YandexLogin(c *fiber.Ctx) error {
	authURL, err := h.authService.YandexAuthURL(c.Query("redirect_uri"))
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(dto.OAuthURLResponse{AuthURL: authURL})
}

func (h *AuthHandler) YandexCallback(c *fiber.Ctx) error {
	resp, err := h.authService.YandexCallback(c.UserContext(), c.Query("code"))
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(resp)
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := ParseBody(c, &req); err != nil {
		return apperror.Respond(c, err)
	}

	resp, err := h.authService.Register(c.UserContext(), &req)
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := ParseBody(c, &req); err != nil {
		return apperror.Respond(c, err)
	}

	resp, err := h.authService.Login(c.UserContext(), &req)
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(resp)
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	userID, err := identity.UserID(c)
	if err != nil {
		return apperror.Respond(c, apperror.Unauthorized("Unauthorized"))
	}

	profile, err := h.authService.CurrentUser(c.UserContext(), userID)
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(profile)
}
