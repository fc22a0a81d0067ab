package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/volm-robotics/volm-backend/internal/apperror"
	"github.com/volm-robotics/volm-backend/internal/database"
	"github.com/volm-robotics/volm-backend/internal/dto"
	"github.com/volm-robotics/volm-backend/internal/models"
)

var (
	ErrEmailRequired         = apperror.Validation("Email is required")
	ErrInvalidBirthDate      = apperror.Validation("Invalid birth_date, expected YYYY-MM-DD")
	ErrNoAuthCode            = apperror.Validation("No authorization code")
	ErrUserExists            = apperror.Conflict("User already exists")
	ErrUserNotFound          = apperror.NotFound("User not found")
	ErrClientIDNotConfigured = apperror.Config("YANDEX_CLIENT_ID not configured")
	ErrOAuthNotConfigured    = apperror.Config("OAuth credentials not configured")
)

type AuthService struct {
	db     *gorm.DB
	tokens *TokenService
	yandex *YandexClient
}

func NewAuthService(db *gorm.DB, tokens *TokenService, yandex *YandexClient) *AuthService {
	return &AuthService{
		db:     db,
		tokens: tokens,
		yandex: yandex,
	}
}

func (s *AuthService) YandexAuthURL(redirectURI string) (string, error) {
	if !s.yandex.HasClientID() {
		return "", ErrClientIDNotConfigured
	}
	return s.yandex.AuthCodeURL(redirectURI), nil
}

// YandexCallback completes the OAuth flow. A user is created on the first
// sign-in for a Yandex id; later sign-ins never touch the stored record.
func (s *AuthService) YandexCallback(ctx context.Context, code string) (*dto.AuthResponse, error) {
	if code == "" {
		return nil, ErrNoAuthCode
	}
	if !s.yandex.HasCredentials() {
		return nil, ErrOAuthNotConfigured
	}

	resp, err := s.yandexSignIn(ctx, code)
	if err != nil {
		return nil, apperror.Wrap(apperror.ErrUpstream, "OAuth error: "+err.Error(), err)
	}
	return resp, nil
}

func (s *AuthService) yandexSignIn(ctx context.Context, code string) (*dto.AuthResponse, error) {
	profile, err := s.yandex.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)

	var user models.User
	err = db.Where("yandex_id = ?", profile.ID).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = models.User{
			Email:     profile.DefaultEmail,
			FirstName: &profile.FirstName,
			LastName:  &profile.LastName,
			YandexID:  &profile.ID,
		}
		if err := db.Create(&user).Error; err != nil {
			return nil, fmt.Errorf("failed to create yandex user: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to look up yandex user: %w", err)
	}

	return s.authResponse(&user)
}

func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	if req.Email == "" {
		return nil, ErrEmailRequired
	}
	birthDate, err := parseBirthDate(req.BirthDate)
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)

	var existing models.User
	err = db.Select("id").Where("email = ?", req.Email).Take(&existing).Error
	if err == nil {
		return nil, ErrUserExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	user := models.User{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		BirthDate: birthDate,
	}
	if err := db.Create(&user).Error; err != nil {
		// Lost a race with a concurrent registration for the same email.
		if database.IsUniqueViolation(err) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return s.authResponse(&user)
}

// Login issues a token for any registered email. There is no password or
// second factor: knowing the email is enough. This matches the behaviour
// clients rely on today and must not be tightened silently.
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	if req.Email == "" {
		return nil, ErrEmailRequired
	}

	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", req.Email).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return s.authResponse(&user)
}

func (s *AuthService) CurrentUser(ctx context.Context, userID int64) (*dto.UserProfile, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("id = ?", userID).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return &dto.UserProfile{
		ID:        user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		BirthDate: user.BirthDateString(),
	}, nil
}

func (s *AuthService) authResponse(user *models.User) (*dto.AuthResponse, error) {
	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	return &dto.AuthResponse{
		Token: token,
		User: dto.UserSummary{
			ID:    user.ID,
			Email: user.Email,
		},
	}, nil
}

func parseBirthDate(raw *string) (*datatypes.Date, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, *raw)
	if err != nil {
		return nil, ErrInvalidBirthDate
	}
	d := datatypes.Date(t)
	return &d, nil
}
