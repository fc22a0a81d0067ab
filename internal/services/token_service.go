package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var errMissingUserID = errors.New("missing user_id claim")

// TokenClaims is the bearer token payload shared by both services.
type TokenClaims struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Validate is run by the jwt parser after exp and the other registered
// claims have been checked.
func (c TokenClaims) Validate() error {
	if c.UserID == 0 {
		return errMissingUserID
	}
	return nil
}

// TokenService issues and verifies HS256 bearer tokens. Tokens are never
// stored; signature and exp are the whole check.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (s *TokenService) Issue(userID int64, email string) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, TokenClaims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// KeyFunc resolves the signing key and rejects anything but HS256. Together
// with TokenClaims.Validate it is the whole verification a request goes
// through.
func (s *TokenService) KeyFunc(t *jwt.Token) (interface{}, error) {
	if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
		return nil, fmt.Errorf("wrong signing method %v", t.Header["alg"])
	}
	return s.secret, nil
}
