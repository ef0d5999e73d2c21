// Package auth issues and checks access tokens and runs the account
// workflows: registration with email OTP, login and password reset.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"

	"wildfire/internal/models"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims are carried by every access token. The subject is the user's email.
type Claims struct {
	jwt.RegisteredClaims
	Role       string `json:"role"`
	IsApproved bool   `json:"is_approved"`
}

func (c *Claims) IsAdmin() bool {
	return c.Role == models.RoleAdmin
}

type JWTService struct {
	secret []byte
	ttl    time.Duration
	issuer string
	clock  clockwork.Clock
}

func NewJWTService(secret []byte, ttl time.Duration, clock clockwork.Clock) *JWTService {
	return &JWTService{
		secret: secret,
		ttl:    ttl,
		issuer: "wildfire",
		clock:  clock,
	}
}

func (s *JWTService) GenerateToken(user *models.User) (string, error) {
	now := s.clock.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   user.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		Role:       user.Role,
		IsApproved: user.IsApproved,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.clock.Now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
