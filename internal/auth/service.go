package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// Service issues and validates API bearer tokens.
type Service struct {
	config Config

	logger *zap.Logger
}

func NewService(config Config, logger *zap.Logger) *Service {
	if len(config.SecretKey) == 0 {
		logger.Warn("api authentication disabled, no secret key configured")
	}

	return &Service{
		config: config,
		logger: logger,
	}
}

func (s *Service) Enabled() bool {
	return len(s.config.SecretKey) > 0
}

// GenerateJWT signs a token for subject.
func (s *Service) GenerateJWT(subject string, scope Scope) (string, error) {
	if !s.Enabled() {
		return "", ErrDisabled
	}

	claims := NewJWTClaims(subject, s.config.Issuer, scope, time.Now().Add(s.config.TokenTTL))

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(s.config.SecretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// ValidateJWT validates a JWT token and returns the claims
func (s *Service) ValidateJWT(tokenString string) (*JWTClaims, error) {
	if !s.Enabled() {
		return nil, ErrDisabled
	}
	if tokenString == "" {
		return nil, ErrTokenMissing
	}

	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(*jwt.Token) (any, error) {
		return s.config.SecretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(s.config.Issuer),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}
