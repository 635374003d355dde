package service

import (
	"fmt"

	"github.com/boddenberg/vip-insights-bfa-go/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

// Tokens are issued by the dashboard SSO; this service only validates
// them so mutations carry a real analyst identity.

// TokenService validates access tokens for assignment mutations.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a token validator with the shared HMAC secret.
func NewTokenService(secret string) *TokenService {
	return &TokenService{secret: []byte(secret)}
}

// AnalystClaims represents the custom claims in access tokens.
type AnalystClaims struct {
	Sub  string `json:"sub"`
	Name string `json:"name"`
	Type string `json:"type"`
	jwt.RegisteredClaims
}

// ValidateAccessToken parses and verifies a Bearer token.
func (s *TokenService) ValidateAccessToken(tokenString string) (*AnalystClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AnalystClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, &domain.ErrUnauthorized{Message: "invalid or expired token"}
	}

	claims, ok := token.Claims.(*AnalystClaims)
	if !ok || !token.Valid {
		return nil, &domain.ErrUnauthorized{Message: "invalid token"}
	}

	if claims.Type != "access" {
		return nil, &domain.ErrUnauthorized{Message: "invalid token type"}
	}

	return claims, nil
}
