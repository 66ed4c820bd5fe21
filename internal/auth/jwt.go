// Package auth issues and verifies the access/refresh token pair, hashes
// passwords and guards protected routes.
//
// TOKEN PAIR:
// An access token (short expiry) authorises API calls. A refresh token (long
// expiry) is exchanged for a new pair at /users/refresh-access-token. Both are
// HS256 JWTs carried in HttpOnly cookies. They are signed with different
// secrets AND carry different audiences, so one can never stand in for the
// other.
//
// Each token also carries a random "jti" so that two tokens issued for the
// same user in the same second still differ. Session rotation depends on it.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/xid"
)

const issuer = "openart"

// Token audiences.
const (
	AudienceAccess  = "access"
	AudienceRefresh = "refresh"
)

// ErrExpired is returned by Validate for a well-formed token past its expiry.
var ErrExpired = errors.New("auth: token expired")

// TokenService signs and verifies one kind of token.
type TokenService struct {
	secret   []byte
	ttl      time.Duration
	audience string
}

// NewTokenService creates a TokenService issuing tokens for audience that
// live for ttl.
// The secret should be at least 32 bytes of random data in production.
func NewTokenService(secret string, ttl time.Duration, audience string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if ttl <= 0 {
		return nil, errors.New("auth: token lifetime must be positive")
	}
	if audience == "" {
		return nil, errors.New("auth: token audience is required")
	}
	return &TokenService{secret: []byte(secret), ttl: ttl, audience: audience}, nil
}

type claims struct {
	jwt.RegisteredClaims
}

// TTL is the lifetime of tokens issued by Generate.
func (s *TokenService) TTL() time.Duration { return s.ttl }

// Generate signs a token for userID with the service's lifetime.
func (s *TokenService) Generate(userID string) (string, error) {
	return s.GenerateWithDuration(userID, s.ttl)
}

// GenerateWithDuration signs a token with a custom lifetime. Tests use it to
// mint already-expired tokens.
func (s *TokenService) GenerateWithDuration(userID string, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        xid.New().String(),
			Subject:   userID,
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate verifies signature, algorithm, issuer, audience and expiry and
// returns the subject user id.
func (s *TokenService) Validate(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpired
		}
		return "", fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("auth: invalid token claims")
	}

	userID := c.Subject
	if userID == "" {
		return "", fmt.Errorf("auth: token has no subject")
	}

	return userID, nil
}
