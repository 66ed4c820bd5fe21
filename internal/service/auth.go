// Package service holds the business rules of the API. Handlers decode HTTP
// requests into the input types declared here, call one service method and
// encode the result; services talk to the repositories, the token and
// password services and the asset relay.
//
//	Handler (HTTP) → Service (rules, ownership) → Repository (SQLite)
//	                         ↘ assets.Relay (media host)
//
// Every error a service returns is either an *apperror.AppError, which the
// handler maps to a status, or a wrapped internal error that becomes a 500.
package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/openart/internal/apperror"
	"github.com/sakif/openart/internal/auth"
	"github.com/sakif/openart/internal/model"
	"github.com/sakif/openart/internal/repository"
	"github.com/sakif/openart/internal/validation"
)

// AuthService logs users in and out and rotates their refresh tokens.
//
// Each user has at most one session row holding the SHA-256 of the current
// refresh token. Login replaces it; a refresh swaps the hash only if the
// presented token is still the current one. Presenting a stale token revokes
// the session so a stolen token stops working as soon as either party
// refreshes.
type AuthService struct {
	users     repository.UserRepository
	sessions  repository.SessionRepository
	access    *auth.TokenService
	refresh   *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewAuthService(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	access *auth.TokenService,
	refresh *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		sessions:  sessions,
		access:    access,
		refresh:   refresh,
		passwords: passwords,
		logger:    logger,
	}
}

// TokenPair is a freshly issued access/refresh token pair.
type TokenPair struct {
	AccessToken  string        `json:"accessToken"`
	RefreshToken string        `json:"refreshToken"`
	AccessTTL    time.Duration `json:"-"`
	RefreshTTL   time.Duration `json:"-"`
}

type LoginInput struct {
	Username string `json:"username" validate:"notblank"`
	Password string `json:"password" validate:"notblank"`
}

// LoginResult is returned by Login and carries the sanitized user.
type LoginResult struct {
	User *model.User
	TokenPair
}

// Login verifies the credentials and opens a new session, replacing any
// previous one.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	user, err := s.users.GetByUsername(ctx, normalize(in.Username))
	if err != nil {
		return nil, err
	}

	if err := s.passwords.Verify(user.Password, in.Password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, apperror.Unauthorized("Invalid user credentials")
		}
		return nil, fmt.Errorf("service/auth: verifying password: %w", err)
	}

	pair, err := s.IssueSession(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user logged in", slog.String("user_id", user.ID))
	return &LoginResult{User: user, TokenPair: *pair}, nil
}

// IssueSession signs a new token pair for userID and stores it as the
// user's only session.
func (s *AuthService) IssueSession(ctx context.Context, userID string) (*TokenPair, error) {
	pair, err := s.newPair(userID)
	if err != nil {
		return nil, err
	}

	err = s.sessions.Put(ctx, &model.Session{
		UserID:    userID,
		TokenHash: hashToken(pair.RefreshToken),
		ExpiresAt: time.Now().Add(pair.RefreshTTL),
	})
	if err != nil {
		return nil, fmt.Errorf("service/auth: storing session for %s: %w", userID, err)
	}
	return pair, nil
}

// Refresh exchanges a valid, current refresh token for a new pair.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if refreshToken == "" {
		return nil, apperror.Unauthorized("Unauthorized request")
	}

	userID, err := s.refresh.Validate(refreshToken)
	if err != nil {
		if errors.Is(err, auth.ErrExpired) {
			return nil, apperror.Unauthorized("Refresh token expired")
		}
		return nil, apperror.Unauthorized("Invalid refresh token")
	}

	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized("Invalid refresh token")
		}
		return nil, err
	}

	pair, err := s.newPair(userID)
	if err != nil {
		return nil, err
	}

	rotated, err := s.sessions.Rotate(ctx, userID, hashToken(refreshToken), hashToken(pair.RefreshToken),
		time.Now().Add(pair.RefreshTTL))
	if err != nil {
		return nil, fmt.Errorf("service/auth: rotating session for %s: %w", userID, err)
	}
	if !rotated {
		if err := s.sessions.Delete(ctx, userID); err != nil {
			return nil, fmt.Errorf("service/auth: revoking session for %s: %w", userID, err)
		}
		s.logger.Warn("stale refresh token presented, session revoked", slog.String("user_id", userID))
		return nil, apperror.Unauthorized("Refresh token is expired or used")
	}

	return pair, nil
}

// Logout revokes the session of userID.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	if err := s.sessions.Delete(ctx, userID); err != nil {
		return fmt.Errorf("service/auth: deleting session for %s: %w", userID, err)
	}
	s.logger.Info("user logged out", slog.String("user_id", userID))
	return nil
}

// PurgeExpiredSessions removes sessions whose refresh token has expired.
func (s *AuthService) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	n, err := s.sessions.PurgeExpired(ctx, time.Now())
	if err != nil {
		return 0, fmt.Errorf("service/auth: purging sessions: %w", err)
	}
	return n, nil
}

func (s *AuthService) newPair(userID string) (*TokenPair, error) {
	access, err := s.access.Generate(userID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating access token: %w", err)
	}
	refresh, err := s.refresh.Generate(userID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating refresh token: %w", err)
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		AccessTTL:    s.access.TTL(),
		RefreshTTL:   s.refresh.TTL(),
	}, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// normalize trims and lower-cases an email or username.
func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
