package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/sakif/openart/internal/apperror"
	"github.com/sakif/openart/internal/model"
)

// contextKey is unexported so no other package can read or shadow the
// values stored by this one.
type contextKey string

const userKey contextKey = "user"

// UserFinder resolves a token subject to a stored user.
type UserFinder interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
}

// ErrorWriter renders an error response. The HTTP layer passes its
// centralized responder so guard failures share the error envelope.
type ErrorWriter func(w http.ResponseWriter, err error)

// RequireAuth is the session guard for protected routes.
//
// It takes the access token from the "accessToken" cookie, or from an
// "Authorization: Bearer" header for non-browser clients, verifies it,
// resolves the subject to a User and stores that User in the request
// context. Every failure is a 401 except a store error, which is passed
// through unchanged.
func RequireAuth(tokens *TokenService, users UserFinder, fail ErrorWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := accessToken(r)
			if raw == "" {
				fail(w, apperror.Unauthorized("Unauthorized request"))
				return
			}

			userID, err := tokens.Validate(raw)
			if err != nil {
				msg := "Invalid access token"
				if errors.Is(err, ErrExpired) {
					msg = "Access token expired"
				}
				fail(w, apperror.Unauthorized(msg))
				return
			}

			user, err := users.GetByID(r.Context(), userID)
			if err != nil {
				if errors.Is(err, apperror.ErrNotFound) {
					fail(w, apperror.Unauthorized("Invalid access token"))
					return
				}
				fail(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// WithUser returns a copy of ctx carrying u as the authenticated user.
func WithUser(ctx context.Context, u *model.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFromContext returns the user bound by RequireAuth, or (nil, false) on
// an unguarded request.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	u, ok := ctx.Value(userKey).(*model.User)
	return u, ok && u != nil
}

func accessToken(r *http.Request) string {
	if c, err := r.Cookie(AccessCookie); err == nil && c.Value != "" {
		return c.Value
	}
	h := r.Header.Get("Authorization")
	if after, ok := strings.CutPrefix(h, "Bearer "); ok {
		return strings.TrimSpace(after)
	}
	return ""
}
