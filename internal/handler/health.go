package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/openart/internal/apperror"
)

// Pinger is satisfied by the database.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health answers 200 while the store is reachable and 503 otherwise.
func Health(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			slog.Error("health check failed", slog.Any("error", err))
			writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{
				Message: "Database unavailable",
				Errors:  []apperror.FieldError{},
			})
			return
		}
		respond(w, http.StatusOK, map[string]string{"status": "ok"}, "Healthy")
	}
}
