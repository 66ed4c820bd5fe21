package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/sakif/openart/internal/metrics"
)

// SessionPurger deletes sessions whose refresh token has expired.
type SessionPurger interface {
	PurgeExpiredSessions(ctx context.Context) (int64, error)
}

// newScheduler registers the background jobs. The caller starts and stops
// the returned cron.
func newScheduler(schedule string, purger SessionPurger, logger *slog.Logger) (*cron.Cron, error) {
	c := cron.New()
	if _, err := c.AddFunc(schedule, func() { purgeSessions(context.Background(), purger, logger) }); err != nil {
		return nil, fmt.Errorf("scheduling session purge %q: %w", schedule, err)
	}
	return c, nil
}

func purgeSessions(ctx context.Context, purger SessionPurger, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	n, err := purger.PurgeExpiredSessions(ctx)
	if err != nil {
		logger.Error("session purge failed", slog.Any("error", err))
		return
	}
	metrics.SessionsPurged.Add(float64(n))
	if n > 0 {
		logger.Info("expired sessions purged", slog.Int64("count", n))
	}
}
