package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/xid"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/sakif/openart/internal/metrics"
)

// Folders group assets by what they belong to.
const (
	FolderAvatars       = "avatars"
	FolderCovers        = "covers"
	FolderArtworks      = "artworks"
	FolderAnnouncements = "announcements"
)

// ErrUnavailable is returned while the circuit breaker is open.
var ErrUnavailable = errors.New("assets: media host unavailable")

// RelayConfig tunes the relay. Zero values select the defaults.
type RelayConfig struct {
	Timeout          time.Duration // per call, default 30s
	FailureThreshold uint32        // consecutive failures that open the breaker, default 5
	OpenTimeout      time.Duration // how long the breaker stays open, default 30s
}

// Relay forwards uploads to a Store and retires assets that are no longer
// referenced.
//
// Upload errors are returned; the caller decides whether a missing asset is
// fatal. Retire never fails the caller: errors are logged and counted.
type Relay struct {
	store   Store
	cb      *gobreaker.CircuitBreaker[string]
	timeout time.Duration
	logger  *slog.Logger
}

func NewRelay(store Store, cfg RelayConfig, logger *slog.Logger) *Relay {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}

	settings := gobreaker.Settings{
		Name:        "asset-host",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		// A URL this store never issued says nothing about the host's health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrForeignURL)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("asset host circuit changed state",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	}

	return &Relay{
		store:   store,
		cb:      gobreaker.NewCircuitBreaker[string](settings),
		timeout: cfg.Timeout,
		logger:  logger,
	}
}

// Upload stores u under folder with a fresh name and returns its URL.
func (r *Relay) Upload(ctx context.Context, folder string, u *Upload) (string, error) {
	if u == nil || u.Body == nil {
		return "", fmt.Errorf("assets: nothing to upload")
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	key := folder + "/" + xid.New().String() + strings.ToLower(filepath.Ext(u.Filename))

	url, err := r.cb.Execute(func() (string, error) {
		if _, err := u.Body.Seek(0, io.SeekStart); err != nil {
			return "", fmt.Errorf("assets: rewinding upload: %w", err)
		}
		return r.store.Put(ctx, key, u)
	})
	if err != nil {
		metrics.AssetOperations.WithLabelValues("upload", outcome(err)).Inc()
		return "", wrapBreaker(err)
	}

	metrics.AssetOperations.WithLabelValues("upload", "ok").Inc()
	r.logger.Debug("asset uploaded", slog.String("url", url), slog.Int64("size", u.Size))
	return url, nil
}

// Retire deletes the asset at url. An empty url is ignored.
func (r *Relay) Retire(ctx context.Context, url string) {
	if url == "" {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	_, err := r.cb.Execute(func() (string, error) {
		return "", r.store.Delete(ctx, url)
	})
	if err != nil {
		metrics.AssetOperations.WithLabelValues("retire", outcome(err)).Inc()
		r.logger.Warn("failed to retire asset", slog.String("url", url), slog.Any("error", err))
		return
	}
	metrics.AssetOperations.WithLabelValues("retire", "ok").Inc()
}

func outcome(err error) string {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "rejected"
	}
	return "error"
}

func wrapBreaker(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return err
}
