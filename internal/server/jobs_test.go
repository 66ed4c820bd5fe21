package server

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/openart/internal/metrics"
)

type fakePurger struct {
	n     int64
	err   error
	calls int
}

func (f *fakePurger) PurgeExpiredSessions(context.Context) (int64, error) {
	f.calls++
	return f.n, f.err
}

func TestPurgeSessions(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	before := testutil.ToFloat64(metrics.SessionsPurged)
	purgeSessions(context.Background(), &fakePurger{n: 3}, logger)
	assert.Equal(t, before+3, testutil.ToFloat64(metrics.SessionsPurged))

	failing := &fakePurger{err: errors.New("locked")}
	purgeSessions(context.Background(), failing, logger)
	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, before+3, testutil.ToFloat64(metrics.SessionsPurged))
}

func TestNewScheduler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	c, err := newScheduler("@every 1h", &fakePurger{}, logger)
	require.NoError(t, err)
	assert.Len(t, c.Entries(), 1)

	_, err = newScheduler("not a schedule", &fakePurger{}, logger)
	assert.Error(t, err)
}
