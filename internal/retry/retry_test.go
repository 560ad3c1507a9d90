package retry

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glimpse-app/glimpse/internal/logger"
	"github.com/glimpse-app/glimpse/pkg/models"
)

func testInitLogger(t *testing.T) {
	t.Helper()
	settings := models.ApplicationSettings{LogLevel: "error", LogFormat: "text"}
	err := logger.Init(settings, io.Discard)
	require.NoError(t, err, "Failed to initialize logger for test")
}

func fastPolicy(maxRetries int) *models.RetryPolicy {
	delay := 0.001
	backoff := 1.0
	return &models.RetryPolicy{MaxRetries: &maxRetries, Delay: &delay, BackoffFactor: &backoff}
}

func TestDo_SucceedsFirstTry(t *testing.T) {
	testInitLogger(t)
	var calls int
	err := Do(context.Background(), "test_op", fastPolicy(3), func(ctx context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_RetriesUntilSuccess(t *testing.T) {
	testInitLogger(t)
	var calls int
	err := Do(context.Background(), "test_op", fastPolicy(3), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_ExhaustsRetries(t *testing.T) {
	testInitLogger(t)
	var calls int
	wantErr := errors.New("permanent")
	err := Do(context.Background(), "test_op", fastPolicy(2), func(ctx context.Context) error {
		calls++
		return wantErr
	})
	assert.ErrorIs(t, err, wantErr)
	assert.Equal(t, 3, calls, "initial attempt plus two retries")
}

func TestDo_ZeroRetries(t *testing.T) {
	testInitLogger(t)
	var calls int
	err := Do(context.Background(), "test_op", fastPolicy(0), func(ctx context.Context) error {
		calls++
		return errors.New("nope")
	})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_CancelledBeforeStart(t *testing.T) {
	testInitLogger(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var calls int
	err := Do(ctx, "test_op", nil, func(ctx context.Context) error {
		calls++
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)
}

func TestMergePolicies(t *testing.T) {
	five := 5
	specific := &models.RetryPolicy{MaxRetries: &five}
	merged := MergePolicies(specific, nil)
	assert.Equal(t, 5, *merged.MaxRetries)
	assert.Equal(t, DefaultDelaySeconds, *merged.Delay, "unset fields fall back to defaults")
	assert.Equal(t, DefaultBackoffFactor, *merged.BackoffFactor)

	merged = MergePolicies(nil, nil)
	assert.Equal(t, DefaultMaxRetries, *merged.MaxRetries)
}
