package retry

import (
	"context"
	"time"

	"github.com/glimpse-app/glimpse/internal/logger"
	"github.com/glimpse-app/glimpse/pkg/models"
)

// Default retry constants.
const (
	DefaultMaxRetries    = 3
	DefaultDelaySeconds  = 1.0
	DefaultBackoffFactor = 2.0
)

// DefaultRetryPolicy provides sensible defaults if no policy is specified.
var DefaultRetryPolicy = models.RetryPolicy{
	MaxRetries:    intPtr(DefaultMaxRetries),
	Delay:         float64Ptr(DefaultDelaySeconds),
	BackoffFactor: float64Ptr(DefaultBackoffFactor),
}

// Operation performs one attempt and returns an error on failure.
type Operation func(ctx context.Context) error

// Do executes the operation, retrying with exponential backoff according to
// the policy (merged with defaults for unset fields).
func Do(ctx context.Context, operationName string, policy *models.RetryPolicy, op Operation) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	effective := MergePolicies(policy, &DefaultRetryPolicy)
	l := logger.L().With("operation", operationName)

	maxRetries := *effective.MaxRetries
	currentDelay := time.Duration(*effective.Delay * float64(time.Second))
	backoffFactor := *effective.BackoffFactor

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		lastErr = op(ctx)
		if lastErr == nil {
			if attempt > 0 {
				l.Info("Operation succeeded after retry", "attempt", attempt+1)
			}
			return nil
		}

		l.Warn("Operation failed", "attempt", attempt+1, "max_attempts", maxRetries+1, "error", lastErr)

		if attempt == maxRetries {
			break
		}

		select {
		case <-time.After(currentDelay):
			currentDelay = time.Duration(float64(currentDelay) * backoffFactor)
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return lastErr
}

// MergePolicies combines a specific policy with a default policy. Specific
// values override defaults; pointers detect unset fields.
func MergePolicies(specific, defaultP *models.RetryPolicy) *models.RetryPolicy {
	if defaultP == nil {
		dp := DefaultRetryPolicy
		defaultP = &dp
	}

	merged := models.RetryPolicy{
		MaxRetries:    defaultP.MaxRetries,
		Delay:         defaultP.Delay,
		BackoffFactor: defaultP.BackoffFactor,
	}
	if merged.MaxRetries == nil {
		merged.MaxRetries = intPtr(DefaultMaxRetries)
	}
	if merged.Delay == nil {
		merged.Delay = float64Ptr(DefaultDelaySeconds)
	}
	if merged.BackoffFactor == nil {
		merged.BackoffFactor = float64Ptr(DefaultBackoffFactor)
	}

	if specific != nil {
		if specific.MaxRetries != nil {
			merged.MaxRetries = specific.MaxRetries
		}
		if specific.Delay != nil {
			merged.Delay = specific.Delay
		}
		if specific.BackoffFactor != nil {
			merged.BackoffFactor = specific.BackoffFactor
		}
	}

	return &merged
}

func intPtr(i int) *int             { return &i }
func float64Ptr(f float64) *float64 { return &f }
