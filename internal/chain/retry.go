package chain

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"
	"time"

	poolerr "github.com/cosmospool/cosmospool/pkg/errors"
)

// Read retry sentinels. Transactions are never retried; only idempotent
// reads (accounts, balances, receipts) go through Retry.
var (
	ErrRetryable = &poolerr.PoolError{
		Code:     "RETRYABLE_ERROR",
		Message:  "transient provider failure",
		ExitCode: poolerr.ExitGeneral,
	}

	// ErrRateLimited may carry a "retry_after" detail holding a Go duration.
	ErrRateLimited = &poolerr.PoolError{
		Code:     "RATE_LIMITED",
		Message:  "provider rate limit reached",
		ExitCode: poolerr.ExitGeneral,
	}
)

// RetryConfig configures read retries.
type RetryConfig struct {
	MaxAttempts int           // including the first call
	BaseDelay   time.Duration // doubled on every attempt
	MaxDelay    time.Duration // also caps server-provided Retry-After hints

	// OnRetry, when set, is called before sleeping ahead of attempt+1.
	OnRetry func(attempt int, delay time.Duration, err error)
}

// DefaultRetryConfig returns 3 attempts with delays of roughly 250ms and 500ms.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   250 * time.Millisecond,
		MaxDelay:    2 * time.Second,
	}
}

// Retry runs a read with the default configuration.
func Retry[T any](ctx context.Context, operation func() (T, error)) (T, error) {
	return RetryWithConfig(ctx, DefaultRetryConfig(), operation)
}

// RetryWithConfig runs operation until it succeeds, returns a non-retryable
// error, exhausts cfg.MaxAttempts, or ctx ends.
func RetryWithConfig[T any](ctx context.Context, cfg RetryConfig, operation func() (T, error)) (T, error) {
	var result T
	var err error

	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}

	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		result, err = operation()
		if err == nil {
			return result, nil
		}
		if !IsRetryable(err) {
			return result, err
		}
		if attempt == cfg.MaxAttempts-1 {
			break
		}

		delay := retryDelay(err, attempt, cfg)
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt+1, delay, err)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return result, ctx.Err()
		case <-timer.C:
		}
	}

	return result, fmt.Errorf("operation failed after %d attempts: %w", cfg.MaxAttempts, err)
}

// retryDelay prefers the provider's Retry-After hint over exponential backoff.
func retryDelay(err error, attempt int, cfg RetryConfig) time.Duration {
	if hint := RetryAfter(err); hint > 0 {
		if cfg.MaxDelay > 0 && hint > cfg.MaxDelay {
			return cfg.MaxDelay
		}
		return hint
	}
	return calculateDelay(attempt, cfg.BaseDelay, cfg.MaxDelay)
}

// calculateDelay returns the backoff for attempt with jitter in [delay/2, delay).
func calculateDelay(attempt int, baseDelay, maxDelay time.Duration) time.Duration {
	delay := baseDelay * (1 << attempt)
	if delay > maxDelay {
		delay = maxDelay
	}
	half := delay / 2
	if half <= 0 {
		return delay
	}
	return half + rand.N(half) //nolint:gosec // G404: jitter does not need cryptographic randomness
}

// IsRetryable reports whether err is a transient read failure.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrRetryable) ||
		errors.Is(err, ErrRateLimited) ||
		errors.Is(err, context.DeadlineExceeded)
}

// RateLimited returns ErrRateLimited carrying the wait parsed from a
// Retry-After header value.
func RateLimited(retryAfter string) error {
	wait := ParseRetryAfter(retryAfter)
	if wait <= 0 {
		return ErrRateLimited
	}
	return poolerr.WithDetails(ErrRateLimited, map[string]string{"retry_after": wait.String()})
}

// RetryAfter returns the wait requested by a rate-limited provider, or 0.
func RetryAfter(err error) time.Duration {
	if !errors.Is(err, ErrRateLimited) {
		return 0
	}
	d, parseErr := time.ParseDuration(poolerr.Detail(err, "retry_after"))
	if parseErr != nil || d < 0 {
		return 0
	}
	return d
}

// ParseRetryAfter parses a Retry-After header in either delta-seconds or
// HTTP-date form. It returns 0 when the value is missing, malformed or past.
func ParseRetryAfter(header string) time.Duration {
	header = strings.TrimSpace(header)
	if header == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(header); err == nil {
		if seconds < 0 {
			return 0
		}
		return time.Duration(seconds) * time.Second
	}

	at, err := http.ParseTime(header)
	if err != nil {
		return 0
	}
	if wait := time.Until(at); wait > 0 {
		return wait.Round(time.Second)
	}
	return 0
}

// WrapRetryable marks err as a transient read failure.
func WrapRetryable(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrRetryable, err)
}
