/*
Copyright 2026 Reviewloop Authors
SPDX-License-Identifier: Apache-2.0
*/

package retry

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/chainguard-dev/clog"
)

// Config controls backoff behavior for provider calls.
type Config struct {
	// MaxAttempts is the total number of attempts, including the first.
	// Values below 1 are treated as 1.
	MaxAttempts int
	// BaseBackoff is the first backoff duration; later waits double it up
	// to MaxBackoff.
	BaseBackoff time.Duration
	// MaxBackoff caps every wait, including server-provided reset hints.
	MaxBackoff time.Duration
	// MaxJitter is the maximum random duration added to each wait.
	MaxJitter time.Duration
}

// Validate checks that the configuration has usable values.
func (c Config) Validate() error {
	if c.BaseBackoff < 0 {
		return errors.New("base backoff cannot be negative")
	}
	if c.MaxBackoff < 0 {
		return errors.New("max backoff cannot be negative")
	}
	if c.MaxJitter < 0 {
		return errors.New("max jitter cannot be negative")
	}
	return nil
}

// Default returns a configuration tuned for quota-style rate limits, which
// tend to need longer waits than transient network errors.
func Default() Config {
	return Config{
		MaxAttempts: 4,
		BaseBackoff: 2 * time.Second,
		MaxBackoff:  60 * time.Second,
		MaxJitter:   time.Second,
	}
}

// Delayer is implemented by errors that carry a server-provided wait hint,
// such as one parsed from a retry-after header.
type Delayer interface {
	RetryDelay() (time.Duration, bool)
}

// Do runs fn until it succeeds, returns a non-retryable error, or exhausts
// cfg.MaxAttempts. Between attempts it waits with exponential backoff and
// jitter; if the error carries a reset hint the hint is used instead,
// still capped at MaxBackoff.
func Do[T any](ctx context.Context, cfg Config, operation string, retryable func(error) bool, fn func() (T, error)) (T, error) {
	var result T
	var lastErr error

	attempts := max(cfg.MaxAttempts, 1)
	for attempt := 0; attempt < attempts; attempt++ {
		result, lastErr = fn()
		if lastErr == nil {
			return result, nil
		}
		if !retryable(lastErr) {
			return result, lastErr
		}
		if attempt == attempts-1 {
			break
		}

		wait := waitFor(cfg, attempt, lastErr)
		clog.FromContext(ctx).With("operation", operation).
			With("attempt", attempt+1).
			With("max_attempts", attempts).
			With("wait", wait).
			With("error", lastErr.Error()).
			Warn("retryable provider error, backing off")

		select {
		case <-ctx.Done():
			return result, ctx.Err()
		case <-time.After(wait):
		}
	}

	return result, fmt.Errorf("%s failed after %d attempts: %w", operation, attempts, lastErr)
}

// waitFor picks the wait before the next attempt. A server reset hint wins
// over the computed backoff; both are capped at MaxBackoff.
func waitFor(cfg Config, attempt int, err error) time.Duration {
	wait := min(cfg.BaseBackoff<<attempt, cfg.MaxBackoff)

	var d Delayer
	if errors.As(err, &d) {
		if hint, ok := d.RetryDelay(); ok && hint > 0 {
			wait = min(hint, cfg.MaxBackoff)
		}
	}

	if cfg.MaxJitter > 0 {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(cfg.MaxJitter)))
		if err == nil {
			wait += time.Duration(n.Int64())
		}
	}
	return wait
}
