/*
Copyright 2026 Reviewloop Authors
SPDX-License-Identifier: Apache-2.0
*/

package oracle

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"
)

// ErrAllProvidersExhausted is returned when every configured provider was
// rate limited in a single rotation cycle.
var ErrAllProvidersExhausted = errors.New("all providers exhausted")

// ErrMalformedResponse is returned when a provider answers without any
// usable text content.
var ErrMalformedResponse = errors.New("malformed provider response")

// RateLimitError marks a rate-limit-class provider failure: quota
// exhaustion, throttling, or a transient overload the server expects the
// client to wait out. It carries the server's reset hint when one was
// present in the response headers.
type RateLimitError struct {
	Provider   string
	RetryAfter time.Duration
	Err        error
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s rate limited: %v", e.Provider, e.Err)
}

func (e *RateLimitError) Unwrap() error { return e.Err }

// RetryDelay implements retry.Delayer so backoff can honor the server's
// reset hint.
func (e *RateLimitError) RetryDelay() (time.Duration, bool) {
	return e.RetryAfter, e.RetryAfter > 0
}

// IsRateLimit reports whether err is a rate-limit-class provider error.
func IsRateLimit(err error) bool {
	var rle *RateLimitError
	return errors.As(err, &rle)
}

// IsTimeout reports whether err represents a timed-out provider call.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// resetHeaders are provider headers that carry an RFC 3339 timestamp for
// when the rate limit window resets.
var resetHeaders = []string{
	"anthropic-ratelimit-requests-reset",
	"anthropic-ratelimit-tokens-reset",
	"x-ratelimit-reset",
}

// retryAfterFromHeader extracts a wait duration from rate limit response
// headers. It understands retry-after in both delta-seconds and HTTP-date
// form, plus RFC 3339 reset timestamps.
func retryAfterFromHeader(h http.Header, now time.Time) (time.Duration, bool) {
	if v := h.Get("retry-after"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second, true
		}
		if at, err := http.ParseTime(v); err == nil {
			if d := at.Sub(now); d > 0 {
				return d, true
			}
		}
	}
	for _, name := range resetHeaders {
		v := h.Get(name)
		if v == "" {
			continue
		}
		at, err := time.Parse(time.RFC3339, v)
		if err != nil {
			continue
		}
		if d := at.Sub(now); d > 0 {
			return d, true
		}
	}
	return 0, false
}
