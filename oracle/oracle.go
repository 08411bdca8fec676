/*
Copyright 2026 Reviewloop Authors
SPDX-License-Identifier: Apache-2.0
*/

package oracle

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/chainguard-dev/clog"
	"github.com/reviewloop/reviewloop/metrics"
	"github.com/reviewloop/reviewloop/oracle/retry"
)

// meterName is the unified meter for all reviewloop instrumentation.
const meterName = "reviewloop"

// Completion is the outcome of a successful oracle call.
type Completion struct {
	Text string
	// Provider names the entry that answered.
	Provider string
	// TokensUsed is the provider-reported total, or a character-based
	// estimate when the provider reported nothing.
	TokensUsed int
}

// Oracle routes completion requests across an ordered list of providers.
// Safe for concurrent use.
type Oracle struct {
	mu        sync.Mutex
	providers []Provider
	cursor    int
	retryCfg  retry.Config
	metrics   *metrics.Review
}

// Option configures an Oracle.
type Option func(*Oracle) error

// WithRetryConfig overrides the per-provider backoff configuration.
func WithRetryConfig(cfg retry.Config) Option {
	return func(o *Oracle) error {
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid retry config: %w", err)
		}
		o.retryCfg = cfg
		return nil
	}
}

// WithMetrics overrides the metrics recorder.
func WithMetrics(m *metrics.Review) Option {
	return func(o *Oracle) error {
		if m == nil {
			return errors.New("metrics recorder cannot be nil")
		}
		o.metrics = m
		return nil
	}
}

// New creates an Oracle over the given providers, tried in order starting
// from the first.
func New(providers []Provider, opts ...Option) (*Oracle, error) {
	if len(providers) == 0 {
		return nil, errors.New("at least one provider is required")
	}
	o := &Oracle{
		providers: providers,
		retryCfg:  retry.Default(),
		metrics:   metrics.NewReview(meterName),
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}
	return o, nil
}

// Complete sends req to the current provider, backing off and rotating on
// rate limits. When every provider is rate limited in one full cycle it
// returns ErrAllProvidersExhausted. Timeouts are retried on the same
// provider; any other error propagates immediately without touching the
// remaining providers.
func (o *Oracle) Complete(ctx context.Context, req Request) (*Completion, error) {
	log := clog.FromContext(ctx)

	var lastErr error
	for range o.providers {
		p := o.next()
		resp, err := retry.Do(ctx, o.retryCfg, "complete "+p.Name(), transient, func() (*Response, error) {
			return p.Complete(ctx, req)
		})
		if err != nil {
			if IsRateLimit(err) {
				log.With("provider", p.Name()).
					With("error", err.Error()).
					Warn("provider rate limited, rotating to next entry")
				lastErr = err
				continue
			}
			return nil, fmt.Errorf("completion from %s: %w", p.Name(), err)
		}

		o.metrics.RecordTokens(ctx, p.Name(), p.Model(),
			int64(resp.Usage.InputTokens), int64(resp.Usage.OutputTokens))

		tokens := resp.Usage.Total()
		if tokens == 0 {
			tokens = EstimateRequest(req) + EstimateTokens(resp.Text)
		}
		return &Completion{
			Text:       resp.Text,
			Provider:   p.Name(),
			TokensUsed: tokens,
		}, nil
	}

	return nil, fmt.Errorf("%w after trying %d providers: %v",
		ErrAllProvidersExhausted, len(o.providers), lastErr)
}

// transient reports whether an error is worth retrying on the same
// provider before giving up on it: rate limits and timed-out calls.
func transient(err error) bool {
	return IsRateLimit(err) || IsTimeout(err)
}

// next returns the current provider and advances the cursor so calls
// spread round-robin across entries.
func (o *Oracle) next() Provider {
	o.mu.Lock()
	defer o.mu.Unlock()
	p := o.providers[o.cursor%len(o.providers)]
	o.cursor++
	return p
}
