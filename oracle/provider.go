/*
Copyright 2026 Reviewloop Authors
SPDX-License-Identifier: Apache-2.0
*/

package oracle

import (
	"context"
	"fmt"
)

// Vendor identifies a supported model API.
type Vendor string

const (
	VendorAnthropic Vendor = "anthropic"
	VendorOpenAI    Vendor = "openai"
	VendorGoogle    Vendor = "google"
)

// Request is a single completion request.
type Request struct {
	// System carries the system instruction, if any.
	System string
	// User is the user-turn prompt.
	User string
	// MaxTokens caps the completion length. The review loop clamps this
	// to the remaining session budget before calling.
	MaxTokens int
}

// Usage is the token consumption of one call as measured by the provider.
// A zero Usage means the provider reported nothing.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Total returns input plus output tokens.
func (u Usage) Total() int { return u.InputTokens + u.OutputTokens }

// Response is the raw completion from a single provider call.
type Response struct {
	Text  string
	Usage Usage
}

// Provider is one model backend reachable with one credential. Adapters
// return *RateLimitError for rate-limit-class failures so the Oracle
// knows to back off and rotate.
type Provider interface {
	Complete(ctx context.Context, req Request) (*Response, error)
	// Name identifies this entry in logs and metrics. Multiple entries
	// may share a vendor but differ in credential or model.
	Name() string
	// Model returns the configured model identifier.
	Model() string
}

// NewProvider constructs the adapter for the given vendor. An empty name
// defaults to "<vendor>/<model>".
func NewProvider(ctx context.Context, name string, vendor Vendor, apiKey, model string) (Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("provider %q: api key is required", vendor)
	}
	if model == "" {
		return nil, fmt.Errorf("provider %q: model is required", vendor)
	}
	if name == "" {
		name = string(vendor) + "/" + model
	}
	switch vendor {
	case VendorAnthropic:
		return newAnthropic(name, apiKey, model), nil
	case VendorOpenAI:
		return newOpenAI(name, apiKey, model), nil
	case VendorGoogle:
		return newGemini(ctx, name, apiKey, model)
	default:
		return nil, fmt.Errorf("unsupported vendor %q", vendor)
	}
}
