/*
Copyright 2026 Reviewloop Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package oracle sends completion requests to large language model
// providers and hides provider failures from the review loop.
//
// An Oracle holds an ordered list of provider entries, each a (vendor,
// credential, model) triple. Requests go to the current entry; a
// rate-limit-class error triggers bounded backoff and rotation to the
// next entry, and a full cycle without success returns
// ErrAllProvidersExhausted. Successful calls also advance the cursor so
// load spreads round-robin across entries.
//
// Token accounting favors provider-reported usage and falls back to a
// character-based estimate when the provider reports nothing.
package oracle
