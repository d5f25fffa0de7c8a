// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package resilience

import (
	"context"
	"math/rand/v2"
	"time"
)

// RetryConfig holds retry configuration
type RetryConfig struct {
	MaxRetries      int                          // attempts after the first one
	InitialInterval time.Duration                // delay before the first retry
	MaxInterval     time.Duration                // cap for a single delay
	Multiplier      float64                      // growth factor between delays
	Jitter          bool                         // add up to 25% random noise to each delay
	OnRetry         func(attempt int, err error) // called before each retry
}

// TokenRetryConfig is used for OAuth token requests. Verification and
// classifier calls themselves are never retried.
func TokenRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:      2,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     4 * time.Second,
		Multiplier:      2,
		Jitter:          true,
	}
}

// delay returns the wait before retry number attempt (1-based)
func (c RetryConfig) delay(attempt int) time.Duration {
	d := float64(c.InitialInterval)
	for i := 1; i < attempt; i++ {
		d *= c.Multiplier
	}
	if c.Jitter {
		d += d * 0.25 * rand.Float64()
	}
	if c.MaxInterval > 0 {
		d = min(d, float64(c.MaxInterval))
	}
	return time.Duration(d)
}

// RetryWithResult runs fn until it succeeds, fails with a non-retryable
// error, or MaxRetries is exhausted. The last error is returned.
func RetryWithResult[T any](ctx context.Context, cfg RetryConfig, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	for attempt := 0; ; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		if attempt >= cfg.MaxRetries || !IsRetryable(err) {
			return zero, err
		}

		timer := time.NewTimer(cfg.delay(attempt + 1))
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt+1, err)
		}
	}
}
