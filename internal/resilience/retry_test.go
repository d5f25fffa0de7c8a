// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package resilience

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry(max int) RetryConfig {
	return RetryConfig{MaxRetries: max, InitialInterval: time.Millisecond, MaxInterval: 5 * time.Millisecond, Multiplier: 2}
}

func TestRetryWithResultReturnsValue(t *testing.T) {
	calls := 0
	token, err := RetryWithResult(context.Background(), fastRetry(3), func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", &StatusError{StatusCode: 503, Body: "maintenance"}
		}
		return "access-token", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "access-token", token)
	assert.Equal(t, 3, calls)
}

func TestRetryWithResultStopsOnPermanentError(t *testing.T) {
	calls := 0
	_, err := RetryWithResult(context.Background(), fastRetry(3), func(context.Context) (string, error) {
		calls++
		return "", &StatusError{StatusCode: 401, Body: "invalid_client"}
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, ErrorTypeAuth, ClassifyError(err).Type)
}

func TestRetryWithResultExhausts(t *testing.T) {
	var retried []int
	cfg := fastRetry(2)
	cfg.OnRetry = func(attempt int, _ error) { retried = append(retried, attempt) }

	calls := 0
	_, err := RetryWithResult(context.Background(), cfg, func(context.Context) (int, error) {
		calls++
		return 0, fmt.Errorf("token request failed: %w", context.DeadlineExceeded)
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, retried)
}

func TestRetryWithResultContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := RetryConfig{MaxRetries: 5, InitialInterval: time.Hour, Multiplier: 2}

	calls := 0
	_, err := RetryWithResult(ctx, cfg, func(context.Context) (int, error) {
		calls++
		cancel()
		return 0, &StatusError{StatusCode: 502}
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestRetryDelay(t *testing.T) {
	cfg := RetryConfig{InitialInterval: 100 * time.Millisecond, MaxInterval: 300 * time.Millisecond, Multiplier: 2}
	assert.Equal(t, 100*time.Millisecond, cfg.delay(1))
	assert.Equal(t, 200*time.Millisecond, cfg.delay(2))
	assert.Equal(t, 300*time.Millisecond, cfg.delay(3))

	cfg.Jitter = true
	for range 20 {
		d := cfg.delay(1)
		assert.GreaterOrEqual(t, d, 100*time.Millisecond)
		assert.LessOrEqual(t, d, 125*time.Millisecond)
	}
}

func TestTokenRetryConfig(t *testing.T) {
	cfg := TokenRetryConfig()
	assert.Equal(t, 2, cfg.MaxRetries)
	assert.LessOrEqual(t, cfg.delay(cfg.MaxRetries), cfg.MaxInterval)
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassifyError(t *testing.T) {
	syntaxErr := json.Unmarshal([]byte(`{"data"}`), new(map[string]any))
	require.Error(t, syntaxErr)

	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"rate limited", &StatusError{StatusCode: 429}, ErrorTypeRateLimit},
		{"unauthorized", fmt.Errorf("token: %w", &StatusError{StatusCode: 401}), ErrorTypeAuth},
		{"gateway timeout", &StatusError{StatusCode: 504}, ErrorTypeTimeout},
		{"server error", &StatusError{StatusCode: 500}, ErrorTypeUnavailable},
		{"bad request", &StatusError{StatusCode: 400}, ErrorTypeInvalidInput},
		{"deadline", fmt.Errorf("chat completion: %w", context.DeadlineExceeded), ErrorTypeTimeout},
		{"cancelled", context.Canceled, ErrorTypeCanceled},
		{"net timeout", timeoutErr{}, ErrorTypeTimeout},
		{"dial", &net.OpError{Op: "dial", Err: errors.New("refused")}, ErrorTypeNetwork},
		{"json", syntaxErr, ErrorTypeMalformedResponse},
		{"already classified", NewNotConfiguredError("CODEF API가 설정되지 않았습니다"), ErrorTypeNotConfigured},
		{"message", errors.New("upstream rate limit reached"), ErrorTypeRateLimit},
		{"other", errors.New("boom"), ErrorTypeUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyError(tt.err).Type)
		})
	}
	assert.Nil(t, ClassifyError(nil))
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(nil))
	assert.True(t, IsRetryable(&StatusError{StatusCode: 503}))
	assert.False(t, IsRetryable(NewMalformedResponseError("bad reply", nil)))
	assert.False(t, IsRetryable(context.Canceled))
}

func TestClassifiedErrorMessage(t *testing.T) {
	cause := errors.New("EOF")
	err := NewMalformedResponseError("malformed token response", cause)
	assert.Equal(t, "malformed token response: EOF", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "CODEF 미설정", NewNotConfiguredError("CODEF 미설정").Error())
}
