// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package resilience

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// BreakerState is the position of a CircuitBreaker
type BreakerState string

const (
	StateClosed   BreakerState = "closed"    // calls pass through
	StateOpen     BreakerState = "open"      // calls fail fast
	StateHalfOpen BreakerState = "half_open" // one trial call is allowed
)

// ErrCircuitOpen is returned, wrapped in an *OpenError, while the breaker rejects calls
var ErrCircuitOpen = errors.New("circuit open")

// OpenError names the rejecting breaker and when it will admit a trial call
type OpenError struct {
	Name    string
	RetryIn time.Duration
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("%s: circuit open, next trial in %s", e.Name, e.RetryIn.Round(time.Second))
}

func (e *OpenError) Unwrap() error {
	return ErrCircuitOpen
}

// IsCircuitBreakerError reports whether err came from a rejecting breaker
func IsCircuitBreakerError(err error) bool {
	return errors.Is(err, ErrCircuitOpen)
}

// CircuitBreakerConfig holds circuit breaker configuration
type CircuitBreakerConfig struct {
	Name             string
	FailureThreshold int              // consecutive counted failures that open the breaker
	Cooldown         time.Duration    // time spent open before a trial call is admitted
	IsFailure        func(error) bool // which errors count; retryable errors by default
	OnStateChange    func(name string, from, to BreakerState)
}

// DefaultCircuitBreakerConfig returns the configuration used for upstream adapters
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             name,
		FailureThreshold: 5,
		Cooldown:         30 * time.Second,
		IsFailure:        IsRetryable,
	}
}

// CircuitBreaker stops calling an upstream after repeated transient failures.
// After Cooldown a single trial call decides whether it closes again.
type CircuitBreaker struct {
	cfg CircuitBreakerConfig
	now func() time.Time

	mu       sync.Mutex
	state    BreakerState
	failures int
	openedAt time.Time
	probing  bool
}

// NewCircuitBreaker creates a closed breaker
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 1
	}
	if cfg.IsFailure == nil {
		cfg.IsFailure = IsRetryable
	}
	return &CircuitBreaker{cfg: cfg, now: time.Now, state: StateClosed}
}

// Execute runs fn unless the breaker is open
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := cb.acquire(); err != nil {
		return err
	}
	err := fn(ctx)
	cb.release(err)
	return err
}

// State returns the current state
func (cb *CircuitBreaker) State() BreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) acquire() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateOpen:
		waited := cb.now().Sub(cb.openedAt)
		if waited < cb.cfg.Cooldown {
			return &OpenError{Name: cb.cfg.Name, RetryIn: cb.cfg.Cooldown - waited}
		}
		cb.transition(StateHalfOpen)
		cb.probing = true
	case StateHalfOpen:
		if cb.probing {
			return &OpenError{Name: cb.cfg.Name}
		}
		cb.probing = true
	}
	return nil
}

func (cb *CircuitBreaker) release(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	failed := err != nil && cb.cfg.IsFailure(err)
	switch cb.state {
	case StateHalfOpen:
		cb.probing = false
		if failed {
			cb.trip()
			return
		}
		cb.failures = 0
		cb.transition(StateClosed)
	case StateClosed:
		if !failed {
			cb.failures = 0
			return
		}
		cb.failures++
		if cb.failures >= cb.cfg.FailureThreshold {
			cb.trip()
		}
	}
}

func (cb *CircuitBreaker) trip() {
	cb.openedAt = cb.now()
	cb.transition(StateOpen)
}

func (cb *CircuitBreaker) transition(to BreakerState) {
	from := cb.state
	if from == to {
		return
	}
	cb.state = to
	if cb.cfg.OnStateChange != nil {
		cb.cfg.OnStateChange(cb.cfg.Name, from, to)
	}
}
