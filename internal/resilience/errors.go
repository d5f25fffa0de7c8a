// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package resilience classifies failures of the upstream adapters (the LLM
// classifier and the verification service) and guards them with token retry
// and a circuit breaker.
package resilience

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"
)

// ErrorType groups upstream failures by how a caller should react
type ErrorType string

const (
	ErrorTypeUnknown           ErrorType = "unknown"
	ErrorTypeTimeout           ErrorType = "timeout"
	ErrorTypeNetwork           ErrorType = "network"
	ErrorTypeRateLimit         ErrorType = "rate_limit"
	ErrorTypeUnavailable       ErrorType = "unavailable"
	ErrorTypeAuth              ErrorType = "auth"
	ErrorTypeInvalidInput      ErrorType = "invalid_input"
	ErrorTypeMalformedResponse ErrorType = "malformed_response"
	ErrorTypeNotConfigured     ErrorType = "not_configured"
	ErrorTypeCanceled          ErrorType = "canceled"
)

// Retryable reports whether a failure of this type may succeed on another attempt
func (t ErrorType) Retryable() bool {
	switch t {
	case ErrorTypeTimeout, ErrorTypeNetwork, ErrorTypeRateLimit, ErrorTypeUnavailable:
		return true
	}
	return false
}

// StatusError carries an unexpected HTTP status from an upstream adapter
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// ClassifiedError is an upstream failure tagged with its ErrorType
type ClassifiedError struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *ClassifiedError) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return e.Message + ": " + e.Err.Error()
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	}
	return string(e.Type)
}

func (e *ClassifiedError) Unwrap() error {
	return e.Err
}

// IsRetryable returns whether this error should be retried
func (e *ClassifiedError) IsRetryable() bool {
	return e.Type.Retryable()
}

// Wrap tags cause with an explicit type
func Wrap(t ErrorType, message string, cause error) *ClassifiedError {
	return &ClassifiedError{Type: t, Message: message, Err: cause}
}

// NewMalformedResponseError reports an upstream reply that could not be decoded
func NewMalformedResponseError(message string, cause error) *ClassifiedError {
	return Wrap(ErrorTypeMalformedResponse, message, cause)
}

// NewNotConfiguredError reports missing adapter credentials or endpoint
func NewNotConfiguredError(message string) *ClassifiedError {
	return Wrap(ErrorTypeNotConfigured, message, nil)
}

// ClassifyError tags err with an ErrorType. Errors already classified keep
// their type; nil stays nil.
func ClassifyError(err error) *ClassifiedError {
	if err == nil {
		return nil
	}

	var classified *ClassifiedError
	if errors.As(err, &classified) {
		return classified
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return &ClassifiedError{Type: typeForStatus(statusErr.StatusCode), Err: err}
	}

	return &ClassifiedError{Type: typeForError(err), Err: err}
}

// IsRetryable reports whether an error should be retried
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return ClassifyError(err).IsRetryable()
}

func typeForStatus(status int) ErrorType {
	switch {
	case status == http.StatusTooManyRequests:
		return ErrorTypeRateLimit
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ErrorTypeAuth
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return ErrorTypeTimeout
	case status >= 500:
		return ErrorTypeUnavailable
	}
	return ErrorTypeInvalidInput
}

func typeForError(err error) ErrorType {
	if errors.Is(err, context.Canceled) {
		return ErrorTypeCanceled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorTypeTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrorTypeTimeout
	}
	var opErr *net.OpError
	var dnsErr *net.DNSError
	if errors.As(err, &opErr) || errors.As(err, &dnsErr) ||
		errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrorTypeNetwork
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return ErrorTypeMalformedResponse
	}

	// Some clients flatten transport errors into strings.
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline exceeded"):
		return ErrorTypeTimeout
	case strings.Contains(msg, "rate limit"):
		return ErrorTypeRateLimit
	case strings.Contains(msg, "connection refused") || strings.Contains(msg, "connection reset"):
		return ErrorTypeNetwork
	}
	return ErrorTypeUnknown
}
