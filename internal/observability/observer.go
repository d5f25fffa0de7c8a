// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package observability

import (
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// StandardObserver implements observability for all components
type StandardObserver struct {
	level   ObservabilityLevel
	logger  zerolog.Logger
	metrics *Metrics
}

type ObservabilityLevel int

const (
	ObservabilityOff     ObservabilityLevel = 0
	ObservabilityMetrics ObservabilityLevel = 1
	ObservabilityDebug   ObservabilityLevel = 2
)

// NewStandardObserver creates observability component
func NewStandardObserver(level ObservabilityLevel, writer io.Writer) *StandardObserver {
	return &StandardObserver{
		level:  level,
		logger: zerolog.New(writer).With().Timestamp().Logger(),
	}
}

// NewObserverWithLogger creates an observer that reports through an existing logger
func NewObserverWithLogger(level ObservabilityLevel, logger zerolog.Logger) *StandardObserver {
	return &StandardObserver{level: level, logger: logger}
}

// WithMetrics attaches Prometheus collectors; timings are then recorded as stage durations
func (o *StandardObserver) WithMetrics(m *Metrics) *StandardObserver {
	o.metrics = m
	return o
}

// Metrics returns the attached collectors, or nil
func (o *StandardObserver) Metrics() *Metrics {
	if o == nil {
		return nil
	}
	return o.metrics
}

// Logger returns the observer's logger
func (o *StandardObserver) Logger() zerolog.Logger {
	if o == nil {
		return zerolog.Nop()
	}
	return o.logger
}

// StartTiming returns a function to complete timing
func (o *StandardObserver) StartTiming(component, operation, filePath string) func(success bool, metadata map[string]interface{}) {
	start := time.Now()

	return func(success bool, metadata map[string]interface{}) {
		if o == nil {
			return
		}
		duration := time.Since(start)

		o.metrics.ObserveStage(component+"."+operation, duration)

		data := StandardObservabilityData{
			Component:  component,
			Operation:  operation,
			FilePath:   filePath,
			DurationMs: duration.Milliseconds(),
			Success:    success,
			Metadata:   metadata,
		}

		o.LogOperation(data)
	}
}

// LogOperation logs operation data
func (o *StandardObserver) LogOperation(data StandardObservabilityData) {
	if o == nil || o.level == ObservabilityOff {
		return
	}

	data.RequestID = "req-" + uuid.NewString()

	// Only log operation records in debug mode
	if o.level == ObservabilityDebug {
		ev := o.logger.Debug()
		if !data.Success {
			ev = o.logger.Warn()
			if data.Error != "" {
				ev = ev.Str("error", data.Error)
			}
		}
		ev.Str("component", data.Component).
			Str("operation", data.Operation).
			Str("request_id", data.RequestID).
			Str("file_path", data.FilePath).
			Int64("duration_ms", data.DurationMs).
			Bool("success", data.Success).
			Int("match_count", data.MatchCount).
			Fields(data.Metadata).
			Msg("operation completed")
	}
}

// StandardObservabilityData for all components
type StandardObservabilityData struct {
	Component     string                 `json:"component"`
	Operation     string                 `json:"operation"`
	RequestID     string                 `json:"request_id"`
	FilePath      string                 `json:"file_path,omitempty"`
	DurationMs    int64                  `json:"duration_ms,omitempty"`
	Success       bool                   `json:"success"`
	Error         string                 `json:"error,omitempty"`
	ContentLength int                    `json:"content_length,omitempty"`
	MatchCount    int                    `json:"match_count,omitempty"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
}
