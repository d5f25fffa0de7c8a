// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides Prometheus collectors for scans, classifier calls and verification requests.
// All methods are nil-safe.
type Metrics struct {
	// Completed analyses
	ScansTotal prometheus.Counter

	// Spans in final results by legal category and detection method
	SpansDetected *prometheus.CounterVec

	// Classifier calls by kind (sensitive, confidential, document) and outcome
	ClassifierCalls *prometheus.CounterVec

	// Verification requests by endpoint and status
	VerificationRequests *prometheus.CounterVec

	// Stage latencies
	StageDuration *prometheus.HistogramVec

	// Risk scores of completed analyses
	RiskScore prometheus.Histogram
}

// NewMetrics registers all collectors with reg. Pass prometheus.NewRegistry() in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ScansTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "kpii_scans_total",
			Help: "Total number of completed document analyses",
		}),

		SpansDetected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "kpii_spans_detected_total",
			Help: "Detected spans by legal category and method",
		}, []string{"category", "method"}),

		ClassifierCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "kpii_classifier_calls_total",
			Help: "Classifier calls by kind and outcome",
		}, []string{"kind", "outcome"}), // outcome: "ok", "timeout", "error", "malformed", "circuit_open"

		VerificationRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "kpii_verification_requests_total",
			Help: "Verification API requests by endpoint and status",
		}, []string{"endpoint", "status"}),

		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kpii_stage_duration_seconds",
			Help:    "Duration of analysis stages",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60, 180},
		}, []string{"stage"}),

		RiskScore: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "kpii_risk_score",
			Help:    "Risk score of completed analyses",
			Buckets: []float64{10, 25, 50, 75, 90, 100},
		}),
	}
}

// ObserveStage records the duration of a named stage
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m != nil {
		m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
	}
}

// IncrementScan records a completed analysis and its risk score
func (m *Metrics) IncrementScan(riskScore int) {
	if m != nil {
		m.ScansTotal.Inc()
		m.RiskScore.Observe(float64(riskScore))
	}
}

// AddSpan records one detected span
func (m *Metrics) AddSpan(category, method string) {
	if m != nil {
		m.SpansDetected.WithLabelValues(category, method).Inc()
	}
}

// IncrementClassifier records a classifier call outcome
func (m *Metrics) IncrementClassifier(kind, outcome string) {
	if m != nil {
		m.ClassifierCalls.WithLabelValues(kind, outcome).Inc()
	}
}

// IncrementVerification records a verification request outcome
func (m *Metrics) IncrementVerification(endpoint, status string) {
	if m != nil {
		m.VerificationRequests.WithLabelValues(endpoint, status).Inc()
	}
}
