// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package core runs the detection pipeline over one document or a set of files.
package core

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"kpii-scan/internal/classifier"
	"kpii-scan/internal/detector"
	"kpii-scan/internal/merge"
	"kpii-scan/internal/observability"
	"kpii-scan/internal/patterns"
	"kpii-scan/internal/redactors"
	"kpii-scan/internal/risk"
	"kpii-scan/internal/scanner"
	"kpii-scan/internal/validators/nuisance"
)

const tracerName = "kpii-scan/core"

// Document analysis outcomes recorded in Stats.DocumentAnalysis
const (
	DocumentAnalysisDisabled    = "disabled"
	DocumentAnalysisApplied     = "applied"
	DocumentAnalysisNotHigher   = "not_higher"
	DocumentAnalysisUnavailable = "unavailable"
)

// ProgressFunc receives a stage name and the number of spans it produced
type ProgressFunc func(stage string, found int)

// Analyzer runs regex scanning, classifier passes, user patterns, merging,
// checksum filtering and risk aggregation. It is safe for concurrent use when
// its collaborators are.
type Analyzer struct {
	scanner    *scanner.Scanner
	runner     *classifier.Runner
	document   classifier.DocumentAnalyzer
	patterns   patterns.Source
	checksum   *merge.ChecksumFilter
	aggregator *risk.Aggregator
	masker     *redactors.Masker
	levels     map[string]bool
	mask       bool
	progress   ProgressFunc

	logger   zerolog.Logger
	observer *observability.StandardObserver
	metrics  *observability.Metrics
	tracer   trace.Tracer
}

// Option configures an Analyzer
type Option func(*Analyzer)

// WithScanner replaces the regex scanner
func WithScanner(s *scanner.Scanner) Option {
	return func(a *Analyzer) { a.scanner = s }
}

// WithClassifier enables the sensitive and confidential classifier passes
func WithClassifier(r *classifier.Runner) Option {
	return func(a *Analyzer) { a.runner = r }
}

// WithDocumentAnalyzer enables the document-level risk opinion
func WithDocumentAnalyzer(d classifier.DocumentAnalyzer) Option {
	return func(a *Analyzer) { a.document = d }
}

// WithPatterns sets the user pattern source
func WithPatterns(p patterns.Source) Option {
	return func(a *Analyzer) { a.patterns = p }
}

// WithChecksumFilter replaces the post-merge checksum filter
func WithChecksumFilter(c *merge.ChecksumFilter) Option {
	return func(a *Analyzer) { a.checksum = c }
}

// WithConfidenceLevels keeps only spans whose confidence is enabled (see ParseConfidenceLevels)
func WithConfidenceLevels(levels map[string]bool) Option {
	return func(a *Analyzer) { a.levels = levels }
}

// WithMasking adds the masked text to every report
func WithMasking(m *redactors.Masker) Option {
	return func(a *Analyzer) {
		a.mask = true
		if m != nil {
			a.masker = m
		}
	}
}

// WithProgress reports each completed stage
func WithProgress(fn ProgressFunc) Option {
	return func(a *Analyzer) { a.progress = fn }
}

// WithLogger sets the logger
func WithLogger(l zerolog.Logger) Option {
	return func(a *Analyzer) { a.logger = l }
}

// WithObserver records stage timings
func WithObserver(o *observability.StandardObserver) Option {
	return func(a *Analyzer) { a.observer = o }
}

// WithMetrics records scan and span counters
func WithMetrics(m *observability.Metrics) Option {
	return func(a *Analyzer) { a.metrics = m }
}

// NewAnalyzer creates an analyzer. Without options it runs the regex stage,
// the checksum filter and risk aggregation only.
func NewAnalyzer(opts ...Option) *Analyzer {
	a := &Analyzer{
		aggregator: risk.NewAggregator(),
		masker:     redactors.NewMasker(),
		logger:     zerolog.Nop(),
		tracer:     observability.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.scanner == nil {
		a.scanner = scanner.New(scanner.WithObserver(a.observer))
	}
	if a.checksum == nil {
		a.checksum = merge.NewChecksumFilter(nuisance.Default, a.logger)
	}
	return a
}

// Analyze runs the full pipeline over text. Classifier failures only reduce
// the result; the returned error is non-nil only when ctx is already done.
func (a *Analyzer) Analyze(ctx context.Context, text string) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	started := time.Now()
	ctx, span := a.tracer.Start(ctx, "core.Analyze",
		trace.WithAttributes(attribute.Int("document.bytes", len(text))))
	defer span.End()

	doc := detector.NewDocument(text)
	report := &Report{
		ScanID:     uuid.NewString(),
		Characters: doc.Len(),
		CreatedAt:  started.UTC(),
	}
	logger := a.logger.With().Str("scan_id", report.ScanID).Logger()
	logger = logger.Hook(zerolog.HookFunc(func(e *zerolog.Event, _ zerolog.Level, _ string) {
		observability.LogTraceFields(ctx)(e)
	}))

	regex := a.stage("regex", func() []detector.DetectedSpan {
		return a.scanner.ScanDocument(doc)
	})
	report.Stats.Regex = len(regex)

	var sensitive, confidential []detector.DetectedSpan
	if a.runner != nil {
		sensitive = a.stage("sensitive", func() []detector.DetectedSpan {
			return a.runner.Detect(ctx, classifier.KindSensitive, doc)
		})
		confidential = a.stage("confidential", func() []detector.DetectedSpan {
			return a.runner.Detect(ctx, classifier.KindConfidential, doc)
		})
	}
	report.Stats.Sensitive = len(sensitive)
	report.Stats.Confidential = len(confidential)

	user := a.stage("user_patterns", func() []detector.DetectedSpan {
		return patterns.Detect(doc, a.patterns)
	})
	report.Stats.UserPatterns = len(user)

	combined := merge.Combine(regex, sensitive, confidential, user)
	report.Stats.Combined = len(combined)

	spans := a.stage("checksum", func() []detector.DetectedSpan {
		return a.checksum.Apply(combined)
	})
	report.Stats.Excluded = len(combined) - len(spans)

	if a.levels != nil {
		spans = FilterByConfidence(spans, a.levels)
	}
	report.Stats.Filtered = report.Stats.Combined - report.Stats.Excluded - len(spans)

	finish := a.observer.StartTiming("core", "risk", "")
	assessment := a.aggregator.Assess(spans)
	finish(true, map[string]interface{}{"risk_score": assessment.Score})

	report.Stats.DocumentAnalysis = a.analyzeDocument(ctx, logger, text, assessment, spans)
	a.aggregator.Ensure(assessment, spans)

	report.Spans = spans
	report.Risk = assessment
	report.LegalSummary = risk.LegalSummary(spans)
	if a.mask {
		report.Masked = a.masker.Mask(text, spans)
	}
	report.DurationMs = time.Since(started).Milliseconds()

	a.record(report)
	span.SetAttributes(
		attribute.Int("spans", len(spans)),
		attribute.Int("risk.score", assessment.Score),
		attribute.String("risk.level", assessment.Level.Key()),
	)
	logger.Info().
		Int("spans", len(spans)).
		Int("excluded", report.Stats.Excluded).
		Int("risk_score", assessment.Score).
		Str("risk_level", string(assessment.Level)).
		Int64("duration_ms", report.DurationMs).
		Msg("analysis complete")
	return report, nil
}

// analyzeDocument asks the document analyzer for an opinion and applies the
// conservative upgrade
func (a *Analyzer) analyzeDocument(ctx context.Context, logger zerolog.Logger, text string, assessment *risk.Assessment, spans []detector.DetectedSpan) string {
	if a.document == nil {
		return DocumentAnalysisDisabled
	}

	finish := a.observer.StartTiming("core", "document_analysis", "")
	ext, err := a.document.AnalyzeDocument(ctx, text)
	if err != nil || ext == nil {
		finish(false, nil)
		logger.Warn().Err(err).Msg("document analysis unavailable")
		return DocumentAnalysisUnavailable
	}
	finish(true, map[string]interface{}{"risk_score": ext.Score})

	before := assessment.Score
	a.aggregator.Upgrade(assessment, *ext, spans)
	a.notify("document_analysis", 0)
	if assessment.Score > before {
		logger.Info().Int("from", before).Int("to", assessment.Score).Msg("risk upgraded by document analysis")
		return DocumentAnalysisApplied
	}
	return DocumentAnalysisNotHigher
}

func (a *Analyzer) stage(name string, fn func() []detector.DetectedSpan) []detector.DetectedSpan {
	finish := a.observer.StartTiming("core", name, "")
	spans := fn()
	finish(true, map[string]interface{}{"match_count": len(spans)})
	a.notify(name, len(spans))
	return spans
}

func (a *Analyzer) notify(stage string, found int) {
	if a.progress != nil {
		a.progress(stage, found)
	}
}

func (a *Analyzer) record(report *Report) {
	if a.metrics == nil {
		return
	}
	a.metrics.IncrementScan(report.Risk.Score)
	for _, s := range report.Spans {
		a.metrics.AddSpan(s.LegalCategory.Key(), string(s.Method))
	}
}
