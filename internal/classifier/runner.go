// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package classifier

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"kpii-scan/internal/detector"
	"kpii-scan/internal/merge"
	"kpii-scan/internal/observability"
	"kpii-scan/internal/scanner"
)

// Mode selects how documents are presented to the classifier
type Mode string

const (
	// ModeChunk sends every chunk and lets the classifier find spans
	ModeChunk Mode = "chunk"

	// ModeKeyword sends only keyword-triggered suspects for a verdict
	ModeKeyword Mode = "keyword"

	// MaxBatchSize bounds the suspects sent in one verification call
	MaxBatchSize = 10
)

// ParseMode validates a mode name; empty selects ModeChunk
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeChunk:
		return ModeChunk, nil
	case ModeKeyword:
		return ModeKeyword, nil
	}
	return "", fmt.Errorf("unknown classifier mode %q (valid: chunk, keyword)", s)
}

// Runner drives a classifier over whole documents
type Runner struct {
	classifier Classifier
	verifier   SuspectVerifier
	mode       Mode
	chunkSize  int
	overlap    int
	batchSize  int
	timeout    time.Duration
	keywords   map[Kind]scanner.KeywordTable
	logger     zerolog.Logger
	observer   *observability.StandardObserver
}

// RunnerOption configures a Runner
type RunnerOption func(*Runner)

// WithMode selects chunk or keyword mode
func WithMode(m Mode) RunnerOption {
	return func(r *Runner) { r.mode = m }
}

// WithChunking sets the chunk size and overlap in characters
func WithChunking(size, overlap int) RunnerOption {
	return func(r *Runner) {
		if size > 0 {
			r.chunkSize = size
		}
		if overlap >= 0 {
			r.overlap = overlap
		}
	}
}

// WithBatchSize sets the suspects per verification call, capped at MaxBatchSize
func WithBatchSize(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 && n <= MaxBatchSize {
			r.batchSize = n
		}
	}
}

// WithTimeout sets the budget of each classifier call
func WithTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithVerifier sets the suspect verifier used in keyword mode
func WithVerifier(v SuspectVerifier) RunnerOption {
	return func(r *Runner) { r.verifier = v }
}

// WithKeywordTable replaces the trigger keywords for kind
func WithKeywordTable(kind Kind, table scanner.KeywordTable) RunnerOption {
	return func(r *Runner) { r.keywords[kind] = table }
}

// WithRunnerLogger sets the logger
func WithRunnerLogger(l zerolog.Logger) RunnerOption {
	return func(r *Runner) { r.logger = l }
}

// WithRunnerObserver records stage timings
func WithRunnerObserver(o *observability.StandardObserver) RunnerOption {
	return func(r *Runner) { r.observer = o }
}

// NewRunner creates a runner. A classifier that also verifies suspects is used
// for keyword mode unless WithVerifier overrides it.
func NewRunner(c Classifier, opts ...RunnerOption) *Runner {
	r := &Runner{
		classifier: c,
		mode:       ModeChunk,
		chunkSize:  DefaultChunkSize,
		overlap:    DefaultChunkOverlap,
		batchSize:  MaxBatchSize,
		timeout:    DefaultTimeout,
		keywords: map[Kind]scanner.KeywordTable{
			KindSensitive:    scanner.SensitiveKeywords,
			KindConfidential: scanner.ConfidentialKeywords,
		},
		logger: zerolog.Nop(),
	}
	if v, ok := c.(SuspectVerifier); ok {
		r.verifier = v
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Detect returns the deduplicated spans of kind found in doc. Failed or timed
// out calls contribute nothing; Detect itself never fails.
func (r *Runner) Detect(ctx context.Context, kind Kind, doc *detector.Document) []detector.DetectedSpan {
	if r == nil || r.classifier == nil || TooShort(doc.Text()) {
		return nil
	}

	finish := r.observer.StartTiming("classifier", string(kind), "")

	var spans []detector.DetectedSpan
	var failed int
	if r.mode == ModeKeyword && r.verifier != nil {
		spans, failed = r.detectSuspects(ctx, kind, doc)
	} else {
		spans, failed = r.detectChunks(ctx, kind, doc)
	}
	spans = merge.Deduplicate(spans)

	finish(true, map[string]interface{}{"spans": len(spans), "failed_calls": failed})
	r.logger.Info().Str("kind", string(kind)).Int("spans", len(spans)).Int("failed_calls", failed).Msg("classifier pass complete")
	return spans
}

func (r *Runner) detectChunks(ctx context.Context, kind Kind, doc *detector.Document) ([]detector.DetectedSpan, int) {
	chunks := SplitChunks(doc, r.chunkSize, r.overlap)
	r.logger.Debug().Str("kind", string(kind)).Int("chunks", len(chunks)).Msg("document split")

	var spans []detector.DetectedSpan
	failed := 0
	for i, chunk := range chunks {
		callCtx, cancel := context.WithTimeout(WithChunkPosition(ctx, i+1, len(chunks)), r.timeout)
		findings, err := r.classifier.Classify(callCtx, kind, chunk.Text, chunk.Start)
		cancel()
		if err != nil {
			failed++
			r.logger.Warn().Err(err).Str("kind", string(kind)).Int("chunk", i+1).Int("chunks", len(chunks)).Msg("chunk skipped")
			continue
		}
		spans = append(spans, ToSpans(kind, chunk, findings)...)
	}
	return spans, failed
}

func (r *Runner) detectSuspects(ctx context.Context, kind Kind, doc *detector.Document) ([]detector.DetectedSpan, int) {
	suspects := scanner.Suspects(doc, r.keywords[kind])
	r.logger.Debug().Str("kind", string(kind)).Int("suspects", len(suspects)).Msg("keyword suspects")

	var spans []detector.DetectedSpan
	failed := 0
	for start := 0; start < len(suspects); start += r.batchSize {
		batch := suspects[start:min(start+r.batchSize, len(suspects))]

		callCtx, cancel := context.WithTimeout(ctx, r.timeout)
		verdicts, err := r.verifier.VerifySuspects(callCtx, kind, batch)
		cancel()
		if err != nil {
			failed++
			r.logger.Warn().Err(err).Str("kind", string(kind)).Int("batch_start", start).Msg("suspect batch skipped")
			continue
		}

		confirmed := VerdictSpans(kind, doc, batch, verdicts)
		r.logger.Info().Str("kind", string(kind)).Int("suspects", len(batch)).Int("confirmed", len(confirmed)).Msg("suspects verified")
		spans = append(spans, confirmed...)
	}
	return spans, failed
}
