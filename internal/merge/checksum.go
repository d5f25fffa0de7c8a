// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package merge

import (
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"kpii-scan/internal/detector"
	"kpii-scan/internal/validators/creditcard"
	"kpii-scan/internal/validators/nuisance"
	"kpii-scan/internal/validators/rrn"
)

var (
	testSubstrings = []string{"1234567", "0000000", "1111111", "123456", "000000"}
	digitRun       = regexp.MustCompile(`\d+`)
	rrnShape       = regexp.MustCompile(`\d{6}[\s-]?\d{7}`)
	cardShape      = regexp.MustCompile(`\d{4}[\s-]?\d{4}[\s-]?\d{4}[\s-]?\d{4}`)
	separators     = strings.NewReplacer(" ", "", "\t", "", "\n", "", "\r", "", "-", "")
)

// ChecksumFilter removes dummy values and embedded identifiers that fail their
// checksum from the combined result list. Classifier and user-pattern spans
// never went through a validator, so this is their only numeric gate.
type ChecksumFilter struct {
	resident *rrn.Validator
	foreign  *rrn.Validator
	card     *creditcard.Validator
	logger   zerolog.Logger
}

// NewChecksumFilter creates a filter that validates through the given nuisance tables
func NewChecksumFilter(f *nuisance.Filter, logger zerolog.Logger) *ChecksumFilter {
	return &ChecksumFilter{
		resident: rrn.NewResident().WithFilter(f),
		foreign:  rrn.NewForeign().WithFilter(f),
		card:     creditcard.NewValidator().WithFilter(f),
		logger:   logger,
	}
}

// Apply returns the spans that survive the filter, preserving order
func (c *ChecksumFilter) Apply(spans []detector.DetectedSpan) []detector.DetectedSpan {
	if len(spans) == 0 {
		return nil
	}

	out := make([]detector.DetectedSpan, 0, len(spans))
	for _, span := range spans {
		if reason := c.ExcludeReason(span); reason != "" {
			c.logger.Debug().
				Str("type", span.Type).
				Str("reason", reason).
				Msg("span excluded by checksum filter")
			continue
		}
		out = append(out, span)
	}
	if excluded := len(spans) - len(out); excluded > 0 {
		c.logger.Info().Int("excluded", excluded).Msg("checksum filter removed spans")
	}
	return out
}

// ExcludeReason returns why the span is dropped, or "" when it is kept.
// Regex spans were validated for their own type and skip the embedded-identifier checks.
func (c *ChecksumFilter) ExcludeReason(span detector.DetectedSpan) string {
	if HasTestPattern(span.Value) {
		return "test pattern"
	}
	if span.Method == detector.MethodRegex {
		return ""
	}

	for _, m := range rrnShape.FindAllString(span.Value, -1) {
		clean := separators.Replace(m)
		if len(clean) != 13 {
			continue
		}
		candidate := clean[:6] + "-" + clean[6:]
		if !c.resident.ValidateFull(candidate, "").Valid && !c.foreign.ValidateFull(candidate, "").Valid {
			return "registration number checksum"
		}
	}

	for _, m := range cardShape.FindAllString(span.Value, -1) {
		clean := separators.Replace(m)
		if len(clean) == 16 && !c.card.ValidateFull(clean, "").Valid {
			return "card luhn"
		}
	}
	return ""
}

// HasTestPattern reports whether value contains a well-known dummy digit sequence
// or any digit repeated four or more times in a row
func HasTestPattern(value string) bool {
	for _, s := range testSubstrings {
		if strings.Contains(value, s) {
			return true
		}
	}
	for _, run := range digitRun.FindAllString(value, -1) {
		if nuisance.HasRepeatRun(run, 4) {
			return true
		}
	}
	return false
}
