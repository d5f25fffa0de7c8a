// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package redactors

import (
	"sort"

	"kpii-scan/internal/detector"
)

// IdentifierPrefix is the number of leading characters kept for identifiers and card/account numbers
const IdentifierPrefix = 4

// RedactionMapping records one replacement made by Mask
type RedactionMapping struct {
	// Type is the detection type of the masked span
	Type string `json:"type" yaml:"type"`

	// Start and End are character offsets of the replacement in the masked text
	Start int `json:"start" yaml:"start"`
	End   int `json:"end" yaml:"end"`

	// RedactedText is the replacement text
	RedactedText string `json:"redacted_text" yaml:"redacted_text"`

	// Strategy is the strategy used
	Strategy string `json:"strategy" yaml:"strategy"`
}

// Masker chooses a strategy per detection type and applies it to text
type Masker struct {
	strategies map[string]Strategy
	fallback   Strategy
}

// NewMasker creates a masker with the built-in strategy table
func NewMasker() *Masker {
	keep := KeepPrefixStrategy{Keep: IdentifierPrefix}
	middle := MiddleGroupStrategy{}
	return &Masker{
		strategies: map[string]Strategy{
			detector.TypeRRN:           keep,
			detector.TypeForeignRRN:    keep,
			detector.TypePassport:      keep,
			detector.TypeDriverLicense: keep,
			detector.TypeCard:          keep,
			detector.TypeAccount:       keep,
			detector.TypeMobile:        middle,
			detector.TypePhone:         middle,
			detector.TypeEmail:         LocalPartStrategy{},
		},
		fallback: FullStrategy{},
	}
}

// WithStrategy overrides the strategy for one detection type
func (m *Masker) WithStrategy(infoType string, s Strategy) *Masker {
	m.strategies[infoType] = s
	return m
}

// WithFallback replaces the strategy used for types without an entry
func (m *Masker) WithFallback(s Strategy) *Masker {
	m.fallback = s
	return m
}

// StrategyFor returns the strategy applied to a detection type. Qualifiers such
// as "(의심)" are ignored.
func (m *Masker) StrategyFor(infoType string) Strategy {
	if s, ok := m.strategies[detector.BaseType(infoType)]; ok {
		return s
	}
	return m.fallback
}

// Mask returns text with every span replaced by its masked form
func (m *Masker) Mask(text string, spans []detector.DetectedSpan) string {
	masked, _ := m.MaskWithMappings(text, spans)
	return masked
}

// MaskWithMappings masks text and reports each replacement. Spans are applied
// in start order; a running offset keeps later spans aligned when a strategy
// changes the length of an earlier one. Spans outside the text are skipped and
// a span overlapping an earlier one is clipped to the unmasked remainder.
func (m *Masker) MaskWithMappings(text string, spans []detector.DetectedSpan) (string, []RedactionMapping) {
	if len(spans) == 0 {
		return text, nil
	}

	ordered := make([]detector.DetectedSpan, len(spans))
	copy(ordered, spans)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Start < ordered[j].Start
	})

	runes := []rune(text)
	originalLen := len(runes)
	offset := 0
	covered := 0
	var mappings []RedactionMapping

	for _, span := range ordered {
		start, end := span.Start, span.End
		if start < 0 || end > originalLen {
			continue
		}
		if start < covered {
			start = covered
		}
		if start >= end {
			continue
		}

		s, e := start+offset, end+offset
		strategy := m.StrategyFor(span.Type)
		replacement := []rune(strategy.Redact(string(runes[s:e])))

		next := make([]rune, 0, len(runes)-(e-s)+len(replacement))
		next = append(next, runes[:s]...)
		next = append(next, replacement...)
		next = append(next, runes[e:]...)
		runes = next

		mappings = append(mappings, RedactionMapping{
			Type:         span.Type,
			Start:        s,
			End:          s + len(replacement),
			RedactedText: string(replacement),
			Strategy:     strategy.GetStrategyType().String(),
		})
		offset += len(replacement) - (end - start)
		covered = end
	}
	return string(runes), mappings
}

var defaultMasker = NewMasker()

// Mask masks spans in text with the built-in strategy table
func Mask(text string, spans []detector.DetectedSpan) string {
	return defaultMasker.Mask(text, spans)
}
