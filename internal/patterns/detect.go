// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package patterns

import (
	"strings"
	"unicode"

	"kpii-scan/internal/detector"
)

// ContextChars is the context window on each side of a user-pattern hit
const ContextChars = 50

// Detect finds every enabled pattern of source in doc. Regex patterns match
// case-insensitively; keywords are searched in lowercase and may overlap.
func Detect(doc *detector.Document, source Source) []detector.DetectedSpan {
	if source == nil {
		return nil
	}

	var spans []detector.DetectedSpan
	for _, p := range source.EnabledPatterns() {
		switch p.Kind {
		case KindRegex:
			if p.compiled == nil {
				continue
			}
			for _, loc := range p.compiled.FindAllStringIndex(doc.Text(), -1) {
				if loc[0] == loc[1] {
					continue
				}
				start, end := doc.RuneIndex(loc[0]), doc.RuneIndex(loc[1])
				spans = append(spans, newSpan(doc, p, start, end))
			}
		default:
			needle := strings.Map(unicode.ToLower, p.Pattern)
			length := detector.RuneLen(needle)
			if length == 0 {
				continue
			}
			lower := doc.Lower()
			for pos := lower.Index(needle, 0); pos >= 0; pos = lower.Index(needle, pos+1) {
				spans = append(spans, newSpan(doc, p, pos, pos+length))
			}
		}
	}
	return spans
}

func newSpan(doc *detector.Document, p Pattern, start, end int) detector.DetectedSpan {
	score := p.Score
	return detector.DetectedSpan{
		Type:          detector.UserPatternPrefix + p.DisplayName(),
		Value:         doc.Slice(start, end),
		Start:         start,
		End:           end,
		Context:       doc.Slice(start-ContextChars, end+ContextChars),
		Method:        detector.MethodUserPattern,
		Confidence:    detector.ConfidenceHigh,
		LegalCategory: detector.CategoryUserDefined,
		Score:         &score,
		PatternName:   p.DisplayName(),
	}
}
