// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package classifier

import (
	"slices"
	"strings"

	"kpii-scan/internal/detector"
	"kpii-scan/internal/merge"
)

const (
	minValueChars     = 2
	maxValueChars     = 100
	findingContext    = 50
	minAnchorWordChar = 4
)

var sensitiveTypes = map[string]string{
	"건강정보":    "건강정보",
	"사상신념":    "사상_신념",
	"사상_신념":   "사상_신념",
	"사상·신념":   "사상_신념",
	"종교":      "사상_신념",
	"노동조합정당":  "노동조합_정당",
	"노동조합_정당": "노동조합_정당",
	"노동조합":    "노동조합_정당",
	"정당":      "노동조합_정당",
	"정치적견해":   "정치적_견해",
	"정치적_견해":  "정치적_견해",
	"정치":      "정치적_견해",
	"성생활":     "성생활",
	"범죄경력":    "범죄경력",
	"범죄":      "범죄경력",
}

// NormalizeSensitiveType maps the classifier's type spellings onto the six
// sensitive-information classes. Unknown types pass through unchanged.
func NormalizeSensitiveType(t string) string {
	t = strings.TrimSpace(t)
	if t == "" {
		return KindSensitive.DefaultType()
	}
	if mapped, ok := sensitiveTypes[t]; ok {
		return mapped
	}
	return t
}

// locate finds value in chunk. It falls back to the longest word of value
// with at least minAnchorWordChar characters, then to the chunk start.
func locate(chunk *detector.Document, value string) int {
	if pos := chunk.Index(value, 0); pos >= 0 {
		return pos
	}

	words := strings.Fields(value)
	slices.SortStableFunc(words, func(a, b string) int {
		return detector.RuneLen(b) - detector.RuneLen(a)
	})
	for _, w := range words {
		if detector.RuneLen(w) < minAnchorWordChar {
			break
		}
		if pos := chunk.Index(w, 0); pos >= 0 {
			return pos
		}
	}
	return 0
}

func (k Kind) spanType(t string) string {
	if k == KindSensitive {
		return NormalizeSensitiveType(t)
	}
	if t = strings.TrimSpace(t); t != "" {
		return t
	}
	return k.DefaultType()
}

func (k Kind) newSpan(infoType, value string, start, end int, context string) detector.DetectedSpan {
	return detector.DetectedSpan{
		Type:               k.spanType(infoType),
		Value:              detector.Truncate(value, maxValueChars),
		Start:              start,
		End:                end,
		Context:            context,
		Method:             detector.MethodLLM,
		Confidence:         detector.ConfidenceHigh,
		LegalCategory:      k.Category(),
		ExposureProhibited: k == KindConfidential,
	}
}

// ToSpans anchors chunk-local findings in document coordinates
func ToSpans(kind Kind, chunk Chunk, findings []Finding) []detector.DetectedSpan {
	doc := detector.NewDocument(chunk.Text)
	var spans []detector.DetectedSpan
	for _, f := range findings {
		value := strings.TrimSpace(f.Value)
		if detector.RuneLen(value) < minValueChars {
			continue
		}

		pos := locate(doc, value)
		length := detector.RuneLen(value)
		start := chunk.Start + pos
		end := min(start+length, chunk.End)

		span := kind.newSpan(f.Type, value, start, end, doc.Slice(pos-findingContext, pos+length+findingContext))
		span.Person = f.Person
		span.Reason = f.Reason
		span.Indicator = f.Indicator
		spans = append(spans, span)
	}
	return spans
}

// VerdictSpans turns confirmed verdicts into spans. The value is searched in
// the whole document and falls back to the suspect's position.
func VerdictSpans(kind Kind, doc *detector.Document, suspects []merge.Suspect, verdicts []Verdict) []detector.DetectedSpan {
	var spans []detector.DetectedSpan
	for _, v := range verdicts {
		if !v.Confirmed || v.Index < 0 || v.Index >= len(suspects) {
			continue
		}
		s := suspects[v.Index]

		value := strings.TrimSpace(v.Value)
		if value == "" && len(s.Keywords) > 0 {
			value = s.Keywords[0]
		}
		if value == "" {
			continue
		}

		start := doc.Index(value, 0)
		if start < 0 {
			start = s.Start
		}

		infoType := v.Type
		if strings.TrimSpace(infoType) == "" && len(s.Categories) > 0 {
			infoType = s.Categories[0]
		}

		span := kind.newSpan(infoType, value, start, min(start+detector.RuneLen(value), doc.Len()), s.Context)
		span.Person = v.Person
		span.Reason = v.Reason
		span.Indicator = v.Indicator
		spans = append(spans, span)
	}
	return spans
}
