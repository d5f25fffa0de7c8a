// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package merge reconciles spans coming from different detection sources:
// keyword hits are coalesced into classifier contexts, overlapping results
// are dropped and dummy values are filtered after the sources are combined.
package merge

import (
	"slices"
	"sort"

	"kpii-scan/internal/detector"
)

const (
	// KeywordGap is the largest distance between two keyword hits that still share one context
	KeywordGap = 200

	// DedupOverlapRatio is the share of a candidate that may overlap an accepted span
	DedupOverlapRatio = 0.5

	// DedupValueKey is the number of leading value characters compared for duplicates
	DedupValueKey = 50
)

// KeywordHit is one keyword occurrence found by the keyword scan
type KeywordHit struct {
	Category     string
	Keyword      string
	Start        int
	End          int
	ContextStart int
	ContextEnd   int
	Context      string
}

// Suspect is a coalesced run of keyword hits handed to the classifier for a verdict
type Suspect struct {
	Categories   []string `json:"categories"`
	Keywords     []string `json:"keywords"`
	Start        int      `json:"start"`
	End          int      `json:"end"`
	ContextStart int      `json:"context_start"`
	Context      string   `json:"context"`
}

// Overlaps reports whether [start1, end1) and [start2, end2) intersect
func Overlaps(start1, end1, start2, end2 int) bool {
	return !(end1 <= start2 || end2 <= start1)
}

// MergeKeywordHits sorts hits by position and unions every hit that starts less than
// KeywordGap characters after the end of the current run. Categories and keywords
// accumulate in first-seen order; the context grows to cover every merged hit.
func MergeKeywordHits(doc *detector.Document, hits []KeywordHit) []Suspect {
	if len(hits) == 0 {
		return nil
	}

	sorted := slices.Clone(hits)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	var (
		merged     []Suspect
		contextEnd int
	)
	open := func(h KeywordHit) Suspect {
		contextEnd = h.ContextEnd
		return Suspect{
			Categories:   []string{h.Category},
			Keywords:     []string{h.Keyword},
			Start:        h.Start,
			End:          h.End,
			ContextStart: h.ContextStart,
		}
	}
	closeRun := func(s Suspect) {
		s.Context = doc.Slice(s.ContextStart, contextEnd)
		merged = append(merged, s)
	}

	current := open(sorted[0])
	for _, h := range sorted[1:] {
		if h.Start-current.End < KeywordGap {
			current.End = max(current.End, h.End)
			contextEnd = max(contextEnd, h.ContextEnd)
			if !slices.Contains(current.Categories, h.Category) {
				current.Categories = append(current.Categories, h.Category)
			}
			if !slices.Contains(current.Keywords, h.Keyword) {
				current.Keywords = append(current.Keywords, h.Keyword)
			}
			continue
		}
		closeRun(current)
		current = open(h)
	}
	closeRun(current)
	return merged
}

// Combine appends every span of the extra sources that does not intersect a span
// already kept, in source order, and returns the result sorted by start offset.
// Spans of base are kept unconditionally.
func Combine(base []detector.DetectedSpan, extra ...[]detector.DetectedSpan) []detector.DetectedSpan {
	out := slices.Clone(base)
	for _, source := range extra {
		for _, span := range source {
			if intersectsAny(span, out) {
				continue
			}
			out = append(out, span)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

func intersectsAny(span detector.DetectedSpan, kept []detector.DetectedSpan) bool {
	for _, k := range kept {
		if Overlaps(span.Start, span.End, k.Start, k.End) {
			return true
		}
	}
	return false
}

// Deduplicate walks spans in start order and drops a candidate when its first
// DedupValueKey characters repeat an accepted value or when more than
// DedupOverlapRatio of its own length is covered by one accepted span.
func Deduplicate(spans []detector.DetectedSpan) []detector.DetectedSpan {
	if len(spans) == 0 {
		return nil
	}

	sorted := slices.Clone(spans)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	seen := make(map[string]struct{}, len(sorted))
	out := make([]detector.DetectedSpan, 0, len(sorted))
	for _, span := range sorted {
		key := detector.Truncate(span.Value, DedupValueKey)
		if _, dup := seen[key]; dup {
			continue
		}
		if mostlyCovered(span, out) {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, span)
	}
	return out
}

func mostlyCovered(span detector.DetectedSpan, kept []detector.DetectedSpan) bool {
	length := span.Len()
	if length <= 0 {
		return false
	}
	for _, k := range kept {
		overlap := min(span.End, k.End) - max(span.Start, k.Start)
		if overlap > 0 && float64(overlap)/float64(length) > DedupOverlapRatio {
			return true
		}
	}
	return false
}
