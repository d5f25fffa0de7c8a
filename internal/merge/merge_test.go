// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package merge

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kpii-scan/internal/detector"
	"kpii-scan/internal/validators/nuisance"
)

func span(typ, value string, start, end int, method detector.Method) detector.DetectedSpan {
	return detector.DetectedSpan{Type: typ, Value: value, Start: start, End: end, Method: method}
}

func TestOverlaps(t *testing.T) {
	assert.True(t, Overlaps(0, 10, 5, 15))
	assert.True(t, Overlaps(5, 15, 0, 10))
	assert.True(t, Overlaps(0, 10, 2, 3))
	assert.False(t, Overlaps(0, 10, 10, 20), "touching ranges do not overlap")
	assert.False(t, Overlaps(10, 20, 0, 10))
}

func TestMergeKeywordHits(t *testing.T) {
	doc := detector.NewDocument(strings.Repeat("가", 1000))
	hits := []KeywordHit{
		{Category: "건강정보", Keyword: "진단", Start: 250, End: 252, ContextStart: 50, ContextEnd: 452},
		{Category: "건강정보", Keyword: "입원", Start: 10, End: 12, ContextStart: 0, ContextEnd: 212},
		{Category: "범죄경력", Keyword: "전과", Start: 100, End: 102, ContextStart: 0, ContextEnd: 302},
		{Category: "건강정보", Keyword: "진단", Start: 700, End: 702, ContextStart: 500, ContextEnd: 902},
	}

	got := MergeKeywordHits(doc, hits)
	require.Len(t, got, 2)

	assert.Equal(t, 10, got[0].Start)
	assert.Equal(t, 252, got[0].End)
	assert.Equal(t, []string{"건강정보", "범죄경력"}, got[0].Categories)
	assert.Equal(t, []string{"입원", "전과", "진단"}, got[0].Keywords)
	assert.Equal(t, 0, got[0].ContextStart)
	assert.Equal(t, 452, detector.RuneLen(got[0].Context))

	assert.Equal(t, 700, got[1].Start)
	assert.Equal(t, []string{"진단"}, got[1].Keywords)

	assert.Nil(t, MergeKeywordHits(doc, nil))
}

func TestMergeKeywordHitsGapBoundary(t *testing.T) {
	doc := detector.NewDocument(strings.Repeat("a", 600))
	hits := []KeywordHit{
		{Category: "c", Keyword: "k1", Start: 0, End: 2},
		{Category: "c", Keyword: "k2", Start: 201, End: 203},
		{Category: "c", Keyword: "k3", Start: 403, End: 405},
	}
	got := MergeKeywordHits(doc, hits)
	require.Len(t, got, 2)
	assert.Equal(t, []string{"k1", "k2"}, got[0].Keywords)
	assert.Equal(t, []string{"k3"}, got[1].Keywords)
}

func TestCombine(t *testing.T) {
	regex := []detector.DetectedSpan{
		span(detector.TypeRRN, "a", 50, 64, detector.MethodRegex),
		span(detector.TypeEmail, "b", 0, 10, detector.MethodRegex),
	}
	sensitive := []detector.DetectedSpan{
		span("건강정보", "c", 60, 80, detector.MethodLLM),
		span("건강정보", "d", 100, 120, detector.MethodLLM),
	}
	user := []detector.DetectedSpan{
		span("사용자정의:x", "e", 110, 115, detector.MethodUserPattern),
		span("사용자정의:x", "f", 200, 205, detector.MethodUserPattern),
	}

	got := Combine(regex, sensitive, user)
	var values []string
	for _, s := range got {
		values = append(values, s.Value)
	}
	assert.Equal(t, []string{"b", "a", "d", "f"}, values)
	assert.Len(t, regex, 2, "input is not modified")
}

func TestDeduplicate(t *testing.T) {
	spans := []detector.DetectedSpan{
		span("건강정보", "당뇨 진단", 100, 110, detector.MethodLLM),
		span("건강정보", "당뇨 진단", 500, 510, detector.MethodLLM),
		span("건강정보", "진단 결과", 104, 114, detector.MethodLLM),
		span("건강정보", "입원 치료", 107, 127, detector.MethodLLM),
		span("건강정보", "", 0, 0, detector.MethodLLM),
	}

	got := Deduplicate(spans)
	var values []string
	for _, s := range got {
		values = append(values, s.Value)
	}
	// "진단 결과" overlaps 6 of 10 characters; "입원 치료" only 3 of 20
	assert.Equal(t, []string{"", "당뇨 진단", "입원 치료"}, values)
}

func TestDeduplicateKeepsHalfOverlap(t *testing.T) {
	spans := []detector.DetectedSpan{
		span("건강정보", "당뇨 진단 결과", 100, 110, detector.MethodLLM),
		span("건강정보", "결과 입원 치료", 105, 115, detector.MethodLLM),
		span("건강정보", "치료 후 통원", 109, 119, detector.MethodLLM),
	}

	got := Deduplicate(spans)
	var values []string
	for _, s := range got {
		values = append(values, s.Value)
	}
	// 5 of 10 characters is not more than half; the third span shares 6 with the second
	assert.Equal(t, []string{"당뇨 진단 결과", "결과 입원 치료"}, values)
}

func TestDeduplicateValueKeyUsesPrefix(t *testing.T) {
	long := strings.Repeat("가", 60)
	spans := []detector.DetectedSpan{
		span("영업비밀", long+"A", 0, 61, detector.MethodLLM),
		span("영업비밀", long+"B", 1000, 1061, detector.MethodLLM),
	}
	assert.Len(t, Deduplicate(spans), 1)
}

func TestHasTestPattern(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"900101-1234567", true},
		{"a000000b", true},
		{"010-5555-1234", true},
		{"4532-0151-1283-0366", false},
		{"hong@example.com", false},
		{"12-34-555", false},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.want, HasTestPattern(tt.value))
		})
	}
}

func TestChecksumFilter(t *testing.T) {
	f := NewChecksumFilter(nuisance.Default, zerolog.Nop())

	spans := []detector.DetectedSpan{
		span("범죄경력", "피의자 850615-1789010 진술", 0, 20, detector.MethodLLM),
		span("범죄경력", "피의자 850615-1789011 진술", 30, 50, detector.MethodLLM),
		span("영업비밀", "결제 카드 4532-0151-1283-0366", 60, 80, detector.MethodLLM),
		span("영업비밀", "결제 카드 4532-0151-1283-0367", 90, 110, detector.MethodLLM),
		span(detector.TypeAccount, "3330-19-4827153", 120, 135, detector.MethodRegex),
		span(detector.TypeAccount, "1111-22-3333333", 140, 155, detector.MethodRegex),
	}

	got := f.Apply(spans)
	var starts []int
	for _, s := range got {
		starts = append(starts, s.Start)
	}
	assert.Equal(t, []int{0, 60, 120}, starts)
	assert.Nil(t, f.Apply(nil))
}
