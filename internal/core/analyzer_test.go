// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package core

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kpii-scan/internal/classifier"
	"kpii-scan/internal/detector"
	"kpii-scan/internal/patterns"
	"kpii-scan/internal/risk"
)

const personnelRecord = "성명: 홍길동\n주민등록번호: 850615-1789010\n휴대폰: 010-9876-5432\n이메일: hong.gildong@company.co.kr"

const consultation = "고객 상담 기록입니다. 홍길동 과장은 최근 우울증 진단을 받아 치료 중이며 매주 교회 예배에 참석합니다. 이 문서는 사내 보관용입니다."

func consultationStub() *classifier.Stub {
	return classifier.NewStub(map[classifier.Kind][]classifier.Finding{
		classifier.KindSensitive: {
			{Type: "건강정보", Value: "우울증 진단", Person: "홍길동 과장"},
		},
		classifier.KindConfidential: {
			{Type: "영업비밀", Value: "사내 보관용"},
		},
	})
}

func typesOf(spans []detector.DetectedSpan) []string {
	var out []string
	for _, s := range spans {
		out = append(out, s.Type)
	}
	return out
}

func TestAnalyzeRegexOnly(t *testing.T) {
	report, err := NewAnalyzer().Analyze(context.Background(), personnelRecord)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{detector.TypeRRN, detector.TypeMobile, detector.TypeEmail}, typesOf(report.Spans))
	assert.Equal(t, 3, report.Stats.Regex)
	assert.Equal(t, 0, report.Stats.Sensitive)
	assert.Equal(t, 3, report.Stats.Combined)
	assert.Equal(t, DocumentAnalysisDisabled, report.Stats.DocumentAnalysis)
	assert.NotEmpty(t, report.ScanID)
	assert.Equal(t, detector.RuneLen(personnelRecord), report.Characters)
	assert.Empty(t, report.Masked)

	require.NotNil(t, report.Risk)
	assert.Equal(t, risk.LevelFor(report.Risk.Score), report.Risk.Level)
	assert.Contains(t, report.Risk.LegalViolations, "제24조(고유식별정보 처리제한)")
	assert.GreaterOrEqual(t, len(report.Risk.Recommendations), risk.MinRecommendations)
	assert.NotEmpty(t, report.LegalSummary)
	assert.True(t, report.HasFindings())
	assert.Equal(t, 1, report.CountByType()[detector.TypeRRN])
}

func TestAnalyzeEmptyDocument(t *testing.T) {
	report, err := NewAnalyzer().Analyze(context.Background(), "")
	require.NoError(t, err)

	assert.Empty(t, report.Spans)
	assert.Equal(t, 0, report.Risk.Score)
	assert.Equal(t, risk.LevelLow, report.Risk.Level)
	assert.Len(t, report.Risk.Recommendations, risk.MinRecommendations)
	assert.False(t, report.HasFindings())
}

func TestAnalyzeCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := NewAnalyzer().Analyze(ctx, personnelRecord)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, report)
}

func TestAnalyzeWithClassifier(t *testing.T) {
	stub := consultationStub()
	a := NewAnalyzer(WithClassifier(classifier.NewRunner(stub)))

	report, err := a.Analyze(context.Background(), consultation)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Stats.Sensitive)
	assert.Equal(t, 1, report.Stats.Confidential)
	assert.Equal(t, 1, stub.Calls(classifier.KindSensitive))
	assert.Equal(t, 1, stub.Calls(classifier.KindConfidential))
	assert.Equal(t, 1, report.Risk.CategorySummary[detector.CategorySensitive])
	assert.Equal(t, 1, report.Risk.CategorySummary[detector.CategoryTradeSecret])
}

func TestAnalyzeClassifierFailureDegrades(t *testing.T) {
	stub := consultationStub()
	stub.Err = errors.New("connection refused")
	a := NewAnalyzer(WithClassifier(classifier.NewRunner(stub)), WithDocumentAnalyzer(stub))

	report, err := a.Analyze(context.Background(), consultation+" 주민등록번호: 850615-1789010")
	require.NoError(t, err)

	assert.Equal(t, 0, report.Stats.Sensitive)
	assert.Equal(t, 0, report.Stats.Confidential)
	assert.Equal(t, []string{detector.TypeRRN}, typesOf(report.Spans))
	assert.Equal(t, DocumentAnalysisUnavailable, report.Stats.DocumentAnalysis)
}

func TestAnalyzeDocumentUpgrade(t *testing.T) {
	stub := consultationStub()
	stub.Document = &risk.External{
		Level:           "심각",
		Score:           95,
		Reasoning:       "건강정보와 영업비밀이 함께 노출됨",
		Recommendations: []string{"문서 열람 권한을 제한하세요"},
	}
	a := NewAnalyzer(WithDocumentAnalyzer(stub))

	report, err := a.Analyze(context.Background(), personnelRecord)
	require.NoError(t, err)

	assert.Equal(t, DocumentAnalysisApplied, report.Stats.DocumentAnalysis)
	assert.Equal(t, 95, report.Risk.Score)
	assert.Equal(t, risk.LevelCritical, report.Risk.Level)
	assert.True(t, report.Risk.Upgraded)
	assert.Contains(t, report.Risk.Recommendations, "문서 열람 권한을 제한하세요")
	assert.LessOrEqual(t, len(report.Risk.Recommendations), risk.MaxRecommendations)
}

func TestAnalyzeDocumentNotHigher(t *testing.T) {
	stub := consultationStub()
	stub.Document = &risk.External{Level: "낮음", Score: 1}
	a := NewAnalyzer(WithDocumentAnalyzer(stub))

	baseline, err := NewAnalyzer().Analyze(context.Background(), personnelRecord)
	require.NoError(t, err)
	report, err := a.Analyze(context.Background(), personnelRecord)
	require.NoError(t, err)

	assert.Equal(t, DocumentAnalysisNotHigher, report.Stats.DocumentAnalysis)
	assert.Equal(t, baseline.Risk.Score, report.Risk.Score)
	assert.False(t, report.Risk.Upgraded)
}

func TestAnalyzeUserPatterns(t *testing.T) {
	store, err := patterns.NewMemoryStore(
		patterns.Pattern{Pattern: "오로라 프로젝트", Score: 12},
		patterns.Pattern{Pattern: `AUR-\d{4}`, Kind: patterns.KindRegex},
	)
	require.NoError(t, err)

	report, err := NewAnalyzer(WithPatterns(store)).Analyze(context.Background(), "오로라 프로젝트 문서번호 aur-2024 배포 금지")
	require.NoError(t, err)

	assert.Equal(t, 2, report.Stats.UserPatterns)
	require.Len(t, report.Spans, 2)
	for _, s := range report.Spans {
		assert.Equal(t, detector.MethodUserPattern, s.Method)
		assert.Equal(t, detector.CategoryUserDefined, s.LegalCategory)
	}
	assert.Equal(t, 2, report.Risk.CategorySummary[detector.CategoryUserDefined])
}

func TestAnalyzeConfidenceFilter(t *testing.T) {
	report, err := NewAnalyzer(WithConfidenceLevels(ParseConfidenceLevels("low"))).
		Analyze(context.Background(), personnelRecord)
	require.NoError(t, err)

	assert.Empty(t, report.Spans)
	assert.Equal(t, 3, report.Stats.Filtered)
	assert.Equal(t, 0, report.Risk.Score)
}

func TestAnalyzeMasking(t *testing.T) {
	report, err := NewAnalyzer(WithMasking(nil)).Analyze(context.Background(), personnelRecord)
	require.NoError(t, err)

	assert.Contains(t, report.Masked, "성명: 홍길동")
	assert.Contains(t, report.Masked, "8506**********")
	assert.Contains(t, report.Masked, "010-****-5432")
	assert.Contains(t, report.Masked, "@company.co.kr")
	assert.NotContains(t, report.Masked, "1789010")
	assert.NotContains(t, report.Masked, "hong.gildong")
}

func TestAnalyzeProgress(t *testing.T) {
	var mu sync.Mutex
	var stages []string
	a := NewAnalyzer(
		WithClassifier(classifier.NewRunner(consultationStub())),
		WithProgress(func(stage string, _ int) {
			mu.Lock()
			defer mu.Unlock()
			stages = append(stages, stage)
		}),
	)

	_, err := a.Analyze(context.Background(), consultation)
	require.NoError(t, err)
	assert.Equal(t, []string{"regex", "sensitive", "confidential", "user_patterns", "checksum"}, stages)
}
