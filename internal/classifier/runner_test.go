// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package classifier

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kpii-scan/internal/detector"
	"kpii-scan/internal/risk"
)

const consultation = "고객 상담 기록입니다. 홍길동 과장은 최근 우울증 진단을 받아 치료 중이며 매주 교회 예배에 참석합니다. 이 문서는 사내 보관용입니다."

func sensitiveStub() *Stub {
	return NewStub(map[Kind][]Finding{
		KindSensitive: {
			{Type: "건강정보", Value: "우울증 진단", Person: "홍길동 과장"},
			{Type: "종교", Value: "교회 예배", Person: "홍길동 과장"},
		},
		KindConfidential: {
			{Type: "영업비밀", Value: "사내 보관용"},
		},
	})
}

type blockingClassifier struct{}

func (blockingClassifier) Classify(ctx context.Context, _ Kind, _ string, _ int) ([]Finding, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestRunnerChunkMode(t *testing.T) {
	doc := detector.NewDocument(consultation)
	stub := sensitiveStub()
	spans := NewRunner(stub).Detect(context.Background(), KindSensitive, doc)

	require.Len(t, spans, 2)
	assert.Equal(t, "건강정보", spans[0].Type)
	assert.Equal(t, doc.Index("우울증 진단", 0), spans[0].Start)
	assert.Equal(t, "사상_신념", spans[1].Type)
	assert.Equal(t, doc.Index("교회 예배", 0), spans[1].Start)
	assert.Equal(t, 1, stub.Calls(KindSensitive))

	confidential := NewRunner(stub).Detect(context.Background(), KindConfidential, doc)
	require.Len(t, confidential, 1)
	assert.True(t, confidential[0].ExposureProhibited)
}

func TestRunnerSkipsShortDocuments(t *testing.T) {
	stub := sensitiveStub()
	spans := NewRunner(stub).Detect(context.Background(), KindSensitive, detector.NewDocument("우울증 진단"))
	assert.Empty(t, spans)
	assert.Equal(t, 0, stub.Calls(KindSensitive))
}

func TestRunnerDeduplicatesOverlap(t *testing.T) {
	doc := detector.NewDocument(strings.Repeat("가", 1400) + "우울증 진단" + strings.Repeat("나", 600))
	stub := sensitiveStub()

	spans := NewRunner(stub).Detect(context.Background(), KindSensitive, doc)
	require.Len(t, spans, 1)
	assert.Equal(t, 1400, spans[0].Start)
	assert.Equal(t, 2, stub.Calls(KindSensitive))
}

func TestRunnerDegradesOnFailure(t *testing.T) {
	stub := sensitiveStub()
	stub.Err = errors.New("classifier unavailable")

	spans := NewRunner(stub).Detect(context.Background(), KindSensitive, detector.NewDocument(consultation))
	assert.Empty(t, spans)
}

func TestRunnerTimeout(t *testing.T) {
	r := NewRunner(blockingClassifier{}, WithTimeout(20*time.Millisecond))

	start := time.Now()
	spans := r.Detect(context.Background(), KindSensitive, detector.NewDocument(consultation))
	assert.Empty(t, spans)
	assert.Less(t, time.Since(start), time.Second)
}

func TestRunnerKeywordMode(t *testing.T) {
	doc := detector.NewDocument(consultation)
	stub := sensitiveStub()

	spans := NewRunner(stub, WithMode(ModeKeyword)).Detect(context.Background(), KindSensitive, doc)
	require.Len(t, spans, 1)
	assert.Equal(t, "우울증 진단", spans[0].Value)
	assert.Equal(t, doc.Index("우울증 진단", 0), spans[0].Start)
	assert.Equal(t, "홍길동 과장", spans[0].Person)
}

func TestRunnerKeywordModeWithoutVerifier(t *testing.T) {
	spans := NewRunner(blockingClassifier{}, WithMode(ModeKeyword), WithTimeout(10*time.Millisecond)).
		Detect(context.Background(), KindSensitive, detector.NewDocument(consultation))
	assert.Empty(t, spans)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeChunk, m)

	m, err = ParseMode("keyword")
	require.NoError(t, err)
	assert.Equal(t, ModeKeyword, m)

	_, err = ParseMode("batch")
	assert.Error(t, err)
}

func TestStubAnalyzeDocument(t *testing.T) {
	stub := sensitiveStub()
	_, err := stub.AnalyzeDocument(context.Background(), consultation)
	assert.Error(t, err)

	stub.Document = &riskOpinion
	ext, err := stub.AnalyzeDocument(context.Background(), consultation)
	require.NoError(t, err)
	assert.Equal(t, 80, ext.Score)
	assert.Equal(t, 2, stub.Calls(KindDocument))
}

var riskOpinion = risk.External{Level: "심각", Score: 80, Recommendations: []string{"즉시 삭제"}}
