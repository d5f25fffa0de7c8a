// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package scanner

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kpii-scan/internal/detector"
)

func types(spans []detector.DetectedSpan) []string {
	var out []string
	for _, s := range spans {
		out = append(out, s.Type)
	}
	return out
}

func TestScanMixedDocument(t *testing.T) {
	text := "성명: 홍길동\n주민등록번호: 850615-1789010\n휴대폰: 010-9876-5432\n이메일: hong.gildong@company.co.kr"

	spans := New().Scan(text)
	require.Equal(t, []string{detector.TypeRRN, detector.TypeMobile, detector.TypeEmail}, types(spans))

	rrnSpan := spans[0]
	assert.Equal(t, "850615-1789010", rrnSpan.Value)
	assert.Equal(t, detector.ConfidenceHigh, rrnSpan.Confidence)
	assert.Equal(t, detector.CategoryUniqueIdentifier, rrnSpan.LegalCategory)
	assert.Equal(t, detector.MethodRegex, rrnSpan.Method)
	assert.True(t, rrnSpan.HasContext)
	assert.NotContains(t, rrnSpan.Context, "\n")

	mobile := spans[1]
	assert.Equal(t, detector.ConfidenceHigh, mobile.Confidence)
	assert.False(t, mobile.HasContext)
	assert.Equal(t, detector.CategoryGeneral, mobile.LegalCategory)

	assert.Equal(t, "hong.gildong@company.co.kr", spans[2].Value)
}

func TestScanPriorityExclusion(t *testing.T) {
	spans := New().Scan("계좌 8506151789010")
	require.Len(t, spans, 1)
	assert.Equal(t, detector.TypeRRN, spans[0].Type)
}

func TestScanRegistrationNumbers(t *testing.T) {
	s := New()

	spans := s.Scan("외국인등록번호 850615-5789011")
	require.Len(t, spans, 1)
	assert.Equal(t, detector.TypeForeignRRN, spans[0].Type)

	spans = s.Scan("신생아 201015-3123456")
	require.Len(t, spans, 1)
	assert.Equal(t, detector.TypeRRN+detector.SuspectSuffix, spans[0].Type)
	assert.Equal(t, detector.ConfidenceMedium, spans[0].Confidence)

	assert.Empty(t, s.Scan("주민번호 850615-1789011"), "checksum failure is rejected")
}

func TestScanCards(t *testing.T) {
	s := New()

	spans := s.Scan("카드번호 4532-0151-1283-0366")
	require.Len(t, spans, 1)
	assert.Equal(t, detector.TypeCard, spans[0].Type)
	assert.Equal(t, detector.CategoryFinancial, spans[0].LegalCategory)
	assert.True(t, spans[0].ExposureProhibited)

	assert.Empty(t, s.Scan("카드번호 4532-0151-1283-0367"), "luhn failure is rejected and no account context exists")
}

func TestScanAccounts(t *testing.T) {
	s := New()

	spans := s.Scan("입금 계좌: 카카오뱅크 3330-19-4827153")
	require.Len(t, spans, 1)
	assert.Equal(t, detector.TypeAccount, spans[0].Type)
	assert.Equal(t, detector.ConfidenceHigh, spans[0].Confidence)
	assert.True(t, spans[0].ExposureProhibited)

	spans = s.Scan("송금 1002-847-193625")
	require.Len(t, spans, 1)
	assert.Equal(t, detector.TypeAccount+detector.SuspectSuffix, spans[0].Type)
	assert.Equal(t, detector.ConfidenceMedium, spans[0].Confidence)

	assert.Empty(t, s.Scan("번호 3330-19-4827153"), "accounts without context are discarded")
}

func TestScanPassportAndDriverLicense(t *testing.T) {
	s := New()

	spans := s.Scan("여권번호 M48271935")
	require.Len(t, spans, 1)
	assert.Equal(t, detector.TypePassport, spans[0].Type)
	assert.Equal(t, detector.ConfidenceHigh, spans[0].Confidence)

	spans = s.Scan("운전면허 11-23-482195-66")
	require.Len(t, spans, 1)
	assert.Equal(t, detector.TypeDriverLicense, spans[0].Type)
	assert.Equal(t, detector.ConfidenceHigh, spans[0].Confidence)

	spans = s.Scan("운전면허 11-23-482195-67")
	require.Len(t, spans, 1)
	assert.Equal(t, detector.TypeDriverLicense, spans[0].Type, "license labels never carry the suspect marker")
	assert.Equal(t, detector.ConfidenceMedium, spans[0].Confidence)
}

func TestScanAddressAndIP(t *testing.T) {
	s := New()

	spans := s.Scan("주소: 서울특별시 강남구 테헤란로 152")
	require.Len(t, spans, 1)
	assert.Equal(t, detector.TypeAddress, spans[0].Type)
	assert.Equal(t, "서울특별시 강남구 테헤란로 152", spans[0].Value)
	assert.Equal(t, detector.ConfidenceHigh, spans[0].Confidence)
	assert.True(t, spans[0].HasContext)

	spans = s.Scan("방문지 부산광역시 해운대구 우동 1408")
	require.Len(t, spans, 1)
	assert.Equal(t, detector.TypeAddress, spans[0].Type)
	assert.Equal(t, detector.ConfidenceMedium, spans[0].Confidence)
	assert.False(t, spans[0].HasContext)

	spans = s.Scan("접속 IP 211.45.67.89")
	require.Len(t, spans, 1)
	assert.Equal(t, detector.TypeIP, spans[0].Type)
	assert.Equal(t, detector.ConfidenceMedium, spans[0].Confidence)
}

func TestScanRuneOffsets(t *testing.T) {
	spans := New().Scan("이름 홍길동 이메일 a.kim@corp.co.kr")
	require.Len(t, spans, 1)
	assert.Equal(t, 11, spans[0].Start)
	assert.Equal(t, 27, spans[0].End)
}

func TestScanContextWindow(t *testing.T) {
	text := strings.Repeat("가", 150) + " hong@corp.co.kr " + strings.Repeat("나", 150)
	spans := New().Scan(text)
	require.Len(t, spans, 1)
	assert.Equal(t, 100+detector.RuneLen("hong@corp.co.kr")+100, detector.RuneLen(spans[0].Context))
}

func TestScanWithChecks(t *testing.T) {
	checks, err := ParseChecks("EMAIL")
	require.NoError(t, err)

	text := "주민등록번호: 850615-1789010 이메일: hong@corp.co.kr"
	spans := New(WithChecks(checks)).Scan(text)
	assert.Equal(t, []string{detector.TypeEmail}, types(spans))
}

func TestParseChecks(t *testing.T) {
	all, err := ParseChecks("all")
	require.NoError(t, err)
	assert.Len(t, all, 10)

	some, err := ParseChecks("rrn, card")
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"RRN": true, "CARD": true}, some)

	_, err = ParseChecks("RRN,BOGUS")
	assert.ErrorContains(t, err, "BOGUS")
}

func TestDisplayType(t *testing.T) {
	tests := []struct {
		infoType   string
		confidence detector.Confidence
		want       string
	}{
		{detector.TypeRRN, detector.ConfidenceHigh, detector.TypeRRN},
		{detector.TypeRRN, detector.ConfidenceMedium, "주민등록번호(의심)"},
		{detector.TypeForeignRRN, detector.ConfidenceMedium, "외국인등록번호(의심)"},
		{detector.TypeCard, detector.ConfidenceMedium, "카드번호(의심)"},
		{detector.TypeAccount, detector.ConfidenceLow, "계좌번호(의심)"},
		{detector.TypePassport, detector.ConfidenceMedium, detector.TypePassport},
		{detector.TypeDriverLicense, detector.ConfidenceMedium, detector.TypeDriverLicense},
		{detector.TypeAddress, detector.ConfidenceMedium, detector.TypeAddress},
	}
	for _, tt := range tests {
		t.Run(tt.infoType+"/"+string(tt.confidence), func(t *testing.T) {
			assert.Equal(t, tt.want, DisplayType(tt.infoType, tt.confidence))
		})
	}
}

func TestScanKeywords(t *testing.T) {
	doc := detector.NewDocument("김철수 씨는 지난달 당뇨 진단을 받아 입원했다.")

	hits := ScanKeywords(doc, SensitiveKeywords)
	require.Len(t, hits, 2)

	suspects := Suspects(doc, SensitiveKeywords)
	require.Len(t, suspects, 1)
	assert.Equal(t, 14, suspects[0].Start)
	assert.Equal(t, 23, suspects[0].End)
	assert.Equal(t, []string{"건강정보"}, suspects[0].Categories)
	assert.Equal(t, []string{"진단", "입원"}, suspects[0].Keywords)
	assert.Equal(t, doc.Text(), suspects[0].Context)
}

func TestScanKeywordsCaseInsensitive(t *testing.T) {
	doc := detector.NewDocument("This is CONFIDENTIAL.")
	hits := ScanKeywords(doc, ConfidentialKeywords)
	require.Len(t, hits, 1)
	assert.Equal(t, "영업비밀", hits[0].Category)
	assert.Equal(t, 8, hits[0].Start)
	assert.Equal(t, 20, hits[0].End)
}
