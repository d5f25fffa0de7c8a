// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package risk

import (
	"kpii-scan/internal/detector"
)

// RecommendationEngine derives remediation advice from what was found
type RecommendationEngine struct {
	byCategory map[detector.LegalCategory][]string
	byType     map[string]string
	byLevel    map[Level][]string
	exposure   string
	fallback   []string
}

// NewRecommendationEngine creates an engine with the built-in rule table
func NewRecommendationEngine() *RecommendationEngine {
	return &RecommendationEngine{
		byCategory: map[detector.LegalCategory][]string{
			detector.CategoryUniqueIdentifier: {
				"고유식별정보는 법령 근거 또는 별도 동의 없이 처리할 수 없으므로 처리 근거를 확인하십시오.",
				"주민등록번호 등 고유식별정보는 암호화하여 저장하고 전송하십시오.",
			},
			detector.CategoryFinancial: {
				"카드번호와 계좌번호는 공개된 문서에 노출되지 않도록 마스킹하십시오.",
			},
			detector.CategorySensitive: {
				"건강, 신념 등 민감정보는 정보주체의 별도 동의를 받은 경우에만 처리하십시오.",
				"민감정보가 포함된 문서는 접근 권한을 최소 인원으로 제한하십시오.",
			},
			detector.CategoryTradeSecret: {
				"영업비밀이 포함된 문서에 대외비 표시를 하고 비밀유지 조치를 적용하십시오.",
				"기업기밀 문서의 외부 반출 및 공유 이력을 관리하십시오.",
			},
			detector.CategoryUserDefined: {
				"사용자정의 패턴에 해당하는 내부 정보의 공유 범위를 검토하십시오.",
			},
			detector.CategoryGeneral: {
				"연락처, 이메일 등 일반개인정보는 수집 목적 범위 내에서만 이용하십시오.",
			},
		},
		byType: map[string]string{
			detector.TypeRRN:           "주민등록번호는 법령상 허용된 경우가 아니면 수집하지 말고 삭제하십시오.",
			detector.TypeForeignRRN:    "외국인등록번호는 주민등록번호와 동일한 수준으로 보호하십시오.",
			detector.TypePassport:      "여권번호 사본은 보관 기간 경과 후 즉시 파기하십시오.",
			detector.TypeDriverLicense: "운전면허번호는 본인 확인 목적 외 사용을 금지하십시오.",
			detector.TypeAddress:       "상세 주소는 필요한 경우가 아니면 시군구 단위까지만 기재하십시오.",
		},
		byLevel: map[Level][]string{
			LevelCritical: {
				"문서의 외부 공유를 즉시 중단하고 유출 여부를 점검하십시오.",
				"개인정보 보호책임자에게 보고하고 유출 시 통지 절차를 준비하십시오.",
			},
			LevelHigh: {
				"문서를 배포하기 전에 민감 항목을 마스킹하거나 삭제하십시오.",
			},
			LevelModerate: {
				"문서 보관 위치의 접근 권한을 점검하십시오.",
			},
		},
		exposure: "개인정보 보호법 제34조의2에 따라 노출 금지 항목을 게시물이나 공개 문서에서 제거하십시오.",
		fallback: []string{
			"문서 내 개인정보 포함 여부를 정기적으로 점검하십시오.",
			"불필요한 개인정보는 수집하지 않도록 양식을 개선하십시오.",
			"개인정보 처리 방침에 따라 보관 기간이 지난 문서를 파기하십시오.",
		},
	}
}

// Generate returns between MinRecommendations and MaxRecommendations
// distinct recommendations ordered by severity
func (e *RecommendationEngine) Generate(spans []detector.DetectedSpan, level Level) []string {
	var out []string
	out = append(out, e.byLevel[level]...)

	seenCategory := make(map[detector.LegalCategory]bool)
	seenType := make(map[string]bool)
	exposure := false
	for _, s := range spans {
		if s.ExposureProhibited {
			exposure = true
		}
		base := detector.BaseType(s.Type)
		if tip, ok := e.byType[base]; ok && !seenType[base] {
			seenType[base] = true
			out = append(out, tip)
		}
		seenCategory[detector.LegalCategory(s.LegalCategory.Info().Label)] = true
	}
	if exposure {
		out = append(out, e.exposure)
	}
	for _, c := range detector.Categories {
		if seenCategory[detector.LegalCategory(c.Label)] {
			out = append(out, e.byCategory[detector.LegalCategory(c.Label)]...)
		}
	}

	out = MergeRecommendations(out)
	if len(out) < MinRecommendations {
		out = MergeRecommendations(out, e.fallback)
	}
	return out
}
