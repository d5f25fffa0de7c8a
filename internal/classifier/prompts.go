// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package classifier

import (
	"fmt"
	"strings"

	"kpii-scan/internal/merge"
)

const dummyDataRules = `【제외 - 테스트/더미 데이터】
- 연속 숫자: 1234567, 123456, 0000000, 1111111
- 같은 숫자가 4회 이상 연속되는 값 (예: 1111, 0000)
- 명백한 테스트 값: 000000-0000000, 123456-1234567
- "예)", "예시:", "sample", "test"와 함께 쓰인 값`

const sensitiveChunkPrompt = `당신은 개인정보보호 전문가입니다.
아래 문서에서 개인정보보호법 제23조의 민감정보를 모두 찾으세요.

【민감정보 6가지 유형】
1. 건강정보: 특정인의 질병, 진단명, 장애, 의료기록, 투약, 검진결과
2. 사상_신념: 특정인의 종교, 신앙, 종교활동, 종교적 직분
3. 노동조합_정당: 특정인의 노조 또는 정당 가입과 활동
4. 정치적_견해: 특정인의 정치 성향, 지지 정당, 정치적 발언
5. 성생활: 특정인의 성적 지향, 성정체성, 성생활
6. 범죄경력: 특정인의 전과, 수사, 재판, 구속 기록

【판단 기준】
- 이름, 직함, 대명사 등으로 특정되는 개인과 연결된 정보만 민감정보입니다.
- 일반적인 의학, 법률, 종교 지식이나 개인과 연결되지 않은 용어는 제외합니다.

%s

【분석 대상】 (청크 %d/%d)
---
%s
---

【출력 형식】
발견하지 못하면 {"results": []} 로 응답하세요.
{"results": [{"type": "건강정보", "value": "원문 그대로 복사한 텍스트", "person": "해당 개인", "reason": "판단 근거"}]}
type은 건강정보, 사상_신념, 노동조합_정당, 정치적_견해, 성생활, 범죄경력 중 하나입니다.

JSON만 출력하세요.`

const confidentialChunkPrompt = `당신은 기업보안 전문가입니다.
아래 문서에서 부정경쟁방지법 제2조의 영업비밀에 해당하는 기업기밀을 찾으세요.

【영업비밀 요건】 비공개성, 경제적 가치, 비밀관리성

【기업기밀 5가지 유형】
1. 영업비밀: "대외비", "기밀", "극비", "Confidential" 등이 표시된 정보
2. 기술정보: 특허 출원 전 기술, 설계도, 소스코드, 알고리즘, 제조공정
3. 경영정보: 구체적 재무 수치, 거래처 목록, 계약 단가, 원가, 투자 정보
4. 인사급여: 개인별 연봉, 성과급, 인사평가, 구조조정 계획
5. 전략정보: 미발표 사업계획, 신제품 출시 일정, 가격 정책

【제외】 공개된 정보, 구체적 내용 없이 업무 용어만 언급한 경우

%s

【분석 대상】 (청크 %d/%d)
---
%s
---

【출력 형식】
발견하지 못하면 {"results": []} 로 응답하세요.
{"results": [{"type": "영업비밀|기술정보|경영정보|인사급여|전략정보", "value": "원문 그대로 복사한 텍스트", "reason": "판단 근거"}]}

JSON만 출력하세요.`

const sensitiveBatchPrompt = `당신은 개인정보보호 전문가입니다.
다음 구간들이 개인정보보호법 제23조의 민감정보(건강, 사상·신념, 노동조합·정당, 정치적 견해, 성생활, 범죄경력)에 해당하는지 판단하세요.
특정 개인과 연결된 경우에만 민감정보입니다. 일반 지식 설명이나 단순 키워드는 제외합니다.

【검토 대상 구간】
%s

【출력 형식】
{"results": [
  {"index": 1, "is_sensitive": true, "type": "사상_신념", "value": "해당 텍스트 발췌", "person_identifier": "개인 식별 근거", "reason": "판단 근거"},
  {"index": 2, "is_sensitive": false, "reason": "제외 사유"}
]}

JSON만 출력하세요.`

const confidentialBatchPrompt = `당신은 기업 보안 전문가입니다.
다음 구간들이 부정경쟁방지법상 영업비밀 또는 기업기밀(영업비밀, 기술정보, 경영정보, 인사급여, 전략정보)에 해당하는지 판단하세요.
공개된 정보, 일반 업무 용어, 구체적 내용이 없는 언급은 제외합니다.

【검토 대상 구간】
%s

【출력 형식】
{"results": [
  {"index": 1, "is_confidential": true, "type": "기술정보", "value": "해당 텍스트 발췌", "confidentiality_indicator": "대외비 표시 등", "reason": "판단 근거"},
  {"index": 2, "is_confidential": false, "reason": "제외 사유"}
]}

JSON만 출력하세요.`

const documentPrompt = `문서 보안 전문가로서 개인정보보호법에 따라 다음 문서를 분석하세요.

【문서】
%s

【분류 기준】
1. 고유식별정보 (제24조): 주민등록번호, 여권번호, 운전면허번호, 외국인등록번호
2. 민감정보 (제23조): 특정 개인의 건강, 사상·신념, 노조·정당, 정치적 견해, 성생활, 범죄경력
3. 금융정보 (제34조의2): 계좌번호, 카드번호
4. 일반개인정보 (제2조): 전화번호, 이메일, 주소 등

【위험도 기준】 낮음 0-24, 보통 25-49, 높음 50-74, 심각 75-100

【출력 형식】
{"detected_info": [{"type": "유형", "value": "값", "legal_category": "법적분류"}], "risk_level": "낮음|보통|높음|심각", "risk_score": 0, "reasoning": "판단 근거", "recommendations": ["권고1", "권고2", "권고3"]}

JSON만 출력하세요.`

// ChunkPrompt builds the prompt that asks for all findings of kind in one chunk
func ChunkPrompt(kind Kind, chunk string, number, total int) string {
	template := sensitiveChunkPrompt
	if kind == KindConfidential {
		template = confidentialChunkPrompt
	}
	return fmt.Sprintf(template, dummyDataRules, number, total, chunk)
}

// BatchPrompt builds the prompt that asks for a verdict on each suspect
func BatchPrompt(kind Kind, suspects []merge.Suspect) string {
	sections := make([]string, 0, len(suspects))
	for i, s := range suspects {
		sections = append(sections, fmt.Sprintf("[구간 %d]\n발견된 키워드: %s\n카테고리 힌트: %s\n내용:\n%s",
			i+1, strings.Join(s.Keywords, ", "), strings.Join(s.Categories, ", "), s.Context))
	}

	template := sensitiveBatchPrompt
	if kind == KindConfidential {
		template = confidentialBatchPrompt
	}
	return fmt.Sprintf(template, strings.Join(sections, "\n\n---\n\n"))
}

// DocumentPrompt builds the whole-document risk prompt
func DocumentPrompt(sample string) string {
	return fmt.Sprintf(documentPrompt, sample)
}
