// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package scanner

import (
	"strings"

	"kpii-scan/internal/detector"
	"kpii-scan/internal/merge"
)

// KeywordContextChars is the window on each side of a keyword hit
const KeywordContextChars = 200

// KeywordCategory is a named list of trigger keywords
type KeywordCategory struct {
	Name     string
	Keywords []string
}

// KeywordTable is an ordered set of keyword categories
type KeywordTable []KeywordCategory

// Categories returns the category names in table order
func (t KeywordTable) Categories() []string {
	names := make([]string, 0, len(t))
	for _, c := range t {
		names = append(names, c.Name)
	}
	return names
}

// SensitiveKeywords hint at the sensitive-information classes of article 23
var SensitiveKeywords = KeywordTable{
	{Name: "건강정보", Keywords: []string{
		"진단", "병명", "질환", "질병", "입원", "수술", "처방", "투약", "병력", "장애",
		"정신과", "우울증", "암 투병", "치료", "확진", "건강검진",
	}},
	{Name: "사상_신념", Keywords: []string{
		"종교", "신앙", "교회", "성당", "사찰", "불교", "기독교", "천주교", "이슬람", "신념",
	}},
	{Name: "노동조합_정당", Keywords: []string{
		"노동조합", "노조", "조합원", "정당", "당원", "입당", "탈당",
	}},
	{Name: "정치적_견해", Keywords: []string{
		"지지 정당", "정치 성향", "정치적 견해", "보수", "진보", "투표", "선거운동",
	}},
	{Name: "성생활", Keywords: []string{
		"성적 지향", "성생활", "동성애", "성소수자", "성병",
	}},
	{Name: "범죄경력", Keywords: []string{
		"전과", "범죄경력", "수사경력", "기소", "구속", "벌금형", "징역", "집행유예", "피의자",
	}},
}

// ConfidentialKeywords hint at trade secrets under the Unfair Competition Prevention Act
var ConfidentialKeywords = KeywordTable{
	{Name: "영업비밀", Keywords: []string{
		"영업비밀", "대외비", "기밀", "confidential", "극비", "사내한정", "외부유출 금지",
	}},
	{Name: "기술정보", Keywords: []string{
		"소스코드", "설계도", "알고리즘", "특허 출원", "공정", "레시피", "배합비", "수율",
	}},
	{Name: "경영정보", Keywords: []string{
		"매출", "영업이익", "원가", "마진", "거래처", "단가", "인수합병", "m&a",
	}},
	{Name: "인사급여", Keywords: []string{
		"연봉", "급여", "성과급", "인사평가", "구조조정", "해고", "승진",
	}},
	{Name: "전략정보", Keywords: []string{
		"사업계획", "로드맵", "출시 예정", "신제품", "마케팅 전략", "가격 정책", "입찰",
	}},
}

// ScanKeywords returns every case-insensitive occurrence of the table's keywords.
// Overlapping occurrences are all reported.
func ScanKeywords(doc *detector.Document, table KeywordTable) []merge.KeywordHit {
	lower := doc.Lower()
	var hits []merge.KeywordHit
	for _, category := range table {
		for _, keyword := range category.Keywords {
			needle := strings.ToLower(keyword)
			length := detector.RuneLen(keyword)
			for pos := lower.Index(needle, 0); pos >= 0; pos = lower.Index(needle, pos+1) {
				end := pos + length
				ctxStart := max(0, pos-KeywordContextChars)
				ctxEnd := min(doc.Len(), end+KeywordContextChars)
				hits = append(hits, merge.KeywordHit{
					Category:     category.Name,
					Keyword:      keyword,
					Start:        pos,
					End:          end,
					ContextStart: ctxStart,
					ContextEnd:   ctxEnd,
					Context:      doc.Slice(ctxStart, ctxEnd),
				})
			}
		}
	}
	return hits
}

// Suspects scans text for the table's keywords and merges nearby hits into
// classifier contexts
func Suspects(doc *detector.Document, table KeywordTable) []merge.Suspect {
	return merge.MergeKeywordHits(doc, ScanKeywords(doc, table))
}
