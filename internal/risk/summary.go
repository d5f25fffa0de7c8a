// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package risk

import (
	"kpii-scan/internal/detector"
)

const summaryValueChars = 20

// SummaryItem is one finding listed under a legal category
type SummaryItem struct {
	Type  string `json:"type" yaml:"type"`
	Value string `json:"value" yaml:"value"`
}

// CategorySummary groups findings under their governing provision
type CategorySummary struct {
	Category    detector.LegalCategory `json:"category" yaml:"category"`
	Count       int                    `json:"count" yaml:"count"`
	Basis       string                 `json:"basis" yaml:"basis"`
	Requirement string                 `json:"requirement" yaml:"requirement"`
	Items       []SummaryItem          `json:"items" yaml:"items"`
}

var requirements = map[detector.LegalCategory]string{
	detector.CategoryUniqueIdentifier: "처리 제한, 암호화 의무",
	detector.CategorySensitive:        "원칙적 처리 금지, 별도 동의",
	detector.CategoryFinancial:        "노출 금지",
	detector.CategoryTradeSecret:      "비밀유지 조치",
	detector.CategoryUserDefined:      "조직 정책에 따름",
	detector.CategoryGeneral:          "기본 보호 원칙",
}

// LegalSummary groups spans by legal category in reporting order.
// Categories without findings are omitted and values are shortened.
func LegalSummary(spans []detector.DetectedSpan) []CategorySummary {
	grouped := make(map[detector.LegalCategory][]SummaryItem)
	for _, s := range spans {
		category := detector.LegalCategory(s.LegalCategory.Info().Label)
		value := s.Value
		if detector.RuneLen(value) > summaryValueChars {
			value = detector.Truncate(value, summaryValueChars) + "..."
		}
		grouped[category] = append(grouped[category], SummaryItem{Type: s.Type, Value: value})
	}

	var out []CategorySummary
	for _, c := range detector.Categories {
		category := detector.LegalCategory(c.Label)
		items := grouped[category]
		if len(items) == 0 {
			continue
		}
		basis := c.Violation
		if basis == "" {
			basis = "개인정보 보호법 " + c.Article
		}
		out = append(out, CategorySummary{
			Category:    category,
			Count:       len(items),
			Basis:       basis,
			Requirement: requirements[category],
			Items:       items,
		})
	}
	return out
}
