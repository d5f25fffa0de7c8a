// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package scanner

import (
	"strings"

	"kpii-scan/internal/detector"
	"kpii-scan/internal/help"
)

// AddressValidator confirms postal addresses from the surrounding wording.
// An address without address wording is still reported, with medium confidence.
type AddressValidator struct {
	keywords []string
}

// NewAddressValidator creates an address validator
func NewAddressValidator() *AddressValidator {
	return &AddressValidator{
		keywords: []string{
			"주소", "거주지", "주거지", "소재지", "현주소", "본적", "자택", "배송지", "배달",
			"우편", "사는 곳", "address", "addr", "residence",
		},
	}
}

// Validate accepts any non-empty candidate; the pattern already fixed the shape
func (v *AddressValidator) Validate(value, _ string) bool {
	return strings.TrimSpace(value) != ""
}

// ValidateFull returns high confidence when the context mentions an address
func (v *AddressValidator) ValidateFull(value, context string) detector.Result {
	if !v.Validate(value, context) {
		return detector.RejectWith("empty")
	}
	lower := strings.ToLower(context)
	for _, k := range v.keywords {
		if strings.Contains(lower, k) {
			return detector.AcceptWith(detector.TypeAddress, detector.ConfidenceHigh)
		}
	}
	return detector.AcceptWith(detector.TypeAddress, detector.ConfidenceMedium)
}

// GetCheckInfo returns standardized information about the address check
func (v *AddressValidator) GetCheckInfo() help.CheckInfo {
	return help.CheckInfo{
		Name:             "ADDRESS",
		Label:            detector.TypeAddress,
		ShortDescription: "Detects Korean postal addresses",
		DetailedDescription: `The Address check detects Korean road-name and lot-number addresses that start with a province or metropolitan city followed by a city, county or district.

Addresses next to wording such as 주소 or 거주지 are reported with high confidence; others are reported with medium confidence.`,

		Patterns: []string{
			"서울특별시 강남구 테헤란로 152",
			"경기도 성남시 분당구 정자동 178-1",
		},

		ConfidenceFactors: []help.ConfidenceFactor{
			{Name: "Region prefix", Description: "Starts with a province or metropolitan city", Weight: 50},
			{Name: "Address wording", Description: "Context mentions an address", Weight: 50},
		},

		PositiveKeywords: v.keywords,

		Examples: []string{
			"kpii-scan --file delivery-list.txt --checks ADDRESS",
		},
	}
}
