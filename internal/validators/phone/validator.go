// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package phone

import (
	"strings"

	"kpii-scan/internal/detector"
	"kpii-scan/internal/validators/nuisance"
)

var mobilePrefixes = []string{"010", "011", "016", "017", "018", "019"}

// areaCodes maps landline prefixes to their region
var areaCodes = map[string]string{
	"02":  "서울",
	"031": "경기", "032": "인천", "033": "강원",
	"041": "충남", "042": "대전", "043": "충북", "044": "세종",
	"051": "부산", "052": "울산", "053": "대구", "054": "경북", "055": "경남",
	"061": "전남", "062": "광주", "063": "전북", "064": "제주",
	"070": "인터넷전화",
}

// Validator checks Korean mobile and landline numbers
type Validator struct {
	// Keywords that suggest a phone context
	positiveKeywords []string
}

// NewValidator creates a phone validator
func NewValidator() *Validator {
	return &Validator{
		positiveKeywords: []string{
			"전화", "연락처", "휴대폰", "핸드폰", "휴대전화", "tel", "phone", "mobile", "팩스", "fax",
		},
	}
}

// Normalize returns only the digits of value
func Normalize(value string) string {
	return nuisance.Digits(value)
}

// IsMobile reports whether value carries a mobile carrier prefix
func IsMobile(value string) bool {
	digits := Normalize(value)
	for _, p := range mobilePrefixes {
		if strings.HasPrefix(digits, p) {
			return true
		}
	}
	return false
}

// AreaCode returns the landline prefix of value, or "" when none matches
func AreaCode(value string) string {
	digits := Normalize(value)
	if strings.HasPrefix(digits, "02") {
		return "02"
	}
	if len(digits) >= 3 {
		if _, ok := areaCodes[digits[:3]]; ok {
			return digits[:3]
		}
	}
	return ""
}

// Region returns the region served by the landline prefix of value
func Region(value string) string {
	return areaCodes[AreaCode(value)]
}

// Validate checks the prefix and the subscriber length
func (v *Validator) Validate(value, _ string) bool {
	digits := Normalize(value)
	switch {
	case IsMobile(digits):
		return len(digits) == 10 || len(digits) == 11
	case AreaCode(digits) == "02":
		return len(digits) == 9 || len(digits) == 10
	case AreaCode(digits) != "":
		return len(digits) == 10 || len(digits) == 11
	}
	return false
}

// Kind returns the detection type for value: mobile or landline
func Kind(value string) string {
	if IsMobile(value) {
		return detector.TypeMobile
	}
	return detector.TypePhone
}

// ValidateFull accepts well-formed numbers with high confidence. Phone numbers
// are never confirmed from context.
func (v *Validator) ValidateFull(value, context string) detector.Result {
	if !v.Validate(value, context) {
		return detector.RejectWith("format")
	}
	return detector.AcceptWith(Kind(value), detector.ConfidenceHigh)
}
