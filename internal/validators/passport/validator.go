// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package passport

import (
	"regexp"
	"strings"

	"kpii-scan/internal/detector"
	"kpii-scan/internal/validators/nuisance"
)

// Format identifies one of the three Korean passport number layouts
type Format string

const (
	FormatNextGen Format = "next_gen" // M123A4567, issued from 2021-12-21
	FormatLegacy  Format = "legacy"   // M12345678
	FormatOld     Format = "old"      // PM1234567
	FormatUnknown Format = "unknown"
)

var (
	legacyPattern  = regexp.MustCompile(`^[A-Z][0-9]{8}$`)
	nextGenPattern = regexp.MustCompile(`^[A-Z][0-9]{3}[A-Z][0-9]{4}$`)
	oldPattern     = regexp.MustCompile(`^[A-Z]{2}[0-9]{7}$`)

	typeNames = map[byte]string{
		'M': "일반여권",
		'S': "관용여권",
		'D': "외교관여권",
		'R': "거주여권",
		'G': "긴급여권",
		'O': "관광취업여권",
		'P': "전자여권",
	}

	oldTypeNames = map[byte]string{
		'M': "복수여권",
		'S': "단수여권",
		'E': "긴급여권",
		'T': "여행증명서",
		'Z': "난민용여행증명서",
	}
)

// Validator checks Korean passport numbers. Passport numbers carry no check digit,
// so full validation relies on the issuing code and a format-specific dummy filter.
type Validator struct {
	validTypeCodes   string
	validSecondCodes string

	positiveKeywords []string
	filter           *nuisance.Filter
}

// NewValidator creates a passport validator
func NewValidator() *Validator {
	return &Validator{
		validTypeCodes:   "MSDRGOP",
		validSecondCodes: "MSETZ",
		positiveKeywords: []string{"여권", "여권번호", "passport", "passport no", "출국", "비자", "visa"},
		filter:           nuisance.Default,
	}
}

// WithFilter replaces the nuisance filter
func (v *Validator) WithFilter(f *nuisance.Filter) *Validator {
	v.filter = f
	return v
}

// Normalize uppercases and trims the value
func Normalize(value string) string {
	return strings.ToUpper(strings.TrimSpace(value))
}

// Validate checks the surface form only
func (v *Validator) Validate(value, _ string) bool {
	value = Normalize(value)
	if len(value) != 9 {
		return false
	}

	switch {
	case legacyPattern.MatchString(value):
		return v.isTypeCode(value[0])
	case nextGenPattern.MatchString(value):
		return v.isTypeCode(value[0]) && value[4] != 'I' && value[4] != 'O'
	case oldPattern.MatchString(value):
		if value[0] == 'P' {
			return strings.IndexByte(v.validSecondCodes, value[1]) >= 0
		}
		return v.isTypeCode(value[0])
	}
	return false
}

func (v *Validator) isTypeCode(c byte) bool {
	return strings.IndexByte(v.validTypeCodes, c) >= 0
}

// DetectFormat returns the layout of value
func DetectFormat(value string) Format {
	value = Normalize(value)
	switch {
	case nextGenPattern.MatchString(value):
		return FormatNextGen
	case legacyPattern.MatchString(value):
		return FormatLegacy
	case oldPattern.MatchString(value):
		return FormatOld
	}
	return FormatUnknown
}

// InvalidReason returns a non-empty reason when the serial digits are a dummy
// value, using the built-in nuisance tables
func InvalidReason(value string, format Format) string {
	return invalidReason(nuisance.Default, value, format)
}

func invalidReason(f *nuisance.Filter, value string, format Format) string {
	value = Normalize(value)
	if value == "" {
		return "빈 값"
	}
	digits := nuisance.Digits(value)

	switch format {
	case FormatLegacy:
		if len(digits) == 8 {
			if nuisance.AllSame(digits) || f.IsTestPassport(digits) {
				return "무효 패턴: " + digits
			}
			if nuisance.HasRepeatRun(digits, 6) {
				return "동일 숫자 6자리 이상 반복"
			}
		}
	case FormatNextGen, FormatOld:
		if len(digits) == 7 {
			if nuisance.AllSame(digits) || f.IsTestPassport(digits) {
				return "무효 패턴: " + digits
			}
			if nuisance.HasRepeatRun(digits, 5) {
				return "동일 숫자 5자리 이상 반복"
			}
		}
	}
	return ""
}

// ValidateFull applies the format check and the dummy filter
func (v *Validator) ValidateFull(value, _ string) detector.Result {
	value = Normalize(value)
	if !v.Validate(value, "") {
		return detector.RejectWith("format")
	}
	if reason := invalidReason(v.filter, value, DetectFormat(value)); reason != "" {
		return detector.RejectWith(reason)
	}
	if v.isTypeCode(value[0]) {
		return detector.Accept(detector.TypePassport)
	}
	return detector.Accept(detector.TypePassport + detector.SuspectSuffix)
}

// PassportType returns the Korean name of the passport kind, or "" for invalid values
func (v *Validator) PassportType(value string) string {
	value = Normalize(value)
	if !v.Validate(value, "") {
		return ""
	}

	base, ok := typeNames[value[0]]
	if !ok {
		base = "기타"
	}

	switch DetectFormat(value) {
	case FormatNextGen:
		return base + "(차세대)"
	case FormatOld:
		if value[0] == 'P' {
			if name, ok := oldTypeNames[value[1]]; ok {
				return name
			}
			return "전자여권"
		}
	}
	return base
}

// FormatInfo describes a passport number
type FormatInfo struct {
	Value       string `json:"value"`
	Format      Format `json:"format"`
	Type        string `json:"type"`
	FirstCode   string `json:"first_code"`
	Description string `json:"description"`
	MiddleCode  string `json:"middle_code,omitempty"`
	SecondCode  string `json:"second_code,omitempty"`
}

// FormatInfo returns details for a valid passport number; ok is false otherwise
func (v *Validator) FormatInfo(value string) (FormatInfo, bool) {
	value = Normalize(value)
	if !v.Validate(value, "") {
		return FormatInfo{}, false
	}

	format := DetectFormat(value)
	info := FormatInfo{
		Value:     value,
		Format:    format,
		Type:      v.PassportType(value),
		FirstCode: value[:1],
	}
	switch format {
	case FormatNextGen:
		info.Description = "차세대 전자여권 (2021.12.21~)"
		info.MiddleCode = value[4:5]
	case FormatLegacy:
		info.Description = "기존 여권 형식"
	case FormatOld:
		info.Description = "구형 여권 형식 (지역코드 포함)"
		info.SecondCode = value[1:2]
	}
	return info, true
}
