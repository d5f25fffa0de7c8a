// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package driverlicense

import (
	"context"
	"strconv"
	"strings"
	"unicode"

	"kpii-scan/internal/detector"
	"kpii-scan/internal/validators/nuisance"
	"kpii-scan/internal/verification"
)

var (
	regionNames = map[string]string{
		"11": "서울", "12": "부산", "13": "경기", "14": "강원", "15": "충북",
		"16": "충남", "17": "전북", "18": "전남", "19": "경북", "20": "경남",
		"21": "제주", "22": "대구", "23": "인천", "24": "광주", "25": "대전",
		"26": "울산", "28": "세종",
	}

	checksumWeights = [10]int{2, 3, 4, 5, 6, 7, 8, 9, 2, 3}
)

// Verifier confirms a license with the issuing authority
type Verifier interface {
	VerifyDriverLicense(ctx context.Context, req verification.DriverLicenseRequest) verification.Result
}

// Validator checks Korean driver license numbers (RR-YY-SSSSSS-CC)
type Validator struct {
	positiveKeywords []string
	filter           *nuisance.Filter
}

// NewValidator creates a driver license validator
func NewValidator() *Validator {
	return &Validator{
		positiveKeywords: []string{"운전면허", "면허번호", "운전면허증", "driver license", "license no"},
		filter:           nuisance.Default,
	}
}

// WithFilter replaces the nuisance filter
func (v *Validator) WithFilter(f *nuisance.Filter) *Validator {
	v.filter = f
	return v
}

// Normalize removes hyphens and whitespace
func Normalize(value string) string {
	return strings.Map(func(r rune) rune {
		if r == '-' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, value)
}

// twelveDigits returns the normalized value when it is exactly twelve ASCII digits
func twelveDigits(value string) (string, bool) {
	digits := Normalize(value)
	if len(digits) != 12 {
		return "", false
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return "", false
		}
	}
	return digits, true
}

// Validate checks the length and region code
func (v *Validator) Validate(value, _ string) bool {
	digits, ok := twelveDigits(value)
	if !ok {
		return false
	}
	_, ok = regionNames[digits[:2]]
	return ok
}

// InvalidReason returns a non-empty reason when the number is a dummy value,
// using the built-in nuisance tables
func InvalidReason(value string) string {
	return invalidReason(nuisance.Default, value)
}

func invalidReason(f *nuisance.Filter, value string) string {
	digits, ok := twelveDigits(value)
	if !ok {
		return ""
	}
	if nuisance.AllSame(digits) || f.IsTestLicense(digits) {
		return "무효 패턴: " + digits
	}
	if nuisance.HasRepeatRun(digits, 10) {
		return "동일 숫자 10자리 이상 반복"
	}

	serial := digits[4:10]
	if nuisance.AllSame(serial) || f.IsTestLicenseSerial(serial) {
		return "무효 일련번호: " + serial
	}
	if nuisance.HasRepeatRun(serial, 5) {
		return "일련번호 동일 숫자 5자리 이상 반복"
	}
	return ""
}

// VerifyChecksum applies the weighted mod-100 check over the first ten digits
func VerifyChecksum(value string) bool {
	digits, ok := twelveDigits(value)
	if !ok {
		return false
	}
	sum := 0
	for i, w := range checksumWeights {
		sum += int(digits[i]-'0') * w
	}
	check, _ := strconv.Atoi(digits[10:])
	return sum%100 == check
}

// ValidateFull applies format, dummy filter and checksum
func (v *Validator) ValidateFull(value, _ string) detector.Result {
	if !v.Validate(value, "") {
		return detector.RejectWith("format")
	}
	if reason := invalidReason(v.filter, value); reason != "" {
		return detector.RejectWith(reason)
	}
	if VerifyChecksum(value) {
		return detector.Accept(detector.TypeDriverLicense)
	}
	return detector.Accept(detector.TypeDriverLicense + detector.SuspectSuffix)
}

// RegionName returns the issuing region, "알 수 없음" for unknown codes and "" for short input
func RegionName(value string) string {
	digits := Normalize(value)
	if len(digits) < 2 {
		return ""
	}
	if name, ok := regionNames[digits[:2]]; ok {
		return name
	}
	return "알 수 없음"
}

// IssueYear returns the four-digit issue year or "" for short input
func IssueYear(value string) string {
	digits := Normalize(value)
	if len(digits) < 4 {
		return ""
	}
	yy := digits[2:4]
	if n, _ := strconv.Atoi(yy); n <= 30 {
		return "20" + yy
	}
	return "19" + yy
}

// ValidateWithAPI confirms the license through verifier. A nil verifier reports
// that the API is not configured.
func (v *Validator) ValidateWithAPI(ctx context.Context, verifier Verifier, value, name, birthDate, serialNo string) (bool, string, verification.Result) {
	if verifier == nil {
		msg := "CODEF API가 설정되지 않았습니다"
		return false, msg, verification.Result{
			Status:  verification.StatusError,
			Message: msg,
			Code:    verification.CodeNotConfigured,
		}
	}

	res := verifier.VerifyDriverLicense(ctx, verification.DriverLicenseRequest{
		LicenseNo: value,
		Name:      name,
		BirthDate: birthDate,
		SerialNo:  serialNo,
	})
	switch {
	case res.Success && res.Valid:
		return true, detector.TypeDriverLicense + "(API확인)", res
	case res.Success:
		return false, detector.TypeDriverLicense + "(API불일치)", res
	default:
		return false, res.Message, res
	}
}
