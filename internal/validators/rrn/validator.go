// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package rrn

import (
	"strings"
	"time"
	"unicode"

	"kpii-scan/internal/detector"
	"kpii-scan/internal/validators/nuisance"
)

var (
	checksumWeights = []int{2, 3, 4, 5, 6, 7, 8, 9, 2, 3, 4, 5}
	maxDays         = []int{31, 29, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}
)

// ChecksumCutoff is the first birth date whose check digit is no longer computed
var ChecksumCutoff = time.Date(2020, time.October, 1, 0, 0, 0, 0, time.UTC)

// Validator checks Korean resident and foreigner registration numbers.
// Both share the YYMMDD-GNNNNNN layout and differ only in the gender/century digit.
type Validator struct {
	label       string
	genderCodes []byte
	filter      *nuisance.Filter
}

// NewResident creates a validator for resident registration numbers (gender digit 1-4)
func NewResident() *Validator {
	return &Validator{
		label:       detector.TypeRRN,
		genderCodes: []byte("1234"),
		filter:      nuisance.Default,
	}
}

// NewForeign creates a validator for foreigner registration numbers (gender digit 5-8)
func NewForeign() *Validator {
	return &Validator{
		label:       detector.TypeForeignRRN,
		genderCodes: []byte("5678"),
		filter:      nuisance.Default,
	}
}

// WithFilter replaces the nuisance filter
func (v *Validator) WithFilter(f *nuisance.Filter) *Validator {
	v.filter = f
	return v
}

// Label returns the confirmed type label
func (v *Validator) Label() string {
	return v.label
}

// Normalize strips hyphens and whitespace
func Normalize(value string) string {
	return strings.Map(func(r rune) rune {
		if r == '-' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, value)
}

// Validate checks format, calendar plausibility and the gender digit
func (v *Validator) Validate(value, _ string) bool {
	digits := Normalize(value)
	if len(digits) != 13 || !isDigits(digits) {
		return false
	}
	if !validDate(digits) {
		return false
	}
	return strings.IndexByte(string(v.genderCodes), digits[6]) >= 0
}

func validDate(digits string) bool {
	month := atoi(digits[2:4])
	day := atoi(digits[4:6])
	if month < 1 || month > 12 {
		return false
	}
	return day >= 1 && day <= maxDays[month-1]
}

// BirthDate returns the birth date encoded in the number. ok is false when the
// date does not exist in the resolved century (29 February in a common year).
func BirthDate(value string) (time.Time, bool) {
	digits := Normalize(value)
	if len(digits) != 13 || !isDigits(digits) {
		return time.Time{}, false
	}
	year := atoi(digits[0:2])
	switch digits[6] {
	case '1', '2', '5', '6':
		year += 1900
	case '3', '4', '7', '8':
		year += 2000
	default:
		year += 1800
	}
	month := atoi(digits[2:4])
	day := atoi(digits[4:6])
	if month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, false
	}
	return t, true
}

// VerifyChecksum checks the 13th digit against the weighted sum of the first twelve
func VerifyChecksum(value string) bool {
	digits := Normalize(value)
	if len(digits) != 13 || !isDigits(digits) {
		return false
	}
	total := 0
	for i, w := range checksumWeights {
		total += int(digits[i]-'0') * w
	}
	check := (11 - total%11) % 10
	return check == int(digits[12]-'0')
}

// IsChecksumApplicable reports whether the birth date precedes the cutoff.
// An unresolvable birth date is treated as not applicable.
func IsChecksumApplicable(value string) bool {
	birth, ok := BirthDate(value)
	if !ok {
		return false
	}
	return birth.Before(ChecksumCutoff)
}

// ValidateFull applies the dummy filter, the format check and the checksum.
// Numbers born before the cutoff must pass the checksum; later numbers pass as suspect.
func (v *Validator) ValidateFull(value, _ string) detector.Result {
	if v.filter.IsTestRRN(value) {
		return detector.RejectWith("test pattern")
	}
	if !v.Validate(value, "") {
		return detector.RejectWith("format")
	}
	if IsChecksumApplicable(value) {
		if VerifyChecksum(value) {
			return detector.Accept(v.label)
		}
		return detector.RejectWith("checksum")
	}
	return detector.Accept(v.label + detector.SuspectSuffix)
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func atoi(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		n = n*10 + int(s[i]-'0')
	}
	return n
}
