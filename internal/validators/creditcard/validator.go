// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package creditcard

import (
	"strconv"
	"strings"

	"kpii-scan/internal/detector"
	"kpii-scan/internal/validators/nuisance"
)

// Validator checks payment card numbers with the Luhn algorithm after
// filtering well-known test numbers.
type Validator struct {
	// BIN ranges using range checks instead of massive maps
	binRanges []BINRange

	filter *nuisance.Filter

	positiveKeywords []string
}

// BINRange represents a range of valid BIN numbers for efficient lookup
type BINRange struct {
	Start  int
	End    int
	Vendor string
}

// NewValidator creates a card validator
func NewValidator() *Validator {
	return &Validator{
		binRanges: initBINRanges(),
		filter:    nuisance.Default,
		positiveKeywords: []string{
			"카드", "카드번호", "신용카드", "체크카드", "결제", "승인", "card", "visa", "master",
		},
	}
}

// WithFilter replaces the nuisance filter
func (v *Validator) WithFilter(f *nuisance.Filter) *Validator {
	v.filter = f
	return v
}

// initBINRanges creates BIN ranges using efficient range checks instead of massive maps
func initBINRanges() []BINRange {
	return []BINRange{
		{400000, 499999, "Visa"},
		{510000, 559999, "MasterCard"},
		{222100, 272099, "MasterCard"},
		{340000, 349999, "American Express"},
		{370000, 379999, "American Express"},
		{601100, 601199, "Discover"},
		{644000, 649999, "Discover"},
		{650000, 659999, "Discover"},
		{350000, 359999, "JCB"},
		{300000, 309999, "Diners Club"},
		{360000, 369999, "Diners Club"},
		{380000, 389999, "Diners Club"},
		{620000, 629999, "UnionPay"},
		{900000, 999999, "Domestic"},
	}
}

// Clean removes spaces and hyphens
func Clean(number string) string {
	return strings.ReplaceAll(strings.ReplaceAll(number, " ", ""), "-", "")
}

// Validate checks the surface form: 15 or 16 digits that are not a trivial sequence
func (v *Validator) Validate(value, _ string) bool {
	number := Clean(value)
	if len(number) < 15 || len(number) > 16 {
		return false
	}
	for i := 0; i < len(number); i++ {
		if number[i] < '0' || number[i] > '9' {
			return false
		}
	}
	if nuisance.AllSame(number) {
		return false
	}
	return !isStrictSequence(number)
}

// isStrictSequence reports whether number is exactly 0123... or 0987...
func isStrictSequence(number string) bool {
	ascending, descending := true, true
	for i := 0; i < len(number); i++ {
		d := int(number[i] - '0')
		if d != i%10 {
			ascending = false
		}
		if d != (10-i%10)%10 {
			descending = false
		}
	}
	return ascending || descending
}

// ValidateFull applies the test-number filter, the format check and Luhn
func (v *Validator) ValidateFull(value, _ string) detector.Result {
	number := Clean(value)
	if v.filter.IsTestCard(number) {
		return detector.RejectWith("test pattern")
	}
	if !v.Validate(number, "") {
		return detector.RejectWith("format")
	}
	if !LuhnCheck(number) {
		return detector.RejectWith("luhn")
	}
	return detector.Accept(detector.TypeCard)
}

// LuhnCheck validates the mod-10 check digit. Non-digit characters such as
// separators are skipped; input without digits fails.
func LuhnCheck(number string) bool {
	sum, count := 0, 0
	isDouble := false

	for i := len(number) - 1; i >= 0; i-- {
		if number[i] < '0' || number[i] > '9' {
			continue
		}
		digit := int(number[i] - '0')
		count++

		if isDouble {
			digit *= 2
			if digit > 9 {
				digit -= 9
			}
		}

		sum += digit
		isDouble = !isDouble
	}

	return count > 0 && sum%10 == 0
}

// CardBrand returns the card scheme by prefix
func CardBrand(value string) string {
	number := Clean(value)
	if len(number) < 2 {
		return "알 수 없음"
	}

	switch number[0] {
	case '4':
		return "VISA"
	case '5':
		if number[1] >= '1' && number[1] <= '5' {
			return "MasterCard"
		}
	case '3':
		switch number[1] {
		case '4', '7':
			return "AMEX"
		case '5':
			return "JCB"
		}
	case '6':
		return "Discover/UnionPay"
	case '9':
		return "국내전용"
	}
	return "기타"
}

// Vendor returns the issuer network from the BIN table, or "Unknown"
func (v *Validator) Vendor(value string) string {
	number := Clean(value)
	if len(number) < 6 {
		return "Unknown"
	}

	bin, err := strconv.Atoi(number[:6])
	if err != nil {
		return "Unknown"
	}
	for _, r := range v.binRanges {
		if bin >= r.Start && bin <= r.End {
			return r.Vendor
		}
	}
	return "Unknown"
}
