// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package nuisance rejects obviously fake numeric values (repeated digits,
// runs, well-known dummy numbers) before checksum validation.
package nuisance

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Tables holds the dummy-value lists consulted by the filter
type Tables struct {
	Sequential []string `yaml:"sequential"`
	Test       []string `yaml:"test"`
	RRNTest    []string `yaml:"rrn_test"`
	CardTest   []string `yaml:"card_test"`

	AccountTest   []string `yaml:"account_test"`
	LicenseTest   []string `yaml:"license_test"`
	LicenseSerial []string `yaml:"license_serial"` // six-digit serial blocks
	PassportTest  []string `yaml:"passport_test"`  // serial digits, 8 (legacy) or 7 (next-gen, old)
}

// DefaultTables returns the built-in tables
func DefaultTables() Tables {
	return Tables{
		Sequential: []string{
			"0123456789", "1234567890", "123456789", "234567890", "012345678",
			"9876543210", "987654321", "876543210", "098765432",
		},
		Test: []string{
			"123123123", "111222333", "333222111", "112233445", "998877665",
			"123321123", "111000111", "000111000", "101010101", "121212121",
			"123412341", "567856785", "123123123123", "456456456456",
		},
		RRNTest: []string{
			"0000000000000", "1111111111111", "1234561234567",
			"9001011234567", "8001011234567", "7001011234567",
		},
		CardTest: []string{
			"0000000000000000", "1111111111111111", "1234567890123456",
			"4111111111111111", "5500000000000004", "378282246310005",
		},
		AccountTest: []string{
			"1234567890", "0123456789", "9876543210", "0987654321",
			"12345678901", "01234567890", "98765432109", "10987654321",
			"123456789012", "012345678901",
		},
		LicenseTest: []string{
			"123456789012", "012345678901", "210987654321", "109876543210",
		},
		LicenseSerial: []string{
			"123456", "234567", "345678", "456789", "654321",
			"765432", "876543", "987654", "012345", "543210",
		},
		PassportTest: []string{
			"12345678", "23456789", "34567890", "87654321", "98765432", "09876543",
			"1234567", "2345678", "3456789", "7654321", "8765432", "9876543",
		},
	}
}

// LoadTables reads tables from a YAML file. Lists missing from the file keep their defaults.
func LoadTables(path string) (Tables, error) {
	tables := DefaultTables()
	data, err := os.ReadFile(path)
	if err != nil {
		return tables, fmt.Errorf("failed to read nuisance tables: %w", err)
	}

	var loaded Tables
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return tables, fmt.Errorf("failed to parse nuisance tables: %w", err)
	}
	if len(loaded.Sequential) > 0 {
		tables.Sequential = loaded.Sequential
	}
	if len(loaded.Test) > 0 {
		tables.Test = loaded.Test
	}
	if len(loaded.RRNTest) > 0 {
		tables.RRNTest = loaded.RRNTest
	}
	if len(loaded.CardTest) > 0 {
		tables.CardTest = loaded.CardTest
	}
	if len(loaded.AccountTest) > 0 {
		tables.AccountTest = loaded.AccountTest
	}
	if len(loaded.LicenseTest) > 0 {
		tables.LicenseTest = loaded.LicenseTest
	}
	if len(loaded.LicenseSerial) > 0 {
		tables.LicenseSerial = loaded.LicenseSerial
	}
	if len(loaded.PassportTest) > 0 {
		tables.PassportTest = loaded.PassportTest
	}
	return tables, nil
}

// Filter applies the nuisance rules using a fixed set of tables
type Filter struct {
	tables Tables
}

// NewFilter creates a filter over the given tables
func NewFilter(tables Tables) *Filter {
	return &Filter{tables: tables}
}

// Default is the filter over the built-in tables
var Default = NewFilter(DefaultTables())

// Digits returns only the ASCII digits of value
func Digits(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsInvalid reports whether value is a nuisance number
func (f *Filter) IsInvalid(value string) bool {
	digits := Digits(value)
	if digits == "" {
		return true
	}
	if len(digits) < 6 {
		return false
	}
	if AllSame(digits) {
		return true
	}
	for _, seq := range f.tables.Sequential {
		if digits == seq || strings.Contains(seq, digits) {
			return true
		}
	}
	if IsSequential(digits) {
		return true
	}
	if slices.Contains(f.tables.Test, digits) {
		return true
	}
	return IsTwoDigitRepeat(digits)
}

// IsTestRRN reports whether value is a dummy registration number
func (f *Filter) IsTestRRN(value string) bool {
	digits := Digits(value)
	if f.IsInvalid(digits) {
		return true
	}
	if slices.Contains(f.tables.RRNTest, digits) {
		return true
	}
	if len(digits) >= 6 && AllSame(digits[:6]) {
		return true
	}
	if len(digits) >= 13 {
		back := digits[6:13]
		if AllSame(back) || IsSequential(back) {
			return true
		}
	}
	return false
}

// IsTestCard reports whether value is a dummy card number
func (f *Filter) IsTestCard(value string) bool {
	digits := Digits(value)
	if f.IsInvalid(digits) {
		return true
	}
	return slices.Contains(f.tables.CardTest, digits)
}

// IsTestAccount reports whether digits is a listed dummy account number
func (f *Filter) IsTestAccount(digits string) bool {
	return slices.Contains(f.tables.AccountTest, digits)
}

// IsTestLicense reports whether digits is a listed dummy license number
func (f *Filter) IsTestLicense(digits string) bool {
	return slices.Contains(f.tables.LicenseTest, digits)
}

// IsTestLicenseSerial reports whether serial is a listed dummy license serial
func (f *Filter) IsTestLicenseSerial(serial string) bool {
	return slices.Contains(f.tables.LicenseSerial, serial)
}

// IsTestPassport reports whether the passport serial digits are a listed dummy
func (f *Filter) IsTestPassport(digits string) bool {
	return slices.Contains(f.tables.PassportTest, digits)
}

// AllSame reports whether every character of s is identical
func AllSame(s string) bool {
	if s == "" {
		return false
	}
	for i := 1; i < len(s); i++ {
		if s[i] != s[0] {
			return false
		}
	}
	return true
}

// IsSequential reports whether the whole digit string steps by +1 or -1,
// wrapping 9->0 and 0->9. Strings shorter than 6 never qualify.
func IsSequential(digits string) bool {
	return len(digits) >= 6 && SequentialRun(digits) == len(digits)
}

// SequentialRun returns the length of the longest ascending or descending
// run in digits, with wrap-around
func SequentialRun(digits string) int {
	if digits == "" {
		return 0
	}
	longest, asc, desc := 1, 1, 1
	for i := 1; i < len(digits); i++ {
		prev, curr := int(digits[i-1]-'0'), int(digits[i]-'0')
		if curr == (prev+1)%10 {
			asc++
		} else {
			asc = 1
		}
		if curr == (prev+9)%10 {
			desc++
		} else {
			desc = 1
		}
		longest = max(longest, asc, desc)
	}
	return longest
}

// IsTwoDigitRepeat reports whether digits is two distinct digits repeated (121212, 565656)
func IsTwoDigitRepeat(digits string) bool {
	if len(digits) < 6 || digits[0] == digits[1] {
		return false
	}
	for i := 2; i < len(digits); i++ {
		if digits[i] != digits[i%2] {
			return false
		}
	}
	return true
}

// HasRepeatRun reports whether some digit repeats at least n times in a row
func HasRepeatRun(digits string, n int) bool {
	if n <= 1 {
		return digits != ""
	}
	run := 1
	for i := 1; i < len(digits); i++ {
		if digits[i] == digits[i-1] {
			run++
			if run >= n {
				return true
			}
		} else {
			run = 1
		}
	}
	return false
}
