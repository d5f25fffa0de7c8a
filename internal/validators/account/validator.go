// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package account

import (
	"fmt"
	"slices"
	"strings"

	"kpii-scan/internal/bankformats"
	"kpii-scan/internal/detector"
	"kpii-scan/internal/validators/nuisance"
)

// bankKeyword maps a context keyword to the registry bank name. Order matters:
// the first keyword found in the context wins.
type bankKeyword struct {
	keyword string
	bank    string
}

var bankKeywords = []bankKeyword{
	{"산업은행", "한국산업은행"}, {"산은", "한국산업은행"}, {"KDB", "한국산업은행"},
	{"기업은행", "IBK기업은행"}, {"IBK", "IBK기업은행"}, {"중소기업은행", "IBK기업은행"},
	{"국민은행", "KB국민은행"}, {"KB", "KB국민은행"}, {"주택은행", "KB국민은행"},
	{"하나은행", "KEB하나은행"}, {"KEB", "KEB하나은행"}, {"외환은행", "KEB하나은행"},
	{"신한은행", "신한은행"}, {"신한", "신한은행"}, {"조흥은행", "신한은행"},
	{"우리은행", "우리은행"}, {"우리", "우리은행"}, {"상업은행", "우리은행"},
	{"한일은행", "우리은행"}, {"평화은행", "우리은행"},
	{"SC제일", "SC제일은행"}, {"제일은행", "SC제일은행"},
	{"씨티은행", "한국씨티은행"}, {"씨티", "한국씨티은행"}, {"한미은행", "한국씨티은행"},
	{"대구은행", "대구은행"}, {"DGB", "대구은행"},
	{"부산은행", "BNK부산은행"}, {"BNK", "BNK부산은행"},
	{"농협", "NH농협은행"}, {"NH", "NH농협은행"},
	{"단위농협", "단위농협"}, {"지역농협", "단위농협"},
	{"수협", "수협중앙회"},
	{"새마을금고", "새마을금고"}, {"새마을", "새마을금고"},
	{"카카오뱅크", "카카오뱅크"}, {"카카오", "카카오뱅크"},
	{"케이뱅크", "케이뱅크"},
	{"토스뱅크", "토스뱅크"}, {"토스", "토스뱅크"},
}

var contextKeywords = []string{
	"계좌", "계좌번호", "account", "입금", "송금", "이체", "출금",
	"은행", "bank", "예금", "적금", "급여", "월급", "정산",
	"입금계좌", "출금계좌", "환불계좌", "급여계좌", "결제계좌",
	"보통예금", "저축예금", "자유저축", "정기예금", "정기적금",
}

// Validator checks bank account numbers against the bank-format registry
type Validator struct {
	registry *bankformats.Registry
	filter   *nuisance.Filter
}

// NewValidator creates an account validator over the built-in registry
func NewValidator() *Validator {
	return &Validator{registry: bankformats.Default(), filter: nuisance.Default}
}

// WithFilter replaces the nuisance filter
func (v *Validator) WithFilter(f *nuisance.Filter) *Validator {
	v.filter = f
	return v
}

// WithRegistry replaces the bank-format registry
func (v *Validator) WithRegistry(r *bankformats.Registry) *Validator {
	v.registry = r
	return v
}

// Normalize removes hyphens and whitespace
func Normalize(value string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '-', ' ', '\t', '\n', '\r':
			return -1
		}
		return r
	}, value)
}

// Validate checks the surface form: 10 to 16 digits
func (v *Validator) Validate(value, _ string) bool {
	digits := Normalize(value)
	if len(digits) < 10 || len(digits) > 16 {
		return false
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return false
		}
	}
	return true
}

// InvalidReason returns a non-empty reason when the account number is a dummy
// value, using the built-in nuisance tables
func InvalidReason(value string) string {
	return invalidReason(nuisance.Default, value)
}

func invalidReason(f *nuisance.Filter, value string) string {
	if value == "" {
		return "빈 값"
	}
	digits := nuisance.Digits(Normalize(value))

	if len(digits) < 10 || len(digits) > 16 {
		return fmt.Sprintf("길이 범위 이탈: %d자리", len(digits))
	}
	if f.IsTestAccount(digits) || (len(digits) <= 14 && nuisance.AllSame(digits)) {
		return "무효 패턴: " + digits
	}
	if nuisance.AllSame(digits) {
		return "전체 동일 숫자"
	}
	if nuisance.HasRepeatRun(digits, 8) {
		return "동일 숫자 8자리 이상 반복"
	}
	if nuisance.SequentialRun(digits) >= 8 {
		return "순차 패턴 8자리 이상"
	}
	if nuisance.IsTwoDigitRepeat(digits) {
		return "2자리 반복 패턴"
	}
	return ""
}

// DetectBank returns the bank named in context, or "" when none is mentioned
func DetectBank(context string) string {
	lower := strings.ToLower(context)
	for _, k := range bankKeywords {
		if strings.Contains(lower, strings.ToLower(k.keyword)) {
			return k.bank
		}
	}
	return ""
}

// HasAccountContext reports whether context mentions accounts, transfers or a bank
func HasAccountContext(context string) bool {
	lower := strings.ToLower(context)
	for _, k := range contextKeywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	for _, k := range bankKeywords {
		if strings.Contains(lower, strings.ToLower(k.keyword)) {
			return true
		}
	}
	return false
}

// ValidateFull applies the dummy filter and the bank-format ladder
func (v *Validator) ValidateFull(value, context string) detector.Result {
	if !v.Validate(value, context) {
		return detector.RejectWith("format")
	}
	digits := Normalize(value)
	if reason := invalidReason(v.filter, digits); reason != "" {
		return detector.RejectWith(reason)
	}

	if bank := DetectBank(context); bank != "" {
		if lengths := v.registry.ValidLengths(bank); len(lengths) > 0 && !slices.Contains(lengths, len(digits)) {
			return detector.AcceptWith(detector.TypeAccount, detector.ConfidenceMedium)
		}

		code, ok := v.registry.ExtractSubjectCode(digits, bank)
		if !ok {
			return detector.AcceptWith(detector.TypeAccount, detector.ConfidenceHigh)
		}
		if valid, _ := v.registry.MatchSubjectCode(bank, code); valid {
			return detector.AcceptWith(detector.TypeAccount, detector.ConfidenceHigh)
		}
		return detector.AcceptWith(detector.TypeAccount, detector.ConfidenceMedium)
	}

	if HasAccountContext(context) {
		return detector.AcceptWith(detector.TypeAccount, detector.ConfidenceMedium)
	}
	return detector.AcceptWith(detector.TypeAccount+detector.SuspectSuffix, detector.ConfidenceLow)
}

// PossibleBanks returns the banks that issue account numbers of this length
func (v *Validator) PossibleBanks(value string) []bankformats.Bank {
	return v.registry.BanksByLength(len(Normalize(value)))
}

// Analysis is a detailed breakdown of an account number
type Analysis struct {
	Value            string             `json:"value"`
	Digits           string             `json:"digits"`
	Length           int                `json:"length"`
	DetectedBank     string             `json:"detected_bank"`
	ValidFormat      bool               `json:"is_valid_format"`
	InvalidPattern   bool               `json:"is_invalid_pattern"`
	InvalidReason    string             `json:"invalid_reason,omitempty"`
	SubjectCode      string             `json:"subject_code,omitempty"`
	SubjectCodeValid *bool              `json:"subject_code_valid,omitempty"`
	AccountType      string             `json:"account_type,omitempty"`
	PossibleBanks    []bankformats.Bank `json:"possible_banks"`
}

// Analyze explains how an account number relates to the registry
func (v *Validator) Analyze(value, context string) Analysis {
	digits := Normalize(value)
	a := Analysis{
		Value:         value,
		Digits:        digits,
		Length:        len(digits),
		DetectedBank:  DetectBank(context),
		ValidFormat:   v.Validate(value, ""),
		PossibleBanks: v.PossibleBanks(value),
	}

	a.InvalidReason = invalidReason(v.filter, digits)
	a.InvalidPattern = a.InvalidReason != ""
	if a.InvalidPattern || a.DetectedBank == "" {
		return a
	}

	if code, ok := v.registry.ExtractSubjectCode(digits, a.DetectedBank); ok {
		valid, accountType := v.registry.MatchSubjectCode(a.DetectedBank, code)
		a.SubjectCode = code
		a.SubjectCodeValid = &valid
		a.AccountType = accountType
	}
	return a
}
