// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package detector

import "strings"

// Method records which stage produced a span
type Method string

const (
	MethodRegex       Method = "regex"
	MethodLLM         Method = "llm"
	MethodUserPattern Method = "user_pattern"
)

// Confidence is the qualitative certainty attached to a span
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Rank orders confidences so callers can compare them (high > medium > low)
func (c Confidence) Rank() int {
	switch c {
	case ConfidenceHigh:
		return 3
	case ConfidenceMedium:
		return 2
	case ConfidenceLow:
		return 1
	default:
		return 0
	}
}

// LegalCategory is the classification under the Personal Information Protection Act
// (or the Unfair Competition Prevention Act for trade secrets)
type LegalCategory string

const (
	CategoryUniqueIdentifier LegalCategory = "고유식별정보"
	CategorySensitive        LegalCategory = "민감정보"
	CategoryFinancial        LegalCategory = "금융정보"
	CategoryTradeSecret      LegalCategory = "기업기밀"
	CategoryUserDefined      LegalCategory = "사용자정의"
	CategoryGeneral          LegalCategory = "일반개인정보"
)

// CategoryInfo is the display entry for a legal category
type CategoryInfo struct {
	Key       string // stable English key used in machine-readable output
	Label     string // Korean display label
	Article   string // governing article
	Weight    int    // per-span risk weight
	Violation string // violation notice emitted when the category is present
}

// Categories is the fixed translation table for every legal category, in reporting order.
var Categories = []CategoryInfo{
	{Key: "unique_identifier", Label: string(CategoryUniqueIdentifier), Article: "제24조", Weight: 20, Violation: "제24조(고유식별정보 처리제한)"},
	{Key: "financial", Label: string(CategoryFinancial), Article: "제34조의2", Weight: 15, Violation: "제34조의2(노출금지)"},
	{Key: "sensitive", Label: string(CategorySensitive), Article: "제23조", Weight: 12, Violation: "제23조(민감정보 처리제한)"},
	{Key: "trade_secret", Label: string(CategoryTradeSecret), Article: "부정경쟁방지법", Weight: 12, Violation: "부정경쟁방지법(영업비밀 보호)"},
	{Key: "user_defined", Label: string(CategoryUserDefined), Article: "", Weight: 0, Violation: "사용자정의 패턴 탐지"},
	{Key: "general", Label: string(CategoryGeneral), Article: "제2조", Weight: 5, Violation: ""},
}

// Info returns the table entry for the category; unknown values map to the general category.
func (c LegalCategory) Info() CategoryInfo {
	for _, info := range Categories {
		if info.Label == string(c) {
			return info
		}
	}
	return Categories[len(Categories)-1]
}

// Key returns the English key for the category
func (c LegalCategory) Key() string {
	return c.Info().Key
}

// Type names produced by the regex scanner
const (
	TypeRRN           = "주민등록번호"
	TypeForeignRRN    = "외국인등록번호"
	TypePassport      = "여권번호"
	TypeDriverLicense = "운전면허번호"
	TypeCard          = "카드번호"
	TypeMobile        = "휴대전화"
	TypePhone         = "전화번호"
	TypeEmail         = "이메일"
	TypeAccount       = "계좌번호"
	TypeAddress       = "주소"
	TypeIP            = "IP주소"

	// SuspectSuffix marks a span whose checksum or context did not fully confirm it
	SuspectSuffix = "(의심)"

	// UserPatternPrefix prefixes the type of spans produced by user patterns
	UserPatternPrefix = "사용자정의:"
)

// LegalCategoryOf maps a detection type to its legal category
func LegalCategoryOf(infoType string) LegalCategory {
	switch BaseType(infoType) {
	case TypeRRN, TypeForeignRRN, TypePassport, TypeDriverLicense:
		return CategoryUniqueIdentifier
	case TypeCard, TypeAccount:
		return CategoryFinancial
	}
	if strings.HasPrefix(infoType, UserPatternPrefix) {
		return CategoryUserDefined
	}
	return CategoryGeneral
}

// IsExposureProhibited reports whether the type falls under the exposure prohibition (article 34-2)
func IsExposureProhibited(infoType string) bool {
	switch BaseType(infoType) {
	case TypeCard, TypeAccount:
		return true
	}
	return false
}

// BaseType strips any parenthesised qualifier such as "(의심)" or "(API확인)" from a type label
func BaseType(infoType string) string {
	if i := strings.Index(infoType, "("); i > 0 {
		return infoType[:i]
	}
	return infoType
}

// IsSuspect reports whether the label carries the suspect marker
func IsSuspect(label string) bool {
	return strings.Contains(label, "의심")
}

// DetectedSpan is one finding in a document. Start and End are character offsets.
type DetectedSpan struct {
	Type               string        `json:"type" yaml:"type"`
	Value              string        `json:"value" yaml:"value"`
	Start              int           `json:"start" yaml:"start"`
	End                int           `json:"end" yaml:"end"`
	Context            string        `json:"context,omitempty" yaml:"context,omitempty"`
	Method             Method        `json:"method" yaml:"method"`
	Confidence         Confidence    `json:"confidence" yaml:"confidence"`
	LegalCategory      LegalCategory `json:"legal_category" yaml:"legal_category"`
	ExposureProhibited bool          `json:"exposure_prohibited" yaml:"exposure_prohibited"`
	HasContext         bool          `json:"has_context,omitempty" yaml:"has_context,omitempty"`

	Score       *int   `json:"score,omitempty" yaml:"score,omitempty"`
	Person      string `json:"person,omitempty" yaml:"person,omitempty"`
	Reason      string `json:"reason,omitempty" yaml:"reason,omitempty"`
	Indicator   string `json:"indicator,omitempty" yaml:"indicator,omitempty"`
	PatternName string `json:"pattern_name,omitempty" yaml:"pattern_name,omitempty"`
}

// Len returns the span length in characters
func (s DetectedSpan) Len() int {
	return s.End - s.Start
}

// Clear wipes the span's sensitive fields
func (s *DetectedSpan) Clear() {
	s.Value = ""
	s.Context = ""
	s.Person = ""
}

// Result is the normalized outcome of a full validation
type Result struct {
	Valid      bool
	Label      string
	Confidence *Confidence // nil when the validator only yields a binary verdict
	Reason     string
}

// Reject returns an invalid result
func Reject() Result {
	return Result{}
}

// RejectWith returns an invalid result carrying a reason
func RejectWith(reason string) Result {
	return Result{Reason: reason}
}

// Accept returns a valid result with the given label
func Accept(label string) Result {
	return Result{Valid: true, Label: label}
}

// AcceptWith returns a valid result with an explicit confidence
func AcceptWith(label string, confidence Confidence) Result {
	c := confidence
	return Result{Valid: true, Label: label, Confidence: &c}
}

// ConfidenceOrDefault derives a confidence for a valid result: explicit if set,
// otherwise medium for suspect labels and high for confirmed ones.
func (r Result) ConfidenceOrDefault() Confidence {
	if r.Confidence != nil {
		return *r.Confidence
	}
	if !r.Valid {
		return ConfidenceLow
	}
	if IsSuspect(r.Label) {
		return ConfidenceMedium
	}
	return ConfidenceHigh
}

// Validator checks a candidate value for one identifier type.
// Validate is the cheap detection-stage check; ValidateFull applies nuisance
// filters and checksums.
type Validator interface {
	Validate(value, context string) bool
	ValidateFull(value, context string) Result
}
