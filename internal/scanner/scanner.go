// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package scanner finds identifier candidates with a priority-ordered set of
// regular expressions and confirms each one with its type's validator.
package scanner

import (
	"sort"
	"strings"

	"kpii-scan/internal/bankformats"
	"kpii-scan/internal/detector"
	"kpii-scan/internal/merge"
	"kpii-scan/internal/observability"
	"kpii-scan/internal/validators/account"
	"kpii-scan/internal/validators/creditcard"
	"kpii-scan/internal/validators/driverlicense"
	"kpii-scan/internal/validators/email"
	"kpii-scan/internal/validators/ipaddress"
	"kpii-scan/internal/validators/nuisance"
	"kpii-scan/internal/validators/passport"
	"kpii-scan/internal/validators/phone"
	"kpii-scan/internal/validators/rrn"
)

// ContextChars is the window on each side of a regex match kept as context
const ContextChars = 100

// Scanner runs the regex stage of the pipeline. A Scanner is read-only after
// construction and safe for concurrent use.
type Scanner struct {
	rules      []Rule
	enabled    map[string]bool
	validators map[string]detector.Validator
	extractor  *detector.ContextExtractor
	observer   *observability.StandardObserver
}

// Option configures a Scanner
type Option func(*options)

type options struct {
	filter   *nuisance.Filter
	registry *bankformats.Registry
	checks   map[string]bool
	observer *observability.StandardObserver
}

// WithNuisanceFilter replaces the dummy-value tables used by the validators
func WithNuisanceFilter(f *nuisance.Filter) Option {
	return func(o *options) { o.filter = f }
}

// WithBankRegistry replaces the bank-format registry used for account numbers
func WithBankRegistry(r *bankformats.Registry) Option {
	return func(o *options) { o.registry = r }
}

// WithChecks limits scanning to the given check names (see ParseChecks)
func WithChecks(enabled map[string]bool) Option {
	return func(o *options) { o.checks = enabled }
}

// WithObserver attaches timing and debug logging
func WithObserver(observer *observability.StandardObserver) Option {
	return func(o *options) { o.observer = observer }
}

// New creates a scanner with the default rules
func New(opts ...Option) *Scanner {
	o := options{filter: nuisance.Default, registry: bankformats.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.checks == nil {
		o.checks, _ = ParseChecks("all")
	}

	return &Scanner{
		rules:   DefaultRules(),
		enabled: o.checks,
		validators: map[string]detector.Validator{
			detector.TypeRRN:           rrn.NewResident().WithFilter(o.filter),
			detector.TypeForeignRRN:    rrn.NewForeign().WithFilter(o.filter),
			detector.TypePassport:      passport.NewValidator().WithFilter(o.filter),
			detector.TypeDriverLicense: driverlicense.NewValidator().WithFilter(o.filter),
			detector.TypeCard:          creditcard.NewValidator().WithFilter(o.filter),
			detector.TypeMobile:        phone.NewValidator(),
			detector.TypePhone:         phone.NewValidator(),
			detector.TypeEmail:         email.NewValidator(),
			detector.TypeAccount:       account.NewValidator().WithRegistry(o.registry).WithFilter(o.filter),
			detector.TypeAddress:       NewAddressValidator(),
			detector.TypeIP:            ipaddress.NewValidator(),
		},
		extractor: detector.NewContextExtractor().WithContextChars(ContextChars).WithFlattenNewlines(true),
		observer:  o.observer,
	}
}

// Scan returns the validated regex spans of text sorted by start offset
func (s *Scanner) Scan(text string) []detector.DetectedSpan {
	return s.ScanDocument(detector.NewDocument(text))
}

// ScanDocument returns the validated regex spans of doc sorted by start offset.
// A match is skipped when it intersects a span already accepted for a
// higher-priority type, even if it starts earlier in the text.
func (s *Scanner) ScanDocument(doc *detector.Document) []detector.DetectedSpan {
	finishTiming := s.observer.StartTiming("scanner", "regex_scan", "")

	text := doc.Text()
	var spans []detector.DetectedSpan
	for _, rule := range s.rules {
		if !s.enabled[rule.Check] {
			continue
		}
		for _, loc := range rule.Pattern.FindAllStringIndex(text, -1) {
			start, end := doc.RuneIndex(loc[0]), doc.RuneIndex(loc[1])
			if intersects(spans, start, end) {
				continue
			}

			value := strings.TrimSpace(text[loc[0]:loc[1]])
			context := s.extractor.Extract(doc, start, end)
			span, ok := s.evaluate(rule.Type, value, context)
			if !ok {
				continue
			}
			span.Start, span.End = start, end
			spans = append(spans, span)
		}
	}

	sort.SliceStable(spans, func(i, j int) bool { return spans[i].Start < spans[j].Start })
	finishTiming(true, map[string]interface{}{"match_count": len(spans)})
	return spans
}

// evaluate validates one candidate and builds its span. ok is false when the
// candidate is discarded.
func (s *Scanner) evaluate(infoType, value, context string) (detector.DetectedSpan, bool) {
	v, found := s.validators[infoType]
	if !found {
		return detector.DetectedSpan{}, false
	}
	result := v.ValidateFull(value, context)
	if !result.Valid {
		return detector.DetectedSpan{}, false
	}

	confidence := result.ConfidenceOrDefault()
	hasContext := true
	switch infoType {
	case detector.TypeMobile, detector.TypePhone:
		hasContext = false
	case detector.TypeAddress:
		hasContext = confidence == detector.ConfidenceHigh
	case detector.TypeAccount:
		// Account numbers without any bank or transfer wording are too ambiguous to report
		if confidence == detector.ConfidenceLow {
			return detector.DetectedSpan{}, false
		}
	}

	return detector.DetectedSpan{
		Type:               DisplayType(infoType, confidence),
		Value:              value,
		Context:            context,
		Method:             detector.MethodRegex,
		Confidence:         confidence,
		LegalCategory:      detector.LegalCategoryOf(infoType),
		ExposureProhibited: detector.IsExposureProhibited(infoType),
		HasContext:         hasContext,
	}, true
}

// DisplayType appends the suspect marker to types whose confidence tier is not
// conclusive. Passport and driver license labels never carry the marker.
func DisplayType(infoType string, confidence detector.Confidence) string {
	switch infoType {
	case detector.TypeRRN, detector.TypeForeignRRN, detector.TypeCard, detector.TypeAccount:
		if confidence == detector.ConfidenceMedium {
			return infoType + detector.SuspectSuffix
		}
	}
	if infoType == detector.TypeAccount && confidence == detector.ConfidenceLow {
		return infoType + detector.SuspectSuffix
	}
	return infoType
}

func intersects(spans []detector.DetectedSpan, start, end int) bool {
	for _, sp := range spans {
		if merge.Overlaps(start, end, sp.Start, sp.End) {
			return true
		}
	}
	return false
}

// Validator returns the validator used for a detection type
func (s *Scanner) Validator(infoType string) (detector.Validator, bool) {
	v, ok := s.validators[detector.BaseType(infoType)]
	return v, ok
}
