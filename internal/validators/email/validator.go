// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package email

import (
	"regexp"
	"strings"

	"kpii-scan/internal/detector"
)

var (
	usernameChars = regexp.MustCompile(`^[A-Za-z0-9._%+-]+$`)
	domainChars   = regexp.MustCompile(`^[A-Za-z0-9.-]+$`)
	tldChars      = regexp.MustCompile(`^[A-Za-z]{2,}$`)
)

// Validator checks email addresses
type Validator struct {
	// Keywords that suggest an email context
	positiveKeywords []string

	consumerProviders map[string]string
}

// NewValidator creates an email validator
func NewValidator() *Validator {
	return &Validator{
		positiveKeywords: []string{
			"이메일", "메일", "email", "e-mail", "mailto", "연락처", "contact",
		},
		consumerProviders: map[string]string{
			"naver.com":   "NAVER",
			"daum.net":    "DAUM",
			"hanmail.net": "DAUM",
			"kakao.com":   "KAKAO",
			"nate.com":    "NATE",
			"gmail.com":   "GMAIL",
			"outlook.com": "OUTLOOK",
			"hotmail.com": "OUTLOOK",
			"yahoo.com":   "YAHOO",
			"icloud.com":  "ICLOUD",
		},
	}
}

// Validate checks the address structure: a 1-64 character local part and a
// dotted domain with an alphabetic top-level label
func (v *Validator) Validate(value, _ string) bool {
	value = strings.TrimSpace(value)
	if len(value) == 0 || len(value) > 254 {
		return false
	}

	username, domain, ok := strings.Cut(value, "@")
	if !ok || strings.Contains(domain, "@") {
		return false
	}
	if len(username) == 0 || len(username) > 64 || !usernameChars.MatchString(username) {
		return false
	}
	if len(domain) == 0 || len(domain) > 253 || !domainChars.MatchString(domain) {
		return false
	}

	labels := strings.Split(domain, ".")
	if len(labels) < 2 {
		return false
	}
	for _, l := range labels {
		if l == "" {
			return false
		}
	}
	return tldChars.MatchString(labels[len(labels)-1])
}

// ValidateFull accepts well-formed addresses with high confidence
func (v *Validator) ValidateFull(value, context string) detector.Result {
	if !v.Validate(value, context) {
		return detector.RejectWith("format")
	}
	return detector.AcceptWith(detector.TypeEmail, detector.ConfidenceHigh)
}

// Provider returns the mail provider for well-known consumer domains, or "BUSINESS"
func (v *Validator) Provider(value string) string {
	_, domain, ok := strings.Cut(strings.TrimSpace(value), "@")
	if !ok {
		return ""
	}
	if p, found := v.consumerProviders[strings.ToLower(domain)]; found {
		return p
	}
	return "BUSINESS"
}
