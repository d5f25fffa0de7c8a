// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package email

import "kpii-scan/internal/help"

// GetCheckInfo returns standardized information about the email check
func (v *Validator) GetCheckInfo() help.CheckInfo {
	return help.CheckInfo{
		Name:             "EMAIL",
		Label:            "이메일",
		ShortDescription: "Detects email addresses",
		DetailedDescription: `The Email check detects email addresses and validates the local part, the domain and the top-level label separately.

Email addresses are unambiguous, so every well-formed match is reported with high confidence. Masking keeps the first character of the local part and the whole domain.`,

		Patterns: []string{
			"user@example.co.kr",
			"first.last+tag@company.com",
		},

		SupportedFormats: []string{
			"Local part up to 64 characters (letters, digits, . _ % + -)",
			"Dotted domain with an alphabetic top-level label",
		},

		ConfidenceFactors: []help.ConfidenceFactor{
			{Name: "Structure", Description: "Exactly one @ with valid local part and domain", Weight: 70},
			{Name: "Top-level label", Description: "At least two letters", Weight: 30},
		},

		PositiveKeywords: v.positiveKeywords,

		Examples: []string{
			"kpii-scan --file contacts.txt --checks EMAIL",
		},
	}
}
