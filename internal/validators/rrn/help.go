// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package rrn

import (
	"kpii-scan/internal/detector"
	"kpii-scan/internal/help"
)

// GetCheckInfo returns standardized information about the registration number check
func (v *Validator) GetCheckInfo() help.CheckInfo {
	name, codes := "RRN", "1-4 (내국인)"
	if v.label != detector.TypeRRN {
		name, codes = "FOREIGN_RRN", "5-8 (외국인)"
	}
	return help.CheckInfo{
		Name:             name,
		Label:            v.label,
		ShortDescription: "Detects Korean registration numbers with date and checksum validation",
		DetailedDescription: `The registration number check detects 13-digit numbers written as YYMMDD-GNNNNNN.

The first six digits must be a real calendar date and the seventh digit selects the century and the holder type. Numbers issued to people born before October 2020 carry a mod-11 check digit and are rejected when it does not match. Later numbers have a randomized tail and are reported as suspect. Dummy values such as repeated or sequential digits are rejected before any checksum work.`,

		Patterns: []string{
			"YYMMDD-GNNNNNN (e.g., 900101-1234568)",
			"13 digits without separator",
		},

		SupportedFormats: []string{
			"Gender/century digit " + codes,
		},

		ConfidenceFactors: []help.ConfidenceFactor{
			{Name: "Birth date", Description: "Must be a real calendar date", Weight: 30},
			{Name: "Dummy filter", Description: "Must not be repeated, sequential or a known test value", Weight: 30},
			{Name: "Checksum", Description: "Weighted mod-11 check digit for births before 2020-10-01", Weight: 40},
		},

		Examples: []string{
			"kpii-scan --file member-list.txt --checks " + name,
		},
	}
}
