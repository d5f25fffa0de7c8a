// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package passport

import "kpii-scan/internal/help"

// GetCheckInfo returns standardized information about the passport check
func (v *Validator) GetCheckInfo() help.CheckInfo {
	return help.CheckInfo{
		Name:             "PASSPORT",
		Label:            "여권번호",
		ShortDescription: "Detects Korean passport numbers (legacy, next-generation and old layouts)",
		DetailedDescription: `The Passport check detects Korean passport numbers in the three layouts issued so far.

Passport numbers carry no check digit, so validation relies on the issuing code (M, S, D, R, G, O, P) and on a dummy-value filter applied to the serial digits. Old layouts starting with P must use one of the recognised second codes.`,

		Patterns: []string{
			"Legacy: 1 letter + 8 digits (e.g., M12345678)",
			"Next generation: 1 letter + 3 digits + 1 letter + 4 digits (e.g., M123A4567)",
			"Old: 2 letters + 7 digits (e.g., PM1234567)",
		},

		SupportedFormats: []string{
			"M 일반여권, S 관용여권, D 외교관여권, R 거주여권, G 긴급여권, O 관광취업여권, P 전자여권",
			"PM 복수여권, PS 단수여권, PE 긴급여권, PT 여행증명서, PZ 난민용여행증명서",
		},

		ConfidenceFactors: []help.ConfidenceFactor{
			{Name: "Issuing code", Description: "First letter must be a known passport type", Weight: 50},
			{Name: "Dummy filter", Description: "Serial must not be repeated or sequential", Weight: 50},
		},

		PositiveKeywords: v.positiveKeywords,

		Examples: []string{
			"kpii-scan --file travel-documents.txt --checks PASSPORT",
		},
	}
}
