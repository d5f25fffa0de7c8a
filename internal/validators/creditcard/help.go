// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package creditcard

import "kpii-scan/internal/help"

// GetCheckInfo returns standardized information about the card check
func (v *Validator) GetCheckInfo() help.CheckInfo {
	return help.CheckInfo{
		Name:             "CARD",
		Label:            "카드번호",
		ShortDescription: "Detects payment card numbers validated with the Luhn algorithm",
		DetailedDescription: `The Card check detects 15 and 16 digit payment card numbers written in groups of four with spaces or hyphens, or without separators.

Well-known test numbers and trivial sequences are rejected, and the remaining candidates must pass the Luhn check. Card numbers fall under the exposure prohibition for financial information and are always masked in output.`,

		Patterns: []string{
			"NNNN-NNNN-NNNN-NNNN",
			"NNNN NNNN NNNN NNNN",
			"NNNNNNNNNNNNNNN(N)",
		},

		SupportedFormats: []string{
			"VISA - starts with 4",
			"MasterCard - starts with 51-55",
			"AMEX - starts with 34 or 37",
			"JCB - starts with 35",
			"Discover/UnionPay - starts with 6",
			"국내전용 - starts with 9",
		},

		ConfidenceFactors: []help.ConfidenceFactor{
			{Name: "Test number filter", Description: "Known test and dummy numbers are rejected", Weight: 30},
			{Name: "Luhn check", Description: "Mod-10 check digit must verify", Weight: 70},
		},

		PositiveKeywords: v.positiveKeywords,

		Examples: []string{
			"kpii-scan --file payments.csv --checks CARD",
		},
	}
}
