// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package account

import "kpii-scan/internal/help"

// GetCheckInfo returns standardized information about the account check
func (v *Validator) GetCheckInfo() help.CheckInfo {
	return help.CheckInfo{
		Name:             "ACCOUNT",
		Label:            "계좌번호",
		ShortDescription: "Detects bank account numbers using per-bank layouts and context",
		DetailedDescription: `The Account check detects Korean bank account numbers of 10 to 16 digits.

Account numbers have no universal checksum. A candidate is only reported when account or bank keywords appear near it. When a bank is named, the number's length and subject code (the digits that encode the account kind) are checked against that bank's known layouts. Numbers confirmed by layout are reported with high confidence; others with medium confidence.`,

		Patterns: []string{
			"NNN-NN-NNNNNN (grouped with hyphens)",
			"10 to 16 digits without separators",
		},

		SupportedFormats: []string{
			"KB국민, 신한, 우리, KEB하나, IBK기업, NH농협, 단위농협, 한국산업",
			"SC제일, 한국씨티, 대구, BNK부산, 수협, 새마을금고",
			"카카오뱅크, 케이뱅크, 토스뱅크",
		},

		ConfidenceFactors: []help.ConfidenceFactor{
			{Name: "Dummy filter", Description: "Repeated, sequential and alternating digits are rejected", Weight: 20},
			{Name: "Bank keyword", Description: "A bank name in context selects the layout to check", Weight: 30},
			{Name: "Length and subject code", Description: "Length and subject code must match the bank's layouts", Weight: 50},
		},

		PositiveKeywords: contextKeywords,

		ConfigurationInfo: "Bank layouts can be replaced with a YAML file via bank_formats in the configuration",

		Examples: []string{
			"kpii-scan --file payroll.xlsx.txt --checks ACCOUNT",
		},
	}
}
