// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package driverlicense

import "kpii-scan/internal/help"

// GetCheckInfo returns standardized information about the driver license check
func (v *Validator) GetCheckInfo() help.CheckInfo {
	return help.CheckInfo{
		Name:             "DRIVER_LICENSE",
		Label:            "운전면허번호",
		ShortDescription: "Detects Korean driver license numbers with region and checksum validation",
		DetailedDescription: `The Driver License check detects 12-digit Korean driver license numbers written as RR-YY-SSSSSS-CC.

The first two digits must be a known issuing region. Dummy values and repeated serials are rejected, and the last two digits are checked against a weighted sum of the first ten. Numbers that fail the checksum are reported as suspect. When CODEF credentials are configured the license can also be confirmed online with --verify-license.`,

		Patterns: []string{
			"RR-YY-SSSSSS-CC (e.g., 11-23-482195-66)",
			"12 digits without separators",
		},

		SupportedFormats: []string{
			"11 서울, 12 부산, 13 경기, 14 강원, 15 충북, 16 충남, 17 전북, 18 전남, 19 경북",
			"20 경남, 21 제주, 22 대구, 23 인천, 24 광주, 25 대전, 26 울산, 28 세종",
		},

		ConfidenceFactors: []help.ConfidenceFactor{
			{Name: "Region code", Description: "Must be a known issuing region", Weight: 30},
			{Name: "Dummy filter", Description: "Number and serial must not be repeated or sequential", Weight: 30},
			{Name: "Checksum", Description: "Weighted sum mod 100 must equal the last two digits", Weight: 40},
		},

		PositiveKeywords: v.positiveKeywords,

		ConfigurationInfo: "Online verification reads KPII_CODEF_CLIENT_ID and KPII_CODEF_CLIENT_SECRET",

		Examples: []string{
			"kpii-scan --file hr-records.txt --checks DRIVER_LICENSE",
			"kpii-scan --verify-license 11-23-482195-66 --name 홍길동 --birth 19900115 --serial A1B2C3",
		},
	}
}
