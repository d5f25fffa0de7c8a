// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package phone

import "kpii-scan/internal/help"

// GetCheckInfo returns standardized information about the phone check
func (v *Validator) GetCheckInfo() help.CheckInfo {
	return help.CheckInfo{
		Name:             "PHONE",
		Label:            "휴대전화/전화번호",
		ShortDescription: "Detects Korean mobile and landline phone numbers",
		DetailedDescription: `The Phone check detects Korean mobile numbers (010, 011, 016-019) and landline numbers with a regional or internet-phone prefix.

Mobile numbers are reported as 휴대전화 and landlines as 전화번호. Both are general personal information. Masking hides the middle group of a hyphenated number.`,

		Patterns: []string{
			"Mobile: 010-1234-5678, 01012345678",
			"Landline: 02-123-4567, 031-1234-5678",
		},

		SupportedFormats: []string{
			"02 서울, 031 경기, 032 인천, 033 강원, 041 충남, 042 대전, 043 충북, 044 세종",
			"051 부산, 052 울산, 053 대구, 054 경북, 055 경남, 061 전남, 062 광주, 063 전북, 064 제주, 070 인터넷전화",
		},

		ConfidenceFactors: []help.ConfidenceFactor{
			{Name: "Prefix", Description: "Carrier or area code must be known", Weight: 60},
			{Name: "Length", Description: "Subscriber number length must fit the prefix", Weight: 40},
		},

		PositiveKeywords: v.positiveKeywords,

		Examples: []string{
			"kpii-scan --file customers.csv --checks PHONE --mask",
		},
	}
}
