// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package ipaddress

import "kpii-scan/internal/help"

// GetCheckInfo returns standardized information about the IP address check
func (v *Validator) GetCheckInfo() help.CheckInfo {
	return help.CheckInfo{
		Name:             "IP_ADDRESS",
		Label:            "IP주소",
		ShortDescription: "Detects IPv4 addresses",
		DetailedDescription: `The IP Address check detects dotted-quad IPv4 addresses.

Each octet must be between 0 and 255 and the all-zero address is ignored. IP addresses are general personal information only when combined with other data, so every finding is reported with medium confidence.`,

		Patterns: []string{
			"IPv4: 192.168.1.1, 10.0.0.1, 172.16.0.1",
		},

		SupportedFormats: []string{
			"IPv4 standard format (XXX.XXX.XXX.XXX)",
			"Private IP ranges (10.x.x.x, 172.16-31.x.x, 192.168.x.x)",
			"Reserved IP ranges (127.x.x.x, 169.254.x.x, etc.)",
		},

		ConfidenceFactors: []help.ConfidenceFactor{
			{Name: "Valid Format", Description: "Four octets between 0 and 255", Weight: 60},
			{Name: "Not Empty", Description: "Must not be 0.0.0.0", Weight: 40},
		},

		PositiveKeywords: v.positiveKeywords,

		Examples: []string{
			"kpii-scan --file server-logs.log --checks IP_ADDRESS",
		},
	}
}
