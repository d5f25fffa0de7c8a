// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package scanner

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"kpii-scan/internal/detector"
)

// Rule binds a detection type to the pattern that finds its candidates
type Rule struct {
	Type    string
	Check   string
	Pattern *regexp.Regexp
}

// PriorityOrder is the order in which types claim text. Unique identifiers go
// first, then unambiguous contact formats, then types that need context.
var PriorityOrder = []string{
	detector.TypeRRN,
	detector.TypeForeignRRN,
	detector.TypePassport,
	detector.TypeDriverLicense,
	detector.TypeCard,
	detector.TypeMobile,
	detector.TypePhone,
	detector.TypeEmail,
	detector.TypeAccount,
	detector.TypeAddress,
	detector.TypeIP,
}

const addressRegions = `서울|부산|대구|인천|광주|대전|울산|세종|경기|강원|충북|충남|전북|전남|경북|경남|제주|` +
	`충청북도|충청남도|전라북도|전라남도|경상북도|경상남도`

// DefaultRules returns the built-in rules in priority order
func DefaultRules() []Rule {
	return []Rule{
		{Type: detector.TypeRRN, Check: "RRN", Pattern: regexp.MustCompile(`\b\d{6}[- ]?[1-4]\d{6}\b`)},
		{Type: detector.TypeForeignRRN, Check: "FOREIGN_RRN", Pattern: regexp.MustCompile(`\b\d{6}[- ]?[5-8]\d{6}\b`)},
		{Type: detector.TypePassport, Check: "PASSPORT", Pattern: regexp.MustCompile(`\b(?:[A-Z]\d{8}|[A-Z]\d{3}[A-Z]\d{4}|[A-Z]{2}\d{7})\b`)},
		{Type: detector.TypeDriverLicense, Check: "DRIVER_LICENSE", Pattern: regexp.MustCompile(`\b\d{2}[- ]?\d{2}[- ]?\d{6}[- ]?\d{2}\b`)},
		{Type: detector.TypeCard, Check: "CARD", Pattern: regexp.MustCompile(`\b(?:\d{4}[- ]?\d{4}[- ]?\d{4}[- ]?\d{4}|\d{4}[- ]?\d{6}[- ]?\d{5})\b`)},
		{Type: detector.TypeMobile, Check: "PHONE", Pattern: regexp.MustCompile(`\b01[016789][- .]?\d{3,4}[- .]?\d{4}\b`)},
		{Type: detector.TypePhone, Check: "PHONE", Pattern: regexp.MustCompile(`\b0(?:2|3[1-3]|4[1-4]|5[1-5]|6[1-4]|70)[- .)]?\d{3,4}[- .]?\d{4}\b`)},
		{Type: detector.TypeEmail, Check: "EMAIL", Pattern: regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)},
		{Type: detector.TypeAccount, Check: "ACCOUNT", Pattern: regexp.MustCompile(`\b(?:\d{2,6}-\d{2,6}-\d{2,7}(?:-\d{1,5})?|\d{10,14})\b`)},
		{Type: detector.TypeAddress, Check: "ADDRESS", Pattern: regexp.MustCompile(
			`(?i)(?:` + addressRegions + `)(?:특별시|광역시|특별자치시|특별자치도|도|시)?\s+[가-힣]+(?:시|군|구)` +
				`(?:\s+[가-힣0-9]+(?:구|읍|면|동|리|로|길|가))*(?:\s+\d+(?:-\d+)?(?:번지)?)?`)},
		{Type: detector.TypeIP, Check: "IP_ADDRESS", Pattern: regexp.MustCompile(
			`\b(?:(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\.){3}(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\b`)},
	}
}

// CheckNames returns the check names accepted by ParseChecks
func CheckNames() []string {
	var names []string
	for _, r := range DefaultRules() {
		if !slices.Contains(names, r.Check) {
			names = append(names, r.Check)
		}
	}
	return names
}

// ParseChecks resolves a comma-separated check list ("all" or e.g. "RRN,CARD")
// into the set of enabled check names
func ParseChecks(list string) (map[string]bool, error) {
	known := CheckNames()
	enabled := make(map[string]bool, len(known))

	list = strings.TrimSpace(list)
	if list == "" || strings.EqualFold(list, "all") {
		for _, n := range known {
			enabled[n] = true
		}
		return enabled, nil
	}

	for _, part := range strings.Split(list, ",") {
		name := strings.ToUpper(strings.TrimSpace(part))
		if name == "" {
			continue
		}
		if !slices.Contains(known, name) {
			return nil, fmt.Errorf("unknown check %q (available: %s)", name, strings.Join(known, ", "))
		}
		enabled[name] = true
	}
	return enabled, nil
}
