// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package core

import (
	"strings"

	"kpii-scan/internal/detector"
)

// ParseConfidenceLevels converts a comma-separated confidence level string into a map.
// "all" or empty string enables every level.
func ParseConfidenceLevels(levels string) map[string]bool {
	result := map[string]bool{
		string(detector.ConfidenceHigh):   false,
		string(detector.ConfidenceMedium): false,
		string(detector.ConfidenceLow):    false,
	}

	if levels == "all" || strings.TrimSpace(levels) == "" {
		for level := range result {
			result[level] = true
		}
		return result
	}

	for _, level := range strings.Split(levels, ",") {
		level = strings.ToLower(strings.TrimSpace(level))
		if _, ok := result[level]; ok {
			result[level] = true
		}
	}

	return result
}

// FilterByConfidence keeps spans whose confidence is enabled in levels.
// Spans without a confidence are always kept.
func FilterByConfidence(spans []detector.DetectedSpan, levels map[string]bool) []detector.DetectedSpan {
	out := make([]detector.DetectedSpan, 0, len(spans))
	for _, s := range spans {
		if s.Confidence == "" || levels[string(s.Confidence)] {
			out = append(out, s)
		}
	}
	return out
}
