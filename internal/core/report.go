// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package core

import (
	"time"

	"kpii-scan/internal/detector"
	"kpii-scan/internal/risk"
)

// Stats counts spans at each pipeline stage
type Stats struct {
	Regex            int    `json:"regex" yaml:"regex"`
	Sensitive        int    `json:"sensitive" yaml:"sensitive"`
	Confidential     int    `json:"confidential" yaml:"confidential"`
	UserPatterns     int    `json:"user_patterns" yaml:"user_patterns"`
	Combined         int    `json:"combined" yaml:"combined"`
	Excluded         int    `json:"excluded" yaml:"excluded"`
	Filtered         int    `json:"filtered" yaml:"filtered"`
	DocumentAnalysis string `json:"document_analysis" yaml:"document_analysis"`
}

// Report is the result of analyzing one document
type Report struct {
	ScanID       string                  `json:"scan_id" yaml:"scan_id"`
	Source       string                  `json:"source,omitempty" yaml:"source,omitempty"`
	Characters   int                     `json:"characters" yaml:"characters"`
	Spans        []detector.DetectedSpan `json:"detected_items" yaml:"detected_items"`
	Risk         *risk.Assessment        `json:"risk" yaml:"risk"`
	LegalSummary []risk.CategorySummary  `json:"legal_summary" yaml:"legal_summary"`
	Stats        Stats                   `json:"stats" yaml:"stats"`
	Masked       string                  `json:"masked_text,omitempty" yaml:"masked_text,omitempty"`
	CreatedAt    time.Time               `json:"created_at" yaml:"created_at"`
	DurationMs   int64                   `json:"duration_ms" yaml:"duration_ms"`
}

// CountByType returns the number of spans per base type, ignoring the suspect marker
func (r *Report) CountByType() map[string]int {
	counts := make(map[string]int)
	for _, s := range r.Spans {
		counts[detector.BaseType(s.Type)]++
	}
	return counts
}

// HasFindings reports whether any span was detected
func (r *Report) HasFindings() bool {
	return len(r.Spans) > 0
}
