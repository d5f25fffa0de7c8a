// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package shared

import (
	"kpii-scan/internal/core"
	"kpii-scan/internal/detector"
	"kpii-scan/internal/formatters"
	"kpii-scan/internal/redactors"
	"kpii-scan/internal/risk"
)

// JSONResponse represents the top-level response structure for JSON/YAML output
type JSONResponse struct {
	Files   []JSONFile  `json:"files" yaml:"files"`
	Summary JSONSummary `json:"summary" yaml:"summary"`
}

// JSONSummary aggregates every file in the response
type JSONSummary struct {
	Files        int    `json:"files" yaml:"files"`
	Failed       int    `json:"failed" yaml:"failed"`
	Items        int    `json:"items" yaml:"items"`
	HighestScore int    `json:"highest_risk_score" yaml:"highest_risk_score"`
	HighestLevel string `json:"highest_risk_level" yaml:"highest_risk_level"`
}

// JSONFile is the result for one document
type JSONFile struct {
	Path            string                 `json:"path,omitempty" yaml:"path,omitempty"`
	Format          string                 `json:"format,omitempty" yaml:"format,omitempty"`
	Error           string                 `json:"error,omitempty" yaml:"error,omitempty"`
	ScanID          string                 `json:"scan_id,omitempty" yaml:"scan_id,omitempty"`
	RiskLevel       string                 `json:"risk_level,omitempty" yaml:"risk_level,omitempty"`
	RiskScore       int                    `json:"risk_score" yaml:"risk_score"`
	Reasoning       string                 `json:"reasoning,omitempty" yaml:"reasoning,omitempty"`
	Upgraded        bool                   `json:"upgraded,omitempty" yaml:"upgraded,omitempty"`
	LegalViolations []string               `json:"legal_violations,omitempty" yaml:"legal_violations,omitempty"`
	CategorySummary map[string]int         `json:"category_summary,omitempty" yaml:"category_summary,omitempty"`
	Recommendations []string               `json:"recommendations,omitempty" yaml:"recommendations,omitempty"`
	Items           []JSONItem             `json:"detected_items" yaml:"detected_items"`
	LegalSummary    []risk.CategorySummary `json:"legal_summary,omitempty" yaml:"legal_summary,omitempty"`
	Stats           *core.Stats            `json:"stats,omitempty" yaml:"stats,omitempty"`
	MaskedText      string                 `json:"masked_text,omitempty" yaml:"masked_text,omitempty"`
	DurationMs      int64                  `json:"duration_ms,omitempty" yaml:"duration_ms,omitempty"`
}

// JSONItem represents a single detected span in JSON/YAML format
type JSONItem struct {
	Type               string `json:"type" yaml:"type"`
	Value              string `json:"value" yaml:"value"`
	Start              int    `json:"start" yaml:"start"`
	End                int    `json:"end" yaml:"end"`
	Confidence         string `json:"confidence" yaml:"confidence"`
	Method             string `json:"method" yaml:"method"`
	LegalCategory      string `json:"legal_category" yaml:"legal_category"`
	ExposureProhibited bool   `json:"exposure_prohibited" yaml:"exposure_prohibited"`
	Context            string `json:"context,omitempty" yaml:"context,omitempty"`
	Person             string `json:"person,omitempty" yaml:"person,omitempty"`
	Reason             string `json:"reason,omitempty" yaml:"reason,omitempty"`
	Indicator          string `json:"indicator,omitempty" yaml:"indicator,omitempty"`
	PatternName        string `json:"pattern_name,omitempty" yaml:"pattern_name,omitempty"`
	Score              *int   `json:"score,omitempty" yaml:"score,omitempty"`
}

var masker = redactors.NewMasker()

// DisplayValue returns the value as it should be shown: masked unless ShowMatch is set
func DisplayValue(span detector.DetectedSpan, options formatters.FormatterOptions) string {
	if options.ShowMatch {
		return span.Value
	}
	return masker.StrategyFor(span.Type).Redact(span.Value)
}

// displaySummary masks the sample values of the legal summary unless ShowMatch is set
func displaySummary(summary []risk.CategorySummary, options formatters.FormatterOptions) []risk.CategorySummary {
	if options.ShowMatch || len(summary) == 0 {
		return summary
	}
	out := make([]risk.CategorySummary, len(summary))
	for i, category := range summary {
		out[i] = category
		out[i].Items = make([]risk.SummaryItem, len(category.Items))
		for j, item := range category.Items {
			item.Value = masker.StrategyFor(item.Type).Redact(item.Value)
			out[i].Items[j] = item
		}
	}
	return out
}

// ConvertResults converts file results to the JSON/YAML structure
func ConvertResults(results []core.FileResult, options formatters.FormatterOptions) JSONResponse {
	response := JSONResponse{Files: make([]JSONFile, 0, len(results))}
	highest := -1

	for _, result := range results {
		file := JSONFile{Path: result.Path, Format: string(result.Format), Items: []JSONItem{}}
		if result.Err != nil || result.Report == nil {
			file.Error = result.Error
			if file.Error == "" && result.Err != nil {
				file.Error = result.Err.Error()
			}
			response.Summary.Failed++
			response.Files = append(response.Files, file)
			continue
		}

		report := result.Report
		file.ScanID = report.ScanID
		file.LegalSummary = displaySummary(report.LegalSummary, options)
		file.DurationMs = report.DurationMs
		file.MaskedText = report.Masked
		if options.Verbose {
			stats := report.Stats
			file.Stats = &stats
		}
		if a := report.Risk; a != nil {
			file.RiskLevel = string(a.Level)
			file.RiskScore = a.Score
			file.Reasoning = a.Reasoning
			file.Upgraded = a.Upgraded
			file.LegalViolations = a.LegalViolations
			file.Recommendations = a.Recommendations
			file.CategorySummary = make(map[string]int, len(a.CategorySummary))
			for category, n := range a.CategorySummary {
				file.CategorySummary[category.Key()] = n
			}
			if a.Score > highest {
				highest = a.Score
				response.Summary.HighestScore = a.Score
				response.Summary.HighestLevel = string(a.Level)
			}
		}

		for _, span := range report.Spans {
			item := JSONItem{
				Type:               span.Type,
				Value:              DisplayValue(span, options),
				Start:              span.Start,
				End:                span.End,
				Confidence:         string(span.Confidence),
				Method:             string(span.Method),
				LegalCategory:      string(span.LegalCategory),
				ExposureProhibited: span.ExposureProhibited,
				Person:             span.Person,
				Reason:             span.Reason,
				Indicator:          span.Indicator,
				PatternName:        span.PatternName,
				Score:              span.Score,
			}
			if options.Verbose && options.ShowMatch {
				item.Context = span.Context
			}
			file.Items = append(file.Items, item)
		}
		response.Summary.Items += len(file.Items)
		response.Files = append(response.Files, file)
	}

	response.Summary.Files = len(results)
	return response
}
