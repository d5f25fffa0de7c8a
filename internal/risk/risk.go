// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package risk turns a final span list into a document risk assessment.
package risk

import (
	"fmt"
	"slices"
	"strings"

	"kpii-scan/internal/detector"
)

// Level is the qualitative risk tier
type Level string

const (
	LevelCritical Level = "심각"
	LevelHigh     Level = "높음"
	LevelModerate Level = "보통"
	LevelLow      Level = "낮음"
)

// Key returns the English key for the level
func (l Level) Key() string {
	switch l {
	case LevelCritical:
		return "critical"
	case LevelHigh:
		return "high"
	case LevelModerate:
		return "moderate"
	default:
		return "low"
	}
}

// ParseLevel accepts Korean labels or English keys
func ParseLevel(s string) (Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(LevelCritical), "critical":
		return LevelCritical, true
	case string(LevelHigh), "high":
		return LevelHigh, true
	case string(LevelModerate), "moderate", "medium":
		return LevelModerate, true
	case string(LevelLow), "low":
		return LevelLow, true
	}
	return "", false
}

// LevelFor maps a score to its tier
func LevelFor(score int) Level {
	switch {
	case score >= 75:
		return LevelCritical
	case score >= 50:
		return LevelHigh
	case score >= 25:
		return LevelModerate
	default:
		return LevelLow
	}
}

const (
	// MaxScore caps the risk score
	MaxScore = 100

	// DefaultPatternScore is used for user-pattern spans that carry no score
	DefaultPatternScore = 10

	// MaxRecommendations bounds the merged recommendation list
	MaxRecommendations = 10

	// MinRecommendations is the number of recommendations every assessment carries
	MinRecommendations = 3
)

// Assessment is the aggregate risk of one document
type Assessment struct {
	Level           Level                          `json:"risk_level" yaml:"risk_level"`
	Score           int                            `json:"risk_score" yaml:"risk_score"`
	Reasoning       string                         `json:"reasoning" yaml:"reasoning"`
	LegalViolations []string                       `json:"legal_violations" yaml:"legal_violations"`
	CategorySummary map[detector.LegalCategory]int `json:"category_summary" yaml:"category_summary"`
	Recommendations []string                       `json:"recommendations" yaml:"recommendations"`
	Upgraded        bool                           `json:"upgraded,omitempty" yaml:"upgraded,omitempty"`
}

// External is a document-level opinion from another analyzer
type External struct {
	Level           string   `json:"risk_level"`
	Score           int      `json:"risk_score"`
	Reasoning       string   `json:"reasoning"`
	Recommendations []string `json:"recommendations"`
}

// Aggregator scores span lists
type Aggregator struct {
	engine *RecommendationEngine
}

// NewAggregator creates an aggregator with the built-in recommendation rules
func NewAggregator() *Aggregator {
	return &Aggregator{engine: NewRecommendationEngine()}
}

// Counts returns the number of spans per legal category and the sum of user-pattern scores
func Counts(spans []detector.DetectedSpan) (map[detector.LegalCategory]int, int) {
	counts := make(map[detector.LegalCategory]int, len(detector.Categories))
	for _, c := range detector.Categories {
		counts[detector.LegalCategory(c.Label)] = 0
	}

	patternScore := 0
	for _, s := range spans {
		category := s.LegalCategory.Info().Label
		counts[detector.LegalCategory(category)]++
		if detector.LegalCategory(category) == detector.CategoryUserDefined {
			if s.Score != nil {
				patternScore += *s.Score
			} else {
				patternScore += DefaultPatternScore
			}
		}
	}
	return counts, patternScore
}

// Score computes the capped risk score
func Score(counts map[detector.LegalCategory]int, patternScore, total int) int {
	score := patternScore
	active := 0
	for _, c := range detector.Categories {
		n := counts[detector.LegalCategory(c.Label)]
		score += n * c.Weight
		if n > 0 {
			active++
		}
	}

	switch {
	case active >= 3:
		score += 20
	case active >= 2:
		score += 10
	}

	switch {
	case total >= 50:
		score += 15
	case total >= 20:
		score += 10
	case total >= 10:
		score += 5
	}

	return min(score, MaxScore)
}

// Assess scores spans and builds the full assessment
func (a *Aggregator) Assess(spans []detector.DetectedSpan) *Assessment {
	counts, patternScore := Counts(spans)
	score := Score(counts, patternScore, len(spans))
	level := LevelFor(score)

	var violations []string
	reasoning := []string{fmt.Sprintf("총 %d개의 민감정보가 탐지되었습니다.", len(spans))}
	for _, c := range detector.Categories {
		n := counts[detector.LegalCategory(c.Label)]
		if n == 0 {
			continue
		}
		if c.Violation != "" {
			violations = append(violations, c.Violation)
		}
		switch {
		case detector.LegalCategory(c.Label) == detector.CategoryUserDefined:
			reasoning = append(reasoning, fmt.Sprintf("%s %d개 (+%d점)", c.Label, n, patternScore))
		case c.Article != "":
			reasoning = append(reasoning, fmt.Sprintf("%s %d개 (%s)", c.Label, n, c.Article))
		default:
			reasoning = append(reasoning, fmt.Sprintf("%s %d개", c.Label, n))
		}
	}

	return &Assessment{
		Level:           level,
		Score:           score,
		Reasoning:       strings.Join(reasoning, "\n"),
		LegalViolations: violations,
		CategorySummary: counts,
		Recommendations: a.engine.Generate(spans, level),
	}
}

// Upgrade adopts the external score and level only when the external score is
// strictly higher, then merges recommendations. It never lowers the assessment.
func (a *Aggregator) Upgrade(assessment *Assessment, ext External, spans []detector.DetectedSpan) {
	if external := min(ext.Score, MaxScore); external > assessment.Score {
		assessment.Score = external
		level, ok := ParseLevel(ext.Level)
		if !ok || LevelFor(assessment.Score) != level {
			level = LevelFor(assessment.Score)
		}
		assessment.Level = level
		assessment.Upgraded = true
	}

	assessment.Recommendations = MergeRecommendations(assessment.Recommendations, ext.Recommendations)
	a.Ensure(assessment, spans)
}

// Ensure regenerates recommendations when fewer than MinRecommendations remain
func (a *Aggregator) Ensure(assessment *Assessment, spans []detector.DetectedSpan) {
	if len(assessment.Recommendations) >= MinRecommendations {
		return
	}
	assessment.Recommendations = a.engine.Generate(spans, assessment.Level)
}

// MergeRecommendations concatenates lists, drops exact duplicates and blanks,
// and keeps at most MaxRecommendations entries
func MergeRecommendations(lists ...[]string) []string {
	var out []string
	for _, list := range lists {
		for _, r := range list {
			r = strings.TrimSpace(r)
			if r == "" || slices.Contains(out, r) {
				continue
			}
			out = append(out, r)
		}
	}
	if len(out) > MaxRecommendations {
		out = out[:MaxRecommendations]
	}
	return out
}
