// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package text

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"kpii-scan/internal/core"
	"kpii-scan/internal/detector"
	"kpii-scan/internal/formatters"
	"kpii-scan/internal/formatters/shared"
	"kpii-scan/internal/risk"
)

const (
	typeWidth     = 22
	categoryWidth = 12
	valueWidth    = 30
)

// Formatter implements text-based output formatting
type Formatter struct {
	colors map[string]*color.Color
}

// NewFormatter creates a new text formatter
func NewFormatter() *Formatter {
	return &Formatter{
		colors: map[string]*color.Color{
			"green":   color.New(color.FgGreen),
			"yellow":  color.New(color.FgYellow),
			"red":     color.New(color.FgRed),
			"boldred": color.New(color.FgRed, color.Bold),
			"cyan":    color.New(color.FgCyan),
			"magenta": color.New(color.FgMagenta),
			"blue":    color.New(color.FgBlue),
			"white":   color.New(color.FgWhite, color.Bold),
		},
	}
}

func (f *Formatter) Name() string {
	return "text"
}

func (f *Formatter) Description() string {
	return "Human-readable text output with colors and tables"
}

func (f *Formatter) FileExtension() string {
	return ".txt"
}

func (f *Formatter) MimeType() string {
	return "text/plain; charset=utf-8"
}

func (f *Formatter) Format(results []core.FileResult, options formatters.FormatterOptions) (string, error) {
	var builder strings.Builder

	items, failed := 0, 0
	for i, result := range results {
		if i > 0 {
			builder.WriteString("\n")
		}
		if result.Err != nil || result.Report == nil {
			failed++
			f.appendFailure(&builder, result, options)
			continue
		}
		items += len(result.Report.Spans)
		f.appendReport(&builder, result.Path, result.Report, options)
	}

	if len(results) > 1 {
		builder.WriteString("\n")
		f.write(&builder, options, "white", "Scanned %d files: %d items detected, %d failed\n", len(results), items, failed)
	}
	return builder.String(), nil
}

// write prints with the named color unless colors are disabled
func (f *Formatter) write(builder *strings.Builder, options formatters.FormatterOptions, name, format string, args ...interface{}) {
	if options.NoColor {
		fmt.Fprintf(builder, format, args...)
		return
	}
	f.colors[name].Fprintf(builder, format, args...)
}

func (f *Formatter) appendFailure(builder *strings.Builder, result core.FileResult, options formatters.FormatterOptions) {
	msg := result.Error
	if msg == "" && result.Err != nil {
		msg = result.Err.Error()
	}
	f.write(builder, options, "white", "=== %s ===\n", result.Path)
	f.write(builder, options, "red", "Skipped: %s\n", msg)
}

func (f *Formatter) appendReport(builder *strings.Builder, path string, report *core.Report, options formatters.FormatterOptions) {
	if path != "" {
		f.write(builder, options, "white", "=== %s ===\n", path)
	}
	f.appendRisk(builder, report.Risk, options)

	if len(report.Spans) == 0 {
		builder.WriteString("No sensitive information found.\n")
	} else {
		builder.WriteString("\n")
		f.appendHeaders(builder, options)
		for _, span := range sortedSpans(report.Spans) {
			f.appendSpanLine(builder, span, options)
			if options.Verbose && options.ShowMatch && span.Context != "" {
				fmt.Fprintf(builder, "         context: %s\n", span.Context)
			}
		}
	}

	if report.Risk != nil && len(report.Risk.Recommendations) > 0 {
		builder.WriteString("\n")
		f.write(builder, options, "cyan", "Recommendations:\n")
		for i, r := range report.Risk.Recommendations {
			fmt.Fprintf(builder, "  %d. %s\n", i+1, r)
		}
	}

	if options.Verbose {
		s := report.Stats
		builder.WriteString("\n")
		f.write(builder, options, "magenta",
			"Stages: regex=%d sensitive=%d confidential=%d user=%d combined=%d excluded=%d filtered=%d document=%s (%dms)\n",
			s.Regex, s.Sensitive, s.Confidential, s.UserPatterns, s.Combined, s.Excluded, s.Filtered, s.DocumentAnalysis, report.DurationMs)
	}

	if report.Masked != "" {
		builder.WriteString("\n")
		f.write(builder, options, "cyan", "Masked text:\n")
		builder.WriteString(report.Masked)
		if !strings.HasSuffix(report.Masked, "\n") {
			builder.WriteString("\n")
		}
	}
}

func (f *Formatter) appendRisk(builder *strings.Builder, a *risk.Assessment, options formatters.FormatterOptions) {
	if a == nil {
		return
	}
	f.write(builder, options, "white", "Risk: ")
	f.write(builder, options, levelColor(a.Level), "%s (%d/100)", a.Level, a.Score)
	if a.Upgraded {
		builder.WriteString(" [document analysis]")
	}
	builder.WriteString("\n")
	for _, line := range strings.Split(a.Reasoning, "\n") {
		if line != "" {
			fmt.Fprintf(builder, "  %s\n", line)
		}
	}
	if len(a.LegalViolations) > 0 {
		f.write(builder, options, "cyan", "Legal basis: ")
		builder.WriteString(strings.Join(a.LegalViolations, ", "))
		builder.WriteString("\n")
	}
}

// appendHeaders adds column headers to the string builder
func (f *Formatter) appendHeaders(builder *strings.Builder, options formatters.FormatterOptions) {
	header := fmt.Sprintf("%-8s %s %s %-12s %s %s\n", "LEVEL",
		runewidth.FillRight("TYPE", typeWidth),
		runewidth.FillRight("CATEGORY", categoryWidth),
		"METHOD",
		runewidth.FillRight("VALUE", valueWidth),
		"POSITION")
	f.write(builder, options, "white", "%s", header)
	total := 8 + 1 + typeWidth + 1 + categoryWidth + 1 + 12 + 1 + valueWidth + 1 + 10
	f.write(builder, options, "white", "%s\n", strings.Repeat("-", total))
}

// appendSpanLine adds a single line summary to the string builder
func (f *Formatter) appendSpanLine(builder *strings.Builder, span detector.DetectedSpan, options formatters.FormatterOptions) {
	level := strings.ToUpper(string(span.Confidence))
	f.write(builder, options, confidenceColor(span.Confidence), "[%-6s]", level)
	builder.WriteString(" ")
	f.write(builder, options, "cyan", "%s", fit(span.Type, typeWidth))
	builder.WriteString(" ")
	categoryColor := "green"
	if span.ExposureProhibited {
		categoryColor = "red"
	}
	f.write(builder, options, categoryColor, "%s", fit(string(span.LegalCategory), categoryWidth))
	builder.WriteString(" ")
	f.write(builder, options, "blue", "%-12s", span.Method)
	builder.WriteString(" ")

	value := strings.NewReplacer("\n", " ", "\t", " ").Replace(shared.DisplayValue(span, options))
	builder.WriteString(fit(value, valueWidth))
	builder.WriteString(" ")
	f.write(builder, options, "magenta", "%d-%d", span.Start, span.End)
	builder.WriteString("\n")
}

// fit truncates or pads s to exactly width display columns
func fit(s string, width int) string {
	return runewidth.FillRight(runewidth.Truncate(s, width, "..."), width)
}

// sortedSpans orders spans by position without touching the report
func sortedSpans(spans []detector.DetectedSpan) []detector.DetectedSpan {
	out := make([]detector.DetectedSpan, len(spans))
	copy(out, spans)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

func confidenceColor(c detector.Confidence) string {
	switch c {
	case detector.ConfidenceHigh:
		return "red"
	case detector.ConfidenceMedium:
		return "yellow"
	default:
		return "green"
	}
}

func levelColor(l risk.Level) string {
	switch l {
	case risk.LevelCritical:
		return "boldred"
	case risk.LevelHigh:
		return "red"
	case risk.LevelModerate:
		return "yellow"
	default:
		return "green"
	}
}

// Register the formatter during package initialization
func init() {
	formatters.Register(NewFormatter())
}
