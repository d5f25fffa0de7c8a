// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package text

import (
	"context"
	"errors"
	"testing"

	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kpii-scan/internal/core"
	"kpii-scan/internal/formatters"
	"kpii-scan/internal/redactors"
)

func analyze(t *testing.T, text string, opts ...core.Option) *core.Report {
	t.Helper()
	report, err := core.NewAnalyzer(opts...).Analyze(context.Background(), text)
	require.NoError(t, err)
	return report
}

func TestFormatReport(t *testing.T) {
	report := analyze(t, "주민등록번호: 850615-1789010\n이메일: hong@corp.co.kr")
	out, err := NewFormatter().Format([]core.FileResult{{Path: "record.txt", Report: report}}, formatters.FormatterOptions{NoColor: true})
	require.NoError(t, err)

	assert.Contains(t, out, "=== record.txt ===")
	assert.Contains(t, out, "Risk: "+string(report.Risk.Level))
	assert.Contains(t, out, "LEVEL")
	assert.Contains(t, out, "[HIGH  ]")
	assert.Contains(t, out, "8506**********")
	assert.Contains(t, out, "h***@corp.co.kr")
	assert.Contains(t, out, "Recommendations:")
	assert.Contains(t, out, "제24조(고유식별정보 처리제한)")
	assert.NotContains(t, out, "1789010")
	assert.NotContains(t, out, "Stages:")
}

func TestFormatVerboseShowMatch(t *testing.T) {
	report := analyze(t, "주민등록번호: 850615-1789010", core.WithMasking(redactors.NewMasker()))
	out, err := NewFormatter().Format([]core.FileResult{{Report: report}},
		formatters.FormatterOptions{NoColor: true, Verbose: true, ShowMatch: true})
	require.NoError(t, err)

	assert.Contains(t, out, "850615-1789010")
	assert.Contains(t, out, "context:")
	assert.Contains(t, out, "Stages: regex=1")
	assert.Contains(t, out, "Masked text:")
	assert.NotContains(t, out, "===")
}

func TestFormatBatch(t *testing.T) {
	results := []core.FileResult{
		{Path: "clean.txt", Report: analyze(t, "회의록")},
		{Path: "blob.bin", Err: errors.New("unsupported file type"), Error: "unsupported file type"},
	}
	out, err := NewFormatter().Format(results, formatters.FormatterOptions{NoColor: true})
	require.NoError(t, err)

	assert.Contains(t, out, "No sensitive information found.")
	assert.Contains(t, out, "Skipped: unsupported file type")
	assert.Contains(t, out, "Scanned 2 files: 0 items detected, 1 failed")
}

func TestFit(t *testing.T) {
	assert.Equal(t, "ab  ", fit("ab", 4))
	assert.Equal(t, "주민 ", fit("주민", 5))
	assert.Equal(t, 10, runewidth.StringWidth(fit("주민등록번호입니다", 10)))
}
