// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package json

import (
	"context"
	stdjson "encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kpii-scan/internal/core"
	"kpii-scan/internal/formatters"
	"kpii-scan/internal/formatters/shared"
)

func analyze(t *testing.T, text string) *core.Report {
	t.Helper()
	report, err := core.NewAnalyzer().Analyze(context.Background(), text)
	require.NoError(t, err)
	return report
}

func TestFormatMasksValues(t *testing.T) {
	results := []core.FileResult{
		{Path: "record.txt", Report: analyze(t, "주민등록번호: 850615-1789010")},
		{Path: "blob.bin", Err: errors.New("unsupported file type")},
	}

	out, err := NewFormatter().Format(results, formatters.FormatterOptions{})
	require.NoError(t, err)

	var response shared.JSONResponse
	require.NoError(t, stdjson.Unmarshal([]byte(out), &response))
	require.Len(t, response.Files, 2)

	record := response.Files[0]
	require.Len(t, record.Items, 1)
	assert.Equal(t, "주민등록번호", record.Items[0].Type)
	assert.Equal(t, "8506**********", record.Items[0].Value)
	assert.Equal(t, "high", record.Items[0].Confidence)
	assert.Positive(t, record.RiskScore)
	assert.Equal(t, 1, record.CategorySummary["unique_identifier"])
	assert.Nil(t, record.Stats)

	assert.Equal(t, "unsupported file type", response.Files[1].Error)
	assert.Equal(t, 2, response.Summary.Files)
	assert.Equal(t, 1, response.Summary.Failed)
	assert.Equal(t, 1, response.Summary.Items)
	assert.Equal(t, record.RiskScore, response.Summary.HighestScore)
	assert.NotContains(t, out, "1789010")
}

func TestFormatShowMatchVerbose(t *testing.T) {
	results := []core.FileResult{{Path: "record.txt", Report: analyze(t, "주민등록번호: 850615-1789010")}}

	out, err := NewFormatter().Format(results, formatters.FormatterOptions{ShowMatch: true, Verbose: true, Compact: true})
	require.NoError(t, err)
	assert.NotContains(t, out, "\n")

	var response shared.JSONResponse
	require.NoError(t, stdjson.Unmarshal([]byte(out), &response))
	item := response.Files[0].Items[0]
	assert.Equal(t, "850615-1789010", item.Value)
	assert.NotEmpty(t, item.Context)
	require.NotNil(t, response.Files[0].Stats)
	assert.Equal(t, 1, response.Files[0].Stats.Regex)
}

func TestRegistry(t *testing.T) {
	f, ok := formatters.Get("json")
	require.True(t, ok)
	assert.Equal(t, ".json", f.FileExtension())
	assert.Equal(t, "application/json", formatters.GetFormatInfo("json").MimeType)

	_, err := formatters.Export("pdf", nil, formatters.FormatterOptions{})
	assert.Error(t, err)
}

func TestFormatDoesNotEscape(t *testing.T) {
	results := []core.FileResult{{Path: "<stdin>", Report: analyze(t, "연락처 010-9876-5432")}}

	out, err := NewFormatter().Format(results, formatters.FormatterOptions{})
	require.NoError(t, err)
	assert.Contains(t, out, `"<stdin>"`)
	assert.Contains(t, out, "휴대전화")
	assert.False(t, strings.HasSuffix(out, "\n"))
}
