// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kpii-scan/internal/config"
	"kpii-scan/internal/core"
	"kpii-scan/internal/extract"
	"kpii-scan/internal/scanner"
	"kpii-scan/internal/verification"
)

func TestScanExitCode(t *testing.T) {
	clean := &core.Report{}
	found, err := core.NewAnalyzer().Analyze(t.Context(), "주민등록번호: 850615-1789010")
	require.NoError(t, err)

	tests := []struct {
		name    string
		results []core.FileResult
		want    int
	}{
		{"clean", []core.FileResult{{Report: clean}}, exitClean},
		{"findings", []core.FileResult{{Report: clean}, {Report: found}}, exitFindings},
		{"findings with a failure", []core.FileResult{{Err: errors.New("x")}, {Report: found}}, exitFindings},
		{"all failed", []core.FileResult{{Err: errors.New("x")}}, exitError},
		{"partial failure", []core.FileResult{{Err: errors.New("x")}, {Report: clean}}, exitClean},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, scanExitCode(tt.results))
		})
	}
}

func TestReadStdin(t *testing.T) {
	text, err := readStdin(strings.NewReader("연락처 010-9876-5432"))
	require.NoError(t, err)
	assert.Equal(t, "연락처 010-9876-5432", text)

	_, err = readStdin(bytes.NewReader([]byte{0xff, 0xfe, 0x00}))
	assert.ErrorIs(t, err, extract.ErrUnsupported)
}

func TestPatternCommands(t *testing.T) {
	cfg := config.Default()
	cfg.Patterns.File = filepath.Join(t.TempDir(), "patterns.json")
	cfg.Defaults.NoColor = true
	logger := zerolog.Nop()

	var out bytes.Buffer
	code := runPatternCommand(&out, cfg, &cliFlags{addPattern: `PRJ-\d{4}`, patternType: "regex", patternName: "프로젝트코드", patternScore: 10}, logger)
	require.Equal(t, exitClean, code)
	assert.Contains(t, out.String(), "Added regex pattern")

	code = runPatternCommand(&out, cfg, &cliFlags{addPattern: `PRJ-\d{4}`, patternType: "regex"}, logger)
	assert.Equal(t, exitError, code)

	out.Reset()
	require.Equal(t, exitClean, runPatternCommand(&out, cfg, &cliFlags{togglePattern: `PRJ-\d{4}`}, logger))
	assert.Contains(t, out.String(), "disabled")

	out.Reset()
	require.Equal(t, exitClean, runPatternCommand(&out, cfg, &cliFlags{listPatterns: true}, logger))
	assert.Contains(t, out.String(), "프로젝트코드")
	assert.Contains(t, out.String(), "off")
	assert.Contains(t, out.String(), "1 patterns in")

	cfg.Defaults.Format = "json"
	out.Reset()
	require.Equal(t, exitClean, runPatternCommand(&out, cfg, &cliFlags{listPatterns: true}, logger))
	assert.Contains(t, out.String(), `"score": 10`)

	out.Reset()
	require.Equal(t, exitClean, runPatternCommand(&out, cfg, &cliFlags{removePattern: `PRJ-\d{4}`}, logger))
	assert.Equal(t, exitError, runPatternCommand(&out, cfg, &cliFlags{removePattern: `PRJ-\d{4}`}, logger))
}

func TestPrintVerification(t *testing.T) {
	result := verification.Result{Success: true, Valid: false, Status: verification.StatusMismatch, Message: "정보 불일치"}

	var out bytes.Buffer
	require.NoError(t, printVerification(&out, result, "text"))
	assert.Contains(t, out.String(), "Status: 불일치")
	assert.Contains(t, out.String(), "Message: 정보 불일치")

	out.Reset()
	require.NoError(t, printVerification(&out, result, "json"))
	assert.Contains(t, out.String(), `"valid": false`)
}

func TestVerifyLicenseRequiresHolder(t *testing.T) {
	var out bytes.Buffer
	code := runVerifyLicense(t.Context(), &out, config.Default(), &cliFlags{verifyLicense: "11-22-333333-44"}, zerolog.Nop())
	assert.Equal(t, exitError, code)
}

func TestHelpSystemCoversChecks(t *testing.T) {
	names := newHelpSystem(&bytes.Buffer{}, true).CheckNames()
	for _, check := range scanner.CheckNames() {
		assert.Contains(t, names, check)
	}
}

func TestWorkerCount(t *testing.T) {
	cfg := config.Default()
	cfg.Defaults.Workers = 3
	assert.Equal(t, 3, workerCount(cfg))

	cfg.Defaults.Workers = 0
	assert.Positive(t, workerCount(cfg))
}

func TestStepTracer(t *testing.T) {
	assert.Nil(t, stepTracer(&cliFlags{}))
	assert.Nil(t, stepTracer(&cliFlags{verbose: true, quiet: true}))
	assert.NotNil(t, stepTracer(&cliFlags{verbose: true}))
}
