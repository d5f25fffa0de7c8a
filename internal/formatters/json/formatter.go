// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package json

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"kpii-scan/internal/core"
	"kpii-scan/internal/formatters"
	"kpii-scan/internal/formatters/shared"
)

// Formatter implements JSON output formatting
type Formatter struct{}

// NewFormatter creates a new JSON formatter
func NewFormatter() *Formatter {
	return &Formatter{}
}

func (f *Formatter) Name() string {
	return "json"
}

func (f *Formatter) Description() string {
	return "Structured JSON output for programmatic consumption"
}

func (f *Formatter) FileExtension() string {
	return ".json"
}

func (f *Formatter) MimeType() string {
	return "application/json"
}

// Format encodes the shared response structure. Hangul and angle brackets are
// written as-is rather than \u escapes.
func (f *Formatter) Format(results []core.FileResult, options formatters.FormatterOptions) (string, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if !options.Compact {
		encoder.SetIndent("", "  ")
	}
	if err := encoder.Encode(shared.ConvertResults(results, options)); err != nil {
		return "", fmt.Errorf("failed to format JSON: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// Register the formatter during package initialization
func init() {
	formatters.Register(NewFormatter())
}
