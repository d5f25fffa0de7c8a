// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package formatters

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"kpii-scan/internal/core"
)

// FormatterOptions defines configuration options for formatters
type FormatterOptions struct {
	Verbose   bool // Whether to display context and per-stage counts
	NoColor   bool // Whether to disable colored output
	ShowMatch bool // Whether to display detected values unmasked
	Compact   bool // Whether to use single-line JSON
}

// Formatter renders per-file results in one output format
type Formatter interface {
	Format(results []core.FileResult, options FormatterOptions) (string, error)

	// Name is the value accepted by --format and ?format=
	Name() string
	Description() string
	FileExtension() string
	MimeType() string
}

// Registry holds formatters by name
type Registry struct {
	mu         sync.RWMutex
	formatters map[string]Formatter
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{formatters: make(map[string]Formatter)}
}

// Register adds a formatter, replacing any with the same name
func (r *Registry) Register(formatter Formatter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.formatters[formatter.Name()] = formatter
}

// Get retrieves a formatter by name
func (r *Registry) Get(name string) (Formatter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	formatter, exists := r.formatters[name]
	return formatter, exists
}

// List returns the registered names, sorted
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.formatters))
}

// FormatInfo describes a formatter for the HTTP API
type FormatInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Extension   string `json:"extension"`
	MimeType    string `json:"mime_type"`
}

// DefaultRegistry is populated by the formatter packages' init functions
var DefaultRegistry = NewRegistry()

// Register adds a formatter to DefaultRegistry
func Register(formatter Formatter) {
	DefaultRegistry.Register(formatter)
}

// Get looks a formatter up in DefaultRegistry
func Get(name string) (Formatter, bool) {
	return DefaultRegistry.Get(name)
}

// List returns the names in DefaultRegistry
func List() []string {
	return DefaultRegistry.List()
}

// Export renders results with the named formatter
func Export(format string, results []core.FileResult, options FormatterOptions) (string, error) {
	formatter, exists := Get(format)
	if !exists {
		return "", fmt.Errorf("unsupported format %q (available: %s)", format, strings.Join(List(), ", "))
	}
	return formatter.Format(results, options)
}

// ExportReport renders a single in-memory report
func ExportReport(format string, report *core.Report, options FormatterOptions) (string, error) {
	return Export(format, []core.FileResult{{Path: report.Source, Report: report}}, options)
}

// GetFormatInfo returns metadata about a registered formatter, or the zero
// value when name is unknown
func GetFormatInfo(name string) FormatInfo {
	formatter, exists := Get(name)
	if !exists {
		return FormatInfo{}
	}
	return FormatInfo{
		Name:        formatter.Name(),
		Description: formatter.Description(),
		Extension:   formatter.FileExtension(),
		MimeType:    formatter.MimeType(),
	}
}

// GetSupportedFormats describes every registered formatter
func GetSupportedFormats() []FormatInfo {
	names := List()
	formats := make([]FormatInfo, 0, len(names))
	for _, name := range names {
		formats = append(formats, GetFormatInfo(name))
	}
	return formats
}
