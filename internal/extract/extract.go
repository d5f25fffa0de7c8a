// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package extract turns files into scannable text.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"golang.org/x/text/encoding/korean"
)

// Format is the detected document format
type Format string

const (
	FormatText  Format = "text"
	FormatPDF   Format = "pdf"
	FormatImage Format = "image"
)

// DefaultMaxBytes caps the size of a file the extractor will read
const DefaultMaxBytes = 50 * 1024 * 1024

var (
	// ErrUnsupported is returned for binary files the extractor cannot read
	ErrUnsupported = errors.New("unsupported file type")
	// ErrTooLarge is returned for files above the size cap
	ErrTooLarge = errors.New("file too large")
)

var textExtensions = map[string]bool{
	".txt": true, ".md": true, ".csv": true, ".tsv": true, ".log": true,
	".json": true, ".yaml": true, ".yml": true, ".xml": true, ".html": true,
	".htm": true, ".ini": true, ".conf": true, ".sql": true, "": true,
}

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".tif": true, ".tiff": true,
}

// Content is the extracted text of one file
type Content struct {
	Path     string
	Format   Format
	Text     string
	Pages    int
	Encoding string
	Metadata map[string]string
}

// FullText returns the body followed by the metadata fields, one "key: value" per line
func (c *Content) FullText() string {
	if len(c.Metadata) == 0 {
		return c.Text
	}
	keys := make([]string, 0, len(c.Metadata))
	for k := range c.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(c.Text)
	if c.Text != "" {
		b.WriteString("\n")
	}
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %s\n", k, c.Metadata[k])
	}
	return b.String()
}

// Extractor reads supported files
type Extractor struct {
	maxBytes int64
	logger   zerolog.Logger
}

// Option configures an Extractor
type Option func(*Extractor)

// WithMaxBytes sets the size cap
func WithMaxBytes(n int64) Option {
	return func(e *Extractor) { e.maxBytes = n }
}

// WithLogger sets the logger
func WithLogger(l zerolog.Logger) Option {
	return func(e *Extractor) { e.logger = l }
}

// New creates an extractor
func New(opts ...Option) *Extractor {
	e := &Extractor{maxBytes: DefaultMaxBytes, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// DetectFormat picks a format from the file header, falling back to the extension
func DetectFormat(path string, head []byte) (Format, bool) {
	switch {
	case bytes.HasPrefix(head, []byte("%PDF-")):
		return FormatPDF, true
	case bytes.HasPrefix(head, []byte{0xff, 0xd8, 0xff}),
		bytes.HasPrefix(head, []byte("II*\x00")),
		bytes.HasPrefix(head, []byte("MM\x00*")):
		return FormatImage, true
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case ext == ".pdf":
		return FormatPDF, true
	case imageExtensions[ext]:
		return FormatImage, true
	case textExtensions[ext] || !looksBinary(head):
		return FormatText, true
	}
	return "", false
}

func looksBinary(head []byte) bool {
	return bytes.IndexByte(head, 0) >= 0
}

// Extract reads path and returns its text
func (e *Extractor) Extract(path string) (*Content, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	if e.maxBytes > 0 && info.Size() > e.maxBytes {
		return nil, fmt.Errorf("%s (%d bytes): %w", path, info.Size(), ErrTooLarge)
	}

	head, err := readHead(path, 512)
	if err != nil {
		return nil, err
	}
	format, ok := DetectFormat(path, head)
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupported)
	}

	var content *Content
	switch format {
	case FormatPDF:
		content, err = extractPDF(path)
	case FormatImage:
		content, err = extractImage(path, e.logger)
	default:
		content, err = extractText(path)
	}
	if err != nil {
		return nil, err
	}
	content.Path = path
	content.Format = format
	e.logger.Debug().
		Str("file", path).
		Str("format", string(format)).
		Int("chars", utf8.RuneCountInString(content.Text)).
		Int("metadata_fields", len(content.Metadata)).
		Msg("extracted document")
	return content, nil
}

func readHead(path string, n int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	buf := make([]byte, n)
	read, err := f.Read(buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return buf[:read], nil
}

// extractText reads UTF-8 text and falls back to CP949 for legacy Korean files
func extractText(path string) (*Content, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	if utf8.Valid(data) {
		return &Content{Text: string(data), Encoding: "utf-8"}, nil
	}
	decoded, err := korean.EUCKR.NewDecoder().Bytes(data)
	if err != nil || !utf8.Valid(decoded) {
		return nil, fmt.Errorf("%s: not valid UTF-8 or CP949 text: %w", path, ErrUnsupported)
	}
	return &Content{Text: string(decoded), Encoding: "cp949"}, nil
}
