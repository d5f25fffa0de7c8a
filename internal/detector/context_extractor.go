// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package detector

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Document wraps source text so that all positions are expressed in characters (runes).
// Regex engines report byte offsets; Document converts them.
type Document struct {
	text       string
	runes      []rune
	byteStarts []int // byte offset of each rune, plus len(text) as sentinel
	lower      *Document
}

// NewDocument builds a document over text
func NewDocument(text string) *Document {
	runes := []rune(text)
	starts := make([]int, 0, len(runes)+1)
	for i := range text {
		starts = append(starts, i)
	}
	starts = append(starts, len(text))
	return &Document{text: text, runes: runes, byteStarts: starts}
}

// Text returns the original text
func (d *Document) Text() string {
	return d.text
}

// Len returns the number of characters
func (d *Document) Len() int {
	return len(d.runes)
}

// RuneIndex converts a byte offset into a character offset
func (d *Document) RuneIndex(byteOffset int) int {
	return sort.SearchInts(d.byteStarts, byteOffset)
}

// ByteOffset converts a character offset into a byte offset
func (d *Document) ByteOffset(runeIndex int) int {
	runeIndex = clamp(runeIndex, 0, len(d.runes))
	return d.byteStarts[runeIndex]
}

// Slice returns the characters in [start, end), clamped to the document bounds
func (d *Document) Slice(start, end int) string {
	start = clamp(start, 0, len(d.runes))
	end = clamp(end, start, len(d.runes))
	return string(d.runes[start:end])
}

// Index returns the character offset of the first occurrence of substr at or after from, or -1
func (d *Document) Index(substr string, from int) int {
	from = clamp(from, 0, len(d.runes))
	b := d.byteStarts[from]
	i := strings.Index(d.text[b:], substr)
	if i < 0 {
		return -1
	}
	return d.RuneIndex(b + i)
}

// LastIndexIn returns the character offset of the last occurrence of substr inside [start, end), or -1
func (d *Document) LastIndexIn(substr string, start, end int) int {
	start = clamp(start, 0, len(d.runes))
	end = clamp(end, start, len(d.runes))
	bs, be := d.byteStarts[start], d.byteStarts[end]
	i := strings.LastIndex(d.text[bs:be], substr)
	if i < 0 {
		return -1
	}
	return d.RuneIndex(bs + i)
}

// Lower returns a lowercase view with identical character offsets
func (d *Document) Lower() *Document {
	if d.lower == nil {
		d.lower = NewDocument(strings.Map(unicode.ToLower, d.text))
	}
	return d.lower
}

// RuneLen returns the length of s in characters
func RuneLen(s string) int {
	return utf8.RuneCountInString(s)
}

// Truncate returns at most n characters of s
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// ContextExtractor extracts the text surrounding a span
type ContextExtractor struct {
	// Number of characters before and after the span
	ContextChars int

	// Replace newlines with spaces in the extracted context
	FlattenNewlines bool
}

// NewContextExtractor creates a new context extractor with default settings
func NewContextExtractor() *ContextExtractor {
	return &ContextExtractor{
		ContextChars: 100,
	}
}

// WithContextChars sets the number of context characters
func (ce *ContextExtractor) WithContextChars(chars int) *ContextExtractor {
	ce.ContextChars = chars
	return ce
}

// WithFlattenNewlines enables newline flattening
func (ce *ContextExtractor) WithFlattenNewlines(flatten bool) *ContextExtractor {
	ce.FlattenNewlines = flatten
	return ce
}

// Extract returns the context window around [start, end)
func (ce *ContextExtractor) Extract(doc *Document, start, end int) string {
	ctx := doc.Slice(start-ce.ContextChars, end+ce.ContextChars)
	if ce.FlattenNewlines {
		ctx = strings.ReplaceAll(ctx, "\n", " ")
	}
	return ctx
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
