// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package patterns manages user-defined keyword and regex patterns and
// detects them in documents.
package patterns

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"kpii-scan/internal/detector"
)

// Kind is how a pattern is matched
type Kind string

const (
	KindKeyword Kind = "keyword"
	KindRegex   Kind = "regex"
)

const (
	MinScore     = 1
	MaxScore     = 15
	DefaultScore = 8

	// DefaultCategory is the category assigned when none is given
	DefaultCategory = string(detector.CategoryUserDefined)
)

var (
	ErrDuplicate = errors.New("pattern already exists")
	ErrNotFound  = errors.New("pattern not found")
)

// Pattern is one user-defined rule. Patterns are identified by their raw pattern text.
type Pattern struct {
	Name        string `json:"name" yaml:"name"`
	Pattern     string `json:"pattern" yaml:"pattern"`
	Kind        Kind   `json:"type" yaml:"type"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Score       int    `json:"score" yaml:"score"`
	Category    string `json:"category" yaml:"category"`
	Enabled     bool   `json:"enabled" yaml:"enabled"`

	compiled *regexp.Regexp
}

// DisplayName returns the name, or the raw pattern when unnamed
func (p Pattern) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.Pattern
}

// entry is the on-disk shape; enabled defaults to true when absent
type entry struct {
	Name        string `json:"name" yaml:"name"`
	Pattern     string `json:"pattern" yaml:"pattern"`
	Kind        Kind   `json:"type,omitempty" yaml:"type,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Score       int    `json:"score,omitempty" yaml:"score,omitempty"`
	Category    string `json:"category,omitempty" yaml:"category,omitempty"`
	Enabled     *bool  `json:"enabled,omitempty" yaml:"enabled,omitempty"`
}

type file struct {
	Patterns []entry `json:"patterns" yaml:"patterns"`
}

// Source supplies the patterns used by a scan. Implementations return a
// snapshot that the caller may read without further locking.
type Source interface {
	EnabledPatterns() []Pattern
}

// Store is a pattern set persisted to a JSON or YAML file (chosen by extension).
// A Store with an empty path keeps patterns in memory only.
type Store struct {
	mu       sync.RWMutex
	path     string
	patterns []Pattern
	logger   zerolog.Logger
}

// Option configures a Store
type Option func(*Store)

// WithLogger sets the logger
func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// Open loads the store at path. A missing file yields an empty store.
func Open(path string, opts ...Option) (*Store, error) {
	s := &Store{path: path, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	if path == "" {
		return s, nil
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read patterns file: %w", err)
	}

	entries, err := decode(data, path)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		p, err := fromEntry(e)
		if err != nil {
			s.logger.Warn().Err(err).Str("pattern", e.Pattern).Msg("skipping invalid pattern")
			continue
		}
		s.patterns = append(s.patterns, p)
	}
	s.logger.Info().Int("patterns", len(s.patterns)).Str("path", path).Msg("user patterns loaded")
	return s, nil
}

// NewMemoryStore creates an unpersisted store holding patterns
func NewMemoryStore(patterns ...Pattern) (*Store, error) {
	s := &Store{logger: zerolog.Nop()}
	for _, p := range patterns {
		if err := s.Add(p); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func decode(data []byte, path string) ([]entry, error) {
	var f file
	var err error
	if isYAML(path) {
		err = yaml.Unmarshal(data, &f)
	} else {
		err = json.Unmarshal(data, &f)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse patterns file %s: %w", path, err)
	}
	return f.Patterns, nil
}

func fromEntry(e entry) (Pattern, error) {
	p := Pattern{
		Name:        e.Name,
		Pattern:     e.Pattern,
		Kind:        e.Kind,
		Description: e.Description,
		Score:       e.Score,
		Category:    e.Category,
		Enabled:     e.Enabled == nil || *e.Enabled,
	}
	return p, p.prepare()
}

func toEntry(p Pattern) entry {
	enabled := p.Enabled
	return entry{
		Name:        p.Name,
		Pattern:     p.Pattern,
		Kind:        p.Kind,
		Description: p.Description,
		Score:       p.Score,
		Category:    p.Category,
		Enabled:     &enabled,
	}
}

// prepare validates p, fills defaults and compiles regex patterns
func (p *Pattern) prepare() error {
	if strings.TrimSpace(p.Pattern) == "" {
		return errors.New("pattern is empty")
	}
	if p.Kind == "" {
		p.Kind = KindKeyword
	}
	if p.Name == "" {
		p.Name = p.Pattern
	}
	if p.Category == "" {
		p.Category = DefaultCategory
	}
	if p.Score == 0 {
		p.Score = DefaultScore
	}
	p.Score = max(MinScore, min(MaxScore, p.Score))

	switch p.Kind {
	case KindKeyword:
		p.compiled = nil
	case KindRegex:
		re, err := regexp.Compile("(?i)" + p.Pattern)
		if err != nil {
			return fmt.Errorf("invalid regex %q: %w", p.Pattern, err)
		}
		p.compiled = re
	default:
		return fmt.Errorf("unknown pattern type %q (valid: keyword, regex)", p.Kind)
	}
	return nil
}

func (s *Store) indexOf(pattern string) int {
	for i, p := range s.patterns {
		if p.Pattern == pattern {
			return i
		}
	}
	return -1
}

// Add validates and appends p. New patterns are enabled.
func (s *Store) Add(p Pattern) error {
	p.Enabled = true
	if err := p.prepare(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexOf(p.Pattern) >= 0 {
		return fmt.Errorf("%w: %s", ErrDuplicate, p.Pattern)
	}
	s.patterns = append(s.patterns, p)
	return s.saveLocked()
}

// Remove deletes the pattern with the given raw text
func (s *Store) Remove(pattern string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(pattern)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, pattern)
	}
	s.patterns = append(s.patterns[:i], s.patterns[i+1:]...)
	return s.saveLocked()
}

// Update holds the fields to change; nil fields are left as they are
type Update struct {
	Name        *string `json:"name,omitempty"`
	Pattern     *string `json:"pattern,omitempty"`
	Kind        *Kind   `json:"type,omitempty"`
	Description *string `json:"description,omitempty"`
	Score       *int    `json:"score,omitempty"`
	Category    *string `json:"category,omitempty"`
	Enabled     *bool   `json:"enabled,omitempty"`
}

// Update changes the pattern with the given raw text
func (s *Store) Update(pattern string, u Update) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(pattern)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, pattern)
	}

	p := s.patterns[i]
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Pattern != nil {
		if *u.Pattern != pattern && s.indexOf(*u.Pattern) >= 0 {
			return fmt.Errorf("%w: %s", ErrDuplicate, *u.Pattern)
		}
		p.Pattern = *u.Pattern
	}
	if u.Kind != nil {
		p.Kind = *u.Kind
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.Score != nil {
		p.Score = *u.Score
	}
	if u.Category != nil {
		p.Category = *u.Category
	}
	if u.Enabled != nil {
		p.Enabled = *u.Enabled
	}
	if err := p.prepare(); err != nil {
		return err
	}

	s.patterns[i] = p
	return s.saveLocked()
}

// Toggle flips the enabled flag and returns the new state
func (s *Store) Toggle(pattern string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(pattern)
	if i < 0 {
		return false, fmt.Errorf("%w: %s", ErrNotFound, pattern)
	}
	s.patterns[i].Enabled = !s.patterns[i].Enabled
	return s.patterns[i].Enabled, s.saveLocked()
}

// List returns a copy of the patterns, optionally only the enabled ones
func (s *Store) List(enabledOnly bool) []Pattern {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Pattern, 0, len(s.patterns))
	for _, p := range s.patterns {
		if enabledOnly && !p.Enabled {
			continue
		}
		out = append(out, p)
	}
	return out
}

// EnabledPatterns implements Source
func (s *Store) EnabledPatterns() []Pattern {
	return s.List(true)
}

// Path returns the backing file, or "" for memory stores
func (s *Store) Path() string {
	return s.path
}

// Export writes all patterns to w as YAML or JSON
func (s *Store) Export(w io.Writer, asYAML bool) error {
	s.mu.RLock()
	data, err := encode(s.patterns, asYAML)
	s.mu.RUnlock()
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// Import adds the patterns found in path. Duplicates and invalid entries are
// skipped; the number of added patterns is returned.
func (s *Store) Import(path string) (int, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return 0, fmt.Errorf("failed to read import file: %w", err)
	}
	entries, err := decode(data, path)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	added := 0
	for _, e := range entries {
		p, err := fromEntry(e)
		if err != nil {
			s.logger.Warn().Err(err).Str("pattern", e.Pattern).Msg("skipping invalid pattern")
			continue
		}
		if s.indexOf(p.Pattern) >= 0 {
			continue
		}
		s.patterns = append(s.patterns, p)
		added++
	}
	if added == 0 {
		return 0, nil
	}
	return added, s.saveLocked()
}

func encode(patterns []Pattern, asYAML bool) ([]byte, error) {
	f := file{Patterns: make([]entry, 0, len(patterns))}
	for _, p := range patterns {
		f.Patterns = append(f.Patterns, toEntry(p))
	}

	if asYAML {
		return yaml.Marshal(f)
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(f); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// saveLocked writes the store to its file. Callers hold the write lock.
func (s *Store) saveLocked() error {
	if s.path == "" {
		return nil
	}
	data, err := encode(s.patterns, isYAML(s.path))
	if err != nil {
		return fmt.Errorf("failed to encode patterns: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create patterns directory: %w", err)
	}

	// Replace the file atomically through a sibling temp file.
	tmp, err := os.CreateTemp(dir, ".patterns-*")
	if err != nil {
		return fmt.Errorf("failed to write patterns file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write patterns file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write patterns file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to write patterns file: %w", err)
	}
	s.logger.Debug().Int("patterns", len(s.patterns)).Str("path", s.path).Msg("user patterns saved")
	return nil
}
