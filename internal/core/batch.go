// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package core

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"kpii-scan/internal/extract"
	"kpii-scan/internal/parallel"
)

// FileResult is the outcome of scanning one file
type FileResult struct {
	Path   string         `json:"path" yaml:"path"`
	Format extract.Format `json:"format,omitempty" yaml:"format,omitempty"`
	Report *Report        `json:"report,omitempty" yaml:"report,omitempty"`
	Err    error          `json:"-" yaml:"-"`
	Error  string         `json:"error,omitempty" yaml:"error,omitempty"`
}

// BatchResult holds per-file results in input order
type BatchResult struct {
	Files []FileResult              `json:"files" yaml:"files"`
	Stats *parallel.ProcessingStats `json:"stats" yaml:"stats"`
}

// Failed returns the number of files that could not be scanned
func (b *BatchResult) Failed() int {
	n := 0
	for _, f := range b.Files {
		if f.Err != nil {
			n++
		}
	}
	return n
}

// CollectFiles expands paths into a sorted list of regular files. Directories
// are walked when recursive is set, otherwise only their direct children are
// taken. Hidden directories are skipped during walks. An exclude pattern
// matches either the base name or the full path.
func CollectFiles(paths []string, recursive bool, excludes []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	add := func(path string) {
		if excluded(path, excludes) || seen[path] {
			return
		}
		seen[path] = true
		files = append(files, path)
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", root, err)
		}
		if !info.IsDir() {
			add(root)
			continue
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path == root {
					return nil
				}
				if !recursive || strings.HasPrefix(d.Name(), ".") || excluded(path, excludes) {
					return filepath.SkipDir
				}
				return nil
			}
			if d.Type().IsRegular() {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", root, err)
		}
	}

	sort.Strings(files)
	return files, nil
}

func excluded(path string, patterns []string) bool {
	base := filepath.Base(path)
	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		if ok, _ := filepath.Match(pattern, base); ok {
			return true
		}
		if ok, _ := filepath.Match(pattern, path); ok {
			return true
		}
	}
	return false
}

// ScanFiles extracts and analyzes every file on a worker pool. A file that
// cannot be read is reported in its FileResult and does not stop the batch.
func (a *Analyzer) ScanFiles(ctx context.Context, files []string, extractor *extract.Extractor, workers int, progress parallel.ProgressCallback) *BatchResult {
	if extractor == nil {
		extractor = extract.New(extract.WithLogger(a.logger))
	}

	type scanned struct {
		format extract.Format
		report *Report
	}
	process := func(ctx context.Context, path string) (scanned, error) {
		content, err := extractor.Extract(path)
		if err != nil {
			return scanned{}, err
		}
		report, err := a.Analyze(ctx, content.FullText())
		if err != nil {
			return scanned{format: content.Format}, err
		}
		report.Source = path
		return scanned{format: content.Format, report: report}, nil
	}

	results, stats := parallel.ProcessFiles(ctx, files, workers, process, a.observer, progress)

	batch := &BatchResult{Files: make([]FileResult, len(results)), Stats: stats}
	for i, r := range results {
		fr := FileResult{Path: r.FilePath, Format: r.Value.format, Report: r.Value.report, Err: r.Error}
		if r.Error != nil {
			fr.Error = r.Error.Error()
			a.logger.Warn().Err(r.Error).Str("file", r.FilePath).Msg("file skipped")
		}
		batch.Files[i] = fr
	}
	return batch
}
