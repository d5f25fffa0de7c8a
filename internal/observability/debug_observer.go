// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package observability

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// DebugObserver prints an indented, human-readable trace of analysis steps.
// It is safe for use by concurrent file workers; lines from different files
// may interleave.
type DebugObserver struct {
	mu     sync.Mutex
	writer io.Writer
	indent int
}

// NewDebugObserver creates a step tracer writing to writer
func NewDebugObserver(writer io.Writer) *DebugObserver {
	return &DebugObserver{writer: writer}
}

// StartStep begins a processing step with indentation. A nil observer
// returns a no-op finisher.
func (d *DebugObserver) StartStep(component, step, filePath string) func(success bool, details string) {
	if d == nil {
		return func(bool, string) {}
	}
	start := time.Now()

	d.mu.Lock()
	fmt.Fprintf(d.writer, "%s> %s: %s (%s)\n", d.prefix(), component, step, filePath)
	d.indent++
	d.mu.Unlock()

	return func(success bool, details string) {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.indent = max(0, d.indent-1)
		outcome, verb := "+", "completed"
		if !success {
			outcome, verb = "!", "failed"
		}
		fmt.Fprintf(d.writer, "%s%s %s: %s %s (%dms) %s\n",
			d.prefix(), outcome, component, step, verb, time.Since(start).Milliseconds(), details)
	}
}

// LogDetail logs a detail within the current step
func (d *DebugObserver) LogDetail(component, detail string) {
	if d == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprintf(d.writer, "%s   - %s: %s\n", d.prefix(), component, detail)
}

// LogMetric logs a metric value
func (d *DebugObserver) LogMetric(component, metric string, value interface{}) {
	if d == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprintf(d.writer, "%s   # %s: %s = %v\n", d.prefix(), component, metric, value)
}

// Stage records the span count after an analysis stage. Its signature matches
// the analyzer's progress callback.
func (d *DebugObserver) Stage(stage string, found int) {
	d.LogMetric("analyzer", stage, found)
}

func (d *DebugObserver) prefix() string {
	return strings.Repeat("  ", d.indent)
}
