// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package parallel

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"kpii-scan/internal/observability"
)

// MaxWorkers caps DefaultWorkers
const MaxWorkers = 8

// ProcessingStats tracks parallel processing statistics
type ProcessingStats struct {
	TotalFiles     int           `json:"total_files"`
	ProcessedFiles int           `json:"processed_files"`
	FailedFiles    int           `json:"failed_files"`
	TotalDuration  time.Duration `json:"total_duration_ms"`
	WorkerCount    int           `json:"worker_count"`
	AvgFileTime    time.Duration `json:"avg_file_time_ms"`
}

// ProgressCallback is called when a file is completed
type ProgressCallback func(completed, total int, currentFile string)

// DefaultWorkers returns the CPU count capped at MaxWorkers
func DefaultWorkers() int {
	return min(runtime.NumCPU(), MaxWorkers)
}

// ProcessFiles runs process over every path on workers goroutines. Results
// are returned in input order; a failed file carries its error and does not
// stop the others.
func ProcessFiles[T any](ctx context.Context, filePaths []string, workers int, process ProcessFunc[T], observer *observability.StandardObserver, progress ProgressCallback) ([]*Result[T], *ProcessingStats) {
	start := time.Now()
	finishTiming := observer.StartTiming("parallel_processor", "process_files", "batch")

	pool := NewWorkerPool(ctx, workers, process, observer)
	pool.Start()

	// Submit jobs in a separate goroutine to prevent deadlock
	go func() {
		defer pool.Close()
		for i, filePath := range filePaths {
			if !pool.Submit(&Job{FilePath: filePath, JobID: fmt.Sprintf("job_%d", i), Index: i}) {
				return
			}
		}
	}()

	results := make([]*Result[T], len(filePaths))
	stats := &ProcessingStats{TotalFiles: len(filePaths), WorkerCount: pool.Workers()}
	var fileTime time.Duration
	completed := 0

	go pool.Stop()
	for result := range pool.Results() {
		results[result.Index] = result
		completed++
		fileTime += result.Duration
		if result.Error != nil {
			stats.FailedFiles++
			observer.LogOperation(observability.StandardObservabilityData{
				Component: "parallel_processor",
				Operation: "file_processing",
				FilePath:  result.FilePath,
				Success:   false,
				Error:     result.Error.Error(),
			})
		} else {
			stats.ProcessedFiles++
		}

		if progress != nil {
			progress(completed, len(filePaths), result.FilePath)
		}
	}

	// Jobs never submitted because ctx was cancelled
	for i, r := range results {
		if r == nil {
			err := ctx.Err()
			if err == nil {
				err = context.Canceled
			}
			results[i] = &Result[T]{JobID: fmt.Sprintf("job_%d", i), FilePath: filePaths[i], Index: i, Error: err}
			stats.FailedFiles++
		}
	}

	stats.TotalDuration = time.Since(start)
	stats.AvgFileTime = fileTime / time.Duration(max(completed, 1))

	finishTiming(true, map[string]interface{}{
		"total_files":     stats.TotalFiles,
		"processed_files": stats.ProcessedFiles,
		"failed_files":    stats.FailedFiles,
		"worker_count":    stats.WorkerCount,
		"duration_ms":     stats.TotalDuration.Milliseconds(),
	})

	return results, stats
}
