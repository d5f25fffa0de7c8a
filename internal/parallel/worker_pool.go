// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package parallel

import (
	"context"
	"sync"
	"time"

	"kpii-scan/internal/observability"
	"kpii-scan/internal/resilience"
)

// DefaultJobTimeout bounds a single file, including classifier calls
const DefaultJobTimeout = 5 * time.Minute

// ProcessFunc handles one file
type ProcessFunc[T any] func(ctx context.Context, path string) (T, error)

// WorkerPool processes files on a fixed number of goroutines
type WorkerPool[T any] struct {
	workers    int
	jobs       chan *Job
	results    chan *Result[T]
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	observer   *observability.StandardObserver
	process    ProcessFunc[T]
	retry      resilience.RetryConfig
	jobTimeout time.Duration
}

// Job represents a file processing task
type Job struct {
	FilePath string
	JobID    string
	Index    int
}

// Result represents processing results
type Result[T any] struct {
	JobID    string
	FilePath string
	Index    int
	Value    T
	Error    error
	Duration time.Duration
}

// NewWorkerPool creates a worker pool. Transient errors from process are
// retried; anything else fails the job immediately.
func NewWorkerPool[T any](ctx context.Context, workers int, process ProcessFunc[T], observer *observability.StandardObserver) *WorkerPool[T] {
	if workers < 1 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(ctx)

	retry := resilience.RetryConfig{
		MaxRetries:      2,
		InitialInterval: time.Second,
		MaxInterval:     5 * time.Second,
		Multiplier:      2,
		Jitter:          true,
	}

	return &WorkerPool[T]{
		workers:    workers,
		jobs:       make(chan *Job, workers*2),
		results:    make(chan *Result[T], workers*2),
		ctx:        ctx,
		cancel:     cancel,
		observer:   observer,
		process:    process,
		retry:      retry,
		jobTimeout: DefaultJobTimeout,
	}
}

// Workers returns the number of worker goroutines
func (wp *WorkerPool[T]) Workers() int {
	return wp.workers
}

// Start initializes worker goroutines
func (wp *WorkerPool[T]) Start() {
	for i := 0; i < wp.workers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Close stops accepting jobs. Workers drain the queue and exit.
func (wp *WorkerPool[T]) Close() {
	close(wp.jobs)
}

// Stop waits for the workers and releases the pool
func (wp *WorkerPool[T]) Stop() {
	wp.wg.Wait()
	close(wp.results)
	wp.cancel()
}

// Submit adds a job to the queue. It returns false if the pool was cancelled.
func (wp *WorkerPool[T]) Submit(job *Job) bool {
	select {
	case wp.jobs <- job:
		return true
	case <-wp.ctx.Done():
		return false
	}
}

// Results returns the results channel
func (wp *WorkerPool[T]) Results() <-chan *Result[T] {
	return wp.results
}

func (wp *WorkerPool[T]) worker(id int) {
	defer wp.wg.Done()

	for job := range wp.jobs {
		wp.results <- wp.processJob(job, id)
	}
}

// processJob executes a single job with retry for transient failures
func (wp *WorkerPool[T]) processJob(job *Job, workerID int) *Result[T] {
	start := time.Now()
	finishTiming := wp.observer.StartTiming("worker_pool", "process_job", job.FilePath)

	result := &Result[T]{JobID: job.JobID, FilePath: job.FilePath, Index: job.Index}

	if err := wp.ctx.Err(); err != nil {
		result.Error = err
	} else {
		jobCtx, cancel := context.WithTimeout(wp.ctx, wp.jobTimeout)
		result.Value, result.Error = resilience.RetryWithResult(jobCtx, wp.retry, func(ctx context.Context) (T, error) {
			return wp.process(ctx, job.FilePath)
		})
		cancel()
	}

	result.Duration = time.Since(start)
	finishTiming(result.Error == nil, map[string]interface{}{
		"worker_id":   workerID,
		"duration_ms": result.Duration.Milliseconds(),
		"had_error":   result.Error != nil,
	})
	return result
}
