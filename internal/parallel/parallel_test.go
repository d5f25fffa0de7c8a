// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package parallel

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessFilesKeepsInputOrder(t *testing.T) {
	paths := []string{"a.txt", "b.txt", "c.txt", "d.txt", "e.txt"}
	var completed atomic.Int32

	results, stats := ProcessFiles(context.Background(), paths, 3,
		func(_ context.Context, path string) (string, error) {
			return strings.ToUpper(path), nil
		}, nil,
		func(done, total int, _ string) {
			completed.Add(1)
			assert.Equal(t, len(paths), total)
		})

	require.Len(t, results, len(paths))
	for i, r := range results {
		assert.Equal(t, paths[i], r.FilePath)
		assert.Equal(t, strings.ToUpper(paths[i]), r.Value)
		assert.NoError(t, r.Error)
	}
	assert.Equal(t, int32(len(paths)), completed.Load())
	assert.Equal(t, 5, stats.ProcessedFiles)
	assert.Equal(t, 0, stats.FailedFiles)
	assert.Equal(t, 3, stats.WorkerCount)
}

func TestProcessFilesIsolatesFailures(t *testing.T) {
	errBroken := errors.New("broken file")
	var calls atomic.Int32

	results, stats := ProcessFiles(context.Background(), []string{"ok.txt", "bad.txt"}, 2,
		func(_ context.Context, path string) (int, error) {
			calls.Add(1)
			if path == "bad.txt" {
				return 0, errBroken
			}
			return 1, nil
		}, nil, nil)

	assert.NoError(t, results[0].Error)
	assert.ErrorIs(t, results[1].Error, errBroken)
	assert.Equal(t, 1, stats.ProcessedFiles)
	assert.Equal(t, 1, stats.FailedFiles)
	// non-retryable errors run once
	assert.Equal(t, int32(2), calls.Load())
}

func TestProcessFilesCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, stats := ProcessFiles(ctx, []string{"a", "b", "c"}, 1,
		func(_ context.Context, path string) (string, error) {
			return path, nil
		}, nil, nil)

	require.Len(t, results, 3)
	for _, r := range results {
		assert.ErrorIs(t, r.Error, context.Canceled)
	}
	assert.Equal(t, 3, stats.FailedFiles)
}

func TestNewWorkerPoolMinimumWorkers(t *testing.T) {
	pool := NewWorkerPool(context.Background(), 0, func(context.Context, string) (bool, error) {
		return true, nil
	}, nil)
	assert.Equal(t, 1, pool.Workers())
	assert.LessOrEqual(t, DefaultWorkers(), MaxWorkers)
}
