// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package classifier adapts a language model into a producer of sensitive and
// confidential spans. Every call is bounded by a timeout and any failure
// degrades to an empty result for that unit of work.
package classifier

import (
	"context"

	"kpii-scan/internal/detector"
	"kpii-scan/internal/merge"
	"kpii-scan/internal/risk"
)

// Kind selects what the classifier looks for
type Kind string

const (
	KindSensitive    Kind = "sensitive"
	KindConfidential Kind = "confidential"
	KindDocument     Kind = "document"
)

// Category returns the legal category of spans of this kind
func (k Kind) Category() detector.LegalCategory {
	if k == KindConfidential {
		return detector.CategoryTradeSecret
	}
	return detector.CategorySensitive
}

// DefaultType is used when the classifier omits a type
func (k Kind) DefaultType() string {
	if k == KindConfidential {
		return string(detector.CategoryTradeSecret)
	}
	return string(detector.CategorySensitive)
}

// Finding is one item reported by the classifier for a chunk
type Finding struct {
	Type      string `json:"type"`
	Value     string `json:"value"`
	Person    string `json:"person,omitempty"`
	Reason    string `json:"reason,omitempty"`
	Indicator string `json:"indicator,omitempty"`
}

// Verdict is the classifier's decision about one keyword suspect
type Verdict struct {
	Index     int // 0-based position in the submitted batch
	Confirmed bool
	Finding
}

// Classifier finds spans of the given kind inside one chunk. offset is the
// chunk's character offset in the document.
type Classifier interface {
	Classify(ctx context.Context, kind Kind, chunk string, offset int) ([]Finding, error)
}

// SuspectVerifier decides which keyword suspects are genuine
type SuspectVerifier interface {
	VerifySuspects(ctx context.Context, kind Kind, suspects []merge.Suspect) ([]Verdict, error)
}

// DocumentAnalyzer gives a whole-document risk opinion
type DocumentAnalyzer interface {
	AnalyzeDocument(ctx context.Context, text string) (*risk.External, error)
}

type chunkPositionKey struct{}

// WithChunkPosition annotates ctx with the 1-based chunk number and the chunk count
func WithChunkPosition(ctx context.Context, number, total int) context.Context {
	return context.WithValue(ctx, chunkPositionKey{}, [2]int{number, total})
}

func chunkPosition(ctx context.Context) (int, int) {
	if p, ok := ctx.Value(chunkPositionKey{}).([2]int); ok {
		return p[0], p[1]
	}
	return 1, 1
}
