// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package classifier

import (
	"strings"

	"kpii-scan/internal/detector"
)

const (
	DefaultChunkSize    = 1500
	DefaultChunkOverlap = 150

	// MinDocumentChars is the smallest trimmed document sent to the classifier
	MinDocumentChars = 50
)

var sentenceBreaks = []string{".", "\n", "。", "?", "!"}

// Chunk is a window of the document. Start and End are character offsets.
type Chunk struct {
	Text  string
	Start int
	End   int
}

// SplitChunks cuts doc into windows of at most size characters that overlap by
// overlap characters. A window ends after the last sentence break found past
// its midpoint when one exists.
func SplitChunks(doc *detector.Document, size, overlap int) []Chunk {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	n := doc.Len()
	var chunks []Chunk
	for start := 0; start < n; {
		end := min(start+size, n)

		if end < n {
			mid := start + size/2
			lastBreak := -1
			for _, b := range sentenceBreaks {
				lastBreak = max(lastBreak, doc.LastIndexIn(b, mid, end))
			}
			if lastBreak > mid {
				end = lastBreak + 1
			}
		}

		chunks = append(chunks, Chunk{Text: doc.Slice(start, end), Start: start, End: end})

		if end >= n {
			break
		}
		next := end - overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return chunks
}

// TooShort reports whether text is below the classifier's minimum length
func TooShort(text string) bool {
	return detector.RuneLen(strings.TrimSpace(text)) < MinDocumentChars
}
