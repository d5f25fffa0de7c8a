// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package classifier

import (
	"context"
	"strings"
	"sync"

	"kpii-scan/internal/merge"
	"kpii-scan/internal/resilience"
	"kpii-scan/internal/risk"
)

// Stub is a deterministic classifier. It reports each configured finding for
// every chunk that contains the finding's value verbatim.
type Stub struct {
	Findings map[Kind][]Finding
	Document *risk.External
	Err      error

	mu    sync.Mutex
	calls map[Kind]int
}

// NewStub creates a stub reporting findings
func NewStub(findings map[Kind][]Finding) *Stub {
	return &Stub{Findings: findings}
}

func (s *Stub) count(kind Kind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.calls == nil {
		s.calls = make(map[Kind]int)
	}
	s.calls[kind]++
}

// Calls returns how many times kind was requested
func (s *Stub) Calls(kind Kind) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[kind]
}

// Classify implements Classifier
func (s *Stub) Classify(_ context.Context, kind Kind, chunk string, _ int) ([]Finding, error) {
	s.count(kind)
	if s.Err != nil {
		return nil, s.Err
	}
	var out []Finding
	for _, f := range s.Findings[kind] {
		if strings.Contains(chunk, f.Value) {
			out = append(out, f)
		}
	}
	return out, nil
}

// VerifySuspects implements SuspectVerifier. A suspect is confirmed when its
// context contains the value of a configured finding.
func (s *Stub) VerifySuspects(_ context.Context, kind Kind, suspects []merge.Suspect) ([]Verdict, error) {
	s.count(kind)
	if s.Err != nil {
		return nil, s.Err
	}
	verdicts := make([]Verdict, 0, len(suspects))
	for i, suspect := range suspects {
		v := Verdict{Index: i}
		for _, f := range s.Findings[kind] {
			if strings.Contains(suspect.Context, f.Value) {
				v.Confirmed = true
				v.Finding = f
				break
			}
		}
		verdicts = append(verdicts, v)
	}
	return verdicts, nil
}

// AnalyzeDocument implements DocumentAnalyzer
func (s *Stub) AnalyzeDocument(_ context.Context, _ string) (*risk.External, error) {
	s.count(KindDocument)
	if s.Err != nil {
		return nil, s.Err
	}
	if s.Document == nil {
		return nil, resilience.NewMalformedResponseError("no document analysis configured", nil)
	}
	ext := *s.Document
	return &ext, nil
}
