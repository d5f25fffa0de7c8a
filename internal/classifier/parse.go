// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package classifier

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

var (
	thinkBlock = regexp.MustCompile(`(?s)<think>.*?</think>`)
	codeFence  = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

	errNoJSON = errors.New("no JSON object in response")
)

// ParseJSON decodes a model reply into v. Reasoning blocks and code fences are
// removed first; when the remainder is not valid JSON the outermost {...} is tried.
func ParseJSON(reply string, v any) error {
	text := thinkBlock.ReplaceAllString(reply, "")
	if m := codeFence.FindStringSubmatch(text); m != nil {
		text = m[1]
	}
	text = strings.TrimSpace(text)

	err := json.Unmarshal([]byte(text), v)
	if err == nil {
		return nil
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return errNoJSON
	}
	return json.Unmarshal([]byte(text[start:end+1]), v)
}

// findingList is the reply shape of chunk classification
type findingList struct {
	Results []struct {
		Type      string `json:"type"`
		Value     string `json:"value"`
		Person    string `json:"person"`
		Reason    string `json:"reason"`
		Indicator string `json:"confidentiality_indicator"`
	} `json:"results"`
}

func (l findingList) findings() []Finding {
	out := make([]Finding, 0, len(l.Results))
	for _, r := range l.Results {
		out = append(out, Finding{Type: r.Type, Value: r.Value, Person: r.Person, Reason: r.Reason, Indicator: r.Indicator})
	}
	return out
}

// verdictList is the reply shape of suspect verification. Index is 1-based.
type verdictList struct {
	Results []struct {
		Index          int    `json:"index"`
		IsSensitive    bool   `json:"is_sensitive"`
		IsConfidential bool   `json:"is_confidential"`
		Type           string `json:"type"`
		Value          string `json:"value"`
		Person         string `json:"person_identifier"`
		Indicator      string `json:"confidentiality_indicator"`
		Reason         string `json:"reason"`
	} `json:"results"`
}

func (l verdictList) verdicts(kind Kind) []Verdict {
	out := make([]Verdict, 0, len(l.Results))
	for _, r := range l.Results {
		index := r.Index
		if index == 0 {
			index = 1
		}
		confirmed := r.IsSensitive
		if kind == KindConfidential {
			confirmed = r.IsConfidential
		}
		out = append(out, Verdict{
			Index:     index - 1,
			Confirmed: confirmed,
			Finding: Finding{
				Type:      r.Type,
				Value:     r.Value,
				Person:    r.Person,
				Reason:    r.Reason,
				Indicator: r.Indicator,
			},
		})
	}
	return out
}

// documentReply is the reply shape of document analysis
type documentReply struct {
	RiskLevel       string          `json:"risk_level"`
	RiskScore       json.RawMessage `json:"risk_score"`
	Reasoning       string          `json:"reasoning"`
	Recommendations []string        `json:"recommendations"`
}
