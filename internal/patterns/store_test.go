// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package patterns

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kpii-scan/internal/detector"
)

func TestStoreAddDefaultsAndClamp(t *testing.T) {
	s, err := NewMemoryStore()
	require.NoError(t, err)

	require.NoError(t, s.Add(Pattern{Pattern: "프로젝트 오로라"}))
	require.NoError(t, s.Add(Pattern{Name: "사번", Pattern: `EMP-\d{6}`, Kind: KindRegex, Score: 40}))
	require.NoError(t, s.Add(Pattern{Name: "낮음", Pattern: "저위험", Score: -3}))

	list := s.List(false)
	require.Len(t, list, 3)
	assert.Equal(t, "프로젝트 오로라", list[0].Name)
	assert.Equal(t, KindKeyword, list[0].Kind)
	assert.Equal(t, DefaultScore, list[0].Score)
	assert.Equal(t, DefaultCategory, list[0].Category)
	assert.True(t, list[0].Enabled)
	assert.Equal(t, MaxScore, list[1].Score)
	assert.Equal(t, MinScore, list[2].Score)
}

func TestStoreRejects(t *testing.T) {
	s, err := NewMemoryStore(Pattern{Pattern: "기밀"})
	require.NoError(t, err)

	assert.ErrorIs(t, s.Add(Pattern{Pattern: "기밀"}), ErrDuplicate)
	assert.Error(t, s.Add(Pattern{Pattern: "([a-z", Kind: KindRegex}))
	assert.Error(t, s.Add(Pattern{Pattern: "  "}))
	assert.Error(t, s.Add(Pattern{Pattern: "x", Kind: "glob"}))
	assert.ErrorIs(t, s.Remove("없음"), ErrNotFound)
	_, err = s.Toggle("없음")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreRemoveToggleUpdate(t *testing.T) {
	s, err := NewMemoryStore(Pattern{Pattern: "alpha"}, Pattern{Pattern: "beta"}, Pattern{Pattern: "gamma"})
	require.NoError(t, err)

	require.NoError(t, s.Remove("beta"))
	assert.Len(t, s.List(false), 2)

	enabled, err := s.Toggle("alpha")
	require.NoError(t, err)
	assert.False(t, enabled)
	assert.Len(t, s.EnabledPatterns(), 1)

	snapshot := s.EnabledPatterns()
	enabled, err = s.Toggle("alpha")
	require.NoError(t, err)
	assert.True(t, enabled)
	assert.Len(t, snapshot, 1, "snapshots are unaffected by later edits")

	score := 12
	newPattern := `g[a-z]+a`
	kind := KindRegex
	require.NoError(t, s.Update("gamma", Update{Pattern: &newPattern, Kind: &kind, Score: &score}))
	list := s.List(false)
	assert.Equal(t, newPattern, list[1].Pattern)
	assert.Equal(t, 12, list[1].Score)
	assert.NotNil(t, list[1].compiled)

	dup := "alpha"
	assert.ErrorIs(t, s.Update(newPattern, Update{Pattern: &dup}), ErrDuplicate)

	bad := "(["
	assert.Error(t, s.Update(newPattern, Update{Pattern: &bad}))
	assert.Equal(t, newPattern, s.List(false)[1].Pattern, "failed update leaves the pattern unchanged")
}

func TestStorePersistsJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "user_patterns.json")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Add(Pattern{Name: "코드명", Pattern: "블루버드", Description: "신규 사업", Score: 10}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var raw map[string][]map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Len(t, raw["patterns"], 1)
	assert.Equal(t, "블루버드", raw["patterns"][0]["pattern"])
	assert.Equal(t, true, raw["patterns"][0]["enabled"])

	reopened, err := Open(path)
	require.NoError(t, err)
	list := reopened.List(false)
	require.Len(t, list, 1)
	assert.Equal(t, "코드명", list[0].Name)
	assert.Equal(t, 10, list[0].Score)
}

func TestStoreLoadsYAMLWithDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patterns.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
patterns:
  - name: 사번
    pattern: 'EMP-\d{6}'
    type: regex
  - pattern: 비활성
    enabled: false
  - pattern: '(['
    type: regex
`), 0o600))

	s, err := Open(path)
	require.NoError(t, err)
	list := s.List(false)
	require.Len(t, list, 2, "invalid regex skipped")
	assert.True(t, list[0].Enabled)
	assert.Equal(t, DefaultScore, list[0].Score)
	assert.False(t, list[1].Enabled)
	assert.Len(t, s.EnabledPatterns(), 1)
}

func TestStoreOpenErrors(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Empty(t, s.List(false))

	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o600))
	_, err = Open(path)
	assert.Error(t, err)
}

func TestStoreImportExport(t *testing.T) {
	src, err := NewMemoryStore(Pattern{Pattern: "alpha"}, Pattern{Name: "번호", Pattern: `\d{3}`, Kind: KindRegex})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, src.Export(&buf, true))
	path := filepath.Join(t.TempDir(), "export.yaml")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))

	dst, err := NewMemoryStore(Pattern{Pattern: "alpha"})
	require.NoError(t, err)
	added, err := dst.Import(path)
	require.NoError(t, err)
	assert.Equal(t, 1, added)
	assert.Len(t, dst.List(false), 2)

	buf.Reset()
	require.NoError(t, dst.Export(&buf, false))
	assert.Contains(t, buf.String(), `"pattern": "\\d{3}"`)
}

func TestDetectKeywordsAndRegex(t *testing.T) {
	s, err := NewMemoryStore(
		Pattern{Name: "코드명", Pattern: "Aurora", Score: 12},
		Pattern{Name: "사번", Pattern: `emp-\d{6}`, Kind: KindRegex},
		Pattern{Pattern: "aa"},
	)
	require.NoError(t, err)

	doc := detector.NewDocument("신규 과제 AURORA 담당 EMP-204851 확인 aaa")
	spans := Detect(doc, s)
	require.Len(t, spans, 4)

	assert.Equal(t, "사용자정의:코드명", spans[0].Type)
	assert.Equal(t, "AURORA", spans[0].Value)
	assert.Equal(t, 6, spans[0].Start)
	assert.Equal(t, 12, spans[0].End)
	assert.Equal(t, detector.MethodUserPattern, spans[0].Method)
	assert.Equal(t, detector.CategoryUserDefined, spans[0].LegalCategory)
	require.NotNil(t, spans[0].Score)
	assert.Equal(t, 12, *spans[0].Score)
	assert.Equal(t, doc.Text(), spans[0].Context)

	assert.Equal(t, "사용자정의:사번", spans[1].Type)
	assert.Equal(t, "EMP-204851", spans[1].Value)
	assert.Equal(t, 16, spans[1].Start)

	assert.Equal(t, 30, spans[2].Start)
	assert.Equal(t, 31, spans[3].Start, "keyword search advances by one")
}

func TestDetectSkipsDisabled(t *testing.T) {
	s, err := NewMemoryStore(Pattern{Pattern: "기밀"})
	require.NoError(t, err)
	_, err = s.Toggle("기밀")
	require.NoError(t, err)

	assert.Empty(t, Detect(detector.NewDocument("기밀 문서"), s))
	assert.Empty(t, Detect(detector.NewDocument("기밀 문서"), nil))
}
