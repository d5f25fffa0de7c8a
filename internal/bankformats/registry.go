// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package bankformats holds the per-bank account number layouts used to
// extract and check account subject codes.
package bankformats

import (
	_ "embed"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed banks.yaml
var defaultTable []byte

// CodeSet lists subject codes. Entries are exact codes or inclusive ranges "start~end".
type CodeSet []string

// Match reports whether code is in the set
func (s CodeSet) Match(code string) bool {
	for _, entry := range s {
		if lo, hi, ok := strings.Cut(entry, "~"); ok {
			start, err1 := strconv.Atoi(lo)
			end, err2 := strconv.Atoi(hi)
			n, err3 := strconv.Atoi(code)
			if err1 == nil && err2 == nil && err3 == nil && start <= n && n <= end {
				return true
			}
			continue
		}
		if entry == code {
			return true
		}
	}
	return false
}

// AccountType is a named code set inside a category
type AccountType struct {
	Name  string  `yaml:"name"`
	Codes CodeSet `yaml:"codes"`
}

// Category groups subject codes either directly or by account type
type Category struct {
	Category string        `yaml:"category"`
	Codes    CodeSet       `yaml:"codes,omitempty"`
	Types    []AccountType `yaml:"types,omitempty"`
}

// TypedCodes is a code set labelled with an optional type name
type TypedCodes struct {
	Type  string  `yaml:"type,omitempty"`
	Codes CodeSet `yaml:"codes"`
}

// Rule locates the subject code inside the digit string
type Rule struct {
	Start int `yaml:"start"`
	Width int `yaml:"width"`
}

// Bank describes one bank's account layouts
type Bank struct {
	Name         string       `yaml:"name" json:"name"`
	Code         string       `yaml:"code" json:"code"`
	ValidLengths []int        `yaml:"valid_lengths" json:"valid_lengths"`
	Formats      []string     `yaml:"formats" json:"formats"`
	Extraction   map[int]Rule `yaml:"extraction,omitempty" json:"-"`
	SubjectCodes []Category   `yaml:"subject_codes,omitempty" json:"-"`
	VirtualCodes []TypedCodes `yaml:"virtual_codes,omitempty" json:"-"`
	ExtraCodes   []TypedCodes `yaml:"extra_codes,omitempty" json:"-"`
}

// Registry is an immutable set of bank layouts
type Registry struct {
	banks  []Bank
	byName map[string]int
}

type table struct {
	Banks []Bank `yaml:"banks"`
}

// Parse builds a registry from YAML
func Parse(data []byte) (*Registry, error) {
	var t table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse bank formats: %w", err)
	}
	return New(t.Banks)
}

// New builds a registry from bank entries
func New(banks []Bank) (*Registry, error) {
	r := &Registry{banks: banks, byName: make(map[string]int, len(banks))}
	for i, b := range banks {
		if b.Name == "" {
			return nil, fmt.Errorf("bank entry %d has no name", i)
		}
		if _, dup := r.byName[b.Name]; dup {
			return nil, fmt.Errorf("duplicate bank entry %q", b.Name)
		}
		for length, rule := range b.Extraction {
			if rule.Start < 0 || rule.Width <= 0 || rule.Start+rule.Width > length {
				return nil, fmt.Errorf("bank %q: extraction rule for length %d is out of range", b.Name, length)
			}
		}
		r.byName[b.Name] = i
	}
	return r, nil
}

// Load reads a registry from a YAML file
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read bank formats: %w", err)
	}
	return Parse(data)
}

var defaultRegistry = mustParse(defaultTable)

func mustParse(data []byte) *Registry {
	r, err := Parse(data)
	if err != nil {
		panic(err)
	}
	return r
}

// Default returns the built-in registry
func Default() *Registry {
	return defaultRegistry
}

// Banks returns all entries in table order
func (r *Registry) Banks() []Bank {
	return slices.Clone(r.banks)
}

// Lookup returns the entry for a bank name
func (r *Registry) Lookup(name string) (Bank, bool) {
	i, ok := r.byName[name]
	if !ok {
		return Bank{}, false
	}
	return r.banks[i], true
}

// ValidLengths returns the account lengths the bank issues, or nil for unknown banks
func (r *Registry) ValidLengths(name string) []int {
	b, ok := r.Lookup(name)
	if !ok {
		return nil
	}
	return b.ValidLengths
}

// BanksByLength returns the banks that issue accounts with the given digit count
func (r *Registry) BanksByLength(length int) []Bank {
	var out []Bank
	for _, b := range r.banks {
		if slices.Contains(b.ValidLengths, length) {
			out = append(out, b)
		}
	}
	return out
}

// ExtractSubjectCode returns the subject code of digits for the named bank.
// ok is false when the bank has no rule for this length.
func (r *Registry) ExtractSubjectCode(digits, bank string) (string, bool) {
	b, ok := r.Lookup(bank)
	if !ok {
		return "", false
	}
	rule, ok := b.Extraction[len(digits)]
	if !ok || rule.Start+rule.Width > len(digits) {
		return "", false
	}
	return digits[rule.Start : rule.Start+rule.Width], true
}

// MatchSubjectCode checks code against the bank's tables. It returns the account
// type on a match. Unknown banks and empty codes are accepted without a type.
func (r *Registry) MatchSubjectCode(bank, code string) (bool, string) {
	b, ok := r.Lookup(bank)
	if code == "" || !ok {
		return true, ""
	}

	for _, v := range b.VirtualCodes {
		if v.Codes.Match(code) {
			if v.Type == "" {
				return true, "가상계좌"
			}
			return true, "가상계좌(" + v.Type + ")"
		}
	}

	for _, c := range b.SubjectCodes {
		for _, t := range c.Types {
			if t.Codes.Match(code) {
				return true, c.Category + "_" + t.Name
			}
		}
		if c.Codes.Match(code) {
			return true, c.Category
		}
	}

	for _, e := range b.ExtraCodes {
		if e.Codes.Match(code) {
			return true, e.Type
		}
	}
	return false, ""
}
