// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package redactors masks detected spans in text.
package redactors

import (
	"strings"
	"unicode/utf8"
)

// MaskChar is the replacement character used by every built-in strategy
const MaskChar = '*'

// RedactionStrategy identifies how a value is masked
type RedactionStrategy int

const (
	// RedactionFull replaces every character
	RedactionFull RedactionStrategy = iota
	// RedactionKeepPrefix keeps the leading characters of an identifier
	RedactionKeepPrefix
	// RedactionMiddleGroup masks the middle group of a hyphenated number
	RedactionMiddleGroup
	// RedactionLocalPart masks the local part of an email address after its first character
	RedactionLocalPart
	// RedactionPlaceholder replaces the value with a fixed label
	RedactionPlaceholder
)

// String returns the string representation of the redaction strategy
func (rs RedactionStrategy) String() string {
	switch rs {
	case RedactionFull:
		return "full"
	case RedactionKeepPrefix:
		return "keep_prefix"
	case RedactionMiddleGroup:
		return "middle_group"
	case RedactionLocalPart:
		return "local_part"
	case RedactionPlaceholder:
		return "placeholder"
	default:
		return "unknown"
	}
}

// Strategy masks a single value
type Strategy interface {
	// GetStrategyType returns the redaction strategy type
	GetStrategyType() RedactionStrategy

	// Redact returns the masked form of value
	Redact(value string) string
}

// FullStrategy masks every character
type FullStrategy struct{}

func (FullStrategy) GetStrategyType() RedactionStrategy { return RedactionFull }

func (FullStrategy) Redact(value string) string {
	return stars(utf8.RuneCountInString(value))
}

// KeepPrefixStrategy keeps the first Keep characters and masks the rest.
// Values no longer than Keep are masked entirely.
type KeepPrefixStrategy struct {
	Keep int
}

func (KeepPrefixStrategy) GetStrategyType() RedactionStrategy { return RedactionKeepPrefix }

func (s KeepPrefixStrategy) Redact(value string) string {
	runes := []rune(value)
	if len(runes) <= s.Keep {
		return stars(len(runes))
	}
	return string(runes[:s.Keep]) + stars(len(runes)-s.Keep)
}

// MiddleGroupStrategy masks the middle group of a three-part hyphenated number
// such as 010-1234-5678. Any other shape is masked entirely.
type MiddleGroupStrategy struct{}

func (MiddleGroupStrategy) GetStrategyType() RedactionStrategy { return RedactionMiddleGroup }

func (MiddleGroupStrategy) Redact(value string) string {
	parts := strings.Split(value, "-")
	if len(parts) != 3 {
		return stars(utf8.RuneCountInString(value))
	}
	parts[1] = stars(utf8.RuneCountInString(parts[1]))
	return strings.Join(parts, "-")
}

// LocalPartStrategy keeps the first character and the domain of an email address
type LocalPartStrategy struct{}

func (LocalPartStrategy) GetStrategyType() RedactionStrategy { return RedactionLocalPart }

func (LocalPartStrategy) Redact(value string) string {
	at := strings.IndexByte(value, '@')
	if at <= 0 {
		return stars(utf8.RuneCountInString(value))
	}
	local := []rune(value[:at])
	return string(local[0]) + stars(len(local)-1) + value[at:]
}

// PlaceholderStrategy replaces the value with a label such as "[주민등록번호]".
// The masked text length differs from the original.
type PlaceholderStrategy struct {
	Label string
}

func (PlaceholderStrategy) GetStrategyType() RedactionStrategy { return RedactionPlaceholder }

func (s PlaceholderStrategy) Redact(string) string {
	return s.Label
}

func stars(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat(string(MaskChar), n)
}
