// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package passport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kpii-scan/internal/validators/nuisance"
)

func TestValidate(t *testing.T) {
	v := NewValidator()
	tests := []struct {
		value string
		want  bool
	}{
		{"M48213957", true},
		{" m48213957 ", true},
		{"M482A3957", true},
		{"M482I3957", false},
		{"M482O3957", false},
		{"PM4821395", true},
		{"PX4821395", false},
		{"SM4821395", true},
		{"X48213957", false},
		{"M4821395", false},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.want, v.Validate(tt.value, ""))
		})
	}
}

func TestDetectFormat(t *testing.T) {
	assert.Equal(t, FormatNextGen, DetectFormat("M482A3957"))
	assert.Equal(t, FormatLegacy, DetectFormat("M48213957"))
	assert.Equal(t, FormatOld, DetectFormat("PM4821395"))
	assert.Equal(t, FormatUnknown, DetectFormat("123"))
}

func TestValidateFull(t *testing.T) {
	v := NewValidator()
	tests := []struct {
		name  string
		value string
		valid bool
	}{
		{"legacy", "M48213957", true},
		{"legacy dummy", "M12345678", false},
		{"legacy long repeat", "M95555553", false},
		{"legacy five repeat allowed", "M95555513", true},
		{"next gen", "M482A3957", true},
		{"next gen dummy", "M123A4567", false},
		{"next gen repeat", "M999A9953", false},
		{"old dummy", "PM7654321", false},
		{"bad format", "Z48213957", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := v.ValidateFull(tt.value, "")
			assert.Equal(t, tt.valid, r.Valid)
			if tt.valid {
				assert.Equal(t, "여권번호", r.Label)
			}
		})
	}
}

func TestValidateFullUsesFilterTables(t *testing.T) {
	tables := nuisance.DefaultTables()
	tables.PassportTest = append(tables.PassportTest, "48213957", "4823957")
	v := NewValidator().WithFilter(nuisance.NewFilter(tables))

	assert.False(t, v.ValidateFull("M48213957", "").Valid)
	assert.False(t, v.ValidateFull("M482A3957", "").Valid)
	assert.True(t, NewValidator().ValidateFull("M48213957", "").Valid)
}

func TestPassportType(t *testing.T) {
	v := NewValidator()
	assert.Equal(t, "일반여권", v.PassportType("M48213957"))
	assert.Equal(t, "관용여권(차세대)", v.PassportType("S482A3957"))
	assert.Equal(t, "복수여권", v.PassportType("PM4821395"))
	assert.Equal(t, "난민용여행증명서", v.PassportType("PZ4821395"))
	assert.Equal(t, "외교관여권", v.PassportType("DM4821395"))
	assert.Equal(t, "", v.PassportType("nope"))
}

func TestFormatInfo(t *testing.T) {
	v := NewValidator()

	info, ok := v.FormatInfo("m482a3957")
	require.True(t, ok)
	assert.Equal(t, "M482A3957", info.Value)
	assert.Equal(t, FormatNextGen, info.Format)
	assert.Equal(t, "A", info.MiddleCode)
	assert.Equal(t, "차세대 전자여권 (2021.12.21~)", info.Description)

	info, ok = v.FormatInfo("PE4821395")
	require.True(t, ok)
	assert.Equal(t, "E", info.SecondCode)
	assert.Equal(t, "긴급여권", info.Type)

	_, ok = v.FormatInfo("")
	assert.False(t, ok)
}
