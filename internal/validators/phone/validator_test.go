// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"kpii-scan/internal/detector"
)

func TestValidate(t *testing.T) {
	v := NewValidator()
	tests := []struct {
		value string
		want  bool
	}{
		{"010-1234-5678", true},
		{"01012345678", true},
		{"011-123-4567", true},
		{"02-123-4567", true},
		{"02-1234-5678", true},
		{"031-123-4567", true},
		{"070-1234-5678", true},
		{"010-123-45", false},
		{"099-123-4567", false},
		{"02-12-345", false},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.want, v.Validate(tt.value, ""))
		})
	}
}

func TestKindAndRegion(t *testing.T) {
	assert.Equal(t, detector.TypeMobile, Kind("010-9876-5432"))
	assert.Equal(t, detector.TypePhone, Kind("051-123-4567"))
	assert.Equal(t, "부산", Region("051-123-4567"))
	assert.Equal(t, "서울", Region("02-123-4567"))
	assert.Equal(t, "", Region("010-1234-5678"))
}

func TestValidateFull(t *testing.T) {
	v := NewValidator()

	r := v.ValidateFull("010-9876-5432", "")
	assert.True(t, r.Valid)
	assert.Equal(t, detector.TypeMobile, r.Label)
	assert.Equal(t, detector.ConfidenceHigh, r.ConfidenceOrDefault())

	assert.False(t, v.ValidateFull("099-123-4567", "").Valid)
}
