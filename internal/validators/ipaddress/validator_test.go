// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package ipaddress

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
		{"192.168.1.10", true},
		{"8.8.8.8", true},
		{"255.255.255.255", true},
		{"0.0.0.0", false},
		{"256.1.1.1", false},
		{"1.2.3", false},
		{"1.2.3.4.5", false},
		{"1..2.3", false},
		{"a.b.c.d", false},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.want, v.Validate(tt.value, ""))
		})
	}
}

func TestValidateFull(t *testing.T) {
	v := NewValidator()

	r := v.ValidateFull("211.45.67.89", "")
	assert.True(t, r.Valid)
	assert.Equal(t, detector.TypeIP, r.Label)
	assert.Equal(t, detector.ConfidenceMedium, r.ConfidenceOrDefault())

	assert.False(t, v.ValidateFull("0.0.0.0", "").Valid)
}

func TestClassify(t *testing.T) {
	v := NewValidator()
	assert.Equal(t, ClassPrivate, v.Classify("10.1.2.3"))
	assert.Equal(t, ClassPrivate, v.Classify("172.20.0.1"))
	assert.Equal(t, ClassTest, v.Classify("192.0.2.15"))
	assert.Equal(t, ClassReserved, v.Classify("127.0.0.1"))
	assert.Equal(t, ClassMulticast, v.Classify("224.0.0.251"))
	assert.Equal(t, ClassPublic, v.Classify("211.45.67.89"))
}
