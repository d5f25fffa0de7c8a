// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package driverlicense

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"kpii-scan/internal/validators/nuisance"
	"kpii-scan/internal/verification"
)

func TestValidate(t *testing.T) {
	v := NewValidator()
	assert.True(t, v.Validate("11-23-482195-66", ""))
	assert.True(t, v.Validate("112348219566", ""))
	assert.True(t, v.Validate("28-23-482195-66", ""))
	assert.False(t, v.Validate("27-23-482195-66", ""), "27 is not a region")
	assert.False(t, v.Validate("11-23-482195-6", ""))
	assert.True(t, v.Validate("11 23 482195 66", ""))
	assert.False(t, v.Validate("11a23-482913-55", ""), "letters are not separators")
	assert.False(t, v.Validate("11.23.482195.66", ""))
	assert.False(t, v.ValidateFull("11a23-482913-55", "").Valid)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "112348219566", Normalize("11-23-482195-66"))
	assert.Equal(t, "112348219566", Normalize(" 11 23\t482195-66\n"))
	assert.Equal(t, "11a2348291355", Normalize("11a23-482913-55"))
}

func TestValidateFullUsesFilterTables(t *testing.T) {
	tables := nuisance.DefaultTables()
	tables.LicenseSerial = append(tables.LicenseSerial, "482195")
	v := NewValidator().WithFilter(nuisance.NewFilter(tables))

	assert.False(t, v.ValidateFull("11-23-482195-66", "").Valid)
	assert.True(t, NewValidator().ValidateFull("11-23-482195-66", "").Valid)
}

func TestVerifyChecksum(t *testing.T) {
	assert.True(t, VerifyChecksum("11-23-482195-66"))
	assert.False(t, VerifyChecksum("11-23-482195-67"))
	assert.False(t, VerifyChecksum("11-23-48x195-66"))
}

func TestValidateFull(t *testing.T) {
	v := NewValidator()
	tests := []struct {
		name  string
		value string
		valid bool
		label string
	}{
		{"checksum pass", "11-23-482195-66", true, "운전면허번호"},
		{"checksum fail is suspect", "11-23-482195-67", true, "운전면허번호(의심)"},
		{"all same", "111111111111", false, ""},
		{"sequential serial", "11-23-123456-00", false, ""},
		{"repeated serial", "11-23-555551-00", false, ""},
		{"same digit serial", "12-23-000000-00", false, ""},
		{"bad region", "29-23-482195-66", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := v.ValidateFull(tt.value, "")
			assert.Equal(t, tt.valid, r.Valid)
			assert.Equal(t, tt.label, r.Label)
		})
	}
}

func TestRegionAndYear(t *testing.T) {
	assert.Equal(t, "서울", RegionName("11-23-482195-66"))
	assert.Equal(t, "세종", RegionName("28"))
	assert.Equal(t, "알 수 없음", RegionName("99-23"))
	assert.Equal(t, "", RegionName("1"))

	assert.Equal(t, "2023", IssueYear("11-23-482195-66"))
	assert.Equal(t, "2030", IssueYear("11-30-482195-66"))
	assert.Equal(t, "1995", IssueYear("11-95-482195-66"))
	assert.Equal(t, "", IssueYear("112"))
}

type stubVerifier struct {
	result verification.Result
	got    verification.DriverLicenseRequest
}

func (s *stubVerifier) VerifyDriverLicense(_ context.Context, req verification.DriverLicenseRequest) verification.Result {
	s.got = req
	return s.result
}

func TestValidateWithAPI(t *testing.T) {
	v := NewValidator()
	ctx := context.Background()

	ok, label, res := v.ValidateWithAPI(ctx, nil, "11-23-482195-66", "", "", "")
	assert.False(t, ok)
	assert.Equal(t, "CODEF API가 설정되지 않았습니다", label)
	assert.Equal(t, verification.CodeNotConfigured, res.Code)

	stub := &stubVerifier{result: verification.Result{Success: true, Valid: true}}
	ok, label, _ = v.ValidateWithAPI(ctx, stub, "11-23-482195-66", "홍길동", "19900115", "A1B2C3")
	assert.True(t, ok)
	assert.Equal(t, "운전면허번호(API확인)", label)
	assert.Equal(t, "홍길동", stub.got.Name)
	assert.Equal(t, "A1B2C3", stub.got.SerialNo)

	stub.result = verification.Result{Success: true, Valid: false}
	ok, label, _ = v.ValidateWithAPI(ctx, stub, "11-23-482195-66", "홍길동", "19900115", "A1B2C3")
	assert.False(t, ok)
	assert.Equal(t, "운전면허번호(API불일치)", label)

	stub.result = verification.Result{Message: "API 요청 시간 초과", Code: verification.CodeTimeout}
	ok, label, _ = v.ValidateWithAPI(ctx, stub, "11-23-482195-66", "홍길동", "19900115", "A1B2C3")
	assert.False(t, ok)
	assert.Equal(t, "API 요청 시간 초과", label)
}
