// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package help

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeProvider struct{ info CheckInfo }

func (f fakeProvider) GetCheckInfo() CheckInfo { return f.info }

func TestShowCheckHelp(t *testing.T) {
	var buf bytes.Buffer
	h := NewSystem(&buf, true)
	h.RegisterProvider(fakeProvider{CheckInfo{
		Name:             "RRN",
		Label:            "주민등록번호",
		ShortDescription: "resident numbers",
		Patterns:         []string{"YYMMDD-GNNNNNC"},
		PositiveKeywords: []string{"주민번호"},
	}})
	h.RegisterProvider(fakeProvider{CheckInfo{Name: "CARD", Label: "카드번호"}})

	assert.Equal(t, []string{"CARD", "RRN"}, h.CheckNames())

	assert.True(t, h.ShowCheckHelp("rrn"))
	out := buf.String()
	assert.Contains(t, out, "RRN Check (주민등록번호)")
	assert.Contains(t, out, "YYMMDD-GNNNNNC")
	assert.Contains(t, out, "주민번호")

	buf.Reset()
	assert.False(t, h.ShowCheckHelp("missing"))
	assert.Contains(t, buf.String(), "not found")
}

func TestShowChecksHelp(t *testing.T) {
	var buf bytes.Buffer
	h := NewSystem(&buf, true)
	h.RegisterProvider(fakeProvider{CheckInfo{Name: "EMAIL", Label: "이메일", ShortDescription: "email addresses"}})
	h.ShowChecksHelp()
	assert.Contains(t, buf.String(), "EMAIL")
	assert.Contains(t, buf.String(), "email addresses")
}
