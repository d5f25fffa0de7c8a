// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package ipaddress

import (
	"net"
	"strconv"
	"strings"

	"kpii-scan/internal/detector"
)

// Class is the address block an IPv4 address belongs to
type Class string

const (
	ClassPublic    Class = "public"
	ClassPrivate   Class = "private"
	ClassReserved  Class = "reserved"
	ClassMulticast Class = "multicast"
	ClassTest      Class = "test"
)

// Validator checks dotted-quad IPv4 addresses
type Validator struct {
	// Keywords that suggest an IP address context
	positiveKeywords []string

	privateRanges  []*net.IPNet
	reservedRanges []*net.IPNet
	testRanges     []*net.IPNet
	multicast      *net.IPNet
}

// NewValidator creates an IP address validator
func NewValidator() *Validator {
	return &Validator{
		positiveKeywords: []string{
			"ip", "아이피", "접속", "서버", "host", "server", "client", "gateway", "로그",
		},
		privateRanges: mustCIDRs(
			"10.0.0.0/8",     // 10.0.0.0 - 10.255.255.255
			"172.16.0.0/12",  // 172.16.0.0 - 172.31.255.255
			"192.168.0.0/16", // 192.168.0.0 - 192.168.255.255
		),
		reservedRanges: mustCIDRs(
			"0.0.0.0/8",      // Current network
			"127.0.0.0/8",    // Loopback
			"169.254.0.0/16", // Link-local
			"240.0.0.0/4",    // Reserved
		),
		testRanges: mustCIDRs(
			"192.0.2.0/24",    // TEST-NET-1
			"198.51.100.0/24", // TEST-NET-2
			"203.0.113.0/24",  // TEST-NET-3
		),
		multicast: mustCIDRs("224.0.0.0/4")[0],
	}
}

func mustCIDRs(cidrs ...string) []*net.IPNet {
	out := make([]*net.IPNet, 0, len(cidrs))
	for _, c := range cidrs {
		_, n, err := net.ParseCIDR(c)
		if err != nil {
			panic(err)
		}
		out = append(out, n)
	}
	return out
}

// Validate checks for four dot-separated octets in 0-255 that are not all zero
func (v *Validator) Validate(value, _ string) bool {
	parts := strings.Split(strings.TrimSpace(value), ".")
	if len(parts) != 4 {
		return false
	}
	allZero := true
	for _, p := range parts {
		if p == "" || len(p) > 3 {
			return false
		}
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || n > 255 {
			return false
		}
		if n != 0 {
			allZero = false
		}
	}
	return !allZero
}

// ValidateFull accepts well-formed addresses with medium confidence. IP addresses
// only identify a person in combination with other data.
func (v *Validator) ValidateFull(value, context string) detector.Result {
	if !v.Validate(value, context) {
		return detector.RejectWith("format")
	}
	return detector.AcceptWith(detector.TypeIP, detector.ConfidenceMedium)
}

// Classify returns the address block of value
func (v *Validator) Classify(value string) Class {
	ip := net.ParseIP(strings.TrimSpace(value))
	if ip == nil {
		return ClassReserved
	}
	switch {
	case contains(v.testRanges, ip):
		return ClassTest
	case contains(v.privateRanges, ip):
		return ClassPrivate
	case v.multicast.Contains(ip):
		return ClassMulticast
	case contains(v.reservedRanges, ip):
		return ClassReserved
	}
	return ClassPublic
}

func contains(nets []*net.IPNet, ip net.IP) bool {
	for _, n := range nets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}
