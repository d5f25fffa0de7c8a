// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package verification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kpii-scan/internal/resilience"
)

type fakeCODEF struct {
	mu           sync.Mutex
	tokenCalls   atomic.Int32
	apiCalls     atomic.Int32
	rejectFirst  bool
	urlEncoded   bool
	lastPayload  map[string]string
	lastAuth     string
	lastPath     string
	responseCode string
	data         map[string]any
}

func (f *fakeCODEF) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(tokenPath, func(w http.ResponseWriter, r *http.Request) {
		f.tokenCalls.Add(1)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "client", user)
		assert.Equal(t, "secret", pass)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "tok-" + string(rune('0'+f.tokenCalls.Load())), "token_type": "Bearer"})
	})
	api := func(w http.ResponseWriter, r *http.Request) {
		n := f.apiCalls.Add(1)
		f.mu.Lock()
		defer f.mu.Unlock()
		f.lastAuth = r.Header.Get("Authorization")
		f.lastPath = r.URL.Path
		f.lastPayload = map[string]string{}
		_ = json.NewDecoder(r.Body).Decode(&f.lastPayload)
		if f.rejectFirst && n == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		body, _ := json.Marshal(map[string]any{
			"result": map[string]string{"code": f.responseCode, "message": "message"},
			"data":   f.data,
		})
		if f.urlEncoded {
			_, _ = w.Write([]byte(url.QueryEscape(string(body))))
			return
		}
		_, _ = w.Write(body)
	}
	mux.HandleFunc(driverLicensePath, api)
	mux.HandleFunc(residentCardPath, api)
	mux.HandleFunc(foreignerCardPath, api)
	return mux
}

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := NewClient(Config{
		ClientID:          "client",
		ClientSecret:      "secret",
		BaseURL:           srv.URL,
		RequestsPerMinute: 6000,
	}, WithHTTPClient(srv.Client()), WithTokenRetry(resilience.RetryConfig{MaxRetries: 0}))
	require.NoError(t, err)
	return c
}

func TestNewClientRequiresCredentials(t *testing.T) {
	_, err := NewClient(Config{ClientID: "only-id"})
	require.Error(t, err)
	assert.Equal(t, resilience.ErrorTypeNotConfigured, resilience.ClassifyError(err).Type)
}

func TestBaseURLSelection(t *testing.T) {
	c, err := NewClient(Config{ClientID: "a", ClientSecret: "b"})
	require.NoError(t, err)
	assert.Equal(t, DevelopmentURL, c.BaseURL())

	c, err = NewClient(Config{ClientID: "a", ClientSecret: "b", Production: true})
	require.NoError(t, err)
	assert.Equal(t, ProductionURL, c.BaseURL())
}

func TestVerifyDriverLicenseConfirmed(t *testing.T) {
	fake := &fakeCODEF{responseCode: successCode, data: map[string]any{
		"resAuthenticity":     "1",
		"resAuthenticityDesc": "정상",
		"resLicenseType":      "1종보통",
	}}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()
	c := newTestClient(t, srv)

	res := c.VerifyDriverLicense(context.Background(), DriverLicenseRequest{
		LicenseNo: "11-23-456789-01",
		Name:      "홍길동",
		BirthDate: "1990.01.15",
		SerialNo:  "A1B2C3",
	})

	assert.True(t, res.Success)
	assert.True(t, res.Valid)
	assert.Equal(t, StatusConfirmed, res.Status)
	assert.Equal(t, "운전면허증 진위확인 완료 (정상)", res.Message)
	assert.Equal(t, "1종보통", res.Details["license_type"])
	assert.Equal(t, "정상", res.Details["description"])

	assert.Equal(t, "Bearer tok-1", fake.lastAuth)
	assert.Equal(t, "112345678901", fake.lastPayload["licenseNo"])
	assert.Equal(t, "19900115", fake.lastPayload["identity"])
	assert.Equal(t, "0002", fake.lastPayload["organization"])
	assert.Equal(t, "5", fake.lastPayload["loginType"])
}

func TestVerifyDriverLicenseMismatch(t *testing.T) {
	fake := &fakeCODEF{urlEncoded: true, responseCode: successCode, data: map[string]any{
		"resAuthenticity":     "0",
		"resAuthenticityDesc": "일련번호 불일치",
	}}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()
	c := newTestClient(t, srv)

	res := c.VerifyDriverLicense(context.Background(), DriverLicenseRequest{LicenseNo: "112345678901"})
	assert.True(t, res.Success)
	assert.False(t, res.Valid)
	assert.Equal(t, StatusMismatch, res.Status)
	assert.Equal(t, "운전면허증 정보 불일치: 일련번호 불일치", res.Message)
}

func TestVerifyDriverLicenseAPIError(t *testing.T) {
	fake := &fakeCODEF{responseCode: "CF-12100"}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()
	c := newTestClient(t, srv)

	res := c.VerifyDriverLicense(context.Background(), DriverLicenseRequest{LicenseNo: "112345678901"})
	assert.False(t, res.Success)
	assert.Equal(t, StatusError, res.Status)
	assert.Equal(t, "API 오류 (CF-12100): message", res.Message)
	assert.Equal(t, "CF-12100", res.Details["error_code"])
}

func TestTokenIsCachedAndRefreshedOnUnauthorized(t *testing.T) {
	fake := &fakeCODEF{rejectFirst: true, responseCode: successCode, data: map[string]any{"resAuthenticity": "1"}}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()
	c := newTestClient(t, srv)

	res := c.VerifyDriverLicense(context.Background(), DriverLicenseRequest{LicenseNo: "112345678901"})
	assert.True(t, res.Valid)
	assert.Equal(t, int32(2), fake.tokenCalls.Load())
	assert.Equal(t, "Bearer tok-2", fake.lastAuth)

	c.VerifyDriverLicense(context.Background(), DriverLicenseRequest{LicenseNo: "112345678901"})
	assert.Equal(t, int32(2), fake.tokenCalls.Load())
	assert.Equal(t, int32(3), fake.apiCalls.Load())
}

func TestVerifyIdentityCardEndpoints(t *testing.T) {
	fake := &fakeCODEF{responseCode: successCode, data: map[string]any{"resAuthenticity": "1", "resIssueDate": "20200101"}}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()
	c := newTestClient(t, srv)

	res := c.VerifyIdentityCard(context.Background(), IdentityCardRequest{CardType: CardResident, Identity: "900101-1234567", Name: "홍길동", IssueDate: "2020-01-01"})
	assert.True(t, res.Valid)
	assert.Equal(t, "주민등록증 진위확인 완료 (정상)", res.Message)
	assert.Equal(t, residentCardPath, fake.lastPath)
	assert.Equal(t, "9001011234567", fake.lastPayload["identity"])
	assert.Equal(t, "20200101", fake.lastPayload["issueDate"])
	assert.Equal(t, "20200101", res.Details["resIssueDate"])

	fake.data = map[string]any{"resAuthenticity": "2"}
	res = c.VerifyIdentityCard(context.Background(), IdentityCardRequest{CardType: CardForeigner, Identity: "900101-5234567"})
	assert.True(t, res.Success)
	assert.False(t, res.Valid)
	assert.Equal(t, "외국인등록증 정보 불일치", res.Message)
	assert.Equal(t, foreignerCardPath, fake.lastPath)
}

func TestParseFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == tokenPath {
			_, _ = w.Write([]byte(`{"access_token":"x"}`))
			return
		}
		_, _ = w.Write([]byte(`<html>not json</html>`))
	}))
	defer srv.Close()
	c := newTestClient(t, srv)

	res := c.VerifyDriverLicense(context.Background(), DriverLicenseRequest{LicenseNo: "112345678901"})
	assert.False(t, res.Success)
	assert.Equal(t, CodeParseError, res.Code)
}

func TestTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == tokenPath {
			_, _ = w.Write([]byte(`{"access_token":"x"}`))
			return
		}
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c, err := NewClient(Config{
		ClientID:          "client",
		ClientSecret:      "secret",
		BaseURL:           srv.URL,
		RequestTimeout:    20 * time.Millisecond,
		RequestsPerMinute: 6000,
	}, WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	res := c.VerifyDriverLicense(context.Background(), DriverLicenseRequest{LicenseNo: "112345678901"})
	assert.False(t, res.Success)
	assert.Equal(t, CodeTimeout, res.Code)
	assert.Equal(t, StatusError, res.Status)
}

func TestTokenFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()
	c := newTestClient(t, srv)

	res := c.VerifyIdentityCard(context.Background(), IdentityCardRequest{CardType: CardResident})
	assert.False(t, res.Success)
	assert.Equal(t, CodeAuthError, res.Code)
}
