// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package verification talks to the CODEF public-records API to confirm that a
// driver license or identity card is genuine.
package verification

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"kpii-scan/internal/observability"
	"kpii-scan/internal/resilience"
	"kpii-scan/internal/version"
)

const (
	DevelopmentURL = "https://development.codef.io"
	ProductionURL  = "https://api.codef.io"

	tokenPath         = "/oauth/token"
	driverLicensePath = "/v1/kr/public/ef/driver-license/status"
	residentCardPath  = "/v1/kr/public/mw/identity-card/check-status"
	foreignerCardPath = "/v1/kr/public/mw/foreigners-card/status"

	successCode  = "CF-00000"
	organization = "0002" // National Police Agency
	loginType    = "5"

	tracerName = "kpii-scan/internal/verification"
)

// Failure codes reported in Result.Code when the call itself did not complete
const (
	CodeTimeout       = "TIMEOUT"
	CodeNetworkError  = "NETWORK_ERROR"
	CodeParseError    = "PARSE_ERROR"
	CodeAuthError     = "AUTH_ERROR"
	CodeNotConfigured = "NOT_CONFIGURED"
)

// Status values in Result.Status
const (
	StatusConfirmed = "확인"
	StatusMismatch  = "불일치"
	StatusError     = "오류"
)

// Result is the outcome of a verification request
type Result struct {
	Success bool              `json:"success"`
	Valid   bool              `json:"valid"`
	Status  string            `json:"status"`
	Message string            `json:"message"`
	Code    string            `json:"code,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// DriverLicenseRequest identifies a driver license to verify
type DriverLicenseRequest struct {
	LicenseNo string `json:"license_no"`
	Name      string `json:"name"`
	BirthDate string `json:"birth_date"` // YYYYMMDD; separators allowed
	SerialNo  string `json:"serial_no"`  // 6-character code printed on the card
}

// CardType selects the identity-card endpoint
type CardType string

const (
	CardResident  CardType = "resident"
	CardForeigner CardType = "foreigner"
)

// IdentityCardRequest identifies a resident or foreigner registration card to verify
type IdentityCardRequest struct {
	CardType  CardType `json:"card_type"`
	Identity  string   `json:"identity"`
	Name      string   `json:"name"`
	IssueDate string   `json:"issue_date"`
}

// Config holds client credentials and limits
type Config struct {
	ClientID          string
	ClientSecret      string
	Production        bool
	BaseURL           string // overrides the environment URL when set
	TokenTimeout      time.Duration
	RequestTimeout    time.Duration
	RequestsPerMinute int
}

// Configured reports whether credentials are present
func (c Config) Configured() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// Client is a CODEF API client with a cached bearer token
type Client struct {
	cfg        Config
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	tokenRetry resilience.RetryConfig
	logger     zerolog.Logger
	metrics    *observability.Metrics
	tracer     trace.Tracer

	mu        sync.Mutex
	token     string
	tokenType string
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithMetrics attaches Prometheus collectors
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithTokenRetry overrides the token acquisition retry policy
func WithTokenRetry(rc resilience.RetryConfig) Option {
	return func(c *Client) { c.tokenRetry = rc }
}

// NewClient creates a client. It fails when credentials are missing.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if !cfg.Configured() {
		return nil, resilience.NewNotConfiguredError("CODEF API가 설정되지 않았습니다")
	}
	if cfg.TokenTimeout <= 0 {
		cfg.TokenTimeout = 30 * time.Second
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 60 * time.Second
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 60
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DevelopmentURL
		if cfg.Production {
			baseURL = ProductionURL
		}
	}

	c := &Client{
		cfg:        cfg,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		limiter:    rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60.0), max(1, cfg.RequestsPerMinute/10)),
		tokenRetry: resilience.TokenRetryConfig(),
		logger:     zerolog.Nop(),
		tracer:     observability.Tracer(tracerName),
		tokenType:  "Bearer",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the API root in use
func (c *Client) BaseURL() string {
	return c.baseURL
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Token returns the cached access token, requesting a new one when none is cached
func (c *Client) Token(ctx context.Context) (string, string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" {
		return c.token, c.tokenType, nil
	}

	tok, err := resilience.RetryWithResult(ctx, c.tokenRetry, c.requestToken)
	if err != nil {
		return "", "", err
	}
	c.token = tok.AccessToken
	c.tokenType = tok.TokenType
	if c.tokenType == "" {
		c.tokenType = "Bearer"
	}
	c.logger.Info().Msg("CODEF token issued")
	return c.token, c.tokenType, nil
}

// InvalidateToken drops the cached token so the next request fetches a new one
func (c *Client) InvalidateToken() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

func (c *Client) requestToken(ctx context.Context) (tokenResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.TokenTimeout)
	defer cancel()

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+tokenPath, strings.NewReader(form.Encode()))
	if err != nil {
		return tokenResponse{}, resilience.Wrap(resilience.ErrorTypeInvalidInput, "failed to build token request", err)
	}
	credentials := base64.StdEncoding.EncodeToString([]byte(c.cfg.ClientID + ":" + c.cfg.ClientSecret))
	req.Header.Set("Authorization", "Basic "+credentials)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return tokenResponse{}, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return tokenResponse{}, fmt.Errorf("failed to read token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return tokenResponse{}, &resilience.StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return tokenResponse{}, resilience.NewMalformedResponseError("malformed token response", err)
	}
	if tok.AccessToken == "" {
		return tokenResponse{}, resilience.NewMalformedResponseError("token response without access_token", nil)
	}
	return tok, nil
}

type apiResponse struct {
	Result struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"result"`
	Data map[string]any `json:"data"`
}

// decodeResponse accepts plain JSON and the URL-encoded JSON CODEF returns on some endpoints
func decodeResponse(body []byte) (apiResponse, error) {
	var resp apiResponse
	err := json.Unmarshal(body, &resp)
	if err == nil {
		return resp, nil
	}
	unescaped, uerr := url.QueryUnescape(string(body))
	if uerr != nil {
		return resp, err
	}
	if err := json.Unmarshal([]byte(unescaped), &resp); err != nil {
		return resp, err
	}
	return resp, nil
}

// call posts payload to path and returns the decoded response or a failure Result
func (c *Client) call(ctx context.Context, path string, payload map[string]string) (apiResponse, *Result) {
	ctx, span := c.tracer.Start(ctx, "codef.request", trace.WithAttributes(attribute.String("codef.endpoint", path)))
	var spanErr error
	defer func() { observability.EndSpan(span, spanErr) }()

	for attempt := 0; attempt < 2; attempt++ {
		token, tokenType, err := c.Token(ctx)
		if err != nil {
			spanErr = err
			return apiResponse{}, failure(CodeAuthError, fmt.Sprintf("토큰 발급 실패: %v", err))
		}

		if err := c.limiter.Wait(ctx); err != nil {
			spanErr = err
			return apiResponse{}, transportFailure(err)
		}

		status, body, err := c.post(ctx, path, tokenType+" "+token, payload)
		if err != nil {
			spanErr = err
			c.logger.Error().Err(err).Str("endpoint", path).Func(observability.LogTraceFields(ctx)).Msg("CODEF request failed")
			return apiResponse{}, transportFailure(err)
		}
		if status == http.StatusUnauthorized && attempt == 0 {
			c.InvalidateToken()
			continue
		}

		resp, err := decodeResponse(body)
		if err != nil {
			spanErr = err
			c.logger.Error().Err(err).Str("endpoint", path).Msg("CODEF response parse failed")
			return apiResponse{}, failure(CodeParseError, "API 응답 파싱 실패")
		}
		span.SetAttributes(attribute.String("codef.result_code", resp.Result.Code))
		return resp, nil
	}

	spanErr = errors.New("unauthorized after token refresh")
	return apiResponse{}, failure(CodeAuthError, "토큰 인증 실패")
}

func (c *Client) post(ctx context.Context, path, authorization string, payload map[string]string) (int, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	data, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Authorization", authorization)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, body, nil
}

func failure(code, message string) *Result {
	return &Result{
		Status:  StatusError,
		Message: message,
		Code:    code,
		Details: map[string]string{"error_code": code, "error_message": message},
	}
}

func transportFailure(err error) *Result {
	if resilience.ClassifyError(err).Type == resilience.ErrorTypeTimeout {
		return failure(CodeTimeout, "API 요청 시간 초과")
	}
	return failure(CodeNetworkError, fmt.Sprintf("네트워크 오류: %v", err))
}

func stripSeparators(s string, seps string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(seps, r) {
			return -1
		}
		return r
	}, s)
}

func dataString(data map[string]any, key string) string {
	v, ok := data[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// VerifyDriverLicense checks a driver license against the police records
func (c *Client) VerifyDriverLicense(ctx context.Context, req DriverLicenseRequest) Result {
	license := stripSeparators(req.LicenseNo, "- ")
	payload := map[string]string{
		"organization": organization,
		"loginType":    loginType,
		"identity":     stripSeparators(req.BirthDate, "-. "),
		"userName":     req.Name,
		"licenseNo":    license,
		"serialNo":     req.SerialNo,
	}

	c.logger.Info().Str("license", maskLicense(license)).Msg("driver license verification requested")

	resp, fail := c.call(ctx, driverLicensePath, payload)
	if fail != nil {
		c.metrics.IncrementVerification("driver_license", fail.Code)
		return *fail
	}

	result := parseDriverLicense(resp)
	c.metrics.IncrementVerification("driver_license", result.Status)
	return result
}

func parseDriverLicense(resp apiResponse) Result {
	code, message := resp.Result.Code, resp.Result.Message
	if code != successCode {
		return Result{
			Status:  StatusError,
			Message: fmt.Sprintf("API 오류 (%s): %s", code, message),
			Code:    code,
			Details: map[string]string{"error_code": code, "error_message": message},
		}
	}

	authenticity := dataString(resp.Data, "resAuthenticity")
	desc := dataString(resp.Data, "resAuthenticityDesc")
	if authenticity == "1" {
		return Result{
			Success: true,
			Valid:   true,
			Status:  StatusConfirmed,
			Message: "운전면허증 진위확인 완료 (정상)",
			Code:    code,
			Details: map[string]string{
				"authenticity": authenticity,
				"description":  desc,
				"license_type": dataString(resp.Data, "resLicenseType"),
				"issue_date":   dataString(resp.Data, "resIssueDate"),
				"expiry_date":  dataString(resp.Data, "resExpiryDate"),
			},
		}
	}
	return Result{
		Success: true,
		Status:  StatusMismatch,
		Message: "운전면허증 정보 불일치: " + desc,
		Code:    code,
		Details: map[string]string{"authenticity": authenticity, "description": desc},
	}
}

// VerifyIdentityCard checks a resident or foreigner registration card
func (c *Client) VerifyIdentityCard(ctx context.Context, req IdentityCardRequest) Result {
	payload := map[string]string{
		"organization": organization,
		"loginType":    loginType,
		"identity":     stripSeparators(req.Identity, "- "),
		"userName":     req.Name,
		"issueDate":    stripSeparators(req.IssueDate, "-."),
	}

	path := residentCardPath
	if req.CardType == CardForeigner {
		path = foreignerCardPath
	}

	c.logger.Info().Str("card_type", string(req.CardType)).Msg("identity card verification requested")

	resp, fail := c.call(ctx, path, payload)
	if fail != nil {
		c.metrics.IncrementVerification(string(req.CardType), fail.Code)
		return *fail
	}

	result := parseIdentityCard(resp, req.CardType)
	c.metrics.IncrementVerification(string(req.CardType), result.Status)
	return result
}

func parseIdentityCard(resp apiResponse, cardType CardType) Result {
	cardName := "외국인등록증"
	if cardType != CardForeigner {
		cardName = "주민등록증"
	}

	code := resp.Result.Code
	if code != successCode {
		return Result{
			Status:  StatusError,
			Message: "API 오류: " + resp.Result.Message,
			Code:    code,
			Details: map[string]string{"error_code": code},
		}
	}

	details := make(map[string]string, len(resp.Data))
	for k := range resp.Data {
		details[k] = dataString(resp.Data, k)
	}

	if dataString(resp.Data, "resAuthenticity") == "1" {
		return Result{Success: true, Valid: true, Status: StatusConfirmed, Message: cardName + " 진위확인 완료 (정상)", Code: code, Details: details}
	}
	return Result{Success: true, Status: StatusMismatch, Message: cardName + " 정보 불일치", Code: code, Details: details}
}

func maskLicense(license string) string {
	if len(license) < 6 {
		return strings.Repeat("*", len(license))
	}
	return license[:4] + "****" + license[len(license)-2:]
}
