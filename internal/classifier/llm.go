// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package classifier

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"kpii-scan/internal/merge"
	"kpii-scan/internal/observability"
	"kpii-scan/internal/resilience"
	"kpii-scan/internal/risk"
)

const (
	DefaultBaseURL = "http://localhost:11434/v1"
	DefaultModel   = "llama3.2:3b"
	DefaultTimeout = 90 * time.Second

	DefaultTemperature  = 0.1
	DocumentTemperature = 0.2

	// DocumentSampleChars is the prefix of the document sent for document analysis
	DocumentSampleChars = 2000

	pingTimeout = 5 * time.Second
	tracerName  = "kpii-scan/internal/classifier"
)

// Config selects the model endpoint
type Config struct {
	BaseURL     string
	Model       string
	APIKey      string
	Timeout     time.Duration
	Temperature float32
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Temperature <= 0 {
		c.Temperature = DefaultTemperature
	}
	return c
}

// LLM is a classifier backed by an OpenAI-compatible chat completion endpoint
type LLM struct {
	cfg     Config
	client  *openai.Client
	breaker *resilience.CircuitBreaker
	logger  zerolog.Logger
	metrics *observability.Metrics
	tracer  trace.Tracer
}

// LLMOption configures an LLM
type LLMOption func(*LLM)

// WithLLMLogger sets the logger
func WithLLMLogger(l zerolog.Logger) LLMOption {
	return func(c *LLM) { c.logger = l }
}

// WithLLMMetrics records call outcomes
func WithLLMMetrics(m *observability.Metrics) LLMOption {
	return func(c *LLM) { c.metrics = m }
}

// WithHTTPClient replaces the HTTP client used by the OpenAI client
func WithHTTPClient(hc *http.Client) LLMOption {
	return func(c *LLM) {
		oc := openai.DefaultConfig(c.cfg.APIKey)
		oc.BaseURL = c.cfg.BaseURL
		oc.HTTPClient = hc
		c.client = openai.NewClientWithConfig(oc)
	}
}

// WithBreaker replaces the circuit breaker guarding the endpoint
func WithBreaker(cb *resilience.CircuitBreaker) LLMOption {
	return func(c *LLM) { c.breaker = cb }
}

// NewLLM creates a classifier for the endpoint in cfg
func NewLLM(cfg Config, opts ...LLMOption) *LLM {
	cfg = cfg.withDefaults()
	oc := openai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = cfg.BaseURL

	c := &LLM{
		cfg:    cfg,
		client: openai.NewClientWithConfig(oc),
		logger: zerolog.Nop(),
		tracer: observability.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.breaker == nil {
		bc := resilience.DefaultCircuitBreakerConfig("classifier")
		bc.OnStateChange = func(name string, from, to resilience.BreakerState) {
			c.logger.Warn().Str("breaker", name).Str("from", string(from)).Str("to", string(to)).Msg("classifier circuit changed state")
		}
		c.breaker = resilience.NewCircuitBreaker(bc)
	}
	return c
}

// Model returns the configured model name
func (c *LLM) Model() string {
	return c.cfg.Model
}

// Timeout returns the per-call budget
func (c *LLM) Timeout() time.Duration {
	return c.cfg.Timeout
}

// complete sends one prompt and returns the reply text. The call is bounded by
// the configured timeout and guarded by the circuit breaker; it is never retried.
func (c *LLM) complete(ctx context.Context, kind Kind, prompt string, temperature float32) (string, error) {
	ctx, span := c.tracer.Start(ctx, "classifier.complete", trace.WithAttributes(
		attribute.String("classifier.kind", string(kind)),
		attribute.String("classifier.model", c.cfg.Model),
		attribute.Int("classifier.prompt_chars", len(prompt)),
	))

	var reply string
	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()

		resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: c.cfg.Model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
			Temperature: temperature,
		})
		if err != nil {
			return wrapAPIError(err)
		}
		if len(resp.Choices) == 0 {
			return resilience.NewMalformedResponseError("classifier returned no choices", nil)
		}
		reply = resp.Choices[0].Message.Content
		return nil
	})

	observability.EndSpan(span, err)
	if err != nil {
		c.record(kind, err)
		return "", err
	}
	return reply, nil
}

func wrapAPIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode > 0 {
		return fmt.Errorf("chat completion: %w", &resilience.StatusError{StatusCode: apiErr.HTTPStatusCode, Body: apiErr.Message})
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode > 0 {
		return fmt.Errorf("chat completion: %w", &resilience.StatusError{StatusCode: reqErr.HTTPStatusCode, Body: reqErr.Error()})
	}
	return fmt.Errorf("chat completion: %w", err)
}

// record counts a failed call by outcome
func (c *LLM) record(kind Kind, err error) {
	outcome := Outcome(err)
	c.metrics.IncrementClassifier(string(kind), outcome)
	c.logger.Warn().Err(err).Str("kind", string(kind)).Str("outcome", outcome).Msg("classifier call failed")
}

// Outcome names the metric outcome of a call error
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case resilience.IsCircuitBreakerError(err):
		return "circuit_open"
	}
	switch resilience.ClassifyError(err).Type {
	case resilience.ErrorTypeTimeout:
		return "timeout"
	case resilience.ErrorTypeMalformedResponse:
		return "malformed"
	default:
		return "error"
	}
}

// Classify implements Classifier
func (c *LLM) Classify(ctx context.Context, kind Kind, chunk string, _ int) ([]Finding, error) {
	number, total := chunkPosition(ctx)

	reply, err := c.complete(ctx, kind, ChunkPrompt(kind, chunk, number, total), c.cfg.Temperature)
	if err != nil {
		return nil, err
	}

	var parsed findingList
	if err := ParseJSON(reply, &parsed); err != nil {
		err = resilience.NewMalformedResponseError("unparseable classifier reply", err)
		c.record(kind, err)
		return nil, err
	}
	c.metrics.IncrementClassifier(string(kind), "ok")
	return parsed.findings(), nil
}

// VerifySuspects implements SuspectVerifier for one batch
func (c *LLM) VerifySuspects(ctx context.Context, kind Kind, suspects []merge.Suspect) ([]Verdict, error) {
	if len(suspects) == 0 {
		return nil, nil
	}

	reply, err := c.complete(ctx, kind, BatchPrompt(kind, suspects), c.cfg.Temperature)
	if err != nil {
		return nil, err
	}

	var parsed verdictList
	if err := ParseJSON(reply, &parsed); err != nil {
		err = resilience.NewMalformedResponseError("unparseable verification reply", err)
		c.record(kind, err)
		return nil, err
	}
	c.metrics.IncrementClassifier(string(kind), "ok")
	return parsed.verdicts(kind), nil
}

// AnalyzeDocument implements DocumentAnalyzer. Replies without a risk level or
// recommendations are treated as malformed.
func (c *LLM) AnalyzeDocument(ctx context.Context, text string) (*risk.External, error) {
	sample := string([]rune(text)[:min(len([]rune(text)), DocumentSampleChars)])

	reply, err := c.complete(ctx, KindDocument, DocumentPrompt(sample), DocumentTemperature)
	if err != nil {
		return nil, err
	}

	var parsed documentReply
	if err := ParseJSON(reply, &parsed); err != nil || (parsed.RiskLevel == "" && len(parsed.Recommendations) == 0) {
		err = resilience.NewMalformedResponseError("unparseable document analysis", err)
		c.record(KindDocument, err)
		return nil, err
	}
	c.metrics.IncrementClassifier(string(KindDocument), "ok")

	return &risk.External{
		Level:           parsed.RiskLevel,
		Score:           parseScore(parsed.RiskScore),
		Reasoning:       parsed.Reasoning,
		Recommendations: parsed.Recommendations,
	}, nil
}

// parseScore accepts numbers and numeric strings and clamps to [0, 100]
func parseScore(raw []byte) int {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return max(0, min(int(f), risk.MaxScore))
}

// Ping checks that the endpoint answers and returns the available model IDs
func (c *LLM) Ping(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	list, err := c.client.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to reach classifier at %s: %w", c.cfg.BaseURL, wrapAPIError(err))
	}
	models := make([]string, 0, len(list.Models))
	for _, m := range list.Models {
		models = append(models, m.ID)
	}
	return models, nil
}
