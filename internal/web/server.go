// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package web serves the analysis pipeline, masking, the user pattern store
// and identity verification over HTTP.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"kpii-scan/internal/core"
	"kpii-scan/internal/extract"
	"kpii-scan/internal/patterns"
	"kpii-scan/internal/redactors"
	"kpii-scan/internal/verification"

	// Output formats served by the API
	_ "kpii-scan/internal/formatters/json"
	_ "kpii-scan/internal/formatters/text"
	_ "kpii-scan/internal/formatters/yaml"
)

const (
	defaultTimeout = 60 * time.Second

	// Analysis with the classifier enabled can take minutes on a local model
	analysisTimeout = 10 * time.Minute

	defaultMaxBodyBytes   = 10 << 20
	defaultMaxUploadBytes = 100 << 20
	maxUploadFiles        = 20
	shutdownTimeout       = 15 * time.Second
)

// Verifier checks identity documents against the issuing authority
type Verifier interface {
	VerifyDriverLicense(ctx context.Context, req verification.DriverLicenseRequest) verification.Result
	VerifyIdentityCard(ctx context.Context, req verification.IdentityCardRequest) verification.Result
}

// ModelLister reports the models served by the classifier endpoint
type ModelLister interface {
	Ping(ctx context.Context) ([]string, error)
	Model() string
}

// Server holds the dependencies of the HTTP API.
type Server struct {
	router         *chi.Mux
	analyzer       *core.Analyzer
	extractor      *extract.Extractor
	masker         *redactors.Masker
	patterns       *patterns.Store
	verifier       Verifier
	classifier     ModelLister
	gatherer       prometheus.Gatherer
	logger         zerolog.Logger
	workers        int
	maxBodyBytes   int64
	maxUploadBytes int64
	analyses       *semaphore.Weighted
	startTime      time.Time
}

// Option configures the Server.
type Option func(*Server)

// WithExtractor sets the extractor used for uploaded files.
func WithExtractor(e *extract.Extractor) Option {
	return func(s *Server) { s.extractor = e }
}

// WithPatternStore exposes the user pattern store under /api/v1/patterns.
func WithPatternStore(store *patterns.Store) Option {
	return func(s *Server) { s.patterns = store }
}

// WithVerifier enables the identity verification endpoints.
func WithVerifier(v Verifier) Option {
	return func(s *Server) { s.verifier = v }
}

// WithModelLister enables the classifier status endpoint.
func WithModelLister(m ModelLister) Option {
	return func(s *Server) { s.classifier = m }
}

// WithGatherer serves the gatherer's metrics at /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// WithLogger sets the request and error logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithWorkers bounds concurrent analyses across all requests.
func WithWorkers(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithMaxBodyBytes caps JSON request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

// WithMaxUploadBytes caps multipart uploads.
func WithMaxUploadBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxUploadBytes = n
		}
	}
}

// NewServer builds a Server around the analyzer.
func NewServer(analyzer *core.Analyzer, opts ...Option) *Server {
	s := &Server{
		router:         chi.NewRouter(),
		analyzer:       analyzer,
		masker:         redactors.NewMasker(),
		logger:         zerolog.Nop(),
		workers:        4,
		maxBodyBytes:   defaultMaxBodyBytes,
		maxUploadBytes: defaultMaxUploadBytes,
		startTime:      time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.extractor == nil {
		s.extractor = extract.New(extract.WithLogger(s.logger))
	}
	s.analyses = semaphore.NewWeighted(int64(s.workers))
	return s
}

// Routes returns the chi router with all middleware and routes.
// Analysis routes are registered without the default request timeout so the
// classifier stages can run to completion.
func (s *Server) Routes() http.Handler {
	r := s.router
	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(tracing())
	r.Use(s.requestLogger)

	r.Get("/health", s.handleHealth)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(analysisTimeout))
			r.Post("/analyze", s.handleAnalyze)
			r.Post("/analyze/files", s.handleAnalyzeFiles)
			r.Post("/mask", s.handleMask)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(defaultTimeout))
			r.Get("/formats", s.handleFormats)
			r.Get("/classifier", s.handleClassifier)

			r.Get("/patterns", s.handlePatternsList)
			r.Get("/patterns/export", s.handlePatternsExport)
			r.Post("/patterns", s.handlePatternsCreate)
			r.Put("/patterns", s.handlePatternsUpdate)
			r.Delete("/patterns", s.handlePatternsDelete)
			r.Post("/patterns/toggle", s.handlePatternsToggle)

			r.Post("/verify/license", s.handleVerifyLicense)
			r.Post("/verify/identity", s.handleVerifyIdentity)
		})
	})
	return r
}

// createSecureServer creates an HTTP server with security timeouts
func (s *Server) createSecureServer(addr string) *http.Server {
	return &http.Server{
		Addr:    addr,
		Handler: s.Routes(),
		// Timeout for reading request headers (prevents slow header attacks)
		ReadHeaderTimeout: 15 * time.Second,
		// Uploads of large documents need longer than the header timeout
		ReadTimeout: 2 * time.Minute,
		// Analysis responses are written after the classifier stages finish
		WriteTimeout: analysisTimeout + 30*time.Second,
		// Timeout for idle connections
		IdleTimeout: 60 * time.Second,
	}
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	server := s.createSecureServer(addr)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("HTTP API listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info().Msg("shutting down HTTP API")
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// sendErrorWithStatus sends an error response with a specific HTTP status code
func (s *Server) sendErrorWithStatus(w http.ResponseWriter, message string, statusCode int) {
	writeJSON(w, statusCode, ErrorResponse{
		Success: false,
		Error:   sanitizeUserInput(message, 500),
	})
}

// sanitizeUserInput strips control and markup characters from text echoed
// back to clients and limits its length
func sanitizeUserInput(input string, maxLength int) string {
	sanitized := strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1
		}
		switch r {
		case '<', '>', '"', '\'', '&':
			return -1
		}
		return r
	}, input)

	runes := []rune(sanitized)
	if len(runes) > maxLength {
		sanitized = string(runes[:maxLength]) + "..."
	}
	return sanitized
}
