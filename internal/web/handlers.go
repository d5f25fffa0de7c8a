// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"kpii-scan/internal/core"
	"kpii-scan/internal/detector"
	"kpii-scan/internal/formatters"
	"kpii-scan/internal/patterns"
	"kpii-scan/internal/redactors"
	"kpii-scan/internal/verification"
	"kpii-scan/internal/version"
)

// AnalyzeRequest is the body of POST /api/v1/analyze
type AnalyzeRequest struct {
	Text       string `json:"text"`
	Mask       bool   `json:"mask"`
	ShowValues bool   `json:"show_values"`
	Verbose    bool   `json:"verbose"`
}

// MaskRequest is the body of POST /api/v1/mask. Types restricts masking to
// the listed detection types; empty masks everything detected.
type MaskRequest struct {
	Text  string   `json:"text"`
	Types []string `json:"types,omitempty"`
}

// MaskResponse is the result of POST /api/v1/mask
type MaskResponse struct {
	MaskedText string                       `json:"masked_text"`
	Mappings   []redactors.RedactionMapping `json:"mappings"`
	Count      int                          `json:"count"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	components := map[string]any{
		"classifier":   s.classifier != nil,
		"verification": s.verifier != nil,
	}
	if s.patterns != nil {
		components["patterns"] = len(s.patterns.List(false))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "healthy",
		"service":        "kpii-scan",
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
		"uptime_seconds": int64(time.Since(s.startTime).Seconds()),
		"version":        version.Get(),
		"components":     components,
	})
}

func (s *Server) handleFormats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"formats": formatters.GetSupportedFormats()})
}

// decodeJSON reads a size-limited JSON body into v and reports failures to the client
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.sendErrorWithStatus(w, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit), http.StatusRequestEntityTooLarge)
			return false
		}
		s.sendErrorWithStatus(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// outputFormat returns the requested format, defaulting to JSON
func (s *Server) outputFormat(w http.ResponseWriter, r *http.Request) (string, bool) {
	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	if format == "" {
		format = "json"
	}
	if _, ok := formatters.Get(format); !ok {
		s.sendErrorWithStatus(w, fmt.Sprintf("unsupported format %q (available: %s)", format, strings.Join(formatters.List(), ", ")), http.StatusBadRequest)
		return "", false
	}
	return format, true
}

// analyze runs one document through the pipeline once a concurrency slot is free
func (s *Server) analyze(ctx context.Context, text string) (*core.Report, error) {
	if err := s.analyses.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer s.analyses.Release(1)
	return s.analyzer.Analyze(ctx, text)
}

func (s *Server) writeResults(w http.ResponseWriter, format string, results []core.FileResult, options formatters.FormatterOptions) {
	output, err := formatters.Export(format, results, options)
	if err != nil {
		s.logger.Error().Err(err).Str("format", format).Msg("failed to render results")
		s.sendErrorWithStatus(w, "failed to render results", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", formatters.GetFormatInfo(format).MimeType)
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, output)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	format, ok := s.outputFormat(w, r)
	if !ok {
		return
	}
	var req AnalyzeRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		s.sendErrorWithStatus(w, "text is required", http.StatusBadRequest)
		return
	}

	report, err := s.analyze(r.Context(), req.Text)
	if err != nil {
		s.sendErrorWithStatus(w, "analysis aborted: "+err.Error(), http.StatusServiceUnavailable)
		return
	}
	if req.Mask && report.Masked == "" {
		report.Masked = s.masker.Mask(req.Text, report.Spans)
	}

	s.writeResults(w, format, []core.FileResult{{Report: report}}, formatters.FormatterOptions{
		Verbose:   req.Verbose,
		ShowMatch: req.ShowValues,
		NoColor:   true,
	})
}

func (s *Server) handleAnalyzeFiles(w http.ResponseWriter, r *http.Request) {
	format, ok := s.outputFormat(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		s.sendErrorWithStatus(w, "Failed to parse form data: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	uploads := r.MultipartForm.File["files"]
	switch {
	case len(uploads) == 0:
		s.sendErrorWithStatus(w, "no files uploaded (use the \"files\" form field)", http.StatusBadRequest)
		return
	case len(uploads) > maxUploadFiles:
		s.sendErrorWithStatus(w, fmt.Sprintf("too many files: %d (max %d)", len(uploads), maxUploadFiles), http.StatusBadRequest)
		return
	}

	dir, err := os.MkdirTemp("", "kpii-upload-*")
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to create upload directory")
		s.sendErrorWithStatus(w, "failed to store uploads", http.StatusInternalServerError)
		return
	}
	defer func() { _ = os.RemoveAll(dir) }()

	mask := formBool(r, "mask")
	results := make([]core.FileResult, len(uploads))
	var g errgroup.Group
	g.SetLimit(s.workers)
	for i, upload := range uploads {
		g.Go(func() error {
			results[i] = s.scanUpload(r.Context(), dir, i, upload, mask)
			return nil
		})
	}
	_ = g.Wait()

	s.writeResults(w, format, results, formatters.FormatterOptions{
		Verbose:   formBool(r, "verbose"),
		ShowMatch: formBool(r, "show_values"),
		NoColor:   true,
	})
}

// scanUpload stores one uploaded file, extracts its text and analyzes it.
// Errors are reported in the result and never abort the other uploads.
func (s *Server) scanUpload(ctx context.Context, dir string, index int, upload *multipart.FileHeader, mask bool) core.FileResult {
	name := sanitizeFilename(upload.Filename)
	result := core.FileResult{Path: name}
	fail := func(err error, path string) core.FileResult {
		result.Err = err
		result.Error = strings.ReplaceAll(err.Error(), path, name)
		return result
	}

	path := filepath.Join(dir, fmt.Sprintf("%d_%s", index, name))
	if err := saveUpload(upload, path); err != nil {
		s.logger.Warn().Err(err).Str("file", name).Msg("failed to store upload")
		return fail(err, path)
	}

	content, err := s.extractor.Extract(path)
	if err != nil {
		return fail(err, path)
	}
	result.Format = content.Format

	text := content.FullText()
	report, err := s.analyze(ctx, text)
	if err != nil {
		return fail(err, path)
	}
	report.Source = name
	if mask && report.Masked == "" {
		report.Masked = s.masker.Mask(text, report.Spans)
	}
	result.Report = report
	return result
}

func saveUpload(upload *multipart.FileHeader, path string) error {
	src, err := upload.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return err
	}
	return dst.Close()
}

// sanitizeFilename keeps only the base name of an uploaded file
func sanitizeFilename(filename string) string {
	name := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	name = sanitizeUserInput(name, 200)
	if name == "" || name == "." || name == "/" || name == ".." {
		return "upload"
	}
	return name
}

func formBool(r *http.Request, key string) bool {
	v, err := strconv.ParseBool(r.FormValue(key))
	return err == nil && v
}

func (s *Server) handleMask(w http.ResponseWriter, r *http.Request) {
	var req MaskRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		s.sendErrorWithStatus(w, "text is required", http.StatusBadRequest)
		return
	}

	report, err := s.analyze(r.Context(), req.Text)
	if err != nil {
		s.sendErrorWithStatus(w, "analysis aborted: "+err.Error(), http.StatusServiceUnavailable)
		return
	}

	spans := report.Spans
	if len(req.Types) > 0 {
		wanted := make(map[string]bool, len(req.Types))
		for _, t := range req.Types {
			wanted[detector.BaseType(t)] = true
		}
		spans = spans[:0:0]
		for _, span := range report.Spans {
			if wanted[detector.BaseType(span.Type)] {
				spans = append(spans, span)
			}
		}
	}

	masked, mappings := s.masker.MaskWithMappings(req.Text, spans)
	if mappings == nil {
		mappings = []redactors.RedactionMapping{}
	}
	writeJSON(w, http.StatusOK, MaskResponse{MaskedText: masked, Mappings: mappings, Count: len(mappings)})
}

func (s *Server) handleClassifier(w http.ResponseWriter, r *http.Request) {
	if s.classifier == nil {
		writeJSON(w, http.StatusOK, map[string]any{"enabled": false})
		return
	}
	models, err := s.classifier.Ping(r.Context())
	if err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"enabled":   true,
			"available": false,
			"model":     s.classifier.Model(),
			"error":     sanitizeUserInput(err.Error(), 500),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"enabled":   true,
		"available": true,
		"model":     s.classifier.Model(),
		"models":    models,
	})
}

// requirePatterns reports 503 when no pattern store is configured
func (s *Server) requirePatterns(w http.ResponseWriter) bool {
	if s.patterns == nil {
		s.sendErrorWithStatus(w, "user patterns are not configured", http.StatusServiceUnavailable)
		return false
	}
	return true
}

// patternParam returns the ?pattern= query value, which identifies a pattern by its raw text
func (s *Server) patternParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	pattern := r.URL.Query().Get("pattern")
	if strings.TrimSpace(pattern) == "" {
		s.sendErrorWithStatus(w, "pattern query parameter is required", http.StatusBadRequest)
		return "", false
	}
	return pattern, true
}

// sendPatternError maps store errors to status codes
func (s *Server) sendPatternError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, patterns.ErrNotFound):
		s.sendErrorWithStatus(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, patterns.ErrDuplicate):
		s.sendErrorWithStatus(w, err.Error(), http.StatusConflict)
	default:
		s.sendErrorWithStatus(w, err.Error(), http.StatusBadRequest)
	}
}

func (s *Server) handlePatternsList(w http.ResponseWriter, r *http.Request) {
	if !s.requirePatterns(w) {
		return
	}
	enabledOnly, _ := strconv.ParseBool(r.URL.Query().Get("enabled"))
	list := s.patterns.List(enabledOnly)
	writeJSON(w, http.StatusOK, map[string]any{"patterns": list, "count": len(list)})
}

func (s *Server) handlePatternsExport(w http.ResponseWriter, r *http.Request) {
	if !s.requirePatterns(w) {
		return
	}
	asYAML := strings.EqualFold(r.URL.Query().Get("format"), "yaml")
	w.Header().Set("Content-Disposition", `attachment; filename="patterns.json"`)
	w.Header().Set("Content-Type", "application/json")
	if asYAML {
		w.Header().Set("Content-Disposition", `attachment; filename="patterns.yaml"`)
		w.Header().Set("Content-Type", "application/x-yaml")
	}
	if err := s.patterns.Export(w, asYAML); err != nil {
		s.logger.Error().Err(err).Msg("failed to export patterns")
	}
}

func (s *Server) handlePatternsCreate(w http.ResponseWriter, r *http.Request) {
	if !s.requirePatterns(w) {
		return
	}
	var p patterns.Pattern
	if !s.decodeJSON(w, r, &p) {
		return
	}
	if err := s.patterns.Add(p); err != nil {
		s.sendPatternError(w, err)
		return
	}
	s.logger.Info().Str("pattern", p.Pattern).Msg("user pattern added")
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "pattern": p.Pattern})
}

func (s *Server) handlePatternsUpdate(w http.ResponseWriter, r *http.Request) {
	if !s.requirePatterns(w) {
		return
	}
	pattern, ok := s.patternParam(w, r)
	if !ok {
		return
	}
	var u patterns.Update
	if !s.decodeJSON(w, r, &u) {
		return
	}
	if err := s.patterns.Update(pattern, u); err != nil {
		s.sendPatternError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handlePatternsDelete(w http.ResponseWriter, r *http.Request) {
	if !s.requirePatterns(w) {
		return
	}
	pattern, ok := s.patternParam(w, r)
	if !ok {
		return
	}
	if err := s.patterns.Remove(pattern); err != nil {
		s.sendPatternError(w, err)
		return
	}
	s.logger.Info().Str("pattern", pattern).Msg("user pattern removed")
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handlePatternsToggle(w http.ResponseWriter, r *http.Request) {
	if !s.requirePatterns(w) {
		return
	}
	pattern, ok := s.patternParam(w, r)
	if !ok {
		return
	}
	enabled, err := s.patterns.Toggle(pattern)
	if err != nil {
		s.sendPatternError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "pattern": pattern, "enabled": enabled})
}

// requireVerifier reports 503 when identity verification is not configured
func (s *Server) requireVerifier(w http.ResponseWriter) bool {
	if s.verifier == nil {
		s.sendErrorWithStatus(w, "identity verification is not configured", http.StatusServiceUnavailable)
		return false
	}
	return true
}

func (s *Server) handleVerifyLicense(w http.ResponseWriter, r *http.Request) {
	if !s.requireVerifier(w) {
		return
	}
	var req verification.DriverLicenseRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if req.LicenseNo == "" || req.Name == "" || req.BirthDate == "" {
		s.sendErrorWithStatus(w, "license_no, name and birth_date are required", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, s.verifier.VerifyDriverLicense(r.Context(), req))
}

func (s *Server) handleVerifyIdentity(w http.ResponseWriter, r *http.Request) {
	if !s.requireVerifier(w) {
		return
	}
	var req verification.IdentityCardRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if req.CardType == "" {
		req.CardType = verification.CardResident
	}
	if req.CardType != verification.CardResident && req.CardType != verification.CardForeigner {
		s.sendErrorWithStatus(w, fmt.Sprintf("unknown card_type %q (valid: resident, foreigner)", req.CardType), http.StatusBadRequest)
		return
	}
	if req.Identity == "" || req.Name == "" || req.IssueDate == "" {
		s.sendErrorWithStatus(w, "identity, name and issue_date are required", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, s.verifier.VerifyIdentityCard(r.Context(), req))
}
