// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package core

import (
	"fmt"

	"github.com/rs/zerolog"

	"kpii-scan/internal/bankformats"
	"kpii-scan/internal/classifier"
	"kpii-scan/internal/config"
	"kpii-scan/internal/merge"
	"kpii-scan/internal/observability"
	"kpii-scan/internal/patterns"
	"kpii-scan/internal/redactors"
	"kpii-scan/internal/scanner"
	"kpii-scan/internal/validators/nuisance"
	"kpii-scan/internal/verification"
)

// Components are the collaborators built from a configuration
type Components struct {
	Analyzer *Analyzer
	Patterns *patterns.Store
	LLM      *classifier.LLM
	Verifier *verification.Client
}

// BuildOptions adjusts Build for one run
type BuildOptions struct {
	Logger   zerolog.Logger
	Metrics  *observability.Metrics
	Observer *observability.StandardObserver
	Mask     bool
	Progress ProgressFunc
}

// Build constructs the scanner, classifier, pattern store and verification
// client described by cfg. A missing or broken optional table falls back to
// the built-in one with a warning; a corrupt pattern store is an error.
func Build(cfg *config.Config, opts BuildOptions) (*Components, error) {
	logger := opts.Logger

	checks, err := scanner.ParseChecks(cfg.Defaults.Checks)
	if err != nil {
		return nil, err
	}

	filter := nuisance.Default
	if cfg.Nuisance.TablesFile != "" {
		tables, err := nuisance.LoadTables(cfg.Nuisance.TablesFile)
		if err != nil {
			logger.Warn().Err(err).Str("file", cfg.Nuisance.TablesFile).Msg("using built-in nuisance tables")
		}
		filter = nuisance.NewFilter(tables)
	}

	banks := bankformats.Default()
	if cfg.Banks.File != "" {
		registry, err := bankformats.Load(cfg.Banks.File)
		if err != nil {
			logger.Warn().Err(err).Str("file", cfg.Banks.File).Msg("using built-in bank registry")
		} else {
			banks = registry
		}
	}

	store, err := patterns.Open(cfg.Patterns.File, patterns.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to open pattern store: %w", err)
	}

	c := &Components{Patterns: store}

	analyzerOpts := []Option{
		WithScanner(scanner.New(
			scanner.WithChecks(checks),
			scanner.WithNuisanceFilter(filter),
			scanner.WithBankRegistry(banks),
			scanner.WithObserver(opts.Observer),
		)),
		WithPatterns(store),
		WithChecksumFilter(merge.NewChecksumFilter(filter, logger)),
		WithConfidenceLevels(ParseConfidenceLevels(cfg.Defaults.ConfidenceLevels)),
		WithLogger(logger),
		WithObserver(opts.Observer),
		WithMetrics(opts.Metrics),
		WithProgress(opts.Progress),
	}
	if opts.Mask || cfg.Defaults.Mask {
		analyzerOpts = append(analyzerOpts, WithMasking(redactors.NewMasker()))
	}

	if cfg.Classifier.Enabled {
		mode, err := classifier.ParseMode(cfg.Classifier.Mode)
		if err != nil {
			return nil, err
		}
		c.LLM = classifier.NewLLM(classifier.Config{
			BaseURL:     cfg.Classifier.BaseURL,
			Model:       cfg.Classifier.Model,
			APIKey:      cfg.Classifier.APIKey,
			Timeout:     cfg.Classifier.Timeout,
			Temperature: cfg.Classifier.Temperature,
		}, classifier.WithLLMLogger(logger), classifier.WithLLMMetrics(opts.Metrics))

		runner := classifier.NewRunner(c.LLM,
			classifier.WithMode(mode),
			classifier.WithChunking(cfg.Classifier.ChunkSize, cfg.Classifier.ChunkOverlap),
			classifier.WithBatchSize(cfg.Classifier.BatchSize),
			classifier.WithTimeout(cfg.Classifier.Timeout),
			classifier.WithRunnerLogger(logger),
			classifier.WithRunnerObserver(opts.Observer),
		)
		analyzerOpts = append(analyzerOpts, WithClassifier(runner))
		if cfg.Classifier.DocumentAnalysis {
			analyzerOpts = append(analyzerOpts, WithDocumentAnalyzer(c.LLM))
		}
	}

	if cfg.Verification.Enabled {
		client, err := verification.NewClient(verification.Config{
			ClientID:          cfg.Verification.ClientID,
			ClientSecret:      cfg.Verification.ClientSecret,
			Production:        cfg.Verification.Production,
			RequestsPerMinute: cfg.Verification.RatePerMinute,
		}, verification.WithLogger(logger), verification.WithMetrics(opts.Metrics))
		if err != nil {
			logger.Warn().Err(err).Msg("identity verification disabled")
		} else {
			c.Verifier = client
		}
	}

	c.Analyzer = NewAnalyzer(analyzerOpts...)
	return c, nil
}
