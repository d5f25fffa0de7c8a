// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"unicode/utf8"

	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"kpii-scan/internal/config"
	"kpii-scan/internal/core"
	"kpii-scan/internal/extract"
	"kpii-scan/internal/formatters"
	"kpii-scan/internal/observability"
	"kpii-scan/internal/patterns"
	"kpii-scan/internal/verification"
	"kpii-scan/internal/web"
)

const (
	stdinName     = "<stdin>"
	maxStdinBytes = 50 << 20
)

// runScan analyzes files (or stdin when no path is given) and prints the report
func runScan(ctx context.Context, cfg *config.Config, f *cliFlags, paths []string, logger zerolog.Logger) int {
	var results []core.FileResult
	trace := stepTracer(f)

	if len(paths) == 0 {
		if isTerminal(os.Stdin) {
			newHelpSystem(os.Stderr, cfg.Defaults.NoColor).ShowGeneralHelp()
			return exitError
		}
		text, err := readStdin(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return exitError
		}

		components, err := buildComponents(cfg, f, trace, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return exitError
		}
		done := trace.StartStep("cli", "analyze", stdinName)
		report, err := components.Analyzer.Analyze(ctx, text)
		if err != nil {
			done(false, err.Error())
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return exitError
		}
		done(true, fmt.Sprintf("%d findings", len(report.Spans)))
		report.Source = stdinName
		results = []core.FileResult{{Path: stdinName, Format: extract.FormatText, Report: report}}
	} else {
		files, err := core.CollectFiles(paths, cfg.Defaults.Recursive, cfg.Defaults.ExcludePatterns)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return exitError
		}
		if len(files) == 0 {
			fmt.Fprintln(os.Stderr, "Error: no files to scan (use --recursive for directories)")
			return exitError
		}

		components, err := buildComponents(cfg, f, trace, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return exitError
		}

		var progress func(completed, total int, file string)
		showProgress := !f.quiet && len(files) > 1 && isTerminal(os.Stderr)
		if showProgress {
			progress = func(completed, total int, file string) {
				fmt.Fprintf(os.Stderr, "\rScanning [%d/%d] %s\033[K", completed, total, file)
			}
		}

		batch := components.Analyzer.ScanFiles(ctx, files, extract.New(extract.WithLogger(logger)), workerCount(cfg), progress)
		if showProgress {
			fmt.Fprint(os.Stderr, "\r\033[K")
		}
		for _, result := range batch.Files {
			if result.Err != nil || result.Report == nil {
				logger.Warn().Str("file", result.Path).Msg(result.Error)
				continue
			}
			trace.LogDetail(result.Path, fmt.Sprintf("%d findings", len(result.Report.Spans)))
		}
		results = batch.Files
	}

	noColor := cfg.Defaults.NoColor || f.output != "" || !isTerminal(os.Stdout)
	output, err := formatters.Export(cfg.Defaults.Format, results, formatters.FormatterOptions{
		Verbose:   f.verbose,
		NoColor:   noColor,
		ShowMatch: f.showMatch,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitError
	}

	if f.output != "" {
		if err := os.WriteFile(f.output, []byte(output), 0o600); err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to write %s: %v\n", f.output, err)
			return exitError
		}
		logger.Info().Str("file", f.output).Msg("report written")
	} else {
		fmt.Print(output)
	}

	return scanExitCode(results)
}

// scanExitCode is exitFindings when any document has findings, exitError when
// every document failed, exitClean otherwise
func scanExitCode(results []core.FileResult) int {
	failed := 0
	for _, result := range results {
		if result.Err != nil || result.Report == nil {
			failed++
			continue
		}
		if result.Report.HasFindings() {
			return exitFindings
		}
	}
	if len(results) > 0 && failed == len(results) {
		return exitError
	}
	return exitClean
}

// readStdin reads a document from r, rejecting oversized or binary input
func readStdin(r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxStdinBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	if len(data) > maxStdinBytes {
		return "", fmt.Errorf("stdin exceeds %d bytes: %w", maxStdinBytes, extract.ErrTooLarge)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("stdin is not valid UTF-8: %w", extract.ErrUnsupported)
	}
	return string(data), nil
}

// runPatternCommand handles --add-pattern, --remove-pattern, --toggle-pattern and --list-patterns
func runPatternCommand(w io.Writer, cfg *config.Config, f *cliFlags, logger zerolog.Logger) int {
	store, err := patterns.Open(cfg.Patterns.File, patterns.WithLogger(logger))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitError
	}

	switch {
	case f.addPattern != "":
		p := patterns.Pattern{
			Name:    f.patternName,
			Pattern: f.addPattern,
			Kind:    patterns.Kind(strings.ToLower(f.patternType)),
			Score:   f.patternScore,
		}
		if err := store.Add(p); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return exitError
		}
		fmt.Fprintf(w, "Added %s pattern %q to %s\n", p.Kind, p.Pattern, store.Path())

	case f.removePattern != "":
		if err := store.Remove(f.removePattern); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return exitError
		}
		fmt.Fprintf(w, "Removed pattern %q\n", f.removePattern)

	case f.togglePattern != "":
		enabled, err := store.Toggle(f.togglePattern)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return exitError
		}
		state := "disabled"
		if enabled {
			state = "enabled"
		}
		fmt.Fprintf(w, "Pattern %q %s\n", f.togglePattern, state)

	default:
		if err := listPatterns(w, store, cfg.Defaults.Format, cfg.Defaults.NoColor); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return exitError
		}
	}
	return exitClean
}

func listPatterns(w io.Writer, store *patterns.Store, format string, noColor bool) error {
	switch format {
	case "json":
		return store.Export(w, false)
	case "yaml":
		return store.Export(w, true)
	}

	list := store.List(false)
	if len(list) == 0 {
		fmt.Fprintf(w, "No user patterns in %s\n", store.Path())
		return nil
	}

	if noColor {
		color.NoColor = true
	}
	on := color.New(color.FgGreen).SprintFunc()
	off := color.New(color.FgRed).SprintFunc()

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STATUS\tNAME\tTYPE\tSCORE\tPATTERN")
	for _, p := range list {
		status := off("off")
		if p.Enabled {
			status = on("on")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", status, p.DisplayName(), p.Kind, p.Score, p.Pattern)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "\n%d patterns in %s\n", len(list), store.Path())
	return nil
}

// runVerifyLicense checks one driver license against the issuing authority
func runVerifyLicense(ctx context.Context, w io.Writer, cfg *config.Config, f *cliFlags, logger zerolog.Logger) int {
	if f.holderName == "" || f.birthDate == "" {
		fmt.Fprintln(os.Stderr, "Error: --verify-license requires --name and --birth")
		return exitError
	}

	client, err := verification.NewClient(verification.Config{
		ClientID:          cfg.Verification.ClientID,
		ClientSecret:      cfg.Verification.ClientSecret,
		Production:        cfg.Verification.Production,
		RequestsPerMinute: cfg.Verification.RatePerMinute,
	}, verification.WithLogger(logger))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v (set %s and %s)\n", err, config.EnvCODEFClientID, config.EnvCODEFClientSecret)
		return exitError
	}

	result := client.VerifyDriverLicense(ctx, verification.DriverLicenseRequest{
		LicenseNo: f.verifyLicense,
		Name:      f.holderName,
		BirthDate: f.birthDate,
		SerialNo:  f.serialNo,
	})
	if err := printVerification(w, result, cfg.Defaults.Format); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitError
	}

	switch {
	case !result.Success:
		return exitError
	case !result.Valid:
		return exitFindings
	}
	return exitClean
}

func printVerification(w io.Writer, result verification.Result, format string) error {
	switch format {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	case "yaml":
		return yaml.NewEncoder(w).Encode(result)
	}
	fmt.Fprintf(w, "Status: %s\n", result.Status)
	if result.Message != "" {
		fmt.Fprintf(w, "Message: %s\n", result.Message)
	}
	if result.Code != "" {
		fmt.Fprintf(w, "Code: %s\n", result.Code)
	}
	return nil
}

// runServer starts the HTTP API and blocks until ctx is cancelled
func runServer(ctx context.Context, cfg *config.Config, logger zerolog.Logger) int {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewMetrics(registry)
	observer := observability.NewObserverWithLogger(observability.ObservabilityMetrics, logger).WithMetrics(metrics)

	components, err := core.Build(cfg, core.BuildOptions{
		Logger:   logger,
		Metrics:  metrics,
		Observer: observer,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitError
	}

	opts := []web.Option{
		web.WithPatternStore(components.Patterns),
		web.WithGatherer(registry),
		web.WithLogger(logger),
		web.WithWorkers(workerCount(cfg)),
		web.WithExtractor(extract.New(extract.WithLogger(logger))),
	}
	if components.LLM != nil {
		opts = append(opts, web.WithModelLister(components.LLM))
	}
	if components.Verifier != nil {
		opts = append(opts, web.WithVerifier(components.Verifier))
	}

	server := web.NewServer(components.Analyzer, opts...)
	if err := server.ListenAndServe(ctx, cfg.Server.Addr); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("HTTP API stopped")
		return exitError
	}
	return exitClean
}
