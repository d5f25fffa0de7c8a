// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"golang.org/x/term"

	"kpii-scan/internal/config"
	"kpii-scan/internal/core"
	"kpii-scan/internal/help"
	"kpii-scan/internal/observability"
	"kpii-scan/internal/parallel"
	"kpii-scan/internal/scanner"
	"kpii-scan/internal/validators/account"
	"kpii-scan/internal/validators/creditcard"
	"kpii-scan/internal/validators/driverlicense"
	"kpii-scan/internal/validators/email"
	"kpii-scan/internal/validators/ipaddress"
	"kpii-scan/internal/validators/passport"
	"kpii-scan/internal/validators/phone"
	"kpii-scan/internal/validators/rrn"
	"kpii-scan/internal/version"

	_ "kpii-scan/internal/formatters/json"
	_ "kpii-scan/internal/formatters/text"
	_ "kpii-scan/internal/formatters/yaml"
)

// Exit codes
const (
	exitClean    = 0 // nothing detected
	exitFindings = 1 // at least one document has findings, or a verification did not match
	exitError    = 2 // usage, configuration or processing failure
)

// cliFlags holds command line flag values
type cliFlags struct {
	file             string
	configFile       string
	profileName      string
	listProfiles     bool
	format           string
	checks           string
	confidenceLevels string
	output           string
	mask             bool
	showMatch        bool
	verbose          bool
	recursive        bool
	workers          int
	llm              bool
	analyzeDocument  bool
	patternsFile     string
	noColor          bool
	debug            bool
	quiet            bool
	showHelp         bool
	showVersion      bool

	// Pattern management
	addPattern    string
	patternName   string
	patternType   string
	patternScore  int
	removePattern string
	togglePattern string
	listPatterns  bool

	// Driver license verification
	verifyLicense string
	holderName    string
	birthDate     string
	serialNo      string

	// HTTP API
	serve bool
	port  string
}

func parseFlags() *cliFlags {
	f := &cliFlags{}
	flag.StringVar(&f.file, "file", "", "File or directory to scan (paths may also be given as arguments)")
	flag.StringVar(&f.configFile, "config", "", "Path to configuration file (YAML)")
	flag.StringVar(&f.profileName, "profile", "", "Profile name to use from config file")
	flag.BoolVar(&f.listProfiles, "list-profiles", false, "List available profiles in config file")
	flag.StringVar(&f.format, "format", "", "Output format: text, json, yaml (default: text)")
	flag.StringVar(&f.checks, "checks", "", "Checks to run: RRN, FOREIGN_RRN, PASSPORT, DRIVER_LICENSE, CARD, ACCOUNT, PHONE, EMAIL, ADDRESS, IP_ADDRESS, or all")
	flag.StringVar(&f.confidenceLevels, "confidence", "", "Confidence levels to report: high, medium, low, or combinations like 'high,medium'")
	flag.StringVar(&f.output, "output", "", "Path to output file (if not specified, output to stdout)")
	flag.BoolVar(&f.mask, "mask", false, "Include the masked text in the report")
	flag.BoolVar(&f.showMatch, "show-match", false, "Display detected values unmasked")
	flag.BoolVar(&f.verbose, "verbose", false, "Display context and per-stage counts")
	flag.BoolVar(&f.recursive, "recursive", false, "Recursively scan directories")
	flag.IntVar(&f.workers, "workers", 0, "Files scanned in parallel (default: config value or CPU count)")
	flag.BoolVar(&f.llm, "llm", false, "Enable LLM classification (--llm=false for regex stages only)")
	flag.BoolVar(&f.analyzeDocument, "analyze-document", false, "Ask the LLM for a whole-document risk assessment")
	flag.StringVar(&f.patternsFile, "patterns", "", "User pattern file (JSON or YAML)")
	flag.BoolVar(&f.noColor, "no-color", false, "Disable colored output")
	flag.BoolVar(&f.debug, "debug", false, "Enable debug logging")
	flag.BoolVar(&f.quiet, "quiet", false, "Suppress progress output")
	flag.BoolVar(&f.showHelp, "help", false, "Show help information")
	flag.BoolVar(&f.showVersion, "version", false, "Show version information")

	flag.StringVar(&f.addPattern, "add-pattern", "", "Add a user pattern (keyword or regex)")
	flag.StringVar(&f.patternName, "pattern-name", "", "Display name for --add-pattern")
	flag.StringVar(&f.patternType, "pattern-type", "keyword", "Pattern type for --add-pattern: keyword or regex")
	flag.IntVar(&f.patternScore, "pattern-score", 0, "Risk score for --add-pattern (1-15, default 8)")
	flag.StringVar(&f.removePattern, "remove-pattern", "", "Remove the user pattern with this text")
	flag.StringVar(&f.togglePattern, "toggle-pattern", "", "Enable or disable the user pattern with this text")
	flag.BoolVar(&f.listPatterns, "list-patterns", false, "List user patterns")

	flag.StringVar(&f.verifyLicense, "verify-license", "", "Verify a driver license number online")
	flag.StringVar(&f.holderName, "name", "", "License holder name for --verify-license")
	flag.StringVar(&f.birthDate, "birth", "", "Holder birth date (YYYYMMDD) for --verify-license")
	flag.StringVar(&f.serialNo, "serial", "", "Serial code printed on the license for --verify-license")

	flag.BoolVar(&f.serve, "serve", false, "Start the HTTP API")
	flag.StringVar(&f.port, "port", "", "Port for the HTTP API (default: server.addr from config)")

	flag.Usage = func() {
		newHelpSystem(os.Stderr, true).ShowGeneralHelp()
	}
	flag.Parse()
	return f
}

func main() {
	os.Exit(run(parseFlags(), flag.Args()))
}

func run(f *cliFlags, args []string) int {
	if f.showVersion {
		fmt.Println(version.Info())
		return exitClean
	}

	if f.showHelp {
		h := newHelpSystem(os.Stdout, f.noColor)
		switch {
		case len(args) == 0:
			h.ShowGeneralHelp()
		case strings.EqualFold(args[0], "checks"):
			h.ShowChecksHelp()
		case !h.ShowCheckHelp(args[0]):
			return exitError
		}
		return exitClean
	}

	cfg := loadConfiguration(f.configFile)

	if f.listProfiles {
		printProfiles(os.Stdout, cfg)
		return exitClean
	}

	if f.profileName != "" {
		if err := cfg.ApplyProfile(f.profileName); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return exitError
		}
	}
	applyFlags(cfg, f)
	if err := config.ValidateConfig(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitError
	}

	logLevel := cfg.Defaults.LogLevel
	if f.quiet && !f.debug {
		logLevel = "warn"
	}
	logger := observability.NewLogger(os.Stderr, observability.LoggerOptions{
		Level:   logLevel,
		NoColor: cfg.Defaults.NoColor,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case f.addPattern != "" || f.removePattern != "" || f.togglePattern != "" || f.listPatterns:
		return runPatternCommand(os.Stdout, cfg, f, logger)
	case f.verifyLicense != "":
		return runVerifyLicense(ctx, os.Stdout, cfg, f, logger)
	case f.serve:
		return runServer(ctx, cfg, logger)
	}

	paths := args
	if f.file != "" {
		paths = append([]string{f.file}, paths...)
	}
	return runScan(ctx, cfg, f, paths, logger)
}

// loadConfiguration loads the configuration file or returns default config
func loadConfiguration(configFile string) *config.Config {
	configPath := configFile
	if configPath == "" {
		configPath = config.FindConfigFile()
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Error loading config file: %v\n", err)
		fmt.Fprintf(os.Stderr, "Using default configuration\n")
		return config.LoadConfigOrDefault("")
	}
	return cfg
}

// applyFlags copies explicitly set flags over the configuration and profile
func applyFlags(cfg *config.Config, f *cliFlags) {
	if isFlagSet("format") {
		cfg.Defaults.Format = strings.ToLower(f.format)
	}
	if isFlagSet("checks") {
		cfg.Defaults.Checks = f.checks
	}
	if isFlagSet("confidence") {
		cfg.Defaults.ConfidenceLevels = f.confidenceLevels
	}
	if f.mask {
		cfg.Defaults.Mask = true
	}
	if f.noColor {
		cfg.Defaults.NoColor = true
	}
	if f.recursive {
		cfg.Defaults.Recursive = true
	}
	if isFlagSet("workers") {
		cfg.Defaults.Workers = f.workers
	}
	if isFlagSet("llm") {
		cfg.Classifier.Enabled = f.llm
	}
	if isFlagSet("analyze-document") {
		cfg.Classifier.DocumentAnalysis = f.analyzeDocument
		if f.analyzeDocument {
			cfg.Classifier.Enabled = true
		}
	}
	if f.patternsFile != "" {
		cfg.Patterns.File = f.patternsFile
	}
	if f.debug {
		cfg.Defaults.LogLevel = "debug"
	}
	if f.port != "" {
		cfg.Server.Addr = ":" + strings.TrimPrefix(f.port, ":")
	}
}

// isFlagSet reports whether the named flag was given on the command line
func isFlagSet(name string) bool {
	found := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

func printProfiles(w io.Writer, cfg *config.Config) {
	names := cfg.ListProfiles()
	if len(names) == 0 {
		fmt.Fprintln(w, "No profiles defined")
		return
	}
	fmt.Fprintln(w, "Available profiles:")
	for _, name := range names {
		profile := cfg.GetProfile(name)
		fmt.Fprintf(w, "  %-12s %s\n", name, profile.Description)
	}
}

// newHelpSystem registers every check that can appear in --checks
func newHelpSystem(out io.Writer, noColor bool) *help.System {
	h := help.NewSystem(out, noColor)
	for _, provider := range []help.Provider{
		rrn.NewResident(),
		rrn.NewForeign(),
		passport.NewValidator(),
		driverlicense.NewValidator(),
		creditcard.NewValidator(),
		account.NewValidator(),
		phone.NewValidator(),
		email.NewValidator(),
		ipaddress.NewValidator(),
		scanner.NewAddressValidator(),
	} {
		h.RegisterProvider(provider)
	}
	return h
}

// isTerminal checks if the file descriptor is a terminal
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// workerCount resolves the configured worker count
func workerCount(cfg *config.Config) int {
	if cfg.Defaults.Workers > 0 {
		return cfg.Defaults.Workers
	}
	return parallel.DefaultWorkers()
}

// stepTracer returns the --verbose stage tracer, or nil when it is off
func stepTracer(f *cliFlags) *observability.DebugObserver {
	if !f.verbose || f.quiet {
		return nil
	}
	return observability.NewDebugObserver(os.Stderr)
}

// buildComponents wires the analyzer for a CLI run
func buildComponents(cfg *config.Config, f *cliFlags, trace *observability.DebugObserver, logger zerolog.Logger) (*core.Components, error) {
	opts := core.BuildOptions{
		Logger: logger,
		Mask:   cfg.Defaults.Mask,
	}
	if f.debug {
		opts.Observer = observability.NewObserverWithLogger(observability.ObservabilityDebug, logger)
	}
	if trace != nil {
		opts.Progress = trace.Stage
	}
	return core.Build(cfg, opts)
}
