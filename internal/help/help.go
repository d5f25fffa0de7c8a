// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package help

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
)

// CheckInfo contains standardized information about a check
type CheckInfo struct {
	Name                string             // Name of the check (e.g., "CARD")
	Label               string             // Detection type reported for matches (e.g., "카드번호")
	ShortDescription    string             // Short description for the checks list
	DetailedDescription string             // Detailed description of what the check does
	Patterns            []string           // Patterns the check looks for
	SupportedFormats    []string           // Formats or types supported by the check
	ConfidenceFactors   []ConfidenceFactor // Factors affecting confidence
	PositiveKeywords    []string           // Context keywords that support a match
	NegativeKeywords    []string           // Context keywords that weaken a match
	ConfigurationInfo   string             // Information about how to configure the check
	Examples            []string           // Usage examples
}

// ConfidenceFactor represents a factor that affects confidence
type ConfidenceFactor struct {
	Name        string  // Name of the factor
	Description string  // Description of the factor
	Weight      float64 // Share of the decision carried by the factor (percentage)
}

// Provider defines the interface for help content providers
type Provider interface {
	GetCheckInfo() CheckInfo
}

// System manages help content for the application
type System struct {
	out       io.Writer
	providers map[string]Provider
	colors    map[string]*color.Color
}

// NewSystem creates a new help system writing to out
func NewSystem(out io.Writer, noColor bool) *System {
	if noColor {
		color.NoColor = true
	}

	return &System{
		out:       out,
		providers: make(map[string]Provider),
		colors: map[string]*color.Color{
			"title":    color.New(color.FgWhite, color.Bold),
			"header":   color.New(color.FgBlue, color.Bold),
			"item":     color.New(color.FgCyan),
			"emphasis": color.New(color.FgWhite, color.Bold),
			"positive": color.New(color.FgGreen),
			"negative": color.New(color.FgRed),
			"example":  color.New(color.FgMagenta),
		},
	}
}

// RegisterProvider adds a help provider to the system
func (h *System) RegisterProvider(provider Provider) {
	info := provider.GetCheckInfo()
	h.providers[strings.ToLower(info.Name)] = provider
}

// CheckNames returns the registered check names in alphabetical order
func (h *System) CheckNames() []string {
	names := make([]string, 0, len(h.providers))
	for _, p := range h.providers {
		names = append(names, p.GetCheckInfo().Name)
	}
	sort.Strings(names)
	return names
}

// ShowGeneralHelp displays general help information
func (h *System) ShowGeneralHelp() {
	h.colors["title"].Fprintln(h.out, "KPII Scan - Korean Personal Information Detection Tool")
	fmt.Fprintln(h.out, "======================================================")
	fmt.Fprintln(h.out)
	h.colors["header"].Fprintln(h.out, "USAGE:")
	fmt.Fprintln(h.out, "  kpii-scan --file <path> [options]")
	fmt.Fprintln(h.out, "  kpii-scan [options] <path>...")
	fmt.Fprintln(h.out, "  cat memo.txt | kpii-scan [options]")
	fmt.Fprintln(h.out, "  kpii-scan --serve [--port <port>]")
	fmt.Fprintln(h.out)

	h.colors["header"].Fprintln(h.out, "OPTIONS:")
	w := tabwriter.NewWriter(h.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  --file\t<path>\tFile or directory to scan (text, PDF, images); also accepted as arguments")
	fmt.Fprintln(w, "  --recursive\t\tRecursively scan directories")
	fmt.Fprintln(w, "  --config\t<path>\tPath to configuration file (YAML)")
	fmt.Fprintln(w, "  --profile\t<name>\tProfile name to use from the config file")
	fmt.Fprintln(w, "  --list-profiles\t\tList available profiles")
	fmt.Fprintln(w, "  --format\t<format>\tOutput format: text, json, yaml (default: text)")
	fmt.Fprintln(w, "  --checks\t<checks>\tComma-separated checks to run, or all (default: all)")
	fmt.Fprintln(w, "  --confidence\t<levels>\tConfidence levels to report: high, medium, low or all")
	fmt.Fprintln(w, "  --output\t<path>\tWrite the report to a file instead of stdout")
	fmt.Fprintln(w, "  --mask\t\tInclude the masked text in the report")
	fmt.Fprintln(w, "  --show-match\t\tShow detected values unmasked in the report")
	fmt.Fprintln(w, "  --verbose\t\tShow context and per-stage counts")
	fmt.Fprintln(w, "  --workers\t<n>\tFiles scanned in parallel (default: config or CPU count)")
	fmt.Fprintln(w, "  --llm\t\tEnable LLM classification (--llm=false for regex stages only)")
	fmt.Fprintln(w, "  --analyze-document\t\tAsk the LLM for a whole-document risk assessment")
	fmt.Fprintln(w, "  --patterns\t<path>\tUser pattern file (JSON or YAML)")
	fmt.Fprintln(w, "  --add-pattern\t<regex|keyword>\tAdd a user pattern (with --pattern-name, --pattern-type, --pattern-score)")
	fmt.Fprintln(w, "  --remove-pattern\t<pattern>\tRemove a user pattern")
	fmt.Fprintln(w, "  --toggle-pattern\t<pattern>\tEnable or disable a user pattern")
	fmt.Fprintln(w, "  --list-patterns\t\tList user patterns")
	fmt.Fprintln(w, "  --verify-license\t<number>\tVerify a driver license online (with --name, --birth, --serial)")
	fmt.Fprintln(w, "  --serve\t\tStart the HTTP API")
	fmt.Fprintln(w, "  --port\t<port>\tPort for the HTTP API (default: from config, 8080)")
	fmt.Fprintln(w, "  --debug\t\tEnable debug logging")
	fmt.Fprintln(w, "  --quiet\t\tSuppress progress output")
	fmt.Fprintln(w, "  --no-color\t\tDisable colored output")
	fmt.Fprintln(w, "  --version\t\tShow version information")
	fmt.Fprintln(w, "  --help checks\t\tList all available checks")
	fmt.Fprintln(w, "  --help <check>\t\tShow detailed help for a specific check")
	w.Flush()

	fmt.Fprintln(h.out)
	h.colors["header"].Fprintln(h.out, "EXAMPLES:")
	h.colors["example"].Fprintln(h.out, "  kpii-scan --file contract.pdf")
	h.colors["example"].Fprintln(h.out, "  kpii-scan --file ./docs --recursive --format json --output report.json")
	h.colors["example"].Fprintln(h.out, "  kpii-scan --file memo.txt --llm --analyze-document")
	h.colors["example"].Fprintln(h.out, "  kpii-scan --add-pattern 'PRJ-\\d{4}' --pattern-name 프로젝트코드 --pattern-type regex")

	fmt.Fprintln(h.out)
	h.colors["header"].Fprintln(h.out, "CONFIGURATION:")
	fmt.Fprintln(h.out, "  Default config: ~/.kpii-scan/config.yaml")
	fmt.Fprintln(h.out, "  Project config: kpii.yaml or .kpii-scan.yaml (in current directory)")
	fmt.Fprintln(h.out, "  Environment: KPII_CONFIG_DIR, KPII_LLM_BASE_URL, KPII_LLM_MODEL, KPII_LLM_API_KEY,")
	fmt.Fprintln(h.out, "               KPII_CODEF_CLIENT_ID, KPII_CODEF_CLIENT_SECRET, KPII_CODEF_PRODUCTION")
	fmt.Fprintln(h.out, "  A .env file in the current directory is loaded when present.")
}

// ShowChecksHelp displays information about all available checks
func (h *System) ShowChecksHelp() {
	h.colors["title"].Fprintln(h.out, "Available Checks")
	fmt.Fprintln(h.out, "================")
	fmt.Fprintln(h.out)

	w := tabwriter.NewWriter(h.out, 0, 0, 2, ' ', 0)
	h.colors["header"].Fprintln(w, "  CHECK\tTYPE\tDESCRIPTION")
	h.colors["header"].Fprintln(w, "  -----\t----\t-----------")
	for _, name := range h.CheckNames() {
		info := h.providers[strings.ToLower(name)].GetCheckInfo()
		fmt.Fprintf(w, "  ")
		h.colors["emphasis"].Fprintf(w, "%s", info.Name)
		fmt.Fprintf(w, "\t%s\t%s\n", info.Label, info.ShortDescription)
	}
	w.Flush()

	fmt.Fprintln(h.out)
	fmt.Fprintln(h.out, "For detailed information about a specific check, use:")
	h.colors["example"].Fprintln(h.out, "  kpii-scan --help <check>")
}

// ShowCheckHelp displays detailed help for a specific check
func (h *System) ShowCheckHelp(checkName string) bool {
	provider, exists := h.providers[strings.ToLower(checkName)]
	if !exists {
		h.colors["negative"].Fprintf(h.out, "Error: Check '%s' not found.\n", checkName)
		fmt.Fprintln(h.out, "Use 'kpii-scan --help checks' to see a list of available checks.")
		return false
	}

	info := provider.GetCheckInfo()

	h.colors["title"].Fprintf(h.out, "%s Check (%s)\n", info.Name, info.Label)
	fmt.Fprintln(h.out, strings.Repeat("=", len(info.Name)+6))
	fmt.Fprintln(h.out)
	fmt.Fprintln(h.out, info.DetailedDescription)
	fmt.Fprintln(h.out)

	h.printList("PATTERNS DETECTED:", info.Patterns)
	h.printList("SUPPORTED FORMATS:", info.SupportedFormats)

	if len(info.ConfidenceFactors) > 0 {
		h.colors["header"].Fprintln(h.out, "VALIDATION:")
		for _, factor := range info.ConfidenceFactors {
			fmt.Fprint(h.out, "  - ")
			h.colors["item"].Fprintf(h.out, "%s ", factor.Name)
			fmt.Fprintf(h.out, "(%.0f%%): %s\n", factor.Weight, factor.Description)
		}
		fmt.Fprintln(h.out)
	}

	if len(info.PositiveKeywords) > 0 {
		fmt.Fprint(h.out, "Context keywords: ")
		h.colors["positive"].Fprintln(h.out, strings.Join(info.PositiveKeywords, ", "))
	}
	if len(info.NegativeKeywords) > 0 {
		fmt.Fprint(h.out, "Negative keywords: ")
		h.colors["negative"].Fprintln(h.out, strings.Join(info.NegativeKeywords, ", "))
	}
	if len(info.PositiveKeywords) > 0 || len(info.NegativeKeywords) > 0 {
		fmt.Fprintln(h.out)
	}

	if info.ConfigurationInfo != "" {
		h.colors["header"].Fprintln(h.out, "CONFIGURATION:")
		fmt.Fprintln(h.out, info.ConfigurationInfo)
		fmt.Fprintln(h.out)
	}

	if len(info.Examples) > 0 {
		h.colors["header"].Fprintln(h.out, "EXAMPLES:")
		for _, example := range info.Examples {
			fmt.Fprint(h.out, "  ")
			h.colors["example"].Fprintln(h.out, example)
		}
	}

	return true
}

func (h *System) printList(title string, items []string) {
	if len(items) == 0 {
		return
	}
	h.colors["header"].Fprintln(h.out, title)
	for _, item := range items {
		fmt.Fprint(h.out, "  - ")
		h.colors["item"].Fprintln(h.out, item)
	}
	fmt.Fprintln(h.out)
}
