package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ai-mapper/backend/analyzer"
)

type scoreFlags struct {
	html      bool
	format    string
	failBelow int
}

func newScoreCmd() *cobra.Command {
	f := &scoreFlags{}

	cmd := &cobra.Command{
		Use:   "score [file]",
		Short: "Score a markdown, text or HTML file (stdin when omitted or -)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "-"
			if len(args) == 1 {
				path = args[0]
			}
			return runScore(cmd.InOrStdin(), cmd.OutOrStdout(), path, f)
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&f.html, "html", false, "Treat the input as an HTML document")
	flags.StringVar(&f.format, "format", "text", "Output format: text, json or yaml")
	flags.IntVar(&f.failBelow, "fail-below", 0, "Exit with code 2 if either score is below this value")

	return cmd
}

func runScore(stdin io.Reader, out io.Writer, path string, f *scoreFlags) error {
	data, err := readInput(stdin, path)
	if err != nil {
		return exitError(3, "failed to read input: %v", err)
	}

	text := string(data)
	source := analyzer.SourceText
	if f.html {
		text, err = analyzer.TextFromHTML(bytes.NewReader(data))
		if err != nil {
			return exitError(3, "%v", err)
		}
		source = analyzer.SourceHTML
	}

	report := analyzer.NewReport(analyzer.Score(text), source)

	if err := writeReport(out, report, f.format); err != nil {
		return err
	}

	if f.failBelow > 0 && (report.SEOScore < f.failBelow || report.GEOScore < f.failBelow) {
		return exitError(2, "score below %d (seo=%d, geo=%d)", f.failBelow, report.SEOScore, report.GEOScore)
	}
	return nil
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

func writeReport(out io.Writer, report analyzer.Report, format string) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return exitError(1, "failed to encode report: %v", err)
		}
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(yamlReport(report)); err != nil {
			return exitError(1, "failed to encode report: %v", err)
		}
		if err := enc.Close(); err != nil {
			return exitError(1, "failed to encode report: %v", err)
		}
	case "text":
		fmt.Fprintf(out, "SEO score: %d (%s)\n", report.SEOScore, report.SEOLabel)
		fmt.Fprintf(out, "GEO score: %d (%s)\n", report.GEOScore, report.GEOLabel)
		for _, note := range report.Notes {
			fmt.Fprintf(out, "- %s\n", note)
		}
	default:
		return exitError(1, "unknown format %q (expected text, json or yaml)", format)
	}
	return nil
}

// reportYAML keeps yaml keys aligned with the JSON field names
type reportYAML struct {
	SEO      int      `yaml:"seo"`
	GEO      int      `yaml:"geo"`
	SEOLabel string   `yaml:"seoLabel"`
	GEOLabel string   `yaml:"geoLabel"`
	Source   string   `yaml:"source"`
	Notes    []string `yaml:"notes"`
}

func yamlReport(r analyzer.Report) reportYAML {
	return reportYAML{
		SEO:      r.SEOScore,
		GEO:      r.GEOScore,
		SEOLabel: r.SEOLabel,
		GEOLabel: r.GEOLabel,
		Source:   string(r.Source),
		Notes:    r.Notes,
	}
}

type exitErr struct {
	code int
	msg  string
}

func (e *exitErr) Error() string { return e.msg }

func exitError(code int, format string, args ...any) error {
	return &exitErr{code: code, msg: fmt.Sprintf(format, args...)}
}
