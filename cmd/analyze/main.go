package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spacesedan/sentireport/config"
	"github.com/spacesedan/sentireport/internal/analysis"
	"github.com/spacesedan/sentireport/internal/app"
	"github.com/spacesedan/sentireport/internal/ingest"
	"github.com/spacesedan/sentireport/internal/logging"
	"github.com/spacesedan/sentireport/internal/sentiment"
)

const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
	exitInput   = 3
)

func main() {
	code, err := run(os.Args[1:], os.Stdout, os.Stderr)
	if err != nil && !errors.Is(err, flag.ErrHelp) {
		fmt.Fprintf(os.Stderr, "analyze: %s\n", analysis.UserMessage(err))
	}
	os.Exit(code)
}

// run executes one analysis. The report goes to stdout, logs and usage to
// stderr, so stdout stays a clean JSON document with -json.
func run(args []string, stdout, stderr io.Writer) (int, error) {
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	fs.SetOutput(stderr)
	file := fs.String("file", "", "CSV file with a text column")
	entity := fs.String("entity", "", "only analyze rows mentioning this name (case-insensitive)")
	scheme := fs.String("scheme", "", "labeling scheme: four or three (default from LABEL_SCHEME)")
	top := fs.Int("top", 0, "number of keywords per leaning (default from KEYWORD_LIMIT)")
	chartPath := fs.String("chart", "", "write the pie chart PNG to this path")
	asJSON := fs.Bool("json", false, "print the report as JSON")
	details := fs.Bool("details", false, "print every labeled row")
	noColor := fs.Bool("no-color", false, "disable colored output")
	timeout := fs.Duration("timeout", 2*time.Minute, "overall time limit")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK, nil
		}
		return exitConfig, err
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}
	config.LoadEnv(env)

	cfg, err := config.Load()
	if err != nil {
		return exitConfig, err
	}
	if *scheme != "" {
		if _, err := sentiment.ParseScheme(*scheme); err != nil {
			return exitConfig, err
		}
		cfg.LabelScheme = *scheme
	}
	if *top > 0 {
		cfg.KeywordLimit = *top
	}
	logging.InitLogger(stderr, cfg.LogLevel, cfg.LogFormat)

	if *file == "" {
		fs.Usage()
		return exitInput, errors.New("-file is required")
	}

	f, err := os.Open(*file)
	if err != nil {
		return exitInput, err
	}
	defer f.Close()

	dataset, err := ingest.Parse(f, ingest.Options{MaxBytes: cfg.MaxUploadBytes})
	if err != nil {
		return exitInput, err
	}

	scorer, err := app.NewScorer(cfg)
	if err != nil {
		return exitConfig, err
	}
	defer scorer.Close()

	analyzer, err := app.NewAnalyzer(cfg, scorer, nil)
	if err != nil {
		return exitConfig, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	report, err := analyzer.BuildReport(ctx, dataset.Records, *entity)
	if err != nil {
		var noMatch *analysis.NoMatchError
		if errors.As(err, &noMatch) {
			return exitInput, err
		}
		return exitRuntime, err
	}

	if *chartPath != "" {
		if err := os.WriteFile(*chartPath, report.Chart.Data, 0o644); err != nil {
			return exitRuntime, fmt.Errorf("failed to write chart: %w", err)
		}
		slog.Info("[Analyze] Chart written", slog.String("path", *chartPath))
	}

	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if !*details {
			report.Records = nil
		}
		if err := enc.Encode(report); err != nil {
			return exitRuntime, err
		}
		return exitOK, nil
	}

	printer := newPrinter(stdout, !*noColor, analyzer.Scheme())
	printer.Report(report, dataset.Rejected)
	if *details {
		printer.Records(report.Records)
	}
	return exitOK, nil
}
