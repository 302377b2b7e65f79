package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aluiziolira/books-explorer/config"
	"github.com/aluiziolira/books-explorer/models"
	"github.com/aluiziolira/books-explorer/pipeline"
	"github.com/aluiziolira/books-explorer/scraper"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		var fetchErr scraper.FetchError
		if errors.As(err, &fetchErr) {
			slog.Error("scrape aborted", slog.String("url", fetchErr.URL), slog.Int("status", fetchErr.StatusCode), slog.Any("error", err))
		} else {
			slog.Error("scrape failed", slog.Any("error", err))
		}
		os.Exit(1)
	}
}

func run(args []string) error {
	env, err := config.NewEnv(".")
	if err != nil {
		return err
	}
	cfg, err := parseFlags(args, env)
	if err != nil {
		return err
	}

	logger, level := newLogger(cfg.Verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	s, err := scraper.NewScraper(cfg)
	if err != nil {
		return fmt.Errorf("initialising scraper: %w", err)
	}

	writer, err := createWriter(cfg.OutputFormat, cfg.OutputFile)
	if err != nil {
		return fmt.Errorf("creating writer: %w", err)
	}
	p, err := pipeline.NewPipeline(writer, cfg)
	if err != nil {
		writer.Close()
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.MetricsAddr != "" {
		metricsServer := startMetricsServer(cfg.MetricsAddr, s.Metrics)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				slog.Error("metrics server shutdown failed", slog.Any("error", err))
			}
		}()
	}

	result, runErr := s.Run(ctx, p)

	// Whatever was scraped before a failure is still flushed to disk.
	outputErr := finishOutput(p, writer)

	printSummary(os.Stdout, result, p.Stats(), cfg.OutputFile)
	return errors.Join(runErr, outputErr)
}

func finishOutput(p *pipeline.Pipeline, writer pipeline.OutputWriter) error {
	flushErr := p.Close()
	if flushErr == nil {
		if err := writer.Validate(); errors.Is(err, pipeline.ErrNoRecords) {
			slog.Warn("no books were written; the output holds only a header")
		} else if err != nil {
			flushErr = fmt.Errorf("output validation failed: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return errors.Join(flushErr, fmt.Errorf("close writer: %w", err))
	}
	return flushErr
}

func parseFlags(args []string, env *config.Env) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if value, ok := env.String(config.EnvBaseURL); ok {
		cfg.BaseURL = value
	}
	if value, ok := env.String(config.EnvOutput); ok {
		cfg.OutputFile = value
	}
	if value, ok := env.String(config.EnvMetricsAddr); ok {
		cfg.MetricsAddr = value
	}
	if value, ok, err := env.Int(config.EnvMaxPages); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	} else if ok {
		cfg.MaxPages = value
	}
	if value, ok, err := env.Seconds(config.EnvDelay); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	} else if ok {
		cfg.Delay = value
	}

	fs := flag.NewFlagSet("scraper", flag.ContinueOnError)
	outputFile := fs.String("output", cfg.OutputFile, "Output file path")
	maxPages := fs.Int("max-pages", cfg.MaxPages, "Maximum listing pages to fetch (0 = until the last page)")
	delay := fs.Float64("delay", cfg.Delay.Seconds(), "Pause between page requests, in seconds")
	baseURL := fs.String("base-url", cfg.BaseURL, "First listing page to crawl")
	outputFormat := fs.String("format", cfg.OutputFormat, "Output format: csv, json, or dual")
	timeout := fs.Duration("timeout", cfg.Timeout, "Per-request timeout")
	dedupeSize := fs.Int("dedupe-size", cfg.DedupeMaxSize, "Product URLs remembered for duplicate filtering (0 disables)")
	respectRobots := fs.Bool("respect-robots", cfg.RespectRobotsTxt, "Respect robots.txt directives")
	metricsAddr := fs.String("metrics-addr", cfg.MetricsAddr, "Prometheus metrics listen address (e.g. :9090)")
	verbose := fs.Bool("v", false, "Enable verbose logging")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg.OutputFile = *outputFile
	cfg.MaxPages = *maxPages
	cfg.Delay = config.SecondsToDuration(*delay)
	cfg.BaseURL = *baseURL
	cfg.OutputFormat = strings.ToLower(*outputFormat)
	cfg.Timeout = *timeout
	cfg.DedupeMaxSize = *dedupeSize
	cfg.RespectRobotsTxt = *respectRobots
	cfg.MetricsAddr = *metricsAddr
	cfg.Verbose = *verbose
	return cfg, nil
}

func createWriter(format, filename string) (pipeline.OutputWriter, error) {
	switch format {
	case "json":
		return pipeline.NewJSONWriter(filename)
	case "csv":
		return pipeline.NewCSVWriter(filename)
	case "dual":
		jsonFilename := strings.TrimSuffix(filename, ".csv") + ".json"
		return pipeline.NewDualWriter(filename, jsonFilename)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

func startMetricsServer(addr string, metrics *scraper.Metrics) *http.Server {
	server := &http.Server{
		Addr:              addr,
		Handler:           promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server failed", slog.Any("error", err))
		}
	}()
	slog.Info("metrics server enabled", slog.String("addr", addr))
	return server
}

func printSummary(w io.Writer, result *models.ScraperResult, stats pipeline.Stats, outputFile string) {
	separator := "--------------------------------------------------"
	fmt.Fprintln(w, "\n"+separator)
	if result.StopReason == "" {
		fmt.Fprintln(w, "Scrape aborted")
	} else {
		fmt.Fprintf(w, "Scrape complete (%s)\n", strings.ReplaceAll(result.StopReason, "_", " "))
	}

	duration := result.EndTime.Sub(result.StartTime)
	fmt.Fprintf(w, "  Run ID:        %s\n", result.RunID)
	fmt.Fprintf(w, "  Pages:         %s\n", humanize.Comma(int64(result.PageCount)))
	fmt.Fprintf(w, "  Books written: %s\n", humanize.Comma(int64(stats.Processed)))
	fmt.Fprintf(w, "  Skipped items: %s\n", humanize.Comma(int64(result.SkippedCount)))
	if len(result.SkippedByField) > 0 {
		fmt.Fprintf(w, "  Skipped by:    %s\n", formatCounts(result.SkippedByField))
	}
	if len(stats.Rejected) > 0 {
		fmt.Fprintf(w, "  Rejected:      %s\n", formatCounts(stats.Rejected))
	}
	if len(result.ErrorsByType) > 0 {
		fmt.Fprintf(w, "  Error types:   %s\n", formatCounts(result.ErrorsByType))
	}
	fmt.Fprintf(w, "  Duration:      %v\n", duration.Round(time.Millisecond))
	fmt.Fprintf(w, "  Output file:   %s\n", outputFile)
	fmt.Fprintln(w, separator)
}

func formatCounts(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", k, counts[k]))
	}
	return strings.Join(parts, " ")
}

func newLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stdout) {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
