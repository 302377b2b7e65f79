package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aluiziolira/books-explorer/config"
	"github.com/aluiziolira/books-explorer/pipeline"
	"github.com/aluiziolira/books-explorer/report"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		var fileErr pipeline.FileError
		if errors.As(err, &fileErr) {
			fmt.Fprintf(os.Stderr, "Cannot load books: %v\n", err)
		} else {
			slog.Error("explorer failed", slog.Any("error", err))
		}
		os.Exit(1)
	}
}

func run(args []string, in io.Reader, out io.Writer) error {
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

	slog.Info("loading books", slog.String("file", cfg.File))
	books, err := pipeline.LoadCSV(cfg.File)
	if err != nil {
		return err
	}
	if len(books) == 0 {
		slog.Warn("no books loaded", slog.String("file", cfg.File))
		fmt.Fprintf(out, "No books found in %s.\n", cfg.File)
		return nil
	}
	slog.Debug("books loaded", slog.Int("count", len(books)))

	return report.NewMenu(books, cfg, in, out).Run()
}

func parseFlags(args []string, env *config.Env) (*config.ExplorerConfig, error) {
	cfg := config.DefaultExplorerConfig()
	if value, ok := env.String(config.EnvExplorerIn); ok {
		cfg.File = value
	}

	fs := flag.NewFlagSet("explorer", flag.ContinueOnError)
	file := fs.String("file", cfg.File, "Path to the books CSV file")
	fs.StringVar(file, "f", cfg.File, "Shorthand for --file")
	verbose := fs.Bool("v", false, "Enable verbose logging")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg.File = *file
	cfg.Verbose = *verbose
	return cfg, nil
}

// newLogger writes to stderr so the menu owns stdout.
func newLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelWarn)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stderr) {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
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
