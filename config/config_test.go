package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name: "negative max pages",
			mutate: func(cfg *Config) {
				cfg.MaxPages = -1
			},
			wantErr: "max pages",
		},
		{
			name: "empty base url",
			mutate: func(cfg *Config) {
				cfg.BaseURL = ""
			},
			wantErr: "base URL",
		},
		{
			name: "invalid url format",
			mutate: func(cfg *Config) {
				cfg.BaseURL = "http://"
			},
			wantErr: "base URL",
		},
		{
			name: "unsupported scheme",
			mutate: func(cfg *Config) {
				cfg.BaseURL = "ftp://books.toscrape.com/"
			},
			wantErr: "scheme",
		},
		{
			name: "negative delay",
			mutate: func(cfg *Config) {
				cfg.Delay = -time.Second
			},
			wantErr: "delay",
		},
		{
			name: "negative timeout",
			mutate: func(cfg *Config) {
				cfg.Timeout = -1 * time.Second
			},
			wantErr: "timeout",
		},
		{
			name: "unknown format",
			mutate: func(cfg *Config) {
				cfg.OutputFormat = "xml"
			},
			wantErr: "output format",
		},
		{
			name: "negative dedupe size",
			mutate: func(cfg *Config) {
				cfg.DedupeMaxSize = -5
			},
			wantErr: "dedupe",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate, got %v", err)
	}
	if cfg.MaxPages != 0 {
		t.Fatalf("default max pages = %d, want unlimited (0)", cfg.MaxPages)
	}
	if cfg.Delay != time.Second {
		t.Fatalf("default delay = %v, want 1s", cfg.Delay)
	}
	if cfg.OutputFile != "books.csv" {
		t.Fatalf("default output = %q", cfg.OutputFile)
	}
}

func TestExplorerConfigValidate(t *testing.T) {
	cfg := DefaultExplorerConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default explorer config should validate, got %v", err)
	}

	cfg.File = ""
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for empty file")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvMaxPages, "3")
	t.Setenv(EnvDelay, "0.25")
	t.Setenv(EnvOutput, "out/books.csv")

	env, err := NewEnv()
	if err != nil {
		t.Fatalf("new env: %v", err)
	}

	pages, ok, err := env.Int(EnvMaxPages)
	if err != nil || !ok || pages != 3 {
		t.Fatalf("max pages = %d, %v, %v", pages, ok, err)
	}
	delay, ok, err := env.Seconds(EnvDelay)
	if err != nil || !ok || delay != 250*time.Millisecond {
		t.Fatalf("delay = %v, %v, %v", delay, ok, err)
	}
	output, ok := env.String(EnvOutput)
	if !ok || output != "out/books.csv" {
		t.Fatalf("output = %q, %v", output, ok)
	}
	if _, ok := env.String(EnvMetricsAddr); ok {
		t.Fatalf("metrics addr should be unset")
	}
}

func TestEnvInvalidInt(t *testing.T) {
	t.Setenv(EnvMaxPages, "many")

	env, err := NewEnv()
	if err != nil {
		t.Fatalf("new env: %v", err)
	}
	if _, _, err := env.Int(EnvMaxPages); err == nil || !strings.Contains(err.Error(), EnvMaxPages) {
		t.Fatalf("expected error naming %s, got %v", EnvMaxPages, err)
	}
}

func TestEnvReadsDotEnvFile(t *testing.T) {
	dir := t.TempDir()
	content := "EXPLORER_FILE=data/books.csv\nSCRAPER_MAX_PAGES=7\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(content), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	env, err := NewEnv(dir)
	if err != nil {
		t.Fatalf("new env: %v", err)
	}
	file, ok := env.String(EnvExplorerIn)
	if !ok || file != "data/books.csv" {
		t.Fatalf("explorer file = %q, %v", file, ok)
	}
	pages, ok, err := env.Int(EnvMaxPages)
	if err != nil || !ok || pages != 7 {
		t.Fatalf("max pages = %d, %v, %v", pages, ok, err)
	}
}

func TestEnvMissingDotEnvIsFine(t *testing.T) {
	if _, err := NewEnv(t.TempDir()); err != nil {
		t.Fatalf("missing .env should not fail: %v", err)
	}
}
