package config

import (
	"fmt"
	"net/url"
	"time"
)

// Config holds scraper configuration.
type Config struct {
	BaseURL          string
	MaxPages         int // 0 means follow next links until the last page
	Delay            time.Duration
	Timeout          time.Duration
	BatchSize        int
	DedupeMaxSize    int // 0 disables duplicate URL filtering
	OutputFile       string
	OutputFormat     string // csv, json, or dual
	UserAgent        string
	Verbose          bool
	RespectRobotsTxt bool
	MetricsAddr      string
}

// DefaultConfig returns conservative defaults for the demo target.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:          "https://books.toscrape.com/",
		MaxPages:         0,
		Delay:            time.Second,
		Timeout:          10 * time.Second,
		BatchSize:        20,
		DedupeMaxSize:    5000,
		OutputFile:       "books.csv",
		OutputFormat:     "csv",
		UserAgent:        "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/117.0.0.0 Safari/537.36",
		Verbose:          false,
		RespectRobotsTxt: false,
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}

	parsedURL, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("base URL must include a host")
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("base URL scheme must be http or https")
	}

	if c.MaxPages < 0 {
		return fmt.Errorf("max pages cannot be negative")
	}
	if c.Delay < 0 {
		return fmt.Errorf("delay cannot be negative")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive")
	}
	if c.DedupeMaxSize < 0 {
		return fmt.Errorf("dedupe size cannot be negative")
	}
	if c.OutputFile == "" {
		return fmt.Errorf("output file cannot be empty")
	}
	if c.OutputFormat != "csv" && c.OutputFormat != "json" && c.OutputFormat != "dual" {
		return fmt.Errorf("output format must be csv, json, or dual")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}

	return nil
}

// ExplorerConfig holds the report explorer configuration.
type ExplorerConfig struct {
	File        string
	TopN        int
	FilterLimit int
	Verbose     bool
}

// DefaultExplorerConfig mirrors the report sizes shown in the menu.
func DefaultExplorerConfig() *ExplorerConfig {
	return &ExplorerConfig{
		File:        "books.csv",
		TopN:        10,
		FilterLimit: 20,
	}
}

// Validate ensures the explorer settings are usable.
func (c *ExplorerConfig) Validate() error {
	if c.File == "" {
		return fmt.Errorf("input file cannot be empty")
	}
	if c.TopN <= 0 {
		return fmt.Errorf("top n must be positive")
	}
	if c.FilterLimit <= 0 {
		return fmt.Errorf("filter limit must be positive")
	}
	return nil
}
