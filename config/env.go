package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Environment keys that override flag defaults.
const (
	EnvBaseURL     = "SCRAPER_BASE_URL"
	EnvMaxPages    = "SCRAPER_MAX_PAGES"
	EnvDelay       = "SCRAPER_DELAY"
	EnvOutput      = "SCRAPER_OUTPUT"
	EnvMetricsAddr = "SCRAPER_METRICS_ADDR"
	EnvExplorerIn  = "EXPLORER_FILE"
)

// Env reads overrides from the process environment and an optional .env file.
type Env struct {
	v *viper.Viper
}

// NewEnv builds an Env that looks for .env in the given directories.
// A missing .env file is not an error.
func NewEnv(paths ...string) (*Env, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.AllowEmptyEnv(false)
	v.AutomaticEnv()

	if len(paths) > 0 {
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read .env: %w", err)
			}
		}
	}
	return &Env{v: v}, nil
}

// String returns the value for key and whether it was set.
func (e *Env) String(key string) (string, bool) {
	if !e.v.IsSet(key) {
		return "", false
	}
	value := strings.TrimSpace(e.v.GetString(key))
	return value, value != ""
}

// Int returns the integer value for key.
func (e *Env) Int(key string) (int, bool, error) {
	raw, ok := e.String(key)
	if !ok {
		return 0, false, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", key, err)
	}
	return value, true, nil
}

// Seconds returns the value for key, in fractional seconds, as a duration.
func (e *Env) Seconds(key string) (time.Duration, bool, error) {
	raw, ok := e.String(key)
	if !ok {
		return 0, false, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", key, err)
	}
	return SecondsToDuration(value), true, nil
}

// SecondsToDuration converts a flag value in seconds to a time.Duration.
func SecondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}
