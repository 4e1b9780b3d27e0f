// Package cnn scrapes the after-hours movers page and the S&P 500 futures quote.
package cnn

import (
	"errors"
	"os"
	"time"
)

// ErrMissingURL is returned when no page URL is configured.
var ErrMissingURL = errors.New("cnn: AFTER_MARKET_URL is not set")

const (
	defaultTimeout   = 15 * time.Second
	defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
)

// Config holds configuration for the after-hours page scraper.
type Config struct {
	URL       string        // After-hours movers page
	Timeout   time.Duration // HTTP request timeout
	UserAgent string        // Sent with every request
}

// LoadConfig loads scraper configuration from environment variables.
// Invalid or empty AFTER_MARKET_TIMEOUT falls back to the default.
func LoadConfig() Config {
	cfg := Config{
		URL:       os.Getenv("AFTER_MARKET_URL"),
		Timeout:   defaultTimeout,
		UserAgent: defaultUserAgent,
	}
	if v := os.Getenv("AFTER_MARKET_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}
	if v := os.Getenv("AFTER_MARKET_USER_AGENT"); v != "" {
		cfg.UserAgent = v
	}
	return cfg
}

// Validate reports whether the configuration can be used to scrape.
func (c Config) Validate() error {
	if c.URL == "" {
		return ErrMissingURL
	}
	return nil
}
