// Package di provides dependency injection factories for creating application components.
package di

import (
	"aftermarket/internal/feature/aftermarket/adapters/cnn"
	infrahttp "aftermarket/internal/platform/http"
)

// NewScraper creates a fully configured cnn.Scraper with HTTP client.
func NewScraper(cfg cnn.Config) *cnn.Scraper {
	httpClient := infrahttp.NewHTTPClient(cfg.Timeout)
	return cnn.NewScraper(cfg, httpClient)
}
