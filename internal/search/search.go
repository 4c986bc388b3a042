// Package search provides web search providers used by the discovery researcher.
package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jonathan/interview-intel/internal/fetch"
)

// Result is one ranked web snippet
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Provider runs a web search. recency of zero means no date restriction.
// Providers may return zero results and are not assumed to be noise-free.
type Provider interface {
	Search(ctx context.Context, query string, maxResults int, recency time.Duration) ([]Result, error)
	Name() string
}

// Provider names
const (
	ProviderGoogle     = "google"
	ProviderDuckDuckGo = "duckduckgo"
	ProviderSerper     = "serper"
	ProviderBrave      = "brave"
)

// Config selects and configures a provider
type Config struct {
	Provider    string        `mapstructure:"provider" validate:"oneof=google duckduckgo serper brave"`
	APIKey      string        `mapstructure:"api_key"`
	CX          string        `mapstructure:"cx"`
	BaseURL     string        `mapstructure:"base_url"`
	MaxResults  int           `mapstructure:"max_results" validate:"gte=1,lte=20"`
	RecencyDays int           `mapstructure:"recency_days" validate:"gte=1"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// DefaultConfig returns a keyless DuckDuckGo configuration
func DefaultConfig() Config {
	return Config{
		Provider:    ProviderDuckDuckGo,
		MaxResults:  8,
		RecencyDays: 365,
		Timeout:     fetch.DefaultTimeout,
	}
}

// Recency converts RecencyDays into a duration
func (c Config) Recency() time.Duration {
	return time.Duration(c.RecencyDays) * 24 * time.Hour
}

// New builds the configured provider
func New(ctx context.Context, cfg Config) (Provider, error) {
	opts := fetch.DefaultOptions()
	if cfg.Timeout > 0 {
		opts.Timeout = cfg.Timeout
	}

	switch strings.ToLower(cfg.Provider) {
	case ProviderGoogle:
		return NewGoogle(ctx, cfg.APIKey, cfg.CX, cfg.BaseURL)
	case ProviderDuckDuckGo, "":
		return NewDuckDuckGo(cfg.BaseURL, opts), nil
	case ProviderSerper:
		return NewSerper(cfg.APIKey, cfg.BaseURL, opts)
	case ProviderBrave:
		return NewBrave(cfg.APIKey, cfg.BaseURL, opts)
	default:
		return nil, fmt.Errorf("unsupported search provider %q", cfg.Provider)
	}
}

// clampResults keeps maxResults in a range every provider accepts
func clampResults(n int) int {
	if n <= 0 {
		return 8
	}
	return min(n, 20)
}

func days(recency time.Duration) int {
	d := int(recency / (24 * time.Hour))
	return max(d, 1)
}
