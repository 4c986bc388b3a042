package ratelimit

import (
	"net/http"
	"time"
)

// defaultIdleTTL is how long an unused bucket is kept
const defaultIdleTTL = time.Hour

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string        // Endpoint path pattern (supports prefix matching)
	Method string        // HTTP method (GET, POST, etc.)
	Limit  int           // Maximum requests per window
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	IdleTTL         time.Duration
	Whitelist       map[string]bool
	Blacklist       map[string]bool
	EndpointConfigs []EndpointConfig
}

// DefaultConfig returns a lenient limit for reads with no endpoint overrides
func DefaultConfig() *Config {
	return &Config{
		Enabled:         true,
		DefaultLimit:    1000,
		DefaultWindow:   time.Minute,
		CleanupInterval: 5 * time.Minute,
		Whitelist:       map[string]bool{},
		Blacklist:       map[string]bool{},
	}
}

// ForDiscovery applies the given bucket to the endpoints that can start a
// discovery pipeline run; every other endpoint keeps the lenient default.
func ForDiscovery(enabled bool, limit int, window time.Duration, burst int) *Config {
	cfg := DefaultConfig()
	cfg.Enabled = enabled
	cfg.EndpointConfigs = DiscoveryEndpoints(limit, window, burst)
	return cfg
}

// DiscoveryEndpoints returns the endpoint limits for pipeline-backed routes
func DiscoveryEndpoints(limit int, window time.Duration, burst int) []EndpointConfig {
	return []EndpointConfig{
		{Path: "/intelligence", Method: http.MethodGet, Limit: limit, Window: window, Burst: burst},
		{Path: "/intelligence", Method: http.MethodPost, Limit: limit, Window: window, Burst: burst},
	}
}

func (c *Config) idleTTL() time.Duration {
	if c.IdleTTL <= 0 {
		return defaultIdleTTL
	}
	return c.IdleTTL
}
