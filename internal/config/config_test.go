package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/interview-intel/internal/llm"
	"github.com/jonathan/interview-intel/internal/memory"
	"github.com/jonathan/interview-intel/internal/search"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, search.ProviderDuckDuckGo, cfg.Search.Provider)
	assert.Equal(t, 8, cfg.Search.MaxResults)
	assert.Equal(t, 365, cfg.Search.RecencyDays)
	assert.InDelta(t, 0.85, cfg.Matching.FuzzyThreshold, 1e-9)
	assert.InDelta(t, memory.DefaultThreshold, cfg.Matching.MemoryThreshold, 1e-9)
	assert.Equal(t, 3, cfg.Matching.FuzzyMinLength)
	assert.Equal(t, 4, cfg.Matching.AnchorMinLength)
	assert.InDelta(t, 2.0, cfg.Matching.AnchorMaxRatio, 1e-9)
	assert.InDelta(t, 0.6, cfg.Matching.SubstringMinCoverage, 1e-9)
	assert.Equal(t, memory.BackendFile, cfg.Memory.Backend)
	assert.Equal(t, "data/discoveries.json", cfg.Memory.Path)
	assert.Equal(t, 2, cfg.Pipeline.MaxIterations)
	assert.Equal(t, 90*time.Second, cfg.Pipeline.Timeout)
	assert.Equal(t, 15, cfg.Pipeline.SyntheticConfidence)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.True(t, cfg.Server.RateLimit.Enabled)
	assert.Equal(t, time.Minute, cfg.Server.RateLimit.Window)
}

func TestLoad_JSONFile(t *testing.T) {
	path := writeConfig(t, "config.json", `{
		"log": {"level": "debug"},
		"matching": {"repository_threshold": 0.9, "memory_threshold": 0.98},
		"pipeline": {"timeout": "30s", "max_iterations": 3},
		"memory": {"backend": "redis", "redis": {"addr": "cache:6379", "key": "discoveries"}}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.InDelta(t, 0.9, cfg.Matching.FuzzyThreshold, 1e-9)
	assert.InDelta(t, 0.98, cfg.Matching.MemoryThreshold, 1e-9)
	assert.Equal(t, 30*time.Second, cfg.Pipeline.Timeout)
	assert.Equal(t, 3, cfg.Pipeline.MaxIterations)
	assert.Equal(t, memory.BackendRedis, cfg.Memory.Backend)
	assert.Equal(t, "cache:6379", cfg.Memory.Redis.Addr)
	assert.Equal(t, "discoveries", cfg.Memory.Redis.Key)
	// untouched keys keep their defaults
	assert.Equal(t, 4, cfg.Matching.AnchorMinLength)
}

func TestLoad_YAMLFile(t *testing.T) {
	path := writeConfig(t, "config.yaml", "search:\n  provider: serper\n  api_key: abc\n  max_results: 5\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, search.ProviderSerper, cfg.Search.Provider)
	assert.Equal(t, "abc", cfg.Search.APIKey)
	assert.Equal(t, 5, cfg.Search.MaxResults)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("INTEL_SEARCH_PROVIDER", "brave")
	t.Setenv("INTEL_SEARCH_API_KEY", "brave-key")
	t.Setenv("INTEL_MATCHING_MEMORY_THRESHOLD", "0.95")
	t.Setenv("INTEL_SERVER_PORT", "9090")
	t.Setenv("GEMINI_API_KEY", "gemini-key")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, search.ProviderBrave, cfg.Search.Provider)
	assert.Equal(t, "brave-key", cfg.Search.APIKey)
	assert.InDelta(t, 0.95, cfg.Matching.MemoryThreshold, 1e-9)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "gemini-key", cfg.LLM.APIKey)
}

func TestLoad_FileNotFound(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.json")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoad_InvalidFile(t *testing.T) {
	path := writeConfig(t, "config.json", `{ invalid json }`)

	cfg, err := Load(path)
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults are valid", func(*Config) {}, ""},
		{"unknown log level", func(c *Config) { c.Log.Level = "verbose" }, "Level"},
		{"unknown search provider", func(c *Config) { c.Search.Provider = "bing" }, "Provider"},
		{"google needs cx", func(c *Config) { c.Search.Provider = search.ProviderGoogle; c.Search.APIKey = "k" }, "search.cx"},
		{"serper needs key", func(c *Config) { c.Search.Provider = search.ProviderSerper }, "search.api_key"},
		{"memory threshold too loose", func(c *Config) { c.Matching.MemoryThreshold = 0.8 }, "MemoryThreshold"},
		{"repository threshold above one", func(c *Config) { c.Matching.FuzzyThreshold = 1.2 }, "FuzzyThreshold"},
		{"unbounded iterations", func(c *Config) { c.Pipeline.MaxIterations = 0 }, "MaxIterations"},
		{"synthetic confidence above cap", func(c *Config) { c.Pipeline.SyntheticConfidence = 40 }, "SyntheticConfidence"},
		{"postgres needs url", func(c *Config) { c.Memory.Backend = memory.BackendPostgres }, "DatabaseURL"},
		{"unknown memory backend", func(c *Config) { c.Memory.Backend = "s3" }, "Backend"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load("")
			require.NoError(t, err)
			tt.mutate(cfg)

			err = cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLLMModels(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	cfg.LLM.Models.Advanced = "gemini-custom"
	cfg.LLM.Endpoint = "http://localhost:9999"

	models := cfg.LLMModels()
	assert.Equal(t, "gemini-custom", models.GetModel(llm.TierAdvanced))
	assert.Equal(t, llm.DefaultGeminiConfig().GetModel(llm.TierLite), models.GetModel(llm.TierLite))
	assert.Equal(t, "http://localhost:9999", models.Endpoint)
}

func TestMemoryOptions(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	opts := cfg.MemoryOptions()
	assert.InDelta(t, memory.DefaultThreshold, opts.Threshold, 1e-9)
	assert.Equal(t, 3, opts.MinLength)
}
