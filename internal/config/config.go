// Package config provides configuration loading and validation for the CLI and server.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/jonathan/interview-intel/internal/llm"
	"github.com/jonathan/interview-intel/internal/matching"
	"github.com/jonathan/interview-intel/internal/memory"
	"github.com/jonathan/interview-intel/internal/search"
)

// EnvPrefix is prepended to every environment override, e.g. INTEL_SEARCH_PROVIDER
const EnvPrefix = "INTEL"

// Config is the full application configuration.
// Values come from defaults, an optional JSON or YAML file and INTEL_* environment variables, in increasing priority.
type Config struct {
	Log        LogConfig        `mapstructure:"log"`
	LLM        LLMConfig        `mapstructure:"llm"`
	Search     search.Config    `mapstructure:"search"`
	Matching   MatchingConfig   `mapstructure:"matching"`
	Memory     memory.Config    `mapstructure:"memory"`
	Repository RepositoryConfig `mapstructure:"repository"`
	Pipeline   PipelineConfig   `mapstructure:"pipeline"`
	Server     ServerConfig     `mapstructure:"server"`
}

// LogConfig controls the zap logger
type LogConfig struct {
	Level       string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Development bool   `mapstructure:"development"`
}

// LLMConfig selects the generation provider and its models
type LLMConfig struct {
	Provider string       `mapstructure:"provider" validate:"oneof=gemini"`
	APIKey   string       `mapstructure:"api_key"`
	Endpoint string       `mapstructure:"endpoint"`
	Models   ModelsConfig `mapstructure:"models"`
}

// ModelsConfig names the model used per tier
type ModelsConfig struct {
	Lite     string `mapstructure:"lite" validate:"required"`
	Standard string `mapstructure:"standard" validate:"required"`
	Advanced string `mapstructure:"advanced" validate:"required"`
}

// MatchingConfig holds the repository matching guards and the stricter memory threshold
type MatchingConfig struct {
	matching.Config `mapstructure:",squash"`
	MemoryThreshold float64 `mapstructure:"memory_threshold" validate:"gte=0.9,lte=1"`
}

// RepositoryConfig optionally replaces the embedded curated profiles
type RepositoryConfig struct {
	Path string `mapstructure:"path"`
}

// PipelineConfig bounds one discovery run
type PipelineConfig struct {
	MaxIterations       int           `mapstructure:"max_iterations" validate:"gte=1,lte=5"`
	Timeout             time.Duration `mapstructure:"timeout" validate:"gt=0"`
	SyntheticConfidence int           `mapstructure:"synthetic_confidence" validate:"gte=1,lte=20"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Port      int             `mapstructure:"port" validate:"gte=1,lte=65535"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// RateLimitConfig is the per-client token bucket applied to discovery endpoints
type RateLimitConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Limit   int           `mapstructure:"limit" validate:"gte=1"`
	Window  time.Duration `mapstructure:"window" validate:"gt=0"`
	Burst   int           `mapstructure:"burst" validate:"gte=0"`
}

// setDefaults registers every key so environment overrides are picked up by Unmarshal
func setDefaults(v *viper.Viper) {
	models := llm.DefaultGeminiConfig().Models
	searchDefaults := search.DefaultConfig()
	matchDefaults := matching.DefaultConfig()

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)

	v.SetDefault("llm.provider", string(llm.ProviderGemini))
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.endpoint", "")
	v.SetDefault("llm.models.lite", models[llm.TierLite])
	v.SetDefault("llm.models.standard", models[llm.TierStandard])
	v.SetDefault("llm.models.advanced", models[llm.TierAdvanced])

	v.SetDefault("search.provider", searchDefaults.Provider)
	v.SetDefault("search.api_key", "")
	v.SetDefault("search.cx", "")
	v.SetDefault("search.base_url", "")
	v.SetDefault("search.max_results", searchDefaults.MaxResults)
	v.SetDefault("search.recency_days", searchDefaults.RecencyDays)
	v.SetDefault("search.timeout", searchDefaults.Timeout)

	v.SetDefault("matching.repository_threshold", matchDefaults.FuzzyThreshold)
	v.SetDefault("matching.memory_threshold", memory.DefaultThreshold)
	v.SetDefault("matching.fuzzy_min_length", matchDefaults.FuzzyMinLength)
	v.SetDefault("matching.anchor_min_length", matchDefaults.AnchorMinLength)
	v.SetDefault("matching.anchor_max_ratio", matchDefaults.AnchorMaxRatio)
	v.SetDefault("matching.substring_min_length", matchDefaults.SubstringMinLength)
	v.SetDefault("matching.substring_min_coverage", matchDefaults.SubstringMinCoverage)

	v.SetDefault("memory.backend", string(memory.BackendFile))
	v.SetDefault("memory.path", "data/discoveries.json")
	v.SetDefault("memory.database_url", "")
	v.SetDefault("memory.redis.addr", "localhost:6379")
	v.SetDefault("memory.redis.password", "")
	v.SetDefault("memory.redis.db", 0)
	v.SetDefault("memory.redis.key", "intel:discoveries")

	v.SetDefault("repository.path", "")

	v.SetDefault("pipeline.max_iterations", 2)
	v.SetDefault("pipeline.timeout", 90*time.Second)
	v.SetDefault("pipeline.synthetic_confidence", 15)

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.rate_limit.enabled", true)
	v.SetDefault("server.rate_limit.limit", 30)
	v.SetDefault("server.rate_limit.window", time.Minute)
	v.SetDefault("server.rate_limit.burst", 5)
}

// Load reads configuration. An empty path uses defaults and the environment only.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// the provider's conventional variables work without the prefix
	if err := v.BindEnv("llm.api_key", EnvPrefix+"_LLM_API_KEY", "GEMINI_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind llm.api_key: %w", err)
	}
	if err := v.BindEnv("memory.database_url", EnvPrefix+"_MEMORY_DATABASE_URL", "DATABASE_URL"); err != nil {
		return nil, fmt.Errorf("failed to bind memory.database_url: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field ranges and cross-field requirements
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed '%s'", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("config error: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("config error: %w", err)
	}

	if c.Search.Provider == search.ProviderGoogle && (c.Search.APIKey == "" || c.Search.CX == "") {
		return fmt.Errorf("config error: search provider google requires search.api_key and search.cx")
	}
	if (c.Search.Provider == search.ProviderSerper || c.Search.Provider == search.ProviderBrave) && c.Search.APIKey == "" {
		return fmt.Errorf("config error: search provider %s requires search.api_key", c.Search.Provider)
	}
	return nil
}

// LLMModels converts the model settings into an llm.Config
func (c *Config) LLMModels() *llm.Config {
	cfg := llm.DefaultGeminiConfig().
		WithModel(llm.TierLite, c.LLM.Models.Lite).
		WithModel(llm.TierStandard, c.LLM.Models.Standard).
		WithModel(llm.TierAdvanced, c.LLM.Models.Advanced)
	cfg.Endpoint = c.LLM.Endpoint
	return cfg
}

// MemoryOptions returns the strict lookup policy for discovery memory
func (c *Config) MemoryOptions() memory.Options {
	return memory.Options{
		Threshold: c.Matching.MemoryThreshold,
		MinLength: c.Matching.FuzzyMinLength,
	}
}
