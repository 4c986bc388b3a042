package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jonathan/interview-intel/internal/config"
	"github.com/jonathan/interview-intel/internal/discovery"
	"github.com/jonathan/interview-intel/internal/intelligence"
	"github.com/jonathan/interview-intel/internal/llm"
	"github.com/jonathan/interview-intel/internal/logging"
	"github.com/jonathan/interview-intel/internal/memory"
	"github.com/jonathan/interview-intel/internal/observability"
	"github.com/jonathan/interview-intel/internal/repository"
	"github.com/jonathan/interview-intel/internal/search"
)

// app holds the components shared by the commands
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	metrics *observability.Metrics
	repo    *repository.Repository
	memory  *memory.Memory
	llm     llm.Client
	intel   *intelligence.Service
}

// loadConfig reads the config file named by --config and applies --verbose
func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// discoveryMode controls whether newApp builds the discovery pipeline
type discoveryMode int

const (
	discoveryOff discoveryMode = iota
	// discoveryOptional builds the pipeline only when an API key is configured
	discoveryOptional
)

// newApp wires the repository and memory, plus the LLM client, the search
// provider and the discovery pipeline as mode asks.
func newApp(ctx context.Context, mode discoveryMode) (*app, error) {
	cfg, logger, err := loadConfig()
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger, metrics: observability.NewMetrics()}

	a.repo, err = repository.New(repository.Options{
		Path:     cfg.Repository.Path,
		Matching: cfg.Matching.Config,
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load curated profiles: %w", err)
	}

	store, err := memory.OpenStore(ctx, cfg.Memory)
	if err != nil {
		return nil, fmt.Errorf("failed to open discovery memory: %w", err)
	}
	memOpts := cfg.MemoryOptions()
	memOpts.Logger = logger
	a.memory = memory.New(store, memOpts)

	var discoverer intelligence.Discoverer
	if mode == discoveryOptional && cfg.LLM.APIKey != "" {
		orchestrator, err := a.newPipeline(ctx)
		if err != nil {
			a.Close()
			return nil, err
		}
		discoverer = orchestrator
	}

	a.intel = intelligence.New(a.repo, a.memory, discoverer, intelligence.Options{
		Timeout: cfg.Pipeline.Timeout,
		Logger:  logger,
		Metrics: a.metrics,
	})
	return a, nil
}

func (a *app) newPipeline(ctx context.Context) (*discovery.Orchestrator, error) {
	if a.cfg.LLM.APIKey == "" {
		return nil, fmt.Errorf("API key required: set GEMINI_API_KEY or %s_LLM_API_KEY", config.EnvPrefix)
	}

	if err := discovery.CheckPrompts(); err != nil {
		return nil, err
	}

	client, err := llm.NewClient(ctx, a.cfg.LLMModels(), a.cfg.LLM.APIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	a.llm = client

	provider, err := search.New(ctx, a.cfg.Search)
	if err != nil {
		return nil, fmt.Errorf("failed to create search provider: %w", err)
	}

	return discovery.New(discovery.Deps{
		LLM:      client,
		Search:   provider,
		Recorder: a.memory,
		Logger:   a.logger,
		Metrics:  a.metrics,
	}, discovery.Options{
		MaxIterations:       a.cfg.Pipeline.MaxIterations,
		SyntheticConfidence: a.cfg.Pipeline.SyntheticConfidence,
		MaxResults:          a.cfg.Search.MaxResults,
		Recency:             a.cfg.Search.Recency(),
	}), nil
}

// Close releases the store and the LLM client
func (a *app) Close() {
	if a.llm != nil {
		if err := a.llm.Close(); err != nil {
			a.logger.Warn("failed to close LLM client", zap.Error(err))
		}
	}
	if a.memory != nil {
		if err := a.memory.Close(); err != nil {
			a.logger.Warn("failed to close discovery memory", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}
