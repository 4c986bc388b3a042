package memory

import (
	"context"
	"fmt"

	"github.com/jonathan/interview-intel/internal/db"
)

// Backend names a Store implementation
type Backend string

// Supported backends
const (
	BackendFile     Backend = "file"
	BackendPostgres Backend = "postgres"
	BackendRedis    Backend = "redis"
)

// Config selects and configures the backing store
type Config struct {
	Backend     Backend      `mapstructure:"backend" validate:"oneof=file postgres redis"`
	Path        string       `mapstructure:"path" validate:"required_if=Backend file"`
	DatabaseURL string       `mapstructure:"database_url" validate:"required_if=Backend postgres"`
	Redis       RedisOptions `mapstructure:"redis"`
}

// OpenStore connects the configured backend
func OpenStore(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Backend {
	case BackendFile, "":
		return NewFileStore(cfg.Path)
	case BackendPostgres:
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return NewPostgresStore(database), nil
	case BackendRedis:
		return NewRedisStore(ctx, cfg.Redis)
	default:
		return nil, fmt.Errorf("unsupported memory backend %q", cfg.Backend)
	}
}
