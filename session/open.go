package session

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	dbredis "github.com/pamojavote/pamoja-go/db/redis"
	"github.com/pamojavote/pamoja-go/enums"
)

// Config selects and configures the session backend.
type Config struct {
	Backend       string `validate:"required,oneof=memory file redis"`
	FilePath      string `validate:"required_if=Backend file"`
	RedisAddr     string `validate:"required_if=Backend redis"`
	RedisPassword string
	RedisDB       int `validate:"gte=0"`
	RedisPrefix   string
	RedisTTL      time.Duration `validate:"gte=0"`
}

func (cfg *Config) Validate() error {
	return validator.New(validator.WithRequiredStructEnabled()).Struct(cfg)
}

// Open builds the Store described by cfg. Call Close on the result when done.
func Open(ctx context.Context, cfg Config) (*KVStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid session configuration: %w", err)
	}

	switch cfg.Backend {
	case enums.StorageMemory:
		return NewMemoryStore(), nil
	case enums.StorageFile:
		backend, err := NewFileBackend(cfg.FilePath)
		if err != nil {
			return nil, err
		}
		return New(backend), nil
	case enums.StorageRedis:
		client, err := dbredis.NewRedisClient(ctx, dbredis.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		return New(NewRedisBackend(client, cfg.RedisPrefix, cfg.RedisTTL)), nil
	}

	return nil, fmt.Errorf("unsupported session backend %q", cfg.Backend)
}
