package storage

import (
	"context"

	"github.com/lugondev/exchange-booth/internal/config"
)

var (
	memoryFactory   func(context.Context) (Repository, error)
	postgresFactory func(context.Context, *config.PostgresConfig) (Repository, error)
)

func RegisterMemoryFactory(factory func(context.Context) (Repository, error)) {
	memoryFactory = factory
}

func RegisterPostgresFactory(factory func(context.Context, *config.PostgresConfig) (Repository, error)) {
	postgresFactory = factory
}

func NewMemoryRepository(ctx context.Context) (Repository, error) {
	if memoryFactory == nil {
		panic("memory factory not registered - import _ \"github.com/lugondev/exchange-booth/internal/storage/memory\"")
	}
	return memoryFactory(ctx)
}

func NewPostgresRepositoryFromConfig(ctx context.Context, cfg *config.PostgresConfig) (Repository, error) {
	if postgresFactory == nil {
		panic("postgres factory not registered - import _ \"github.com/lugondev/exchange-booth/internal/storage/postgres\"")
	}
	return postgresFactory(ctx, cfg)
}
