package storage

import (
	"context"
	"fmt"

	"github.com/lugondev/exchange-booth/internal/config"
)

type DatabaseType string

const (
	DatabaseTypeMemory   DatabaseType = "memory"
	DatabaseTypePostgres DatabaseType = "postgres"
)

type ConnectionManager struct {
	config     *config.StorageConfig
	repository Repository
}

func NewConnectionManager(cfg *config.StorageConfig) *ConnectionManager {
	return &ConnectionManager{
		config: cfg,
	}
}

func (cm *ConnectionManager) Connect(ctx context.Context) (Repository, error) {
	if cm.repository != nil {
		return cm.repository, nil
	}

	var repo Repository
	var err error

	switch DatabaseType(cm.config.Type) {
	case DatabaseTypeMemory, "":
		repo, err = NewMemoryRepository(ctx)
	case DatabaseTypePostgres:
		repo, err = NewPostgresRepositoryFromConfig(ctx, &cm.config.Postgres)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cm.config.Type)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to connect to storage: %w", err)
	}

	if err := repo.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping storage: %w", err)
	}

	cm.repository = repo
	return repo, nil
}

func (cm *ConnectionManager) Close() error {
	if cm.repository != nil {
		return cm.repository.Close()
	}
	return nil
}
