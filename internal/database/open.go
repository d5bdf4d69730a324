package database

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"streamnet/internal/config"
	"streamnet/internal/repository"
	"streamnet/internal/repository/memory"
)

// OpenRepositories selects the storage backend named by cfg.Storage. For
// PostgreSQL it connects and applies the schema. The returned func releases
// the backend.
func OpenRepositories(ctx context.Context, cfg *config.Config, log *zap.Logger) (repository.Set, func(), error) {
	switch cfg.Storage {
	case config.StorageMemory:
		log.Warn("Using in-memory storage; data is lost on restart")
		return memory.NewStore().Repositories(), func() {}, nil

	case config.StoragePostgres:
		db, err := Connect(cfg, log)
		if err != nil {
			return repository.Set{}, nil, err
		}
		if err := Migrate(ctx, db); err != nil {
			db.Close()
			return repository.Set{}, nil, err
		}
		closeDB := func() {
			if err := db.Close(); err != nil {
				log.Warn("failed to close database", zap.Error(err))
			}
		}
		return repository.NewPostgresSet(db), closeDB, nil
	}
	return repository.Set{}, nil, fmt.Errorf("unknown storage %q", cfg.Storage)
}
