package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jafarshop/ecostore/internal/config"
	"github.com/jafarshop/ecostore/internal/storage/postgres"
)

// Open creates the store selected by STORAGE_DRIVER. The returned close
// function releases the database connection when there is one.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Storage.Driver {
	case "memory":
		return NewMemoryStore(), noop, nil
	case "file":
		s, err := NewFileStore(cfg.Storage.Path, logger)
		if err != nil {
			return nil, nil, err
		}
		return s, noop, nil
	case "postgres":
		db, err := postgres.NewConnection(cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		kv := postgres.NewKVStore(db, logger)
		if err := kv.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return kv, db.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}
}
