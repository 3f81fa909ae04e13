package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"coursehub-backend/internal/config"
	"coursehub-backend/internal/docstore"
)

// Storage is the document store selected by STORE_BACKEND. Pool is nil for
// the in-memory backend.
type Storage struct {
	Store docstore.Store
	Pool  *pgxpool.Pool
}

func OpenStorage(ctx context.Context, cfg *config.Config) (*Storage, error) {
	if cfg.StoreBackend == config.StoreMemory {
		return &Storage{Store: docstore.NewMemoryStore()}, nil
	}
	pool, err := NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	return &Storage{Store: docstore.NewPostgresStore(pool), Pool: pool}, nil
}

// Migrate applies pending migrations. The in-memory backend has none.
func (s *Storage) Migrate(ctx context.Context, migrationsDir string, logger zerolog.Logger) (int, error) {
	if s.Pool == nil {
		return 0, nil
	}
	return RunMigrations(ctx, s.Pool, migrationsDir, logger)
}

func (s *Storage) Close() {
	if s.Pool != nil {
		s.Pool.Close()
	}
}
