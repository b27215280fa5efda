package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/jafarshop/ecostore/internal/config"
)

const schema = `
	CREATE TABLE IF NOT EXISTS kv_store (
		key        TEXT PRIMARY KEY,
		value      JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)
`

// NewConnection opens and pings a lib/pq connection
func NewConnection(cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

type kvStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewKVStore creates a key/value store backed by the kv_store table
func NewKVStore(db *sql.DB, logger *zap.Logger) *kvStore {
	return &kvStore{
		db:     db,
		logger: logger,
	}
}

// EnsureSchema creates the kv_store table when missing
func (r *kvStore) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		r.logger.Error("Failed to create kv_store table", zap.Error(err))
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func (r *kvStore) Get(ctx context.Context, key string, v interface{}) (bool, error) {
	query := `
		SELECT value
		FROM kv_store
		WHERE key = $1
	`

	var raw []byte
	err := r.db.QueryRowContext(ctx, query, key).Scan(&raw)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		r.logger.Error("Failed to get key", zap.String("key", key), zap.Error(err))
		return false, err
	}

	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

func (r *kvStore) Set(ctx context.Context, key string, v interface{}) error {
	query := `
		INSERT INTO kv_store (key, value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`

	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}

	if _, err := r.db.ExecContext(ctx, query, key, string(raw), time.Now()); err != nil {
		r.logger.Error("Failed to set key", zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}

func (r *kvStore) Delete(ctx context.Context, key string) error {
	query := `DELETE FROM kv_store WHERE key = $1`

	if _, err := r.db.ExecContext(ctx, query, key); err != nil {
		r.logger.Error("Failed to delete key", zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}

func (r *kvStore) Keys(ctx context.Context) ([]string, error) {
	query := `SELECT key FROM kv_store ORDER BY key`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list keys", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}
