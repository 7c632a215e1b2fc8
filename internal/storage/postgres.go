package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/AkshadGawde/Astrape-Ecommerce/internal/domain"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

const createKVTable = `
        CREATE TABLE IF NOT EXISTS storefront_kv (
            namespace  TEXT        NOT NULL,
            key        TEXT        NOT NULL,
            value      TEXT        NOT NULL,
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            PRIMARY KEY (namespace, key)
        )`

var _ domain.KeyValueStore = (*PostgresStore)(nil)

// PostgresStore keeps the storage slot in a shared table, one row per
// (namespace, key). The namespace separates storefront profiles sharing a database.
type PostgresStore struct {
	db        *sql.DB
	namespace string
	log       *logrus.Logger
}

func NewPostgresStore(db *sql.DB, namespace string, logger *logrus.Logger) *PostgresStore {
	return &PostgresStore{
		db:        db,
		namespace: namespace,
		log:       logger,
	}
}

// EnsureSchema creates the backing table when it does not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createKVTable); err != nil {
		s.log.Errorf("Storage: Failed to create storefront_kv table: %v", err)
		return fmt.Errorf("could not prepare storage table: %w", err)
	}
	s.log.Info("Storage: storefront_kv table is ready")
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, key string) (string, bool, error) {
	query := `
        SELECT value
        FROM storefront_kv
        WHERE namespace = $1 AND key = $2`

	var value string
	err := s.db.QueryRowContext(ctx, query, s.namespace, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		s.log.Errorf("Storage: Failed to read key %q: %v", key, err)
		return "", false, fmt.Errorf("could not read storage key %q: %w", key, err)
	}
	return value, true, nil
}

func (s *PostgresStore) Set(ctx context.Context, key, value string) error {
	query := `
        INSERT INTO storefront_kv (namespace, key, value)
        VALUES ($1, $2, $3)
        ON CONFLICT (namespace, key)
        DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`

	if _, err := s.db.ExecContext(ctx, query, s.namespace, key, value); err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			s.log.Errorf("Storage: Postgres rejected write of key %q (code %s): %s", key, pqErr.Code, pqErr.Message)
			return fmt.Errorf("could not write storage key %q: %s", key, pqErr.Message)
		}
		s.log.Errorf("Storage: Failed to write key %q: %v", key, err)
		return fmt.Errorf("could not write storage key %q: %w", key, err)
	}
	return nil
}

func (s *PostgresStore) Remove(ctx context.Context, key string) error {
	query := `
        DELETE FROM storefront_kv
        WHERE namespace = $1 AND key = $2`

	if _, err := s.db.ExecContext(ctx, query, s.namespace, key); err != nil {
		s.log.Errorf("Storage: Failed to delete key %q: %v", key, err)
		return fmt.Errorf("could not delete storage key %q: %w", key, err)
	}
	return nil
}
