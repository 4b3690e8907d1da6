package journeydb

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is bumped whenever schema.sql changes. Export databases
// written by another version are rejected rather than migrated.
const schemaVersion = 1

// ErrSchemaMismatch is returned by Open for a database written with a
// different schema version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// storedVersion reports the recorded schema version, or ok=false for a
// database that has never been initialized.
func (s *Store) storedVersion(ctx context.Context) (version int, ok bool, err error) {
	var tables int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tables); err != nil {
		return 0, false, fmt.Errorf("check schema_version table: %w", err)
	}
	if tables == 0 {
		return 0, false, nil
	}
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return 0, false, fmt.Errorf("read schema version: %w", err)
	}
	return version, true, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	version, ok, err := s.storedVersion(ctx)
	if err != nil {
		return err
	}
	if ok {
		if version != schemaVersion {
			return fmt.Errorf("%w: %s has version %d, expected %d (delete it to start a fresh export)",
				ErrSchemaMismatch, s.path, version, schemaVersion)
		}
		return nil
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
			return fmt.Errorf("record schema version: %w", err)
		}
		return nil
	})
}
