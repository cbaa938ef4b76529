package journal

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is stored in PRAGMA user_version. Bump it with every change to
// schema.sql; journals are not migrated.
const schemaVersion = 1

// ErrSchemaMismatch indicates the journal was written by an incompatible
// version of labeller.
var ErrSchemaMismatch = errors.New("journal schema version mismatch")

func (s *Store) initSchema(ctx context.Context) error {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read journal version: %w", err)
	}
	switch version {
	case schemaVersion:
		return nil
	case 0:
		empty, err := s.isEmpty(ctx)
		if err != nil {
			return err
		}
		if empty {
			return s.createSchema(ctx)
		}
	}
	return fmt.Errorf("%w: %s has version %d, expected %d (delete it to start a fresh journal)",
		ErrSchemaMismatch, s.path, version, schemaVersion)
}

func (s *Store) isEmpty(ctx context.Context) (bool, error) {
	var tables int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type = 'table'",
	).Scan(&tables)
	if err != nil {
		return false, fmt.Errorf("inspect journal: %w", err)
	}
	return tables == 0, nil
}

func (s *Store) createSchema(ctx context.Context) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
			return fmt.Errorf("create journal schema: %w", err)
		}
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
			return fmt.Errorf("record journal version: %w", err)
		}
		return nil
	})
}
