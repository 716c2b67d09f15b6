/*-------------------------------------------------------------------------
 *
 * migrations.go
 *    SQL migration runner
 *
 * Applies .sql files from a directory in lexical order, tracking
 * applied versions in neuroneval.schema_migrations. Each migration
 * runs in its own transaction.
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <support@neurondb.ai>
 *
 * IDENTIFICATION
 *    NeuronEval/internal/db/migrations.go
 *
 *-------------------------------------------------------------------------
 */

package db

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
)

type MigrationRunner struct {
	db  *sqlx.DB
	dir string
}

/* NewMigrationRunner validates the migrations directory exists */
func NewMigrationRunner(db *sqlx.DB, dir string) (*MigrationRunner, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("migrations directory not found: path='%s', error=%w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("migrations path is not a directory: path='%s'", dir)
	}
	return &MigrationRunner{db: db, dir: dir}, nil
}

const migrationTableDDL = `
	CREATE SCHEMA IF NOT EXISTS neuroneval;
	CREATE TABLE IF NOT EXISTS neuroneval.schema_migrations (
		version    TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`

/* Run applies all pending migrations in lexical filename order */
func (m *MigrationRunner) Run(ctx context.Context) error {
	if _, err := m.db.ExecContext(ctx, migrationTableDDL); err != nil {
		return fmt.Errorf("failed to ensure migration table: %w", err)
	}

	applied := make(map[string]struct{})
	var versions []string
	if err := m.db.SelectContext(ctx, &versions, `SELECT version FROM neuroneval.schema_migrations`); err != nil {
		return fmt.Errorf("failed to read applied migrations: %w", err)
	}
	for _, v := range versions {
		applied[v] = struct{}{}
	}

	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: path='%s', error=%w", m.dir, err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	for _, name := range files {
		if _, ok := applied[name]; ok {
			continue
		}

		sqlBytes, err := os.ReadFile(filepath.Join(m.dir, name))
		if err != nil {
			return fmt.Errorf("failed to read migration: file='%s', error=%w", name, err)
		}

		tx, err := m.db.BeginTxx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin migration transaction: file='%s', error=%w", name, err)
		}

		if _, err := tx.ExecContext(ctx, string(sqlBytes)); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration failed: file='%s', error=%w", name, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO neuroneval.schema_migrations (version) VALUES ($1)`, name); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration: file='%s', error=%w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration: file='%s', error=%w", name, err)
		}
	}

	return nil
}
