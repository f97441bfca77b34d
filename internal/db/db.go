package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaFS embed.FS

// Open opens the sqlite database at path and applies the schema. The pool is
// pinned to a single connection so ":memory:" databases and connection-scoped
// pragmas survive for the lifetime of the handle.
func Open(path string) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("db path is required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if err := applySchema(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

func applySchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("enable foreign keys: %w", err)
	}

	schemaSQL, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("read schema: %w", err)
	}

	if _, err := db.ExecContext(ctx, string(schemaSQL)); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}

	if err := ensureAvatarURLColumn(ctx, db); err != nil {
		return err
	}

	return nil
}

// ensureAvatarURLColumn upgrades databases created before users carried an avatar.
func ensureAvatarURLColumn(ctx context.Context, db *sql.DB) error {
	var exists int
	err := db.QueryRowContext(ctx, "SELECT 1 FROM pragma_table_info('users') WHERE name = 'avatar_url' LIMIT 1").Scan(&exists)
	if err == nil {
		return nil
	}
	if err != sql.ErrNoRows {
		return fmt.Errorf("check users.avatar_url column: %w", err)
	}

	if _, err := db.ExecContext(ctx, "ALTER TABLE users ADD COLUMN avatar_url TEXT"); err != nil {
		return fmt.Errorf("add users.avatar_url column: %w", err)
	}
	return nil
}
