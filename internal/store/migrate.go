package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// MigrationFiles lists the *_*.up.sql files in dir in apply order.
func MigrationFiles(dir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*_*.up.sql"))
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no migration files found in %s", dir)
	}
	sort.Strings(files)
	return files, nil
}

// Migrate applies every up migration in dir. The statements are idempotent
// (IF NOT EXISTS), so re-running against a migrated database is harmless.
func (s *Store) Migrate(ctx context.Context, dir string) ([]string, error) {
	files, err := MigrationFiles(dir)
	if err != nil {
		return nil, err
	}
	if s == nil || s.pool == nil {
		return nil, fmt.Errorf("store not initialized")
	}
	applied := make([]string, 0, len(files))
	for _, path := range files {
		payload, err := os.ReadFile(path)
		if err != nil {
			return applied, fmt.Errorf("read migration %s: %w", path, err)
		}
		if _, err := s.pool.Exec(ctx, string(payload)); err != nil {
			return applied, fmt.Errorf("apply migration %s: %w", path, err)
		}
		s.logger.Printf("store: applied %s", filepath.Base(path))
		applied = append(applied, path)
	}
	return applied, nil
}
