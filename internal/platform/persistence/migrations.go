package persistence

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/fin-api-ledger/internal/config"
)

var (
	ErrMissingMigrationsPath = errors.New("migrations path cannot be empty")
	ErrMissingDatabaseURL    = errors.New("database URL cannot be empty")
)

// migrationSource turns a plain directory into a file:// source URL. Explicit URLs pass through.
func migrationSource(path string) string {
	if strings.Contains(path, "://") {
		return path
	}
	return "file://" + path
}

// RunMigrations brings the schema up to the newest version found under cfg.MigrationsPath.
// A dirty schema is reported instead of being forced.
func RunMigrations(logger *slog.Logger, cfg *config.PostgresConfig) (err error) {
	switch {
	case cfg.MigrationsPath == "":
		return ErrMissingMigrationsPath
	case cfg.URL == "":
		return ErrMissingDatabaseURL
	}

	m, err := migrate.New(migrationSource(cfg.MigrationsPath), cfg.URL)
	if err != nil {
		return fmt.Errorf("failed to open migrations at %s: %w", cfg.MigrationsPath, err)
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if err == nil {
			err = errors.Join(srcErr, dbErr)
		}
	}()

	if upErr := m.Up(); upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", upErr)
	}

	version, dirty, verErr := m.Version()
	if verErr != nil && !errors.Is(verErr, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to read schema version: %w", verErr)
	}
	if dirty {
		return fmt.Errorf("schema version %d is dirty", version)
	}
	logger.Info("Schema is up to date", "version", version)
	return nil
}
