package database

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"time"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

// MigrationInfo is one row of the schema status report.
type MigrationInfo struct {
	Version   int64
	Path      string
	Applied   bool
	AppliedAt time.Time
}

func newProvider(db *sql.DB, migrations fs.FS) (*goose.Provider, error) {
	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations)
	if err != nil {
		return nil, fmt.Errorf("failed to load migrations: %w", err)
	}
	return provider, nil
}

// RunMigrations applies every pending migration found in migrations.
func RunMigrations(ctx context.Context, db *sql.DB, migrations fs.FS, logger *zap.Logger) error {
	provider, err := newProvider(db, migrations)
	if err != nil {
		return err
	}

	results, err := provider.Up(ctx)
	for _, r := range results {
		logger.Info("Applied migration",
			zap.String("file", r.Source.Path),
			zap.Int64("version", r.Source.Version),
			zap.Duration("duration", r.Duration),
		)
	}
	if err != nil {
		logger.Error("Failed to run migrations", zap.Error(err))
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, err := provider.GetDBVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	logger.Info("Schema up to date", zap.Int64("version", version), zap.Int("applied", len(results)))
	return nil
}

// RollbackMigration reverts the most recently applied migration.
func RollbackMigration(ctx context.Context, db *sql.DB, migrations fs.FS, logger *zap.Logger) error {
	provider, err := newProvider(db, migrations)
	if err != nil {
		return err
	}

	result, err := provider.Down(ctx)
	if err != nil {
		return fmt.Errorf("failed to roll back migration: %w", err)
	}

	logger.Info("Rolled back migration",
		zap.String("file", result.Source.Path),
		zap.Int64("version", result.Source.Version),
	)
	return nil
}

// GetMigrationStatus reports every known migration in version order.
func GetMigrationStatus(ctx context.Context, db *sql.DB, migrations fs.FS) ([]MigrationInfo, error) {
	provider, err := newProvider(db, migrations)
	if err != nil {
		return nil, err
	}

	statuses, err := provider.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read migration status: %w", err)
	}

	infos := make([]MigrationInfo, 0, len(statuses))
	for _, s := range statuses {
		infos = append(infos, MigrationInfo{
			Version:   s.Source.Version,
			Path:      s.Source.Path,
			Applied:   s.State == goose.StateApplied,
			AppliedAt: s.AppliedAt,
		})
	}
	return infos, nil
}
