package database

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/golang-migrate/migrate/v4"
	migratedriver "github.com/golang-migrate/migrate/v4/database"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/pkg/errors"
)

// MigrationConfig selects which migrations to run. Version 0 means migrate
// all the way up; Force stamps the schema version without running anything,
// used to clear a dirty flag after a manual repair.
type MigrationConfig struct {
	FolderPath string
	Version    uint
	Force      int
}

// migrationLogger adapts the process logger to migrate's Logger interface.
type migrationLogger struct {
	ectologger.Logger
}

func (l migrationLogger) Verbose() bool { return true }

func (l migrationLogger) Printf(format string, v ...any) {
	l.Infof(strings.TrimSpace(format), v...)
}

// RunMigrations applies the SQL migrations in cfg.FolderPath to the
// database behind driver.
func RunMigrations(logger ectologger.Logger, cfg MigrationConfig, databaseName string, driver migratedriver.Driver) error {
	folder := cfg.FolderPath
	if _, err := os.Stat(folder); err != nil {
		if wd, wdErr := os.Getwd(); wdErr == nil {
			folder = filepath.Join(wd, cfg.FolderPath)
		}
	}
	if _, err := os.Stat(folder); err != nil {
		return errors.Wrapf(err, "migration folder %s does not exist", folder)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+folder, databaseName, driver)
	if err != nil {
		logger.WithError(err).Error("Failed to create migrate instance")
		return err
	}
	m.Log = migrationLogger{Logger: logger}

	if cfg.Force != 0 {
		if err := m.Force(cfg.Force); err != nil {
			logger.WithError(err).Errorf("Failed to force database to version %d", cfg.Force)
			return err
		}
	}

	start := time.Now()
	if cfg.Version != 0 {
		err = m.Migrate(cfg.Version)
	} else {
		err = m.Up()
	}
	logger.Infof("Database migrations completed in %v", time.Since(start))

	switch {
	case err == nil:
		logger.Info("Successfully applied migrations")
		return nil
	case err == migrate.ErrNoChange:
		logger.Info("No new migrations to apply")
		return nil
	case strings.Contains(err.Error(), "no migration found for version"):
		// Usually a rollback to an older binary; leave the database alone.
		logger.WithError(err).Warn("Migration folder is behind the database version")
		return nil
	}

	version, dirty, versionErr := m.Version()
	if versionErr != nil && versionErr != migrate.ErrNilVersion {
		logger.WithError(versionErr).Error("Failed to get current migration version")
	}

	logger.WithError(err).Errorf("Failed to apply migrations. Database version is dirty=%t at version %d", dirty, version)
	return err
}
