// Package database provides helpers for connecting to the database that backs the
// versioned document repository, and for creating its schema.
//
// Two drivers are supported:
//   - PostgreSQL for deployments (DATABASE_URL="postgres://..."); schema comes from the
//     numbered SQL files in migrations/, applied with golang-migrate
//   - SQLite for local development and tests (DATABASE_URL="society.db" or "file:..."); the
//     schema is created from the GORM models with AutoMigrate
package database

import (
	"errors"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	// Registers the postgres database driver for migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	// Registers the "file://" source driver so migrate can read .sql files from disk.
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/trentd187/golf-society/internal/models"
)

// MigrationsSource is where RunMigrations looks for the postgres migration files.
const MigrationsSource = "file://migrations"

// IsPostgres reports whether dsn points at PostgreSQL rather than a SQLite file.
func IsPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// Connect opens the database behind dsn with the matching GORM dialect.
// GORM's own SQL logging is silenced; the service logs at the repository level instead.
func Connect(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, errors.New("database: empty DATABASE_URL")
	}

	// TranslateError maps driver-specific unique violations to gorm.ErrDuplicatedKey.
	cfg := &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	}

	if IsPostgres(dsn) {
		return gorm.Open(postgres.Open(dsn), cfg)
	}

	db, err := gorm.Open(sqlite.Open(dsn), cfg)
	if err != nil {
		return nil, err
	}

	// SQLite allows a single writer; one connection avoids "database is locked" errors
	// when two requests commit at the same time.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

// RunMigrations brings the schema up to date.
// For postgres, pending "up" files in migrations/ are applied; migrate tracks applied
// versions in schema_migrations so each runs once. For SQLite the GORM models are the schema.
func RunMigrations(db *gorm.DB, dsn string) error {
	if !IsPostgres(dsn) {
		return db.AutoMigrate(&models.Branch{}, &models.Revision{}, &models.RevisionFile{})
	}

	m, err := migrate.New(MigrationsSource, dsn)
	if err != nil {
		return err
	}
	defer m.Close()

	// migrate.ErrNoChange just means everything was already applied.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}

	return nil
}
