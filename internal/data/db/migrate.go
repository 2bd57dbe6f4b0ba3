package db

import (
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/gorm"

	"github.com/yungbote/contactos-backend/internal/domain"
	"github.com/yungbote/contactos-backend/internal/platform/logger"
)

const (
	MigrateAuto = "auto"
	MigrateSQL  = "sql"
	MigrateOff  = "off"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(domain.Models()...)
}

// NewMigrator opens golang-migrate over the embedded SQL files. The DSN is a
// postgres:// URL; it is rewritten to the pgx5 scheme the driver registers.
func NewMigrator(dsn string) (*migrate.Migrate, error) {
	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return nil, fmt.Errorf("open embedded migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, pgx5URL(dsn))
	if err != nil {
		return nil, fmt.Errorf("migration init failed: %w", err)
	}
	return m, nil
}

func pgx5URL(dsn string) string {
	for _, prefix := range []string{"postgres://", "postgresql://"} {
		if strings.HasPrefix(dsn, prefix) {
			return "pgx5://" + strings.TrimPrefix(dsn, prefix)
		}
	}
	return dsn
}

// Migrate brings the schema up to date according to mode.
func (s *Service) Migrate(log *logger.Logger, mode string) error {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", MigrateAuto:
		if err := AutoMigrateAll(s.db); err != nil {
			return fmt.Errorf("automigrate: %w", err)
		}
		log.Info("Schema migrated", "mode", MigrateAuto)
	case MigrateSQL:
		if s.driver != DriverPostgres {
			return fmt.Errorf("DB_MIGRATE=%q requires DB_DRIVER=%q", MigrateSQL, DriverPostgres)
		}
		m, err := NewMigrator(s.dsn)
		if err != nil {
			return err
		}
		defer m.Close()
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("sql migrations failed: %w", err)
		}
		v, dirty, _ := m.Version()
		log.Info("Schema migrated", "mode", MigrateSQL, "version", v, "dirty", dirty)
	case MigrateOff:
		log.Info("Schema migration skipped")
	default:
		return fmt.Errorf("invalid DB_MIGRATE=%q (allowed: %q, %q, %q)", mode, MigrateAuto, MigrateSQL, MigrateOff)
	}
	return nil
}
