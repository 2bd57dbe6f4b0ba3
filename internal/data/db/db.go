package db

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/contactos-backend/internal/platform/envutil"
	"github.com/yungbote/contactos-backend/internal/platform/logger"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Driver string
	DSN    string
}

// ConfigFromEnv reads DB_DRIVER and DATABASE_URL. Postgres without a
// DATABASE_URL is assembled from the POSTGRES_* variables.
func ConfigFromEnv() Config {
	driver := strings.ToLower(envutil.String("DB_DRIVER", DriverSQLite))
	if driver == "postgresql" || driver == "pgx" {
		driver = DriverPostgres
	}
	dsn := envutil.String("DATABASE_URL", "")
	if dsn == "" {
		switch driver {
		case DriverPostgres:
			dsn = fmt.Sprintf(
				"postgres://%s:%s@%s:%s/%s?sslmode=%s",
				url.QueryEscape(envutil.String("POSTGRES_USER", "postgres")),
				url.QueryEscape(envutil.String("POSTGRES_PASSWORD", "")),
				envutil.String("POSTGRES_HOST", "localhost"),
				envutil.String("POSTGRES_PORT", "5432"),
				envutil.String("POSTGRES_NAME", "contactos"),
				envutil.String("POSTGRES_SSLMODE", "disable"),
			)
		default:
			dsn = "contactos.db"
		}
	}
	return Config{Driver: driver, DSN: dsn}
}

type Service struct {
	db     *gorm.DB
	driver string
	dsn    string
	log    *logger.Logger
}

func Open(baseLog *logger.Logger, cfg Config) (*Service, error) {
	serviceLog := baseLog.With("service", "DatabaseService")

	gormLog := gormLogger.New(
		zap.NewStdLog(serviceLog.SugaredLogger.Desugar()),
		gormLogger.Config{
			SlowThreshold:             1 * time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	gcfg := &gorm.Config{
		Logger:         gormLog,
		TranslateError: true,
	}

	var (
		gdb *gorm.DB
		err error
	)
	switch cfg.Driver {
	case DriverPostgres:
		gdb, err = gorm.Open(postgres.Open(cfg.DSN), gcfg)
	case DriverSQLite:
		gdb, err = gorm.Open(sqlite.Open(cfg.DSN), gcfg)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q (allowed: %q, %q)", cfg.Driver, DriverSQLite, DriverPostgres)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Driver, err)
	}

	if cfg.Driver == DriverSQLite {
		sqlDB, err := gdb.DB()
		if err != nil {
			return nil, err
		}
		// sqlite serializes writers; one connection avoids SQLITE_BUSY.
		sqlDB.SetMaxOpenConns(1)
		if err := gdb.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
			return nil, fmt.Errorf("enable sqlite foreign keys: %w", err)
		}
	}

	serviceLog.Info("Database connected", "driver", cfg.Driver)
	return &Service{db: gdb, driver: cfg.Driver, dsn: cfg.DSN, log: serviceLog}, nil
}

func (s *Service) DB() *gorm.DB   { return s.db }
func (s *Service) Driver() string { return s.driver }

func (s *Service) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Service) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
