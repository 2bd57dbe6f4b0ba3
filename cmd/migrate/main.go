package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	"github.com/joho/godotenv"

	"github.com/yungbote/contactos-backend/internal/data/db"
	"github.com/yungbote/contactos-backend/internal/platform/logger"
)

func main() {
	_ = godotenv.Load()
	flag.Usage = usage
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	log, err := logger.New(os.Getenv("LOG_MODE"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	cfg := db.ConfigFromEnv()
	if cfg.Driver != db.DriverPostgres {
		log.Fatal("SQL migrations require DB_DRIVER=postgres", "driver", cfg.Driver)
	}
	m, err := db.NewMigrator(cfg.DSN)
	if err != nil {
		log.Fatal("Migration init failed", "error", err)
	}
	defer m.Close()
	m.Log = &migrateLogger{log: log.With("component", "migrate")}

	switch args[0] {
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			log.Fatal("up failed", "error", err)
		}
		log.Info("Migrations applied")
	case "down":
		steps := 1
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil || n < 1 {
				log.Fatal("down: invalid steps argument", "steps", args[1])
			}
			steps = n
		}
		if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			log.Fatal("down failed", "error", err)
		}
		log.Info("Migrations rolled back", "steps", steps)
	case "version":
		v, dirty, err := m.Version()
		if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
			log.Fatal("version failed", "error", err)
		}
		fmt.Printf("version: %d  dirty: %v\n", v, dirty)
	case "force":
		if len(args) < 2 {
			log.Fatal("force: version argument required")
		}
		v, err := strconv.Atoi(args[1])
		if err != nil {
			log.Fatal("force: invalid version", "version", args[1])
		}
		if err := m.Force(v); err != nil {
			log.Fatal("force failed", "error", err)
		}
		log.Info("Migration version forced", "version", v)
	default:
		usage()
		os.Exit(2)
	}
}

type migrateLogger struct {
	log *logger.Logger
}

func (l *migrateLogger) Printf(format string, v ...any) {
	l.log.Info(fmt.Sprintf(format, v...))
}

func (l *migrateLogger) Verbose() bool { return false }

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: migrate <command> [args]

Commands:
  up           Apply all pending migrations
  down [N]     Roll back N migrations (default: 1)
  version      Print the current migration version
  force V      Set the version without running migrations`)
}
