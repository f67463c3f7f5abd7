package main

import (
	"database/sql"
	"errors"
	"flag"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/rbroggi/clients/internal/config"
	log "github.com/sirupsen/logrus"
)

var (
	down = flag.Bool("down", false, "run migration down")
	dir  = flag.String("dir", "db/migrations", "migrations directory, relative to the working directory unless absolute")
)

func main() {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("error loading configuration")
	}

	db, err := sql.Open("postgres", cfg.PostgresURL)
	if err != nil {
		log.WithError(err).Fatal("error opening db connection")
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		log.WithError(err).Fatal("error invoking WithInstance")
	}

	migrationsDir, err := filepath.Abs(*dir)
	if err != nil {
		log.WithError(err).Fatal("error resolving migrations directory")
	}
	if _, err := os.Stat(migrationsDir); err != nil {
		log.WithError(err).Fatal("migrations directory is not readable")
	}
	log.WithField("dir", migrationsDir).Info("using migrations")

	m, err := migrate.NewWithDatabaseInstance("file://"+filepath.ToSlash(migrationsDir), "postgres", driver)
	if err != nil {
		log.WithError(err).Fatal("NewWithDatabaseInstance error")
	}

	if *down {
		err = m.Down()
	} else {
		err = m.Up()
	}
	if errors.Is(err, migrate.ErrNoChange) {
		log.Info("schema already up to date")
		return
	}
	if err != nil {
		log.WithError(err).WithField("down", *down).Fatal("error running migrations")
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		log.WithError(err).Fatal("error reading schema version")
	}
	log.WithField("version", version).WithField("dirty", dirty).Info("migrations applied")
}
