package main

import (
	"errors"
	"flag"
	"log"

	"github.com/golang-migrate/migrate/v4"

	"github.com/noah-isme/obe-attainment-api/migrations"
	"github.com/noah-isme/obe-attainment-api/pkg/config"
	"github.com/noah-isme/obe-attainment-api/pkg/database"
	"github.com/noah-isme/obe-attainment-api/pkg/logger"
)

func main() {
	var (
		direction string
		steps     int
	)

	flag.StringVar(&direction, "direction", "up", "Migration direction: up, down or version")
	flag.IntVar(&steps, "steps", 0, "Number of steps to migrate (0 means all)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect database", "error", err)
	}
	defer db.Close()

	m, err := migrations.New(db.DB)
	if err != nil {
		logr.Sugar().Fatalw("failed to init migrations", "error", err)
	}

	switch direction {
	case "up":
		if steps > 0 {
			err = m.Steps(steps)
		} else {
			err = m.Up()
		}
	case "down":
		if steps > 0 {
			err = m.Steps(-steps)
		} else {
			err = m.Down()
		}
	case "version":
		version, dirty, verr := m.Version()
		if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
			logr.Sugar().Fatalw("failed to read version", "error", verr)
		}
		logr.Sugar().Infow("schema version", "version", version, "dirty", dirty)
		return
	default:
		logr.Sugar().Fatalw("unknown direction", "direction", direction)
	}

	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logr.Sugar().Fatalw("migration failed", "direction", direction, "error", err)
	}
	logr.Sugar().Infow("migrations applied", "direction", direction, "steps", steps)
}
