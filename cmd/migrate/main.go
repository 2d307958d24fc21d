// Command migrate applies the embedded schema migrations to DATABASE_URL and
// optionally seeds the default offices and users.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"docutrack/internal/directory/seed"
	dirstore "docutrack/internal/directory/store"
	"docutrack/internal/platform/config"
	"docutrack/internal/platform/logger"
	"docutrack/internal/platform/postgres"
)

func main() {
	down := flag.Bool("down", false, "roll back every migration instead of applying them")
	seedDefaults := flag.Bool("seed", false, "insert the default offices and users after migrating")
	flag.Parse()

	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)
	if !cfg.Database.Enabled() {
		log.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	ctx := context.Background()
	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		log.Error("failed to connect", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if *down {
		if err := postgres.MigrateDown(db); err != nil {
			log.Error("migrate down failed", "error", err)
			os.Exit(1)
		}
		log.Info("migrations rolled back")
		return
	}

	if err := postgres.MigrateUp(db); err != nil {
		log.Error("migrate up failed", "error", err)
		os.Exit(1)
	}
	log.Info("migrations applied")

	if *seedDefaults {
		if err := seed.Defaults(ctx, dirstore.NewPostgresOffices(db), dirstore.NewPostgresUsers(db), log); err != nil {
			log.Error("seed failed", "error", err)
			os.Exit(1)
		}
	}
}
