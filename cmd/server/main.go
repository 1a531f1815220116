package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/relaw/case-intake/internal/config"
	"github.com/relaw/case-intake/internal/database"
	"github.com/relaw/case-intake/internal/server"
	"github.com/relaw/case-intake/internal/taxonomy"
	"github.com/relaw/case-intake/pkg/logger"
)

func main() {
	var migrate bool
	flag.BoolVar(&migrate, "migrate", false, "Run database migrations and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	db, err := database.Initialize(cfg.DatabasePath)
	if err != nil {
		log.Fatal("Failed to initialize database", "error", err)
	}

	if err := database.RunMigrations(db); err != nil {
		log.Fatal("Failed to run migrations", "error", err)
	}

	if migrate {
		log.Info("Database migrations completed successfully")
		return
	}

	if err := database.SeedTaxonomy(db); err != nil {
		log.Fatal("Failed to seed issue taxonomy", "error", err)
	}

	taxonomyStore := taxonomy.NewStore(db, cfg.TaxonomyCacheTTL)

	srv := server.New(cfg, db, taxonomyStore, log)

	log.Info("Starting case intake service",
		"host", cfg.Host,
		"port", cfg.Port,
		"default_state", cfg.DefaultState,
	)

	if err := srv.Run(); err != nil {
		log.Fatal("Server failed to start", "error", err)
	}
}
