// Command migrate runs schema operations for the feeds backend.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"feeds/internal/config"
	"feeds/internal/database"
	"feeds/internal/middleware"
)

func main() {
	if err := run(); err != nil {
		middleware.Logger.Error("Migration command failed", "error", err.Error())
		os.Exit(1)
	}
}

func usage() error {
	return fmt.Errorf("usage: go run ./cmd/migrate <up|status>")
}

func run() error {
	flag.Parse()
	if flag.NArg() < 1 {
		return usage()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := database.Open(cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	log := middleware.Logger
	switch strings.ToLower(strings.TrimSpace(flag.Arg(0))) {
	case "up":
		if err := database.Migrate(db); err != nil {
			return err
		}
		log.Info("Schema migrated", "env", cfg.Env)
	case "status":
		status, err := database.SchemaStatus(db)
		if err != nil {
			return fmt.Errorf("schema status failed: %w", err)
		}
		missing := 0
		for _, s := range status {
			if !s.Present {
				missing++
			}
			log.Info("table", "name", s.Table, "present", s.Present)
		}
		log.Info("Schema status", "tables", len(status), "missing", missing)
	default:
		return usage()
	}
	return nil
}
