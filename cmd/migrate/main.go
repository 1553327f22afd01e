package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/zainab674/project-plus-sub002/internal/cli"
	"github.com/zainab674/project-plus-sub002/internal/infrastructure/database"
	"github.com/zainab674/project-plus-sub002/pkg/config"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Read()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer logger.Sync()

	db, err := database.NewPostgresDB(cfg, logger)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer database.CloseDB(db)

	deps := &cli.Dependencies{
		Migrator: &cli.DBMigrator{DB: db, Logger: logger},
		Out:      os.Stdout,
	}

	return cli.NewRootCmd(deps).Execute()
}
