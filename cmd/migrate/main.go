package main

import (
	"flag"
	"fmt"
	"os"

	"storefront/internal/config"
	"storefront/internal/database"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flag.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), "usage: migrate <up|down|version>")
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		return fmt.Errorf("expected exactly one command")
	}

	if err := config.LoadDotEnv(".env"); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := config.NewLogger(cfg.Logger, "storefront-migrate")

	migrator, err := database.NewMigrator(cfg.Database.ConnectionString(), logger)
	if err != nil {
		return err
	}
	defer migrator.Close()

	switch cmd := flag.Arg(0); cmd {
	case "up":
		return migrator.Up()
	case "down":
		return migrator.Down()
	case "version":
		version, dirty, err := migrator.Version()
		if err != nil {
			return err
		}
		logger.Info().Uint("version", version).Bool("dirty", dirty).Msg("current migration version")
		return nil
	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}
