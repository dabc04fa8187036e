package main

import (
	"context"
	"fmt"
	"os"

	"github.com/epg-sync/epgctl/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup writes config.toml from the template when missing and initializes the local database.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	var config *shared.Config
	if _, err := os.Stat(configPath); err == nil {
		if config, err = shared.LoadConfig(configPath); err != nil {
			return fmt.Errorf("existing config is invalid: %w", err)
		}
		r.logger.Info("using existing config", "path", configPath)
	} else {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}
		if config, err = shared.LoadConfig(configPath); err != nil {
			r.logger.Warn("failed to load created config, using defaults", "error", err)
			config = shared.DefaultConfig()
		}
		r.writePlain("✓ Config written to %s\n", configPath)
	}
	shared.ApplyEnv(config)

	r.logger.Info("initializing database", "path", config.Storage.Path)

	db, err := shared.NewDatabase(config.Storage.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, config.Storage.MaxOpenConns, config.Storage.MaxIdleConns)

	r.logger.Info("running database migrations")
	if err := shared.RunMigrationsContext(ctx, db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	r.writePlain("✓ Local storage ready at %s\n", config.Storage.Path)
	r.writePlainln("Next steps:")
	r.writePlain("1. Set api.base_url in %s\n", configPath)
	r.writePlain("2. Run 'epgctl auth login -u <username> -p <password>'\n")
	return nil
}
