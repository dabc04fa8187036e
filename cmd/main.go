package main

import (
	"context"
	"errors"
	"os"

	"github.com/epg-sync/epgctl/internal/shared"
	"github.com/urfave/cli/v3"
)

const defaultConfigPath = "config.toml"

func main() {
	logger := shared.NewLogger(nil)

	configPath := defaultConfigPath
	if v := os.Getenv("EPGCTL_CONFIG"); v != "" {
		configPath = v
	}

	config := shared.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		if loadedConfig, err := shared.LoadConfig(configPath); err == nil {
			config = loadedConfig
		} else {
			logger.Warn("failed to load config, using defaults", "path", configPath, "error", err)
		}
	}
	shared.ApplyEnv(config)
	logger.SetLevel(shared.ParseLogLevel(config.Logging.Level))

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		Logger:     logger,
	})
	defer runner.Close()

	app := &cli.Command{
		Name:     "epgctl",
		Usage:    "Admin console for the EPG backend",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		runner.Close()
		if errors.Is(err, shared.ErrNotAuthenticated) {
			logger.Fatal("not logged in", "hint", "epgctl auth login -u <username> -p <password>")
		}
		logger.Fatalf("application error: %v", err)
	}
}
