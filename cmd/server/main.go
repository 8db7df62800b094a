package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/agenthands/personapanel/internal/config"
	"github.com/agenthands/personapanel/internal/logging"
	"github.com/agenthands/personapanel/internal/store/sqlite"
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	serve := newServeCmd()

	rootCmd := &cobra.Command{
		Use:   "personapanel",
		Short: "Entity simulation service",
		Long: `personapanel defines entity types, generates entities with an LLM and
simulates multi-party dialogues between them.

Run without a subcommand to start the HTTP API.`,
		SilenceUsage: true,
		RunE:         serve.RunE,
	}

	rootCmd.PersistentFlags().String("config", "", "Path to config TOML (default $CONFIG_PATH or config/config.toml)")
	rootCmd.PersistentFlags().String("env-file", ".env", "dotenv file to load before reading configuration")

	rootCmd.AddCommand(
		serve,
		newExportCmd(),
		newTemplatesCmd(),
	)
	return rootCmd
}

// loadConfig reads the .env file, then the TOML config, then environment
// overrides. A missing file is only an error when --config was given. The
// returned notes are logged once a logger exists.
func loadConfig(cmd *cobra.Command) (*config.Config, []string, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	envErr := godotenv.Load(envFile)

	path, _ := cmd.Flags().GetString("config")
	explicit := path != ""
	if !explicit {
		path = os.Getenv("CONFIG_PATH")
		explicit = path != ""
	}
	if path == "" {
		path = "config/config.toml"
	}

	cfg, err := config.Load(path, !explicit)
	if err != nil {
		return nil, nil, err
	}

	var notes []string
	if envErr != nil {
		notes = append(notes, fmt.Sprintf("No %s file found, using environment as is", envFile))
	}
	if _, statErr := os.Stat(path); statErr != nil {
		notes = append(notes, fmt.Sprintf("No config file at %s, using defaults", path))
	}
	return cfg, notes, nil
}

func newLogger(cfg *config.Config, notes []string) (*zap.Logger, error) {
	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Development)
	if err != nil {
		return nil, err
	}
	for _, note := range notes {
		logger.Info(note)
	}
	return logger, nil
}

func openStore(ctx context.Context, cfg *config.Config) (*sqlite.Client, error) {
	st, err := sqlite.New(ctx, cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", cfg.Storage.Path, err)
	}
	return st, nil
}
