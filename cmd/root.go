package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/techchallenge/vitibrasil-etl/config"
	"github.com/techchallenge/vitibrasil-etl/logger"
)

var rootCmd = &cobra.Command{
	Use:          "vitibrasil",
	Short:        "Sanitizes the Embrapa viticulture datasets and loads them for analysis",
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newSanitizeCmd())
	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newDescribeCmd())
	rootCmd.AddCommand(b3Cmd)
	b3Cmd.AddCommand(newIngestCmd())
	b3Cmd.AddCommand(newRefineCmd())
}

func isRunningOnGitHubActions() bool {
	return os.Getenv("GITHUB_ACTIONS") == "true"
}

func initializeConfigAndLogger() (*config.Config, *slog.Logger, error) {
	log := logger.NewLogger("info")
	if !isRunningOnGitHubActions() {
		// .env is optional: its keys are only needed for MotherDuck and object storage.
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Error(fmt.Sprintf("Error loading .env file: %v", err))
			return nil, nil, err
		}
	}

	baseConfigFile, err := os.Open("config.base.yaml")
	if err != nil {
		log.Error(fmt.Sprintf("Error opening base config file: %v", err))
		return nil, nil, err
	}
	defer baseConfigFile.Close()

	env := os.Getenv("APP_ENV")
	var envConfigFile *os.File
	envConfigFilename := fmt.Sprintf("config.%s.yaml", env)
	if _, err := os.Stat(envConfigFilename); err == nil {
		envConfigFile, err = os.Open(envConfigFilename)
		if err != nil {
			log.Error(fmt.Sprintf("Error opening environment config file: %v", err))
			return nil, nil, err
		}
		defer envConfigFile.Close()
	}

	cfg, err := config.NewConfig(baseConfigFile, envConfigFile, env)
	if err != nil {
		log.Error(fmt.Sprintf("Error reading config: %v", err))
		return nil, nil, err
	}

	log = logger.NewLogger(cfg.LogLevel).With("run_id", uuid.NewString(), "env", cfg.Env)
	return cfg, log, nil
}
