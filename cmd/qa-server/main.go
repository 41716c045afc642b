package main

import (
	"fmt"
	"os"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"github.com/emilythestrangee/qa-community/backend/internal/config"
	"github.com/emilythestrangee/qa-community/backend/internal/database"
	"github.com/emilythestrangee/qa-community/backend/internal/logging"
)

const programName = "qa-server"

var (
	globalFlags = struct {
		debug  bool
		driver string
	}{}
	cfg *config.Config
)

func openDatabase() (database.Service, error) {
	db, err := database.New(cfg, database.Options{Clock: clockwork.NewRealClock()})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return db, nil
}

func main() {
	rootCmd := &cobra.Command{
		Use:          programName,
		Short:        "Q&A community backend",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serveRun(cmd.Context())
		},
	}

	rootCmd.PersistentFlags().
		BoolVarP(&globalFlags.debug, "debug", "D", false, "enable debug logging")
	rootCmd.PersistentFlags().
		StringVar(&globalFlags.driver, "db-driver", "", "database driver to use (postgres or sqlite), overrides DB_DRIVER")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if globalFlags.driver != "" {
			loaded.DBDriver = globalFlags.driver
			if err := loaded.Validate(); err != nil {
				return err
			}
		}
		if globalFlags.debug {
			loaded.LogLevel = "debug"
		}
		cfg = loaded

		logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
		logging.Logger.Info("starting", "component", programName, "env", cfg.AppEnv, "driver", cfg.DBDriver)
		return nil
	}

	rootCmd.AddCommand(serveCommand())
	rootCmd.AddCommand(migrateCommand())
	rootCmd.AddCommand(reconcileCommand())

	if err := rootCmd.Execute(); err != nil {
		// cobra has already printed the error
		os.Exit(1)
	}
}
