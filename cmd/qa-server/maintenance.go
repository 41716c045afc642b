package main

import (
	"github.com/spf13/cobra"

	"github.com/emilythestrangee/qa-community/backend/internal/logging"
	"github.com/emilythestrangee/qa-community/backend/internal/reputation"
	"github.com/emilythestrangee/qa-community/backend/internal/voting"
)

func migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			// opening the database migrates it
			db, err := openDatabase()
			if err != nil {
				return err
			}
			defer db.Close()

			logging.Logger.Info("schema is up to date")
			return nil
		},
	}
}

func reconcileCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Recount vote counters from the ledger and rebuild cached user stats",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDatabase()
			if err != nil {
				return err
			}
			defer db.Close()

			ctx := cmd.Context()
			drifted, err := voting.NewCounters(db.GetDB()).RecountAll(ctx)
			if err != nil {
				return err
			}
			users, err := reputation.NewCalculator(db.GetDB()).RebuildAll(ctx)
			if err != nil {
				return err
			}

			logging.Logger.Info("reconciled",
				"drifted_targets", drifted,
				"rebuilt_users", users,
			)
			return nil
		},
	}
}
