package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/interview-intel/internal/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate [up|down]",
	Short: "Apply database migrations for the postgres memory backend",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runMigrate,
}

var (
	migrateSteps int
	migrateList  bool
)

func init() {
	migrateCmd.Flags().IntVar(&migrateSteps, "steps", 0, "Number of migrations to apply (0 means all)")
	migrateCmd.Flags().BoolVar(&migrateList, "list", false, "List embedded migrations and exit")
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	if migrateList {
		names, err := db.MigrationNames()
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	}

	direction := "up"
	if len(args) == 1 {
		direction = args[0]
	}

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if cfg.Memory.DatabaseURL == "" {
		return fmt.Errorf("database URL required: set DATABASE_URL or memory.database_url")
	}

	if err := db.Migrate(cfg.Memory.DatabaseURL, direction, migrateSteps); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "migrations applied (%s)\n", direction)
	return nil
}
