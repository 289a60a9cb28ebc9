// Command sitexctl runs maintenance tasks against the merchant database.
package main

import (
	"os"

	"sitex/internal/config"
	"sitex/internal/repositories"

	"github.com/gofiber/fiber/v2/log"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "sitexctl",
		Short:        "Maintenance commands for the merchant backend",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			config.LoadEnv()
		},
	}
	root.AddCommand(newMigrateCmd(), newSeedAdminCmd(), newSeedPackagesCmd())
	return root
}

// openDB connects with the environment's settings and applies migrations.
func openDB() (*gorm.DB, func(), error) {
	db, err := repositories.InitDB(config.Load().DB)
	if err != nil {
		return nil, nil, err
	}
	closeDB := func() {
		if sqlDB, err := db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				log.Warnf("failed to close database connection: %v", err)
			}
		}
	}
	return db, closeDB, nil
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, closeDB, err := openDB()
			if err != nil {
				return err
			}
			closeDB()
			cmd.Println("schema is up to date")
			return nil
		},
	}
}
