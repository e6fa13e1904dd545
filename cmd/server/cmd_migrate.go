package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/iliyamo/car-marketplace/internal/config"
	"github.com/iliyamo/car-marketplace/internal/database"
)

// migrate creates the users, cars and cart tables if they are missing.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the database tables",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		db, err := openDB(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()
		if err := database.Migrate(ctx, db); err != nil {
			return err
		}
		cmd.Println("migrations applied")
		return nil
	},
}
