/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/daycare-hub/apiserver/config"
	"github.com/daycare-hub/apiserver/internal/db"
	"github.com/spf13/cobra"
)

// migrateCmd represents the migrate command.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all up migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigrations(cmd, db.Up)
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back all migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigrations(cmd, db.Down)
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd)
}

func runMigrations(cmd *cobra.Command, direction db.Direction) error {
	cfg := config.LoadConfig()
	if cfg.Database.Driver != config.DatabaseDriverPostgres {
		return fmt.Errorf("migrations need DB_DRIVER=%s, got %q", config.DatabaseDriverPostgres, cfg.Database.Driver)
	}

	conn, err := db.Open(cmd.Context(), cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer conn.Close()

	if err := db.Migrate(conn, direction); err != nil {
		return err
	}
	cmd.Printf("migrate %s: done\n", direction)
	return nil
}
