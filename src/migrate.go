package main

import (
	"budget-bee-server/src/config"
	"budget-bee-server/src/db"
	"log"

	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			url, err := config.DatabaseURL(v)
			if err != nil {
				return err
			}
			if err := db.RunMigrations(url); err != nil {
				return err
			}
			log.Println("INFO: Migrations applied")
			return nil
		},
	}
}
