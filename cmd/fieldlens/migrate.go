package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/specimenworks/fieldlens/internal/storage"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newAppContext()
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.store.Migrate(cmd.Context()); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Database is at schema version %d.\n", storage.ExpectedSchemaVersion)
			return nil
		},
	}
}
