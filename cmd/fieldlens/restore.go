package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/specimenworks/fieldlens/internal/model"
)

func restoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restore <image-file>",
		Short: "Generate a restored rendition of a derelict building photo",
		Args:  cobra.ExactArgs(1),
		RunE:  runRestore,
	}

	cmd.Flags().StringSlice("option", nil, "enable a profile option (repeatable), e.g. --option period_accuracy")

	return cmd
}

func runRestore(cmd *cobra.Command, args []string) error {
	app, err := newAppContext()
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := cmd.Context()

	if err := app.store.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	orchestrator, err := app.orchestratorFor("building")
	if err != nil {
		return err
	}

	imageB64, err := readImageBase64(args[0])
	if err != nil {
		return err
	}

	options, err := optionsFromFlags(cmd, model.BuildingProfile)
	if err != nil {
		return err
	}

	result, err := orchestrator.Restore(ctx, imageB64, options)
	if err != nil {
		return err
	}

	printResult(result)
	return nil
}
