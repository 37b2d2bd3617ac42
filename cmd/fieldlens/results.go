package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/specimenworks/fieldlens/internal/model"
	"github.com/specimenworks/fieldlens/internal/service"
)

func resultsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "results",
		Short: "List and inspect stored results",
		RunE:  runResultsList,
	}

	cmd.Flags().String("kind", "", "filter by kind (classify, restore)")
	cmd.Flags().Int("limit", 20, "maximum number of results to list")

	cmd.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Show one stored result",
		Args:  cobra.ExactArgs(1),
		RunE:  runResultsShow,
	})

	return cmd
}

func runResultsList(cmd *cobra.Command, _ []string) error {
	app, err := newAppContext()
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := cmd.Context()

	if err := app.store.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	kind, _ := cmd.Flags().GetString("kind")
	limit, _ := cmd.Flags().GetInt("limit")

	results, err := app.store.ListResults(ctx, service.ResultFilter{
		Kind:  model.Kind(kind),
		Limit: limit,
	})
	if err != nil {
		return err
	}

	if len(results) == 0 {
		fmt.Println("No results stored.")
		return nil
	}

	for _, result := range results {
		fmt.Printf("%s  %-8s  %-10s  %s\n",
			result.CreatedAt.Format("2006-01-02 15:04"),
			result.Kind,
			result.Confidence,
			result.Category)
		fmt.Printf("  %s\n", result.ID)
	}

	return nil
}

func runResultsShow(cmd *cobra.Command, args []string) error {
	app, err := newAppContext()
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := cmd.Context()

	if err := app.store.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	result, err := app.store.GetResult(ctx, args[0])
	if err != nil {
		return err
	}

	printResult(result)
	return nil
}
