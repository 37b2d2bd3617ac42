package main

import (
	"encoding/base64"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/specimenworks/fieldlens/internal/common"
	"github.com/specimenworks/fieldlens/internal/model"
)

func classifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify <image-file>",
		Short: "Classify an insect photo from the command line",
		Args:  cobra.ExactArgs(1),
		RunE:  runClassify,
	}

	cmd.Flags().StringSlice("option", nil, "enable a profile option (repeatable), e.g. --option taxonomy")

	return cmd
}

func runClassify(cmd *cobra.Command, args []string) error {
	app, err := newAppContext()
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := cmd.Context()

	if err := app.store.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	orchestrator, err := app.orchestratorFor("insect")
	if err != nil {
		return err
	}

	imageB64, err := readImageBase64(args[0])
	if err != nil {
		return err
	}

	options, err := optionsFromFlags(cmd, model.InsectProfile)
	if err != nil {
		return err
	}

	result, err := orchestrator.Classify(ctx, imageB64, options)
	if err != nil {
		return err
	}

	printResult(result)
	return nil
}

func readImageBase64(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read image %s: %w", path, err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// optionsFromFlags collects the repeatable --option flag, rejecting keys the
// profile does not declare.
func optionsFromFlags(cmd *cobra.Command, profile model.Profile) (map[string]bool, error) {
	enabled, err := cmd.Flags().GetStringSlice("option")
	if err != nil {
		return nil, err
	}

	declared := make(map[string]bool, len(profile.Options))
	for _, key := range profile.OptionKeys() {
		declared[key] = true
	}

	options := make(map[string]bool, len(enabled))
	for _, key := range enabled {
		if !declared[key] {
			return nil, common.NewUserErrorWithHint(
				fmt.Sprintf("unknown option %q for profile %s", key, profile.Name),
				"valid options: "+strings.Join(profile.OptionKeys(), ", "),
				nil)
		}
		options[key] = true
	}
	return options, nil
}

func printResult(result *model.Result) {
	fmt.Printf("ID:          %s\n", result.ID)
	fmt.Printf("Category:    %s\n", result.Category)
	if result.Confidence != "" {
		fmt.Printf("Confidence:  %s\n", result.Confidence)
	}
	fmt.Printf("Description: %s\n", result.Description)

	extras := make([]string, 0, len(result.Details))
	for key := range result.Details {
		if key == "Main Category" || key == "Confidence" || key == "Description" {
			continue
		}
		extras = append(extras, key)
	}
	sort.Strings(extras)
	for _, key := range extras {
		fmt.Printf("%s: %s\n", key, result.Details[key])
	}

	if result.RestoredImagePath != "" {
		fmt.Printf("Restored:    %s\n", result.RestoredImagePath)
	}
}
