package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"refsync/internal/syncer"
)

func newSyncCommand(ctx *commandContext) *cobra.Command {
	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Synchronize resolved components into the mapping tables",
	}

	syncCmd.AddCommand(newSyncRunCommand(ctx))

	return syncCmd
}

func newSyncRunCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "run <feed.json>",
		Short: "Apply a resolution feed as one atomic run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			components, err := loadFeed(args[0])
			if err != nil {
				return err
			}
			sync, err := ctx.synchronizer()
			if err != nil {
				return err
			}
			report, runErr := sync.Run(cmd.Context(), components)
			if jsonOutput {
				if err := writeJSON(cmd, report); err != nil {
					return err
				}
				return runErr
			}
			printReport(cmd, report)
			return runErr
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON output")

	return cmd
}

// loadFeed reads a JSON array of resolved components.
func loadFeed(path string) ([]syncer.ResolvedComponent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read feed %q: %w", path, err)
	}
	var components []syncer.ResolvedComponent
	if err := json.Unmarshal(data, &components); err != nil {
		return nil, fmt.Errorf("parse feed %q: %w", path, err)
	}
	return components, nil
}

func printReport(cmd *cobra.Command, report syncer.Report) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s: %s\n", report.RunID, report.Status)
	if report.BackupDir != "" {
		fmt.Fprintf(out, "Backup set: %s\n", report.BackupDir)
	}
	if report.Failure != "" {
		fmt.Fprintf(out, "Failure: %s\n", report.Failure)
	}
	if len(report.Restored) > 0 {
		fmt.Fprintf(out, "Restored tables: %d\n", len(report.Restored))
	}
	if len(report.Categories) == 0 {
		return
	}

	categories := make([]string, 0, len(report.Categories))
	for category := range report.Categories {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	rows := make([][]string, 0, len(categories))
	for _, category := range categories {
		counts := report.Categories[category]
		rows = append(rows, []string{
			category,
			fmt.Sprintf("%d", counts.Merged),
			fmt.Sprintf("%d", counts.Skipped),
			fmt.Sprintf("%d", counts.Rejected),
		})
	}
	writeTable(out,
		[]string{"Category", "Merged", "Skipped", "Rejected"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight})
}
