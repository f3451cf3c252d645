package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"refsync/internal/tracker"
)

func newMissingCommand(ctx *commandContext) *cobra.Command {
	missingCmd := &cobra.Command{
		Use:   "missing",
		Short: "Inspect the missing-entry ledger",
	}

	missingCmd.AddCommand(newMissingListCommand(ctx))
	missingCmd.AddCommand(newMissingStatsCommand(ctx))
	missingCmd.AddCommand(newMissingRemoveCommand(ctx))

	return missingCmd
}

func newMissingListCommand(ctx *commandContext) *cobra.Command {
	var categoryFilter string
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List missing entries ordered by frequency",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLedger(func(ledger *tracker.Ledger) error {
				summary, err := ledger.Summary(cmd.Context())
				if err != nil {
					return err
				}
				entries := flattenSummary(summary, categoryFilter, limit)
				if jsonOutput {
					return writeJSON(cmd, entries)
				}
				if len(entries) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No missing entries recorded.")
					return nil
				}
				rows := make([][]string, 0, len(entries))
				for _, entry := range entries {
					rows = append(rows, []string{
						entry.Category,
						entry.RawValue,
						fmt.Sprintf("%d", entry.Frequency),
						entry.LastSeen.Format("2006-01-02 15:04:05"),
					})
				}
				writeTable(cmd.OutOrStdout(),
					[]string{"Category", "Value", "Seen", "Last Seen"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft})
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&categoryFilter, "category", "", "Only show entries for this category")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum entries to show (0 = all)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON output")

	return cmd
}

// flattenSummary turns the per-category summary into one display list,
// preserving the ledger's category/frequency ordering.
func flattenSummary(summary map[string][]tracker.Entry, categoryFilter string, limit int) []tracker.Entry {
	filter := strings.ToLower(strings.TrimSpace(categoryFilter))
	categories := make([]string, 0, len(summary))
	for category := range summary {
		if filter != "" && category != filter {
			continue
		}
		categories = append(categories, category)
	}
	sort.Strings(categories)

	entries := make([]tracker.Entry, 0)
	for _, category := range categories {
		entries = append(entries, summary[category]...)
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}

func newMissingStatsCommand(ctx *commandContext) *cobra.Command {
	var topN int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show ledger aggregate statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLedger(func(ledger *tracker.Ledger) error {
				stats, err := ledger.Stats(cmd.Context(), topN)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, stats)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Categories:      %d\n", stats.Categories)
				fmt.Fprintf(out, "Distinct values: %d\n", stats.DistinctValues)
				fmt.Fprintf(out, "Total misses:    %d\n", stats.TotalFrequency)
				if len(stats.Top) == 0 {
					return nil
				}
				fmt.Fprintln(out)
				rows := make([][]string, 0, len(stats.Top))
				for _, entry := range stats.Top {
					rows = append(rows, []string{
						entry.Category,
						entry.RawValue,
						fmt.Sprintf("%d", entry.Frequency),
					})
				}
				writeTable(out,
					[]string{"Category", "Value", "Seen"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight})
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&topN, "top", 10, "Number of most frequent entries to include")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON output")

	return cmd
}

func newMissingRemoveCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove <category> <value>",
		Short: "Remove one entry from the ledger",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLedger(func(ledger *tracker.Ledger) error {
				if err := ledger.Remove(cmd.Context(), args[0], args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %q from category %q\n", args[1], args[0])
				return nil
			})
		},
	}

	return cmd
}
