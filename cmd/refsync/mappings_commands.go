package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newMappingsCommand(ctx *commandContext) *cobra.Command {
	mappingsCmd := &cobra.Command{
		Use:   "mappings",
		Short: "Inspect the mapping tables",
	}

	mappingsCmd.AddCommand(newMappingsListCommand(ctx))
	mappingsCmd.AddCommand(newMappingsShowCommand(ctx))

	return mappingsCmd
}

func newMappingsListCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List mapping tables and their sizes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.mappingStore()
			if err != nil {
				return err
			}
			categories, err := store.Categories()
			if err != nil {
				return err
			}

			type tableInfo struct {
				Category string `json:"category"`
				Entries  int    `json:"entries"`
			}
			infos := make([]tableInfo, 0, len(categories))
			for _, category := range categories {
				table, err := store.Load(category)
				if err != nil {
					return err
				}
				infos = append(infos, tableInfo{Category: category, Entries: len(table.Entries)})
			}

			if jsonOutput {
				return writeJSON(cmd, infos)
			}
			if len(infos) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No mapping tables found.")
				return nil
			}
			rows := make([][]string, 0, len(infos))
			for _, info := range infos {
				rows = append(rows, []string{info.Category, fmt.Sprintf("%d", info.Entries)})
			}
			writeTable(cmd.OutOrStdout(),
				[]string{"Category", "Entries"},
				rows,
				[]columnAlignment{alignLeft, alignRight})
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON output")

	return cmd
}

func newMappingsShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <category>",
		Short: "Show every entry of one mapping table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.mappingStore()
			if err != nil {
				return err
			}
			table, err := store.Load(args[0])
			if err != nil {
				return err
			}
			entries := table.SortedEntries()

			if jsonOutput {
				return writeJSON(cmd, entries)
			}
			if len(entries) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "Mapping table %q is empty.\n", args[0])
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				rows = append(rows, []string{entry.Key, entry.ReferenceID})
			}
			writeTable(cmd.OutOrStdout(),
				[]string{"Key", "Reference ID"},
				rows,
				[]columnAlignment{alignLeft, alignLeft})
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON output")

	return cmd
}
