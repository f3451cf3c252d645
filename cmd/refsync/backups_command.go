package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"refsync/internal/syncer"
)

func newBackupsCommand(ctx *commandContext) *cobra.Command {
	backupsCmd := &cobra.Command{
		Use:   "backups",
		Short: "Inspect synchronization backup sets",
	}

	backupsCmd.AddCommand(newBackupsListCommand(ctx))

	return backupsCmd
}

func newBackupsListCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List backup sets, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			sets, err := syncer.ListBackups(cfg.Paths.BackupDir)
			if err != nil {
				return err
			}

			if jsonOutput {
				return writeJSON(cmd, sets)
			}
			if len(sets) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No backup sets found.")
				return nil
			}
			rows := make([][]string, 0, len(sets))
			for _, set := range sets {
				rows = append(rows, []string{
					set.Timestamp.Format("2006-01-02 15:04:05"),
					fmt.Sprintf("%d", len(set.Categories)),
					strings.Join(set.Categories, ", "),
				})
			}
			writeTable(cmd.OutOrStdout(),
				[]string{"Created", "Tables", "Categories"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignLeft})
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON output")

	return cmd
}
