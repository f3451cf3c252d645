package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"refsync/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigShowCommand(ctx))

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			}

			dir := filepath.Dir(target)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create config directory %q: %w", dir, err)
			}
			if err := config.WriteSample(target); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Edit the file to point mapping_dir at your mapping tables before resolving.")
			return nil
		},
	}

	cmd.Flags().StringVar(&targetPath, "path", "", "Destination path for the sample file")

	return cmd
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "mapping_dir:    %s\n", cfg.Paths.MappingDir)
			fmt.Fprintf(out, "data_dir:       %s\n", cfg.Paths.DataDir)
			fmt.Fprintf(out, "backup_dir:     %s\n", cfg.Paths.BackupDir)
			fmt.Fprintf(out, "log_dir:        %s\n", cfg.Paths.LogDir)
			fmt.Fprintf(out, "cache_enabled:  %t\n", cfg.Resolver.CacheEnabled)
			fmt.Fprintf(out, "watch_mappings: %t\n", cfg.Resolver.WatchMappings)
			fmt.Fprintf(out, "categories:     %s\n", strings.Join(cfg.Resolver.Categories, ", "))
			fmt.Fprintf(out, "log_format:     %s\n", cfg.Logging.Format)
			fmt.Fprintf(out, "log_level:      %s\n", cfg.Logging.Level)
			return nil
		},
	}

	return cmd
}
