package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"refsync/internal/mapping"
	"refsync/internal/resolver"
)

func newResolveCommand(ctx *commandContext) *cobra.Command {
	var contextPairs []string
	var jsonOutput bool
	var batch bool

	cmd := &cobra.Command{
		Use:   "resolve <category> <value>",
		Short: "Resolve a component string to its canonical reference id",
		Args: func(cmd *cobra.Command, args []string) error {
			if batch {
				if len(args) != 0 {
					return fmt.Errorf("--batch reads category/value pairs from stdin and takes no arguments")
				}
				return nil
			}
			return cobra.ExactArgs(2)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			missContext, err := parseContextPairs(contextPairs)
			if err != nil {
				return err
			}
			if batch {
				return runResolveBatch(ctx, cmd, missContext, jsonOutput)
			}
			return ctx.withResolver(func(r *resolver.Resolver) error {
				result, err := r.Resolve(cmd.Context(), resolver.Request{
					Category: args[0],
					RawValue: args[1],
					Context:  missContext,
				})
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, result)
				}
				out := cmd.OutOrStdout()
				if !result.Found {
					fmt.Fprintf(out, "No match for %q in category %q (recorded as missing)\n", args[1], args[0])
					return nil
				}
				fmt.Fprintln(out, result.ReferenceID)
				fmt.Fprintf(out, "  matched key: %s\n", result.MatchedKey)
				fmt.Fprintf(out, "  strategy:    %s\n", result.Strategy)
				return nil
			})
		},
	}

	cmd.Flags().StringArrayVar(&contextPairs, "context", nil, "Diagnostic context as key=value (repeatable)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON output")
	cmd.Flags().BoolVar(&batch, "batch", false, "Read tab-separated category/value pairs from stdin")

	return cmd
}

// runResolveBatch resolves tab-separated "category<TAB>value" lines from
// stdin, one result line per input line. When watch_mappings is enabled the
// mapping directory is watched so external table edits take effect mid-run.
func runResolveBatch(ctx *commandContext, cmd *cobra.Command, missContext map[string]string, jsonOutput bool) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	return ctx.withResolver(func(r *resolver.Resolver) error {
		if cfg.Resolver.WatchMappings {
			store, err := ctx.mappingStore()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			watcher, err := mapping.NewWatcher(store, logger)
			if err != nil {
				return err
			}
			go watcher.Run(cmd.Context())
			defer watcher.Close()
		}

		out := cmd.OutOrStdout()
		scanner := bufio.NewScanner(cmd.InOrStdin())
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			category, value, ok := strings.Cut(line, "\t")
			if !ok {
				return fmt.Errorf("malformed batch line %q (expected category<TAB>value)", line)
			}
			result, err := r.Resolve(cmd.Context(), resolver.Request{
				Category: category,
				RawValue: value,
				Context:  missContext,
			})
			if err != nil {
				return err
			}
			if jsonOutput {
				if err := writeJSON(cmd, result); err != nil {
					return err
				}
				continue
			}
			if result.Found {
				fmt.Fprintf(out, "%s\t%s\t%s\t%s\n", category, value, result.ReferenceID, result.Strategy)
			} else {
				fmt.Fprintf(out, "%s\t%s\t\tmiss\n", category, value)
			}
		}
		return scanner.Err()
	})
}

func parseContextPairs(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	parsed := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --context value %q (expected key=value)", pair)
		}
		parsed[key] = strings.TrimSpace(value)
	}
	return parsed, nil
}
