package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/majorjayant/siteconfig/internal/app/maintenance"
	"github.com/majorjayant/siteconfig/internal/store"
	"github.com/majorjayant/siteconfig/pkg/logger"
)

func newConfigCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or change the stored site configuration",
	}
	cmd.AddCommand(
		newConfigGetCmd(opts),
		newConfigSetCmd(opts),
		newConfigPruneCmd(opts),
	)
	return cmd
}

type configSnapshot struct {
	Origin     string            `json:"origin"`
	Warning    string            `json:"warning,omitempty"`
	SiteConfig map[string]string `json:"site_config"`
}

func newConfigGetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get",
		Short: "Print the effective configuration as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStack(cmd.Context(), opts, func(ctx context.Context, stack *runtimeStack) error {
				res := stack.Service.GetConfig(ctx)
				out := configSnapshot{Origin: string(res.Origin), SiteConfig: res.Config}
				if res.Err != nil {
					out.Warning = res.Err.Error()
				}

				data, err := json.MarshalIndent(out, "", "  ")
				if err != nil {
					return fmt.Errorf("marshaling JSON: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			})
		},
	}
}

func newConfigSetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set key=value [key=value...]",
		Short: "Merge values into the stored configuration",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			partial, err := parseAssignments(args)
			if err != nil {
				return err
			}
			return withStack(cmd.Context(), opts, func(ctx context.Context, stack *runtimeStack) error {
				res, err := stack.Service.PutConfig(ctx, partial)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "updated %d key(s): %s\n", len(res.Keys), strings.Join(res.Keys, ", "))
				return nil
			})
		},
	}
}

func newConfigPruneCmd(opts *rootOptions) *cobra.Command {
	var retain int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete old configuration snapshots from the history store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStack(cmd.Context(), opts, func(ctx context.Context, stack *runtimeStack) error {
				if stack.Store.Kind() != store.KindHistory {
					return fmt.Errorf("prune requires the %s store, configured store is %s", store.KindHistory, stack.Store.Kind())
				}
				keep := stack.Config.Store.History.Retain
				if cmd.Flags().Changed("retain") {
					keep = retain
				}
				if keep <= 0 {
					return fmt.Errorf("retain must be positive")
				}

				cleaner := maintenance.NewCleaner(store.NewHistoryStore(stack.DB), maintenance.WithRetain(keep))
				removed, err := cleaner.RunOnce(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed %d snapshot(s), kept at most %d\n", removed, keep)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&retain, "retain", 0, "Snapshots to keep (defaults to store.history.retain)")
	return cmd
}

func withStack(ctx context.Context, opts *rootOptions, fn func(context.Context, *runtimeStack) error) error {
	cfg, generated, err := prepareConfig(opts.configPath)
	if err != nil {
		return err
	}
	defer logger.Sync() // best effort

	log := logger.WithModule("cli")
	stack, err := bootstrapRuntime(ctx, cfg, generated, bootstrapOptions{}, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := stack.Shutdown(context.Background()); err != nil {
			log.Warn("runtime shutdown", zap.Error(err))
		}
	}()

	return fn(ctx, stack)
}

// parseAssignments turns key=value arguments into a partial configuration.
func parseAssignments(args []string) (map[string]any, error) {
	partial := make(map[string]any, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("expected key=value, got %q", arg)
		}
		partial[key] = value
	}
	return partial, nil
}
