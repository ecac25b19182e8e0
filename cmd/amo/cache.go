package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Veraticus/amo-inventory/internal/cli"
	"github.com/Veraticus/amo-inventory/internal/storage"
)

func cacheCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage local state",
		Long:  `Inspect the forecast cache and SKU map kept in the local store.`,
	}

	cmd.AddCommand(cacheStatsCmd(opts))
	cmd.AddCommand(cachePruneCmd(opts))
	cmd.AddCommand(cacheClearCmd(opts))
	cmd.AddCommand(cacheSKUsCmd(opts))
	cmd.AddCommand(cacheKeysCmd(opts))

	return cmd
}

func cacheStatsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show forecast cache and SKU map sizes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return opts.withApp(ctx, func(a *app) error {
				body := fmt.Sprintf("Backend:        %s\nLive forecasts: %d\nTTL:            %s\nKnown SKUs:     %d",
					a.cfg.Storage.Backend,
					a.cache.Len(ctx),
					a.cfg.Cache.TTL,
					len(a.skus.Mapping(ctx)))
				if errs := a.cache.Stats().StorageErrors; errs > 0 {
					body += fmt.Sprintf("\nStorage errors: %d", errs)
				}
				return printLine(cmd.OutOrStdout(), cli.RenderBox("Local cache", body))
			})
		},
	}
}

func cachePruneCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Drop expired forecasts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return opts.withApp(ctx, func(a *app) error {
				removed := a.cache.Prune(ctx)
				return printLine(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Removed %d expired forecasts", removed)))
			})
		},
	}
}

func cacheClearCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Drop every cached forecast",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return opts.withApp(ctx, func(a *app) error {
				a.cache.Clear(ctx)
				return printLine(cmd.OutOrStdout(), cli.FormatSuccess("Forecast cache cleared"))
			})
		},
	}
}

func cacheSKUsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "skus",
		Short: "List SKUs derived for products without one",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return opts.withApp(ctx, func(a *app) error {
				mapping := a.skus.Mapping(ctx)
				out := cmd.OutOrStdout()
				if len(mapping) == 0 {
					return printLine(out, cli.FormatInfo("No SKUs derived yet."))
				}

				ids := make([]string, 0, len(mapping))
				for id := range mapping {
					ids = append(ids, id)
				}
				sort.Strings(ids)

				t := cli.Table{Headers: []string{"Product ID", "SKU"}}
				for _, id := range ids {
					t.Rows = append(t.Rows, []string{id, mapping[id]})
				}
				return t.Print(out)
			})
		},
	}
}

func cacheKeysCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List the entries held in the local store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return opts.withApp(ctx, func(a *app) error {
				keys, err := storage.Keys(ctx, a.store)
				if err != nil {
					return fmt.Errorf("failed to list local state: %w", err)
				}
				out := cmd.OutOrStdout()
				if len(keys) == 0 {
					return printLine(out, cli.FormatInfo("Local store is empty."))
				}

				t := cli.Table{Headers: []string{"Key", "Bytes"}}
				for _, k := range keys {
					size := "?"
					if v, err := a.store.Get(ctx, k); err == nil {
						size = strconv.Itoa(len(v))
					}
					t.Rows = append(t.Rows, []string{k, size})
				}
				return t.Print(out)
			})
		},
	}
}
