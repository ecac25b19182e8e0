package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Veraticus/amo-inventory/internal/analytics"
	"github.com/Veraticus/amo-inventory/internal/api"
	"github.com/Veraticus/amo-inventory/internal/cli"
	"github.com/Veraticus/amo-inventory/internal/export"
)

func expiryCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "expiry",
		Short: "Track products approaching expiry",
		Long: fmt.Sprintf(`Classify products by days left before expiry: expired, critical (≤ %d days),
warning (≤ %d days) or safe.`, analytics.CriticalDays, analytics.WarningDays),
	}

	cmd.AddCommand(expiryRadarCmd(opts))
	cmd.AddCommand(expiryLocalCmd(opts))
	cmd.AddCommand(expiryExportCmd(opts))

	return cmd
}

func expiryRadarCmd(opts *rootOptions) *cobra.Command {
	var (
		days     int
		category string
	)

	cmd := &cobra.Command{
		Use:   "radar",
		Short: "Ask the backend which products expire soon",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return opts.withApp(ctx, func(a *app) error {
				resp, err := a.client.ExpiryRadar(ctx, days, category)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				c := resp.Counts
				if err := printLine(out, cli.FormatTitle(fmt.Sprintf(
					"Expiry radar: %d total, %d expired, %d expiring within %d days, %d safe",
					c.Total, c.Expired, c.ExpiringSoon, days, c.Safe))); err != nil {
					return err
				}

				t := cli.Table{Headers: []string{"Name", "Category", "Qty", "Expiry", "Days", "Status"}}
				groups := [][]api.ExpiryItem{resp.Expired, resp.ExpiringSoon, resp.Safe}
				for _, group := range groups {
					for _, it := range group {
						t.Rows = append(t.Rows, []string{
							it.Name,
							it.CategoryOrDefault(),
							strconv.Itoa(it.Quantity),
							it.Expiry,
							strconv.Itoa(it.DaysToExpiry),
							expiryStatusLabel(analytics.ExpiryStatusFor(it.DaysToExpiry)),
						})
					}
				}
				if len(t.Rows) == 0 {
					return printLine(out, cli.FormatInfo("No products with an expiry date."))
				}
				return t.Print(out)
			})
		},
	}

	cmd.Flags().IntVarP(&days, "days", "d", analytics.WarningDays, "window for expiring soon")
	cmd.Flags().StringVar(&category, "category", "", "only this category")
	return cmd
}

func expiryLocalCmd(opts *rootOptions) *cobra.Command {
	var (
		within  int
		offline bool
	)

	cmd := &cobra.Command{
		Use:   "local",
		Short: "Classify expiry locally from the inventory list",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return opts.withApp(ctx, func(a *app) error {
				products, err := a.loadProducts(ctx, api.InventoryFilters{}, offline)
				if err != nil {
					return err
				}
				now := a.now()
				items := analytics.EnrichExpiry(products, now)
				counts := analytics.CountExpiry(products, now)

				out := cmd.OutOrStdout()
				if err := printLine(out, sliceTable(analytics.ExpirySlices(counts)).Render()); err != nil {
					return err
				}
				if err := printLine(out, "\n"+cli.FormatInfo(analytics.ExpiryInsight(counts))); err != nil {
					return err
				}
				if expired := analytics.CountByStatus(items, analytics.ExpiryExpired); expired > 0 {
					if err := printLine(out, cli.FormatWarning(fmt.Sprintf("Expired products still in stock: %d", expired))); err != nil {
						return err
					}
				}
				if err := printLine(out, ""); err != nil {
					return err
				}

				t := cli.Table{Headers: []string{"Name", "Category", "Qty", "Expiry", "Days", "Status"}}
				for _, it := range items {
					if within > 0 && it.DaysLeft > within {
						continue
					}
					t.Rows = append(t.Rows, []string{
						it.Name,
						it.CategoryOrDefault(),
						strconv.Itoa(it.Quantity),
						it.Expiry,
						strconv.Itoa(it.DaysLeft),
						expiryStatusLabel(it.Status),
					})
				}
				if len(t.Rows) == 0 {
					return nil
				}
				return t.Print(out)
			})
		},
	}

	cmd.Flags().IntVarP(&within, "within", "w", 0, "only list products expiring within this many days")
	cmd.Flags().BoolVar(&offline, "offline", false, "use the last saved inventory listing")
	return cmd
}

func expiryExportCmd(opts *rootOptions) *cobra.Command {
	var (
		output  string
		offline bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export products with an expiry date to CSV, soonest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return opts.withApp(ctx, func(a *app) error {
				products, err := a.loadProducts(ctx, api.InventoryFilters{}, offline)
				if err != nil {
					return err
				}
				return writeCSV(cmd, output, export.ExpiryRadar(analytics.EnrichExpiry(products, a.now())))
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "expiry.csv", "CSV file to write, - for stdout")
	cmd.Flags().BoolVar(&offline, "offline", false, "use the last saved inventory listing")
	return cmd
}

// expiryStatusLabel colours an expiry status with its chart colour.
func expiryStatusLabel(s analytics.ExpiryStatus) string {
	return cli.Colored(s.Label(), s.Color())
}
