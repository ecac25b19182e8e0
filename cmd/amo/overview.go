package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/amo-inventory/internal/analytics"
	"github.com/Veraticus/amo-inventory/internal/api"
	"github.com/Veraticus/amo-inventory/internal/cli"
)

func overviewCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "overview",
		Short: "Summarise sales, stock and revenue",
		Long: fmt.Sprintf(`Dashboard metrics computed locally from the inventory and transaction lists.
Gross profit assumes a flat %.0f%% margin on sales revenue.`, analytics.AssumedGrossMargin*100),
	}

	cmd.AddCommand(overviewKPIsCmd(opts))
	cmd.AddCommand(overviewMonthlyCmd(opts))
	cmd.AddCommand(overviewCategoriesCmd(opts))
	cmd.AddCommand(overviewSalesCmd(opts))

	return cmd
}

func rangeKeysUsage() string {
	keys := make([]string, len(analytics.RangeKeys))
	for i, k := range analytics.RangeKeys {
		keys[i] = string(k)
	}
	return strings.Join(keys, ", ")
}

func overviewKPIsCmd(opts *rootOptions) *cobra.Command {
	var rangeKey string

	cmd := &cobra.Command{
		Use:   "kpis",
		Short: "Show the KPI cards for a date range",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			key, err := analytics.ParseRangeKey(rangeKey)
			if err != nil {
				return err
			}

			return opts.withApp(ctx, func(a *app) error {
				products, err := a.loadProducts(ctx, api.InventoryFilters{}, false)
				if err != nil {
					return err
				}
				txs, err := a.client.ListTransactions(ctx)
				if err != nil {
					return err
				}

				r := analytics.RangeFromKey(key, a.now())
				set := analytics.ComputeKPIs(products, txs, r)
				out := cmd.OutOrStdout()
				header := fmt.Sprintf("%s to %s", r.Start.Format("Jan 2, 2006"), r.End.Format("Jan 2, 2006"))
				if err := printLine(out, cli.FormatTitle("Overview "+header)); err != nil {
					return err
				}
				if !set.HasData {
					if err := printLine(out, cli.FormatInfo("No transactions in this range.")); err != nil {
						return err
					}
				}
				return printLine(out, cli.RenderKPICards(set.Cards, 3))
			})
		},
	}

	cmd.Flags().StringVarP(&rangeKey, "range", "r", string(analytics.Range1M), "date range: "+rangeKeysUsage())
	return cmd
}

func overviewMonthlyCmd(opts *rootOptions) *cobra.Command {
	var (
		rangeKey string
		year     int
	)

	cmd := &cobra.Command{
		Use:   "monthly",
		Short: "Show sales revenue and units moved per month",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			key, err := analytics.ParseRangeKey(rangeKey)
			if err != nil {
				return err
			}

			return opts.withApp(ctx, func(a *app) error {
				txs, err := a.client.ListTransactions(ctx)
				if err != nil {
					return err
				}
				bars := analytics.BuildMonthlySeries(txs, analytics.RangeFromKey(key, a.now()))

				t := cli.Table{Headers: []string{"Month", "Year", "Revenue", "Units"}}
				for _, b := range bars {
					if year != 0 && b.Year != year {
						continue
					}
					t.Rows = append(t.Rows, []string{
						b.Month,
						fmt.Sprint(b.Year),
						analytics.FormatCurrency(b.GrossSalesRevenue),
						analytics.FormatCount(b.InventoryMoved),
					})
				}
				out := cmd.OutOrStdout()
				if err := t.Print(out); err != nil {
					return err
				}
				years := analytics.ExtractYears(bars)
				if len(years) > 1 {
					return printLine(out, cli.SubtleStyle.Render(fmt.Sprintf("\nYears in range: %v (filter with --year)", years)))
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&rangeKey, "range", "r", string(analytics.Range1Y), "date range: "+rangeKeysUsage())
	cmd.Flags().IntVar(&year, "year", 0, "only show this year")
	return cmd
}

func overviewCategoriesCmd(opts *rootOptions) *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Show units in stock per category",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return opts.withApp(ctx, func(a *app) error {
				products, err := a.loadProducts(ctx, api.InventoryFilters{}, offline)
				if err != nil {
					return err
				}
				slices := analytics.CategoryDistribution(products)
				return printLine(cmd.OutOrStdout(), sliceTable(slices).Render())
			})
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "use the last saved inventory listing")
	return cmd
}

// sliceTable renders chart slices with a coloured share bar.
func sliceTable(slices []analytics.Slice) cli.Table {
	total := 0.0
	for _, s := range slices {
		total += s.Value
	}

	t := cli.Table{Headers: []string{"Name", "Units", "Share", ""}}
	for _, s := range slices {
		share := 0.0
		if total > 0 {
			share = s.Value / total
		}
		bar := cli.Colored(strings.Repeat("█", max(1, int(share*30))), s.Color)
		t.Rows = append(t.Rows, []string{
			s.Name,
			fmt.Sprintf("%.0f", s.Value),
			fmt.Sprintf("%.1f%%", share*100),
			bar,
		})
	}
	return t
}

func overviewSalesCmd(opts *rootOptions) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "sales",
		Short: "Show units sold per day",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return opts.withApp(ctx, func(a *app) error {
				txs, err := a.client.ListTransactions(ctx)
				if err != nil {
					return err
				}
				points := analytics.DailySales(txs, days, a.now())
				return printLine(cmd.OutOrStdout(), dailySalesReport(points))
			})
		},
	}

	cmd.Flags().IntVarP(&days, "days", "d", analytics.DefaultSalesWindow, "trailing window in days")
	return cmd
}

func dailySalesReport(points []analytics.DailyPoint) string {
	values := make([]float64, len(points))
	total := 0.0
	t := cli.Table{Headers: []string{"Date", "Units"}}
	for i, p := range points {
		values[i] = p.Value
		total += p.Value
		if p.Value > 0 {
			t.Rows = append(t.Rows, []string{p.Label, fmt.Sprintf("%.0f", p.Value)})
		}
	}

	summary := fmt.Sprintf("%s units sold over %d days\n%s",
		analytics.FormatCount(int(total)), len(points), cli.Sparkline(values))
	if len(t.Rows) == 0 {
		return summary
	}
	return summary + "\n\n" + t.Render()
}
