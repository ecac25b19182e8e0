package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Veraticus/amo-inventory/internal/analytics"
	"github.com/Veraticus/amo-inventory/internal/cli"
	"github.com/Veraticus/amo-inventory/internal/export"
	"github.com/Veraticus/amo-inventory/internal/model"
)

func transactionsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "transactions",
		Aliases: []string{"tx"},
		Short:   "Record and review stock movements",
		Long:    `List, record and export sales and purchases.`,
	}

	cmd.AddCommand(transactionsListCmd(opts))
	cmd.AddCommand(transactionsAddCmd(opts))
	cmd.AddCommand(transactionsTotalsCmd(opts))
	cmd.AddCommand(transactionsExportCmd(opts))

	return cmd
}

func transactionsListCmd(opts *rootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return opts.withApp(ctx, func(a *app) error {
				txs, err := a.client.ListTransactions(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(txs) == 0 {
					return printLine(out, cli.FormatInfo("No transactions recorded yet."))
				}

				sorted := newestFirst(txs)
				if limit > 0 && len(sorted) > limit {
					sorted = sorted[:limit]
				}
				return transactionsTable(sorted).Print(out)
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "show at most this many transactions")
	return cmd
}

func newestFirst(txs []model.Transaction) []model.Transaction {
	sorted := make([]model.Transaction, len(txs))
	copy(sorted, txs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time.After(sorted[j].Time.Time)
	})
	return sorted
}

func transactionsTable(txs []model.Transaction) cli.Table {
	t := cli.Table{Headers: []string{"ID", "Time", "Product", "Type", "Qty", "Total"}}
	for _, tx := range txs {
		total := money(tx.TotalPrice)
		if tx.IsSale() {
			total = cli.SuccessStyle.Render(total)
		} else {
			total = cli.ErrorStyle.Render(total)
		}
		t.Rows = append(t.Rows, []string{
			tx.ID.String(),
			tx.Time.Local().Format("2006-01-02 15:04"),
			tx.ProductName,
			string(tx.Type),
			strconv.Itoa(tx.Quantity),
			total,
		})
	}
	return t
}

func transactionsAddCmd(opts *rootOptions) *cobra.Command {
	var (
		in     model.TransactionInput
		txType string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a sale or purchase",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			in.Type = model.TransactionType(txType)
			return opts.withApp(ctx, func(a *app) error {
				resp, err := a.client.CreateTransaction(ctx, in)
				if err != nil {
					return err
				}
				return printLine(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf(
					"Recorded %s of %d × %s, total %s",
					in.Type, in.Quantity, in.ProductName, money(resp.TotalPrice))))
			})
		},
	}

	cmd.Flags().StringVar(&in.ProductName, "product", "", "product name")
	cmd.Flags().StringVar(&txType, "type", string(model.TransactionSale), "sale or purchase")
	cmd.Flags().IntVarP(&in.Quantity, "quantity", "q", 0, "units moved")
	return cmd
}

func transactionsTotalsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "totals",
		Short: "Show revenue, expenses and net across all transactions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return opts.withApp(ctx, func(a *app) error {
				txs, err := a.client.ListTransactions(ctx)
				if err != nil {
					return err
				}
				totals := analytics.TransactionTotals(txs)
				body := fmt.Sprintf("Revenue:  %s\nExpenses: %s\nNet:      %s\nCount:    %s",
					money(totals.Revenue),
					money(totals.Expenses),
					money(totals.Net),
					analytics.FormatCount(totals.Count))
				return printLine(cmd.OutOrStdout(), cli.RenderBox(cli.ChartIcon+" Transactions", body))
			})
		},
	}
}

func transactionsExportCmd(opts *rootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export transactions to CSV",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return opts.withApp(ctx, func(a *app) error {
				txs, err := a.client.ListTransactions(ctx)
				if err != nil {
					return err
				}
				return writeCSV(cmd, output, export.Transactions(txs))
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "transactions.csv", "CSV file to write, - for stdout")
	return cmd
}

// money formats an exact signed dollar amount.
func money(v float64) string {
	if v < 0 {
		return fmt.Sprintf("-$%.2f", -v)
	}
	return fmt.Sprintf("$%.2f", v)
}
