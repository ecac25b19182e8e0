package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/amo-inventory/internal/analytics"
	"github.com/Veraticus/amo-inventory/internal/api"
	"github.com/Veraticus/amo-inventory/internal/cli"
	"github.com/Veraticus/amo-inventory/internal/common"
	"github.com/Veraticus/amo-inventory/internal/export"
	"github.com/Veraticus/amo-inventory/internal/forecast"
	"github.com/Veraticus/amo-inventory/internal/model"
)

func forecastCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Predict demand per SKU",
		Long: `Request demand predictions from the backend's per-SKU models. Results are cached
locally for cache.ttl, so repeated runs with the same inputs are free.`,
	}

	cmd.AddCommand(forecastPredictCmd(opts))
	cmd.AddCommand(forecastPortfolioCmd(opts))
	cmd.AddCommand(forecastRiskCmd(opts))

	return cmd
}

// forecastInputs are the shared prediction conditions.
type forecastInputs struct {
	date    string
	temp    float64
	rain    float64
	holiday bool
}

func (f *forecastInputs) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.date, "date", "", "forecast date, YYYY-MM-DD (default: a week from today)")
	flags.Float64Var(&f.temp, "temp", forecast.DefaultTemp, "expected temperature in °C")
	flags.Float64Var(&f.rain, "rain", forecast.DefaultRain, "expected rainfall in mm")
	flags.BoolVar(&f.holiday, "holiday", false, "the date is a public holiday")
}

func (f *forecastInputs) params(skuID string, now time.Time) model.ForecastParams {
	p := forecast.DefaultParams(skuID, now)
	if f.date != "" {
		p.Date = f.date
	}
	p.Temp = f.temp
	p.Rain = f.rain
	if f.holiday {
		p.Holiday = 1
	}
	return p
}

// portfolioFlags configures a batch over the top products.
type portfolioFlags struct {
	inputs      forecastInputs
	size        int
	concurrency int
	noProgress  bool
}

func (f *portfolioFlags) register(cmd *cobra.Command) {
	f.inputs.register(cmd)
	cmd.Flags().IntVar(&f.size, "size", 0, "number of top-stocked products to forecast (default: forecast.portfolio_size)")
	cmd.Flags().IntVar(&f.concurrency, "concurrency", 0, "parallel prediction requests (default: forecast.concurrency)")
	cmd.Flags().BoolVar(&f.noProgress, "no-progress", false, "hide the progress bar")
}

// buildPortfolio forecasts the top products with a progress bar, stopping
// early on Ctrl-C. Cached predictions survive an interruption.
func (a *app) buildPortfolio(ctx context.Context, cmd *cobra.Command, f *portfolioFlags) ([]model.PortfolioRow, error) {
	products, err := a.loadProducts(ctx, api.InventoryFilters{}, false)
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, nil
	}

	popts := forecast.PortfolioOptions{
		Params:      f.inputs.params("", a.now()),
		Size:        pick(f.size, a.cfg.Forecast.PortfolioSize),
		Concurrency: pick(f.concurrency, a.cfg.Forecast.Concurrency),
	}

	handler := cli.NewInterruptHandler(cmd.ErrOrStderr(), "Portfolio forecast",
		"Finished predictions are cached; rerun to pick up where you left off.")
	ctx, cancel := handler.HandleInterrupts(ctx)
	defer cancel()

	var progress *cli.Progress
	if !f.noProgress {
		total := min(popts.Size, len(products))
		progress = cli.NewProgress(cmd.ErrOrStderr(), total, "Forecasting demand...")
		popts.Progress = progress.Update
	}

	rows := a.forecaster.BuildPortfolio(ctx, a.skus, products, popts)
	if progress != nil && !handler.WasInterrupted() {
		progress.Finish()
	}
	if handler.WasInterrupted() {
		return rows, context.Canceled
	}
	return rows, nil
}

func pick(flag, configured int) int {
	if flag > 0 {
		return flag
	}
	return configured
}

func forecastPredictCmd(opts *rootOptions) *cobra.Command {
	var (
		inputs forecastInputs
		skuID  string
		output string
	)

	cmd := &cobra.Command{
		Use:   "predict [product name]",
		Short: "Predict demand for one product or SKU",
		Long: `Predict demand for a product looked up by name, or for a raw SKU with --sku.
The product's SKU is derived from its name when it has none.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if skuID == "" && len(args) == 0 {
				return common.NewUserError("give a product name or --sku", common.ErrValidation)
			}

			return opts.withApp(ctx, func(a *app) error {
				var product *model.Product
				if skuID == "" {
					p, err := a.findProduct(ctx, args[0])
					if err != nil {
						return err
					}
					product = p
					skuID = a.skus.Resolve(ctx, p.ID.String(), p.Name, p.SKUID)
				}

				params := inputs.params(skuID, a.now())
				resp, err := a.forecaster.PredictDemand(ctx, params)
				out := cmd.OutOrStdout()
				if errors.Is(err, common.ErrModelNotFound) {
					return printLine(out, cli.FormatWarning(fmt.Sprintf("%s for %s", forecast.NoModelMessage, skuID)))
				}
				if err != nil {
					return err
				}

				body := fmt.Sprintf("SKU:       %s\nDate:      %s\nPredicted: %.1f units", skuID, params.Date, resp.Prediction)
				if product != nil {
					status := model.ClassifyStock(resp.Prediction, float64(product.Quantity))
					body += fmt.Sprintf("\nIn stock:  %d\nStatus:    %s", product.Quantity, cli.StockStatusLabel(status))
				}
				title := skuID
				if product != nil {
					title = product.Name
				}
				if err := printLine(out, cli.RenderBox(cli.ChartIcon+" "+title, body)); err != nil {
					return err
				}

				if output == "" || product == nil {
					return nil
				}
				if output == "auto" {
					output = export.SingleForecastFilename(product.Name, params.Date)
				}
				return writeCSV(cmd, output, export.SingleForecast(*product, params.Date, resp.Prediction))
			})
		},
	}

	inputs.register(cmd)
	cmd.Flags().StringVar(&skuID, "sku", "", "forecast this SKU directly")
	cmd.Flags().StringVarP(&output, "output", "o", "", "also export the forecast to this CSV file (auto names it)")
	return cmd
}

// findProduct looks a product up by case-insensitive name.
func (a *app) findProduct(ctx context.Context, name string) (*model.Product, error) {
	products, err := a.loadProducts(ctx, api.InventoryFilters{Search: name}, false)
	if err != nil {
		return nil, err
	}
	for i := range products {
		if strings.EqualFold(products[i].Name, name) {
			return &products[i], nil
		}
	}
	return nil, common.NewUserError(fmt.Sprintf("no product named %q", name), common.ErrNotFound)
}

func forecastPortfolioCmd(opts *rootOptions) *cobra.Command {
	var (
		f      portfolioFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "portfolio",
		Short: "Forecast the most-stocked products and compare against stock",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return opts.withApp(ctx, func(a *app) error {
				rows, err := a.buildPortfolio(ctx, cmd, &f)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(rows) == 0 {
					return printLine(out, cli.FormatInfo("No products to forecast."))
				}

				if err := portfolioTable(rows).Print(out); err != nil {
					return err
				}
				if output == "" {
					return nil
				}
				if output == "auto" {
					output = export.PortfolioFilename(a.now())
				}
				return writeCSV(cmd, output, export.Portfolio(rows))
			})
		},
	}

	f.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "also export the portfolio to this CSV file (auto names it)")
	return cmd
}

func portfolioTable(rows []model.PortfolioRow) cli.Table {
	t := cli.Table{Headers: []string{"Product", "Category", "SKU", "Predicted", "Stock", "Gap", "Status"}}
	for _, r := range rows {
		predicted, gap, status := fmt.Sprintf("%.1f", r.PredictedDemand), fmt.Sprintf("%+.1f", r.Gap), cli.StockStatusLabel(r.Status)
		if r.Error != "" {
			predicted, gap, status = "-", "-", cli.SubtleStyle.Render(r.Error)
		}
		t.Rows = append(t.Rows, []string{
			r.Product.Name,
			r.Product.CategoryOrDefault(),
			r.SKUID,
			predicted,
			fmt.Sprintf("%.0f", r.CurrentStock),
			gap,
			status,
		})
	}
	return t
}

func forecastRiskCmd(opts *rootOptions) *cobra.Command {
	var f portfolioFlags

	cmd := &cobra.Command{
		Use:   "risk",
		Short: "Rank products by stockout risk",
		Long:  `Forecast the top products and rank them by predicted demand minus stock, suggesting reorder quantities.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return opts.withApp(ctx, func(a *app) error {
				rows, err := a.buildPortfolio(ctx, cmd, &f)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				risks := analytics.StockoutRisks(rows)
				if len(risks) == 0 {
					return printLine(out, cli.FormatInfo("No forecasts available to rank."))
				}

				t := cli.Table{Headers: []string{"Product", "Predicted", "Stock", "Risk", "Reorder", "Status"}}
				for _, r := range risks {
					t.Rows = append(t.Rows, []string{
						r.Product.Name,
						fmt.Sprintf("%.1f", r.PredictedDemand),
						fmt.Sprintf("%.0f", r.CurrentStock),
						fmt.Sprintf("%+.1f", r.RiskScore),
						fmt.Sprintf("%.0f", r.ReorderQty),
						cli.StockStatusLabel(r.Status),
					})
				}
				if err := t.Print(out); err != nil {
					return err
				}
				return printLine(out, "\n"+cli.FormatInfo(analytics.StockoutInsight(risks)))
			})
		},
	}

	f.register(cmd)
	return cmd
}
