package main

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/amo-inventory/internal/analytics"
	"github.com/Veraticus/amo-inventory/internal/api"
	"github.com/Veraticus/amo-inventory/internal/cli"
	"github.com/Veraticus/amo-inventory/internal/export"
	"github.com/Veraticus/amo-inventory/internal/model"
	"github.com/Veraticus/amo-inventory/internal/storage"
)

// productsSnapshot is the last successful inventory listing, kept for offline use.
type productsSnapshot struct {
	SavedAt  time.Time       `json:"saved_at"`
	Products []model.Product `json:"products"`
}

func inventoryCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "inventory",
		Aliases: []string{"inv", "products"},
		Short:   "Manage inventory items",
		Long:    `List, add, update, delete and export products.`,
	}

	cmd.AddCommand(inventoryListCmd(opts))
	cmd.AddCommand(inventoryAddCmd(opts))
	cmd.AddCommand(inventoryUpdateCmd(opts))
	cmd.AddCommand(inventoryDeleteCmd(opts))
	cmd.AddCommand(inventoryExportCmd(opts))

	return cmd
}

// inventoryFlags holds the filter flags shared by list and export.
type inventoryFlags struct {
	filters  api.InventoryFilters
	minQty   int
	maxQty   int
	minPrice float64
	maxPrice float64
	offline  bool
}

func (f *inventoryFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.filters.Search, "search", "", "match name or description")
	flags.StringVar(&f.filters.Category, "category", "", "only this category")
	flags.IntVar(&f.minQty, "min-qty", 0, "minimum quantity")
	flags.IntVar(&f.maxQty, "max-qty", 0, "maximum quantity")
	flags.Float64Var(&f.minPrice, "min-price", 0, "minimum unit price")
	flags.Float64Var(&f.maxPrice, "max-price", 0, "maximum unit price")
	flags.StringVar(&f.filters.ExpiryFrom, "expiry-from", "", "earliest expiry date (YYYY-MM-DD)")
	flags.StringVar(&f.filters.ExpiryTo, "expiry-to", "", "latest expiry date (YYYY-MM-DD)")
	flags.BoolVar(&f.filters.IncludeDeleted, "include-deleted", false, "include soft-deleted items")
	flags.BoolVar(&f.offline, "offline", false, "use the last saved listing instead of the backend")
}

// resolve copies the numeric flags the user actually set into the filters.
func (f *inventoryFlags) resolve(cmd *cobra.Command) api.InventoryFilters {
	filters := f.filters
	flags := cmd.Flags()
	if flags.Changed("min-qty") {
		filters.MinQty = &f.minQty
	}
	if flags.Changed("max-qty") {
		filters.MaxQty = &f.maxQty
	}
	if flags.Changed("min-price") {
		filters.MinPrice = &f.minPrice
	}
	if flags.Changed("max-price") {
		filters.MaxPrice = &f.maxPrice
	}
	return filters
}

// loadProducts lists inventory from the backend, refreshing the offline
// snapshot on success, or reads the snapshot when offline is set.
func (a *app) loadProducts(ctx context.Context, filters api.InventoryFilters, offline bool) ([]model.Product, error) {
	if offline {
		var snap productsSnapshot
		if err := storage.GetJSON(ctx, a.store, storage.KeyProducts, &snap); err != nil {
			if storage.IsNotFound(err) {
				return nil, fmt.Errorf("no saved inventory; run `amo inventory list` online first: %w", err)
			}
			return nil, err
		}
		slog.Debug("Using saved inventory", "saved_at", snap.SavedAt, "count", len(snap.Products))
		return snap.Products, nil
	}

	products, err := a.client.ListInventory(ctx, filters)
	if err != nil {
		return nil, err
	}
	snap := productsSnapshot{SavedAt: a.now().UTC(), Products: products}
	if err := storage.SetJSON(ctx, a.store, storage.KeyProducts, snap); err != nil {
		a.metrics.StorageError("products", "persist")
		slog.Debug("Failed to save inventory snapshot", "error", err)
	}
	return products, nil
}

func inventoryListCmd(opts *rootOptions) *cobra.Command {
	var f inventoryFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List inventory items",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return opts.withApp(ctx, func(a *app) error {
				products, err := a.loadProducts(ctx, f.resolve(cmd), f.offline)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(products) == 0 {
					return printLine(out, cli.FormatInfo("No products found. Use 'amo inventory add' to create one."))
				}

				if err := productsTable(products).Print(out); err != nil {
					return err
				}
				counts := analytics.ProductStockCounts(products)
				return printLine(out, cli.SubtleStyle.Render(fmt.Sprintf(
					"\n%d products, %d available, %d out of stock, %s units worth %s",
					counts.Total, counts.Available, counts.OutOfStock,
					analytics.FormatCount(analytics.TotalUnits(products)),
					analytics.FormatCurrency(analytics.InventoryValueSnapshot(products, a.now()).Value))))
			})
		},
	}

	f.register(cmd)
	return cmd
}

func productsTable(products []model.Product) cli.Table {
	t := cli.Table{Headers: []string{"ID", "Name", "Category", "Price", "Qty", "Expiry"}}
	for _, p := range products {
		qty := strconv.Itoa(p.Quantity)
		if p.Quantity <= 0 {
			qty = cli.ErrorStyle.Render(qty)
		}
		t.Rows = append(t.Rows, []string{
			p.ID.String(),
			p.Name,
			p.CategoryOrDefault(),
			fmt.Sprintf("$%.2f", p.Price),
			qty,
			p.Expiry,
		})
	}
	return t
}

// productFlags holds the editable fields of a product.
type productFlags struct {
	name        string
	category    string
	expiry      string
	description string
	price       float64
	quantity    int
}

func (f *productFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.name, "name", "", "product name")
	flags.StringVar(&f.category, "category", "", "category name")
	flags.Float64Var(&f.price, "price", 0, "unit price")
	flags.IntVar(&f.quantity, "quantity", 0, "units in stock")
	flags.StringVar(&f.expiry, "expiry", "", "expiry date (YYYY-MM-DD)")
	flags.StringVar(&f.description, "description", "", "free-text description")
}

// input includes only the fields whose flags were set, so updates stay partial.
func (f *productFlags) input(cmd *cobra.Command) model.ProductInput {
	var in model.ProductInput
	flags := cmd.Flags()
	if flags.Changed("name") {
		in.Name = &f.name
	}
	if flags.Changed("category") {
		in.Category = &f.category
	}
	if flags.Changed("price") {
		in.Price = &f.price
	}
	if flags.Changed("quantity") {
		in.Quantity = &f.quantity
	}
	if flags.Changed("expiry") {
		in.Expiry = &f.expiry
	}
	if flags.Changed("description") {
		in.Description = &f.description
	}
	return in
}

func inventoryAddCmd(opts *rootOptions) *cobra.Command {
	var f productFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an inventory item",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return opts.withApp(ctx, func(a *app) error {
				resp, err := a.client.CreateInventoryItem(ctx, f.input(cmd))
				if err != nil {
					return err
				}
				return printLine(cmd.OutOrStdout(), cli.FormatSuccess(
					fmt.Sprintf("Added %s (id %s)", resp.Item.Name, resp.Item.ID)))
			})
		},
	}

	f.register(cmd)
	return cmd
}

func inventoryUpdateCmd(opts *rootOptions) *cobra.Command {
	var f productFlags

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update an inventory item",
		Long:  `Update the fields given as flags; the rest are left unchanged.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return opts.withApp(ctx, func(a *app) error {
				resp, err := a.client.UpdateInventoryItem(ctx, args[0], f.input(cmd))
				if err != nil {
					return err
				}
				return printLine(cmd.OutOrStdout(), cli.FormatSuccess("Updated "+resp.Item.Name))
			})
		},
	}

	f.register(cmd)
	return cmd
}

func inventoryDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an inventory item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return opts.withApp(ctx, func(a *app) error {
				resp, err := a.client.DeleteInventoryItem(ctx, args[0])
				if err != nil {
					return err
				}
				return printLine(cmd.OutOrStdout(), cli.FormatSuccess(messageOr(resp.Message, "Deleted item "+args[0])))
			})
		},
	}
}

func inventoryExportCmd(opts *rootOptions) *cobra.Command {
	var (
		f      inventoryFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export inventory items to CSV",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return opts.withApp(ctx, func(a *app) error {
				products, err := a.loadProducts(ctx, f.resolve(cmd), f.offline)
				if err != nil {
					return err
				}
				return writeCSV(cmd, output, export.Products(products))
			})
		},
	}

	f.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "products.csv", "CSV file to write, - for stdout")
	return cmd
}

// writeCSV writes t to path, or to stdout when path is "-".
func writeCSV(cmd *cobra.Command, path string, t export.Table) error {
	if path == "-" {
		if err := export.Write(cmd.OutOrStdout(), t); err != nil {
			return err
		}
		return printLine(cmd.OutOrStdout(), "")
	}
	if err := export.WriteFile(path, t); err != nil {
		return err
	}
	return printLine(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Wrote %d rows to %s", len(t.Rows), path)))
}

func messageOr(msg, fallback string) string {
	if msg != "" {
		return msg
	}
	return fallback
}
