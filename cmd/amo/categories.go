package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/amo-inventory/internal/cli"
	"github.com/Veraticus/amo-inventory/internal/export"
	"github.com/Veraticus/amo-inventory/internal/model"
)

func categoriesCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Manage product categories",
		Long:  `List, add, update, delete and export the categories products are grouped by.`,
	}

	cmd.AddCommand(listCategoriesCmd(opts))
	cmd.AddCommand(addCategoryCmd(opts))
	cmd.AddCommand(updateCategoryCmd(opts))
	cmd.AddCommand(deleteCategoryCmd(opts))
	cmd.AddCommand(exportCategoriesCmd(opts))

	return cmd
}

func listCategoriesCmd(opts *rootOptions) *cobra.Command {
	var includeDeleted bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List categories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return opts.withApp(ctx, func(a *app) error {
				categories, err := a.client.ListCategories(ctx, includeDeleted)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(categories) == 0 {
					return printLine(out, cli.FormatInfo("No categories found. Use 'amo categories add' to create one."))
				}

				t := cli.Table{Headers: []string{"ID", "Name", "Status", "Description"}}
				for _, c := range categories {
					desc := c.Description
					if desc == "" {
						desc = cli.SubtleStyle.Render("(no description)")
					}
					t.Rows = append(t.Rows, []string{c.ID.String(), c.Name, categoryStatus(c.Status), desc})
				}
				if err := t.Print(out); err != nil {
					return err
				}
				return printLine(out, cli.SubtleStyle.Render(
					"\nAssignable: "+strings.Join(model.ActiveCategoryNames(categories), ", ")))
			})
		},
	}

	cmd.Flags().BoolVar(&includeDeleted, "include-deleted", false, "include deleted categories")
	return cmd
}

func categoryStatus(s model.CategoryStatus) string {
	switch s {
	case model.CategoryActive:
		return cli.SuccessStyle.Render(string(s))
	case model.CategoryDeleted:
		return cli.ErrorStyle.Render(string(s))
	default:
		return cli.SubtleStyle.Render(string(s))
	}
}

// categoryFlags holds the editable fields of a category.
type categoryFlags struct {
	name        string
	description string
	status      string
}

func (f *categoryFlags) input(cmd *cobra.Command) model.CategoryInput {
	var in model.CategoryInput
	flags := cmd.Flags()
	if flags.Changed("name") {
		in.Name = &f.name
	}
	if flags.Changed("description") {
		in.Description = &f.description
	}
	if flags.Changed("status") {
		status := model.CategoryStatus(f.status)
		in.Status = &status
	}
	return in
}

func addCategoryCmd(opts *rootOptions) *cobra.Command {
	var f categoryFlags

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a new category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			in := f.input(cmd)
			in.Name = &args[0]
			status := model.CategoryStatus(f.status)
			in.Status = &status
			return opts.withApp(ctx, func(a *app) error {
				created, err := a.client.CreateCategory(ctx, in)
				if err != nil {
					return err
				}
				return printLine(cmd.OutOrStdout(), cli.FormatSuccess(
					fmt.Sprintf("Created category %q (id %s)", created.Name, created.ID)))
			})
		},
	}

	cmd.Flags().StringVar(&f.description, "description", "", "category description")
	cmd.Flags().StringVar(&f.status, "status", string(model.CategoryActive), "active or inactive")
	return cmd
}

func updateCategoryCmd(opts *rootOptions) *cobra.Command {
	var f categoryFlags

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return opts.withApp(ctx, func(a *app) error {
				updated, err := a.client.UpdateCategory(ctx, args[0], f.input(cmd))
				if err != nil {
					return err
				}
				return printLine(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Updated category %q", updated.Name)))
			})
		},
	}

	cmd.Flags().StringVar(&f.name, "name", "", "new name")
	cmd.Flags().StringVar(&f.description, "description", "", "new description")
	cmd.Flags().StringVar(&f.status, "status", "", "active, inactive or deleted")
	return cmd
}

func deleteCategoryCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return opts.withApp(ctx, func(a *app) error {
				resp, err := a.client.DeleteCategory(ctx, args[0])
				if err != nil {
					return err
				}
				return printLine(cmd.OutOrStdout(), cli.FormatSuccess(messageOr(resp.Message, "Deleted category "+args[0])))
			})
		},
	}
}

func exportCategoriesCmd(opts *rootOptions) *cobra.Command {
	var (
		output         string
		includeDeleted bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export categories to CSV",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return opts.withApp(ctx, func(a *app) error {
				categories, err := a.client.ListCategories(ctx, includeDeleted)
				if err != nil {
					return err
				}
				return writeCSV(cmd, output, export.Categories(categories))
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "categories.csv", "CSV file to write, - for stdout")
	cmd.Flags().BoolVar(&includeDeleted, "include-deleted", false, "include deleted categories")
	return cmd
}
