package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"spesometro/internal/store"
)

func categoriesCmd(open opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "categories",
		Aliases: []string{"cat"},
		Short:   "Manage expense categories",
		Long:    `List, add, update, and delete the categories expenses are filed under.`,
	}

	cmd.AddCommand(listCategoriesCmd(open))
	cmd.AddCommand(addCategoryCmd(open))
	cmd.AddCommand(updateCategoryCmd(open))
	cmd.AddCommand(deleteCategoryCmd(open))

	return cmd
}

func listCategoriesCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all categories",
		RunE: run(open, func(cmd *cobra.Command, a *app, _ []string) error {
			categories := a.store.Categories()
			if len(categories) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render("No categories found. Use 'spesometro categories add' to create one."))
				return nil
			}

			t := newTable(cmd.OutOrStdout(), "ID", "Name", "Color", "Expenses")
			for _, c := range categories {
				t.row(c.ID, c.Icon+" "+c.Name, c.Color, fmt.Sprint(a.store.ExpenseCountByCategory(c.ID)))
			}
			return t.flush()
		}),
	}
}

func addCategoryCmd(open opener) *cobra.Command {
	var color, icon string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a new category",
		Args:  cobra.ExactArgs(1),
		RunE: run(open, func(cmd *cobra.Command, a *app, args []string) error {
			c, err := a.ledger.AddCategory(cmd.Context(), store.NewCategory{Name: args[0], Color: color, Icon: icon})
			if err != nil {
				return fmt.Errorf("failed to create category: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("✓ Created category %s %q (ID: %s)", c.Icon, c.Name, c.ID)))
			return nil
		}),
	}

	cmd.Flags().StringVar(&color, "color", "#8B8C89", "display color")
	cmd.Flags().StringVar(&icon, "icon", "", "display icon (default 📦)")
	return cmd
}

func updateCategoryCmd(open opener) *cobra.Command {
	var (
		name, color, icon string
		budget            float64
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a category's name, color, icon or budget",
		Args:  cobra.ExactArgs(1),
		RunE: run(open, func(cmd *cobra.Command, a *app, args []string) error {
			var upd store.CategoryUpdate
			flags := cmd.Flags()
			if flags.Changed("name") {
				upd.Name = &name
			}
			if flags.Changed("color") {
				upd.Color = &color
			}
			if flags.Changed("icon") {
				upd.Icon = &icon
			}
			if flags.Changed("budget") {
				upd.Budget = &budget
			}
			if upd == (store.CategoryUpdate{}) {
				return fmt.Errorf("nothing to update: pass --name, --color, --icon or --budget")
			}

			c, err := a.ledger.UpdateCategory(cmd.Context(), args[0], upd)
			if err != nil {
				return fmt.Errorf("failed to update category: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("✓ Updated category %s %q", c.Icon, c.Name)))
			return nil
		}),
	}

	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVar(&color, "color", "", "new color")
	cmd.Flags().StringVar(&icon, "icon", "", "new icon")
	cmd.Flags().Float64Var(&budget, "budget", 0, "monthly budget")
	return cmd
}

func deleteCategoryCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a category",
		Long: `Delete a category. Expenses filed under it are kept and show up as
"Other" from then on.`,
		Args: cobra.ExactArgs(1),
		RunE: run(open, func(cmd *cobra.Command, a *app, args []string) error {
			id := args[0]
			n := a.store.ExpenseCountByCategory(id)
			if err := a.ledger.DeleteCategory(cmd.Context(), id); err != nil {
				return fmt.Errorf("failed to delete category: %w", err)
			}
			msg := fmt.Sprintf("✓ Deleted category %s", id)
			if n > 0 {
				msg += fmt.Sprintf(" (%d expenses now filed under Other)", n)
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(msg))
			return nil
		}),
	}
}
