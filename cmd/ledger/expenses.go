package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"budgetly/internal/analytics"
	"budgetly/internal/core"
)

// classificationFlags holds the category flags shared by add, update and
// template commands.
type classificationFlags struct {
	category          string
	subcategory       string
	customCategory    string
	customSubcategory string
}

func (f *classificationFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.category, "category", "c", "", "expense category")
	cmd.Flags().StringVarP(&f.subcategory, "subcategory", "s", "", "subcategory where the category has one")
	cmd.Flags().StringVar(&f.customCategory, "custom-category", "", "free text for the Other category")
	cmd.Flags().StringVar(&f.customSubcategory, "custom-subcategory", "", "free text for an \"other\" subcategory")
}

func (f *classificationFlags) classification() (core.Classification, error) {
	cat, err := core.ParseCategory(f.category)
	if err != nil {
		return core.Classification{}, err
	}
	return core.Classification{
		Category:          cat,
		Subcategory:       core.Subcategory(strings.TrimSpace(f.subcategory)),
		CustomCategory:    f.customCategory,
		CustomSubcategory: f.customSubcategory,
	}, nil
}

func (f *classificationFlags) changed(cmd *cobra.Command) bool {
	for _, name := range []string{"category", "subcategory", "custom-category", "custom-subcategory"} {
		if cmd.Flags().Changed(name) {
			return true
		}
	}
	return false
}

func parseDateFlag(s string, now time.Time) (core.Date, error) {
	if s == "" || s == "today" {
		return core.DateOf(now), nil
	}
	return core.ParseDate(s)
}

func listCmd() *cobra.Command {
	var (
		category string
		from     string
		to       string
		search   string
		month    string
		grouped  bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List expenses, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter := core.ExpenseFilter{SearchTerm: search}
			if category != "" && category != string(core.CategoryAll) {
				c, err := core.ParseCategory(category)
				if err != nil {
					return err
				}
				filter.Category = c
			}
			if from != "" {
				d, err := core.ParseDate(from)
				if err != nil {
					return fmt.Errorf("invalid --from: %w", err)
				}
				filter.StartDate = &d
			}
			if to != "" {
				d, err := core.ParseDate(to)
				if err != nil {
					return fmt.Errorf("invalid --to: %w", err)
				}
				filter.EndDate = &d
			}
			mv, err := core.ParseMonthView(month)
			if err != nil {
				return err
			}
			filter.MonthView = mv

			now := time.Now()
			dash, err := current.runtime.Service.Dashboard(cmd.Context(), current.owner, filter, now)
			if err != nil {
				return fmt.Errorf("failed to load expenses: %w", err)
			}
			if grouped {
				return printGrouped(dash.Grouped)
			}
			return printExpenses(dash.Filtered)
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "only this category")
	cmd.Flags().StringVar(&from, "from", "", "first date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "last date (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&search, "search", "q", "", "match description, category or subcategory")
	cmd.Flags().StringVar(&month, "month", "", "all, current or YYYY-MM")
	cmd.Flags().BoolVar(&grouped, "grouped", false, "group by week and month")
	return cmd
}

func addCmd() *cobra.Command {
	var (
		cls       classificationFlags
		amount    string
		desc      string
		date      string
		frequency string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record an expense",
		Example: `  ledger add -c Food -a 12.50 -d "Lunch"
  ledger add -c Bills -s Rent -a 1200 -d "Flat" --repeat monthly`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := cls.classification()
			if err != nil {
				return err
			}
			money, err := core.NewMoney(amount)
			if err != nil {
				return &core.ValidationError{Field: "amount", Err: err}
			}
			d, err := parseDateFlag(date, time.Now())
			if err != nil {
				return err
			}
			e := core.Expense{Classification: c, Amount: money, Description: desc, Date: d}

			if frequency != "" {
				freq := core.Frequency(strings.ToLower(frequency))
				created, rt, err := current.runtime.Service.CreateRecurringExpense(cmd.Context(), current.owner, e, freq)
				if err != nil {
					return err
				}
				fmt.Printf("Added %s (%s) repeating %s as template %s\n", created.ID, created.Amount, rt.Frequency, rt.ID)
				return nil
			}

			created, err := current.runtime.Service.CreateExpense(cmd.Context(), current.owner, e)
			if err != nil {
				return err
			}
			fmt.Printf("Added %s (%s)\n", created.ID, created.Amount)
			return nil
		},
	}
	cls.register(cmd)
	cmd.Flags().StringVarP(&amount, "amount", "a", "", "amount, e.g. 12.50")
	cmd.Flags().StringVarP(&desc, "description", "d", "", "description")
	cmd.Flags().StringVar(&date, "date", "today", "date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&frequency, "repeat", "", "also create a recurring template (daily, weekly, monthly, yearly)")
	_ = cmd.MarkFlagRequired("category")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("description")
	return cmd
}

func quickAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quick-add [expense-id]",
		Short: "Repeat a recent expense today",
		Long: `Without an argument, lists the most recent distinct expenses to pick from.
With an expense id, records a copy of it dated today.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now()
			if len(args) == 0 {
				expenses, err := current.runtime.Service.ListExpenses(cmd.Context(), current.owner)
				if err != nil {
					return err
				}
				return printExpenses(analytics.RecentUnique(expenses, 5))
			}
			created, err := current.runtime.Service.QuickAdd(cmd.Context(), current.owner, args[0], now)
			if err != nil {
				return err
			}
			fmt.Printf("Added %s (%s) %s\n", created.ID, created.Amount, created.Description)
			return nil
		},
	}
	return cmd
}

func updateCmd() *cobra.Command {
	var (
		cls    classificationFlags
		amount string
		desc   string
		date   string
	)
	cmd := &cobra.Command{
		Use:   "update <expense-id>",
		Short: "Change fields of an expense",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch core.ExpensePatch
			if cls.changed(cmd) {
				existing, err := current.runtime.Service.GetExpense(cmd.Context(), current.owner, args[0])
				if err != nil {
					return err
				}
				if !cmd.Flags().Changed("category") {
					cls.category = string(existing.Category)
				}
				c, err := cls.classification()
				if err != nil {
					return err
				}
				patch.Classification = &c
			}
			if cmd.Flags().Changed("amount") {
				m, err := core.NewMoney(amount)
				if err != nil {
					return &core.ValidationError{Field: "amount", Err: err}
				}
				patch.Amount = &m
			}
			if cmd.Flags().Changed("description") {
				patch.Description = &desc
			}
			if cmd.Flags().Changed("date") {
				d, err := core.ParseDate(date)
				if err != nil {
					return err
				}
				patch.Date = &d
			}

			updated, err := current.runtime.Service.UpdateExpense(cmd.Context(), current.owner, args[0], patch)
			if err != nil {
				return err
			}
			return printExpenses([]core.Expense{updated})
		},
	}
	cls.register(cmd)
	cmd.Flags().StringVarP(&amount, "amount", "a", "", "new amount")
	cmd.Flags().StringVarP(&desc, "description", "d", "", "new description")
	cmd.Flags().StringVar(&date, "date", "", "new date (YYYY-MM-DD)")
	return cmd
}

func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <expense-id>",
		Short: "Delete an expense; 'ledger restore' brings it back",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snapshot, err := current.runtime.Service.DeleteExpense(cmd.Context(), current.owner, args[0])
			if err != nil {
				return err
			}
			if err := saveUndo(undoPath(current.cfg), current.owner, snapshot); err != nil {
				current.logger.Warn("Failed to save undo snapshot", "error", err)
			}
			fmt.Printf("Deleted %s (%s) %s\n", snapshot.ID, snapshot.Amount, snapshot.Description)
			return nil
		},
	}
}

func restoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore",
		Short: "Restore the most recently deleted expense",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := undoPath(current.cfg)
			snapshot, err := loadUndo(path, current.owner)
			if err != nil {
				return err
			}
			restored, err := current.runtime.Service.RestoreExpense(cmd.Context(), current.owner, snapshot)
			if err != nil {
				return err
			}
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				current.logger.Warn("Failed to clear undo snapshot", "error", err)
			}
			fmt.Printf("Restored %s as %s\n", snapshot.Description, restored.ID)
			return nil
		},
	}
}

func printExpenses(expenses []core.Expense) error {
	if len(expenses) == 0 {
		fmt.Println("No expenses found.")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tCATEGORY\tAMOUNT\tDESCRIPTION")
	for _, e := range expenses {
		label := e.Label()
		if e.RecurringID != "" {
			label += " *"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", e.ID, e.Date, label, e.Amount, e.Description)
	}
	return w.Flush()
}

func printGrouped(view analytics.GroupedView) error {
	groups := view.Groups()
	if len(groups) == 0 {
		fmt.Println("No expenses found.")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, g := range groups {
		fmt.Fprintf(w, "%s\t\t%s\t(%d)\n", g.Label, g.Total, g.Count)
		for _, cg := range g.Categories {
			fmt.Fprintf(w, "  %s\t\t%s\t(%d)\n", cg.Category, cg.Total, len(cg.Expenses))
		}
	}
	return w.Flush()
}
