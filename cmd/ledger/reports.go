package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"budgetly/internal/analytics"
	"budgetly/internal/core"
)

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "stats",
		Aliases: []string{"dashboard"},
		Short:   "Show totals, category breakdown and budget status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			dash, err := current.runtime.Service.Dashboard(cmd.Context(), current.owner, core.ExpenseFilter{}, time.Now())
			if err != nil {
				return fmt.Errorf("failed to build dashboard: %w", err)
			}
			printStats(dash.Stats)
			fmt.Println()
			return printBudgets(dash.Budgets)
		},
	}
}

func insightsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "insights",
		Short: "Show spending observations for the current month",
		RunE: func(cmd *cobra.Command, _ []string) error {
			dash, err := current.runtime.Service.Dashboard(cmd.Context(), current.owner, core.ExpenseFilter{}, time.Now())
			if err != nil {
				return fmt.Errorf("failed to build dashboard: %w", err)
			}
			if len(dash.Insights) == 0 {
				fmt.Println("No insights yet.")
				return nil
			}
			for _, in := range dash.Insights {
				fmt.Printf("[%s] %s %s\n", in.Severity, in.Template, formatValues(in.Values))
			}
			return nil
		},
	}
}

func printStats(s analytics.Stats) {
	fmt.Printf("Total spending:    %s\n", s.TotalSpending)
	fmt.Printf("This month:        %s\n", s.MonthlySpending)
	fmt.Printf("Expenses:          %d\n", s.ExpenseCount)
	fmt.Printf("Average expense:   %s\n", s.AverageExpense)
	if s.TopCategory != nil {
		fmt.Printf("Top category:      %s\n", *s.TopCategory)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\nCATEGORY\tTOTAL")
	for _, c := range core.Categories() {
		if amt := s.CategoryBreakdown[c]; amt.Cents > 0 {
			fmt.Fprintf(w, "%s\t%s\n", c, amt)
		}
	}
	_ = w.Flush()
}

func printBudgets(r analytics.BudgetReport) error {
	if r.Overall == nil && len(r.Categories) == 0 {
		fmt.Println("No budgets set.")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BUDGET\tSPENT\tLIMIT\tUSED\tSTATUS")
	row := func(name string, res analytics.BudgetResult) {
		ev := res.Evaluation
		fmt.Fprintf(w, "%s\t%s\t%s\t%.0f%%\t%s\n", name, ev.Spend, ev.Limit, ev.Percentage, ev.Status)
	}
	if r.Overall != nil {
		row("Overall", *r.Overall)
	}
	for _, res := range r.Categories {
		row(string(res.Budget.Category), res)
	}
	return w.Flush()
}

func formatValues(values map[string]any) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, values[k]))
	}
	return strings.Join(parts, " ")
}

func categoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List categories and their subcategories",
		RunE: func(_ *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			for _, c := range core.Categories() {
				subs := core.Subcategories(c)
				names := make([]string, len(subs))
				for i, s := range subs {
					names[i] = string(s)
				}
				required := ""
				if core.RequiresSubcategory(c) {
					required = " (required)"
				}
				fmt.Fprintf(w, "%s%s\t%s\n", c, required, strings.Join(names, ", "))
			}
			return w.Flush()
		},
	}
}
