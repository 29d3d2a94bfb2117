package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"budgetly/internal/core"
)

const overallBudget = "overall"

func budgetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budgets",
		Short: "Manage monthly budgets",
		RunE: func(cmd *cobra.Command, _ []string) error {
			budgets, err := current.runtime.Service.ListBudgets(cmd.Context(), current.owner)
			if err != nil {
				return err
			}
			if len(budgets) == 0 {
				fmt.Println("No budgets set.")
				return nil
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "BUDGET\tLIMIT\tPERIOD")
			for _, b := range budgets {
				name := string(b.Category)
				if b.IsOverall() {
					name = "Overall"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", name, b.Limit, b.Period)
			}
			return w.Flush()
		},
	}
	cmd.AddCommand(budgetSetCmd())
	cmd.AddCommand(budgetDeleteCmd())
	return cmd
}

func budgetSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "set <category|overall> <limit>",
		Short:   "Create or replace a budget",
		Example: "  ledger budgets set Food 400\n  ledger budgets set overall 2500",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, err := core.NewMoney(args[1])
			if err != nil {
				return &core.ValidationError{Field: "limit", Err: err}
			}
			var b core.Budget
			if args[0] == overallBudget {
				b, err = current.runtime.Service.SetOverallBudget(cmd.Context(), current.owner, limit)
			} else {
				c, perr := core.ParseCategory(args[0])
				if perr != nil {
					return perr
				}
				b, err = current.runtime.Service.SetBudget(cmd.Context(), current.owner, c, limit)
			}
			if err != nil {
				return err
			}
			fmt.Printf("Budget %s set to %s\n", args[0], b.Limit)
			return nil
		},
	}
}

func budgetDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <category|overall>",
		Short: "Remove a budget",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if args[0] == overallBudget {
				return current.runtime.Service.DeleteOverallBudget(cmd.Context(), current.owner)
			}
			c, err := core.ParseCategory(args[0])
			if err != nil {
				return err
			}
			return current.runtime.Service.DeleteBudget(cmd.Context(), current.owner, c)
		},
	}
}
