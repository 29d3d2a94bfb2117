package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"budgetly/internal/core"
)

func templatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "templates",
		Aliases: []string{"recurring"},
		Short:   "Manage recurring expense templates",
		RunE: func(cmd *cobra.Command, _ []string) error {
			templates, err := current.runtime.Service.ListTemplates(cmd.Context(), current.owner)
			if err != nil {
				return err
			}
			if len(templates) == 0 {
				fmt.Println("No recurring templates.")
				return nil
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCATEGORY\tAMOUNT\tFREQUENCY\tSTART\tLAST\tACTIVE\tDESCRIPTION")
			for _, rt := range templates {
				last := "never"
				if rt.LastGenerated != nil {
					last = rt.LastGenerated.Format(time.DateOnly)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%t\t%s\n",
					rt.ID, rt.Label(), rt.Amount, rt.Frequency, rt.StartDate, last, rt.IsActive, rt.Description)
			}
			return w.Flush()
		},
	}
	cmd.AddCommand(templateAddCmd())
	cmd.AddCommand(templateUpdateCmd())
	cmd.AddCommand(templateToggleCmd("pause", false))
	cmd.AddCommand(templateToggleCmd("resume", true))
	cmd.AddCommand(templateDeleteCmd())
	return cmd
}

func parseFrequency(s string) (core.Frequency, error) {
	f := core.Frequency(strings.ToLower(strings.TrimSpace(s)))
	if !f.Valid() {
		return "", &core.ValidationError{Field: "frequency", Err: core.ErrInvalidFrequency}
	}
	return f, nil
}

func templateAddCmd() *cobra.Command {
	var (
		cls       classificationFlags
		amount    string
		desc      string
		frequency string
		start     string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a template without recording an expense now",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := cls.classification()
			if err != nil {
				return err
			}
			m, err := core.NewMoney(amount)
			if err != nil {
				return &core.ValidationError{Field: "amount", Err: err}
			}
			f, err := parseFrequency(frequency)
			if err != nil {
				return err
			}
			d, err := parseDateFlag(start, time.Now())
			if err != nil {
				return err
			}
			rt, err := current.runtime.Service.CreateTemplate(cmd.Context(), current.owner, core.RecurringTemplate{
				Classification: c,
				Amount:         m,
				Description:    desc,
				Frequency:      f,
				StartDate:      d,
				IsActive:       true,
			})
			if err != nil {
				return err
			}
			fmt.Printf("Created template %s\n", rt.ID)
			return nil
		},
	}
	cls.register(cmd)
	cmd.Flags().StringVarP(&amount, "amount", "a", "", "amount per occurrence")
	cmd.Flags().StringVarP(&desc, "description", "d", "", "description")
	cmd.Flags().StringVarP(&frequency, "frequency", "f", "monthly", "daily, weekly, monthly or yearly")
	cmd.Flags().StringVar(&start, "start", "today", "first due date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("category")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("description")
	return cmd
}

func templateUpdateCmd() *cobra.Command {
	var (
		cls       classificationFlags
		amount    string
		desc      string
		frequency string
		start     string
	)
	cmd := &cobra.Command{
		Use:   "update <template-id>",
		Short: "Change a template; generated expenses are left as they are",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch core.RecurringTemplatePatch
			if cls.changed(cmd) {
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
			if cmd.Flags().Changed("frequency") {
				f, err := parseFrequency(frequency)
				if err != nil {
					return err
				}
				patch.Frequency = &f
			}
			if cmd.Flags().Changed("start") {
				d, err := core.ParseDate(start)
				if err != nil {
					return err
				}
				patch.StartDate = &d
			}
			rt, err := current.runtime.Service.UpdateTemplate(cmd.Context(), current.owner, args[0], patch)
			if err != nil {
				return err
			}
			fmt.Printf("Updated template %s\n", rt.ID)
			return nil
		},
	}
	cls.register(cmd)
	cmd.Flags().StringVarP(&amount, "amount", "a", "", "new amount")
	cmd.Flags().StringVarP(&desc, "description", "d", "", "new description")
	cmd.Flags().StringVarP(&frequency, "frequency", "f", "", "new frequency")
	cmd.Flags().StringVar(&start, "start", "", "new start date (YYYY-MM-DD)")
	return cmd
}

func templateToggleCmd(name string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   name + " <template-id>",
		Short: strings.ToUpper(name[:1]) + name[1:] + " a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := current.runtime.Service.SetTemplateActive(cmd.Context(), current.owner, args[0], active)
			if err != nil {
				return err
			}
			fmt.Printf("Template %s active=%t\n", rt.ID, rt.IsActive)
			return nil
		},
	}
}

func templateDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <template-id>",
		Short: "Delete a template; generated expenses are kept",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return current.runtime.Service.DeleteTemplate(cmd.Context(), current.owner, args[0])
		},
	}
}
