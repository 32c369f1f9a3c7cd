package main

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/warp/studio-onboarding/money"
	"github.com/warp/studio-onboarding/tranche"
)

// =============================================================================
// TEMPLATES COMMAND
// =============================================================================

func newTemplatesCommand() *cobra.Command {
	var budgetFlag string

	cmd := &cobra.Command{
		Use:   "templates [project-type]",
		Short: "Print wizard tranche templates",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			budget, err := parseBudget(budgetFlag)
			if err != nil {
				return err
			}

			types := tranche.ProjectTypes()
			if len(args) == 1 {
				pt, err := tranche.ParseProjectType(args[0])
				if err != nil {
					return err
				}
				types = []tranche.ProjectType{pt}
			}

			out := cmd.OutOrStdout()
			for i, pt := range types {
				if i > 0 {
					fmt.Fprintln(out)
				}
				fmt.Fprintf(out, "%s (%s)\n", pt.Label(), pt)
				fmt.Fprintln(out, renderTranches(tranche.Materialize(tranche.Resolve(pt), budget, nil), budget, false))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&budgetFlag, "budget", "0", "Budget to price the templates against")
	return cmd
}

// =============================================================================
// SCHEDULE COMMAND
// =============================================================================

func newScheduleCommand() *cobra.Command {
	var budgetFlag string

	cmd := &cobra.Command{
		Use:   "schedule <format>",
		Short: "Print the lock-time payment schedule with GST",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			budget, err := parseBudget(budgetFlag)
			if err != nil {
				return err
			}
			format, err := tranche.ParseLockFormat(args[0])
			if err != nil {
				return err
			}
			tranches, err := tranche.LockSchedule(format, budget, nil)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s schedule for %s\n", format, money.Format(money.NewAmountFromDecimal(budget, money.INR)))
			fmt.Fprintln(out, renderTranches(tranches, budget, true))
			return nil
		},
	}

	cmd.Flags().StringVar(&budgetFlag, "budget", "", "Total project budget (required)")
	_ = cmd.MarkFlagRequired("budget")
	return cmd
}

// =============================================================================
// RENDERING
// =============================================================================

func parseBudget(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid budget %q", s)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("budget must not be negative")
	}
	return d, nil
}

func renderTranches(ts []tranche.Tranche, budget decimal.Decimal, withGST bool) string {
	inr := func(d decimal.Decimal) string {
		return money.Format(money.NewAmountFromDecimal(d, money.INR))
	}

	headers := []string{"#", "Tranche", "Share", "Amount"}
	aligns := []columnAlignment{alignRight, alignLeft, alignRight, alignRight}
	if withGST {
		headers = append(headers, "GST", "Total")
		aligns = append(aligns, alignRight, alignRight)
	}

	rows := make([][]string, 0, len(ts))
	for i, t := range ts {
		row := []string{fmt.Sprint(i + 1), t.Name, money.FormatPercent(t.Percentage), inr(t.Amount)}
		if withGST {
			gst := tranche.GST(t.Amount)
			row = append(row, inr(gst), inr(t.Amount.Add(gst)))
		}
		rows = append(rows, row)
	}

	sum := tranche.Summarize(ts)
	footer := []string{"", "Total", money.FormatPercent(sum.TotalPercentage), inr(sum.TotalAmount)}
	if withGST {
		footer = append(footer, inr(sum.GST), inr(sum.TotalWithGST))
	}
	if budget.IsZero() {
		footer[3] = "-"
	}
	return renderTable(headers, rows, aligns, footer)
}
