package main

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/erazemk/izposoja/internal/model"
)

func newCheckOverdueCmd(a *app) *cobra.Command {
	var reminders bool
	cmd := &cobra.Command{
		Use:   "check-overdue",
		Short: "List overdue rentals once and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := openExisting(a.cfg.Database.Path)
			if err != nil {
				return err
			}
			defer database.Close()

			manager := newManager(database, a.cfg)
			overdue, err := manager.FlagOverdue(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(overdue) == 0 {
				fmt.Fprintln(out, "No overdue rentals.")
			} else {
				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "RENTAL\tCUSTOMER\tEQUIPMENT\tQTY\tDUE")
				for _, r := range overdue {
					fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\n", r.ID, r.CustomerName, r.EquipmentName,
						r.Quantity, r.EndDate.Format(time.DateTime))
				}
				tw.Flush()
			}

			if reminders {
				n, err := manager.SendReturnReminders(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Return reminders sent: %d\n", n)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&reminders, "reminders", false, "also send return reminders for rentals ending soon")
	return cmd
}

func newReportCmd(a *app) *cobra.Command {
	var from, to string
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarise revenue and usage for a period",
		Example: `  izposoja report --from 2025-06-01 --to 2025-06-30
  izposoja report --from 2025-06-01 --to 2025-06-30 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := time.Parse(time.DateOnly, from)
			if err != nil {
				return fmt.Errorf("invalid --from: %w", err)
			}
			end, err := time.Parse(time.DateOnly, to)
			if err != nil {
				return fmt.Errorf("invalid --to: %w", err)
			}

			database, err := openExisting(a.cfg.Database.Path)
			if err != nil {
				return err
			}
			defer database.Close()

			report, err := newManager(database, a.cfg).Report(cmd.Context(), start, end.Add(24*time.Hour-time.Second))
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			printReport(cmd.OutOrStdout(), report)
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "first day of the period (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "last day of the period (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func printReport(w io.Writer, r *model.Report) {
	fmt.Fprintf(w, "Report %s to %s\n\n", r.From.Format(time.DateOnly), r.To.Format(time.DateOnly))
	fmt.Fprintf(w, "Rentals:   %d\n", r.RentalCount)
	fmt.Fprintf(w, "Revenue:   %s\n", r.TotalRevenue.StringFixed(2))
	fmt.Fprintf(w, "Deposits:  %s\n", r.TotalDeposits.StringFixed(2))

	if len(r.UsageByCategory) > 0 {
		fmt.Fprintln(w, "\nUnits rented by category:")
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		for _, c := range slices.Sorted(maps.Keys(r.UsageByCategory)) {
			fmt.Fprintf(tw, "  %s\t%d\n", c, r.UsageByCategory[c])
		}
		tw.Flush()
	}
	if len(r.RevenueByCustomer) > 0 {
		fmt.Fprintln(w, "\nRevenue by customer:")
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		for _, c := range slices.Sorted(maps.Keys(r.RevenueByCustomer)) {
			fmt.Fprintf(tw, "  %s\t%s\n", c, r.RevenueByCustomer[c].StringFixed(2))
		}
		tw.Flush()
	}
}

func newReconcileCmd(a *app) *cobra.Command {
	var fix bool
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Compare stored availability with active rentals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := openExisting(a.cfg.Database.Path)
			if err != nil {
				return err
			}
			defer database.Close()

			drifts, err := newManager(database, a.cfg).Reconcile(cmd.Context(), fix)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(drifts) == 0 {
				fmt.Fprintln(out, "All availability counters match active rentals.")
				return nil
			}
			for _, d := range drifts {
				fmt.Fprintf(out, "equipment %d: stored %d, expected %d\n", d.EquipmentID, d.Stored, d.Expected)
			}
			if fix {
				fmt.Fprintf(out, "Corrected %d counters.\n", len(drifts))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&fix, "fix", false, "write the expected counters")
	return cmd
}
