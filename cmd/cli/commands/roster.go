package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jakechorley/watchtower/pkg/core/services"
)

// RosterCmd creates the roster command
func RosterCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "roster <roster_id>",
		Short: "Show a roster period and each member's totals",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := services.GetRoster(app.Ctx, app.Database, app.Logger, args[0])
			if err != nil {
				return err
			}

			r := view.Roster
			fmt.Fprintf(app.Out, "\n%s  %s\n", bold(r.ID), r.Status)
			fmt.Fprintf(app.Out, "%s, %s to %s\n", r.Station, formatDate(r.StartDate), formatDate(r.EndDate))
			if r.PublishedAt != nil {
				fmt.Fprintf(app.Out, "Published %s", formatDate(*r.PublishedAt))
				if r.Notice != nil {
					fmt.Fprintf(app.Out, " (%s)", r.Notice.Message)
				}
				fmt.Fprintln(app.Out)
			}
			fmt.Fprintln(app.Out)

			fmt.Fprintf(app.Out, "%-10s  %-24s  %6s  %7s  %s\n", "Member", "Name", "Shifts", "Hours", "Mix")
			for _, m := range view.Members {
				fmt.Fprintf(app.Out, "%-10s  %-24s  %6d  %7.1f  %s\n", m.MemberID, m.MemberName, m.TotalShifts, m.TotalHours, shiftCounts(m.ByType))
			}
			fmt.Fprintln(app.Out)

			for _, slot := range r.UnresolvedSlots {
				fmt.Fprintf(app.Out, "%s unresolved: %s\n", yellow("!"), slot)
			}
			printComplianceSummary(app, r.ComplianceStatus)
			return nil
		},
	}
}

// RostersCmd creates the rosters command
func RostersCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rosters <station>",
		Short: "List a station's roster periods, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rosters, err := services.ListRosters(app.Ctx, app.Database, app.Logger, args[0])
			if err != nil {
				return err
			}

			if len(rosters) == 0 {
				fmt.Fprintf(app.Out, "No rosters for %s\n", args[0])
				return nil
			}

			for _, r := range rosters {
				status := yellow(string(r.Status))
				if r.PublishedAt != nil {
					status = green(string(r.Status))
				}
				fmt.Fprintf(app.Out, "%s  %s to %s  %-9s  %d assignments, %d unresolved\n",
					r.ID, r.StartDate.Format("2006-01-02"), r.EndDate.Format("2006-01-02"),
					status, len(r.Assignments), len(r.UnresolvedSlots))
			}
			return nil
		},
	}
}
