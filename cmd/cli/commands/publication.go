package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/watchtower/pkg/core/model"
	"github.com/jakechorley/watchtower/pkg/core/services"
)

// PublicationAlertsCmd creates the publication-alerts command
func PublicationAlertsCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "publication-alerts <station>",
		Short: "List periods whose roster is due or overdue for publication",
		Long: `List periods whose roster is due or overdue for publication.

A roster must be published 28 days before its period starts. Periods without a
published roster are flagged from 7 days before that deadline. Alerts stay listed
until the period is published or the alert is acknowledged with ack-alert.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			station := args[0]
			if !app.Cfg.HasStation(station) {
				return fmt.Errorf("station %q is not configured for environment %s", station, app.Env)
			}

			asOf, err := dateFlag(cmd, "as-of", app.Now)
			if err != nil {
				return err
			}

			alerts, err := services.PublicationAlerts(app.Ctx, app.Database, app.Logger, station, asOf)
			if err != nil {
				return err
			}

			if len(alerts) == 0 {
				fmt.Fprintf(app.Out, "\n%s No publication alerts for %s\n\n", green("✓"), station)
				return nil
			}

			fmt.Fprintf(app.Out, "\n%s\n", bold(fmt.Sprintf("Publication alerts for %s", station)))
			for _, a := range alerts {
				marker := yellow("!")
				if a.Type == model.AlertDeadlineMissed {
					marker = red("✗")
				}
				fmt.Fprintf(app.Out, "  %s %s to %s  %s\n", marker, formatDate(a.PeriodStart), formatDate(a.PeriodEnd), a.Message)
				fmt.Fprintf(app.Out, "    %s\n", dim(a.ID))
			}
			fmt.Fprintln(app.Out)
			return nil
		},
	}

	cmd.Flags().String("as-of", "", "Check date (YYYY-MM-DD, default today)")
	return cmd
}

// AckAlertCmd creates the ack-alert command
func AckAlertCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "ack-alert <alert_id>",
		Short: "Acknowledge a publication alert",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := services.AcknowledgeAlert(app.Ctx, app.Database, app.Logger, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(app.Out, "%s Acknowledged %s\n", green("✓"), args[0])
			return nil
		},
	}
}

// PublicationComplianceCmd creates the publication-compliance command
func PublicationComplianceCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "publication-compliance <station>",
		Short: "Summarise how far in advance recent rosters were published",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			station := args[0]
			if !app.Cfg.HasStation(station) {
				return fmt.Errorf("station %q is not configured for environment %s", station, app.Env)
			}

			asOf, err := dateFlag(cmd, "as-of", app.Now)
			if err != nil {
				return err
			}

			app.Logger.Debug("publication-compliance command", zap.String("station", station), zap.Time("as_of", asOf))

			report, err := services.PublicationCompliance(app.Ctx, app.Database, app.Logger, station, asOf)
			if err != nil {
				return err
			}

			fmt.Fprintf(app.Out, "\n%s\n", bold(fmt.Sprintf("Publication compliance for %s since %s", station, formatDate(report.Since))))
			fmt.Fprintf(app.Out, "Publications:      %d\n", report.TotalPublications)
			fmt.Fprintf(app.Out, "Compliant:         %d\n", report.Compliant)
			fmt.Fprintf(app.Out, "Warnings:          %d\n", report.Warnings)
			fmt.Fprintf(app.Out, "Violations:        %d\n", report.Violations)
			fmt.Fprintf(app.Out, "Average notice:    %.1f days\n", report.AverageDaysInAdvance)
			fmt.Fprintf(app.Out, "Active alerts:     %d\n", report.ActiveAlerts)

			if len(report.Recent) > 0 {
				fmt.Fprintf(app.Out, "\nRecent publications:\n")
				for _, r := range report.Recent {
					fmt.Fprintf(app.Out, "  %s  %s to %s  %s  %s\n",
						r.ID, r.StartDate.Format(model.DateLayout), r.EndDate.Format(model.DateLayout),
						statusText(r.Notice.Status), r.Notice.Message)
				}
			}
			fmt.Fprintln(app.Out)
			return nil
		},
	}

	cmd.Flags().String("as-of", "", "Report date (YYYY-MM-DD, default today)")
	return cmd
}
