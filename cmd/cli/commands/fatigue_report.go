package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/watchtower/pkg/core/services"
)

// FatigueReportCmd creates the fatigue-report command
func FatigueReportCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fatigue-report <station>",
		Short: "List a station's high fatigue members and members over or near the fortnight limit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asOf, err := dateFlag(cmd, "as-of", app.Now)
			if err != nil {
				return err
			}

			app.Logger.Debug("fatigue-report command", zap.String("station", args[0]))

			report, err := services.BuildFatigueReport(app.Ctx, app.Database, app.Logger, args[0], asOf, app.Cfg.Rules())
			if err != nil {
				return err
			}

			fmt.Fprintf(app.Out, "\n%s fatigue report, %s\n", bold(report.Station), formatDate(report.AsOf))

			fmt.Fprintf(app.Out, "\nOver the fortnight limit (%d)\n", len(report.OverLimit))
			for _, a := range report.OverLimit {
				fmt.Fprintf(app.Out, "  %-10s %-24s %6.1fh  +%.1fh  %s\n", a.MemberID, a.MemberName, a.FortnightHours, a.Overage, severityText(a.Severity))
			}

			fmt.Fprintf(app.Out, "\nApproaching the limit (%d)\n", len(report.Approaching))
			for _, a := range report.Approaching {
				fmt.Fprintf(app.Out, "  %-10s %-24s %6.1fh  %s\n", a.MemberID, a.MemberName, a.FortnightHours, severityText(a.Severity))
			}

			fmt.Fprintf(app.Out, "\nHigh fatigue (%d)\n", len(report.HighRisk))
			for _, e := range report.HighRisk {
				fmt.Fprintf(app.Out, "  %-10s %-24s %5.1f\n", e.Score.MemberID, e.MemberName, e.Score.Score)
				for _, f := range e.Score.RiskFactors {
					fmt.Fprintf(app.Out, "      %s\n", dim(f))
				}
			}
			fmt.Fprintln(app.Out)
			return nil
		},
	}

	cmd.Flags().String("as-of", "", "Report date (YYYY-MM-DD, default today)")
	return cmd
}

func severityText(severity string) string {
	switch severity {
	case services.SeverityCritical, services.SeverityHigh:
		return red(severity)
	default:
		return yellow(severity)
	}
}
