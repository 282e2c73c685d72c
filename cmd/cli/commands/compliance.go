package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/watchtower/pkg/core/services"
)

// ComplianceCmd creates the compliance command
func ComplianceCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compliance <member_id>",
		Short: "Evaluate a member's EBA compliance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asOf, err := dateFlag(cmd, "as-of", app.Now)
			if err != nil {
				return err
			}

			app.Logger.Debug("compliance command", zap.String("member_id", args[0]), zap.Time("as_of", asOf))

			result, err := services.ComputeCompliance(app.Ctx, app.Database, app.Logger, app.Metrics, args[0], asOf, app.Cfg.Rules())
			if err != nil {
				return err
			}

			fmt.Fprintf(app.Out, "\n%s as of %s: %s\n\n", bold(result.MemberID), formatDate(result.AsOf), statusText(result.Status))
			fmt.Fprintf(app.Out, "Fortnight hours:   %.1f\n", result.FortnightHours)
			fmt.Fprintf(app.Out, "Peak 7-day hours:  %.1f\n", result.PeakWeekHours)
			fmt.Fprintf(app.Out, "Rest days:         %d\n", result.RestDays)
			fmt.Fprintf(app.Out, "Longest night run: %d\n", result.LongestNightRun)
			fmt.Fprintf(app.Out, "Fatigue score:     %.1f\n", result.FatigueScore)
			fmt.Fprintf(app.Out, "Wellness score:    %.1f\n", result.WellnessScore)

			for _, v := range result.Violations {
				fmt.Fprintf(app.Out, "  %s %s\n", red("✗"), v)
			}
			for _, w := range result.Warnings {
				fmt.Fprintf(app.Out, "  %s %s\n", yellow("!"), w)
			}
			fmt.Fprintln(app.Out)
			return nil
		},
	}

	cmd.Flags().String("as-of", "", "Evaluation date (YYYY-MM-DD, default today)")
	return cmd
}
