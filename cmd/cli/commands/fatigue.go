package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/watchtower/pkg/core/model"
	"github.com/jakechorley/watchtower/pkg/core/services"
)

// FatigueCmd creates the fatigue command
func FatigueCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fatigue <member_id>",
		Short: "Show a member's fatigue score and workload equity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asOf, err := dateFlag(cmd, "as-of", app.Now)
			if err != nil {
				return err
			}
			weeks, _ := cmd.Flags().GetInt("weeks")

			app.Logger.Debug("fatigue command", zap.String("member_id", args[0]), zap.Int("weeks", weeks))

			score, err := services.ComputeFatigue(app.Ctx, app.Database, app.Logger, args[0], asOf, weeks)
			if err != nil {
				return err
			}

			fmt.Fprintf(app.Out, "\n%s %s to %s\n\n", bold(score.MemberID), formatDate(score.WindowStart), formatDate(score.WindowEnd))
			fmt.Fprintf(app.Out, "Score: %.1f (%s)\n", score.Score, bandText(score.Band))
			fmt.Fprintf(app.Out, "Shifts: %d, %.1fh, overtime %.1fh, recalls %d\n\n",
				score.TotalShifts, score.TotalHours, score.OvertimeHours, score.RecallCount)

			fmt.Fprintf(app.Out, "%-12s  %8s  %8s\n", "Shift", "Member", "Station")
			for _, t := range model.TrackedShiftTypes {
				cohort := 0.0
				if score.Equity != nil {
					cohort = score.Equity.CohortAverage[t]
				}
				fmt.Fprintf(app.Out, "%-12s  %7.1f%%  %7.1f%%\n", t, score.ShiftPct[t], cohort)
			}
			if score.Equity != nil {
				fmt.Fprintf(app.Out, "\nFairness: %.1f  Corro percentile: %.0f\n", score.Equity.FairnessScore, score.Equity.CorroPercentile)
			}

			for _, f := range score.RiskFactors {
				fmt.Fprintf(app.Out, "  %s %s\n", yellow("!"), f)
			}
			fmt.Fprintln(app.Out)
			return nil
		},
	}

	cmd.Flags().String("as-of", "", "Last date of the window (YYYY-MM-DD, default today)")
	cmd.Flags().Int("weeks", 8, "Window length in weeks")
	return cmd
}
