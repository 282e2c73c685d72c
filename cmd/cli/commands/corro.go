package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/watchtower/pkg/core/services"
)

// CorroCmd creates the corro command
func CorroCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "corro <station>",
		Short: "Show the corro rotation for a station, most overdue first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asOf, err := dateFlag(cmd, "as-of", app.Now)
			if err != nil {
				return err
			}

			app.Logger.Debug("corro command", zap.String("station", args[0]))

			statuses, err := services.ComputeCorroDistribution(app.Ctx, app.Database, app.Logger, args[0], asOf, app.Cfg.CorroThresholds())
			if err != nil {
				return err
			}

			fmt.Fprintf(app.Out, "\n%s corro rotation, %s\n\n", bold(args[0]), formatDate(asOf))
			fmt.Fprintf(app.Out, "%-10s  %-24s  %6s  %-12s  %s\n", "Member", "Name", "Count", "Last", "Urgency")
			for _, s := range statuses {
				last := "never"
				if s.LastCorro != nil {
					last = s.LastCorro.Format("2006-01-02")
				}
				fmt.Fprintf(app.Out, "%-10s  %-24s  %6d  %-12s  %s\n", s.MemberID, s.MemberName, s.CorroCount, last, urgencyText(s.Urgency))
			}
			fmt.Fprintln(app.Out)
			return nil
		},
	}

	cmd.Flags().String("as-of", "", "Evaluation date (YYYY-MM-DD, default today)")
	return cmd
}
