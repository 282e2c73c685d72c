package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/watchtower/pkg/core/services"
)

// ImportShiftsCmd creates the import-shifts command
func ImportShiftsCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import-shifts <station>",
		Short: "Import a station's members and worked shifts from the rostering feed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			station := args[0]
			to, err := dateFlag(cmd, "to", app.Now)
			if err != nil {
				return err
			}
			days, _ := cmd.Flags().GetInt("days")
			from := to.AddDate(0, 0, -days)
			if cmd.Flags().Changed("from") {
				if from, err = dateFlag(cmd, "from", app.Now); err != nil {
					return err
				}
			}

			app.Logger.Debug("import-shifts command", zap.String("station", station))

			feed, err := app.FeedClient()
			if err != nil {
				return err
			}

			result, err := services.ImportShifts(app.Ctx, app.Database, feed, app.Logger, station, from, to)
			if err != nil {
				return err
			}

			fmt.Fprintf(app.Out, "\n%s Imported %s %s to %s\n\n", green("✓"), bold(station), formatDate(from), formatDate(to))
			fmt.Fprintf(app.Out, "Members:  %d\n", result.Members)
			fmt.Fprintf(app.Out, "Fetched:  %d shifts\n", result.RecordsFetched)
			fmt.Fprintf(app.Out, "Inserted: %d\n", result.RecordsInserted)
			fmt.Fprintf(app.Out, "Skipped:  %d %s\n", result.RecordsSkipped, dim("(already imported)"))
			if len(result.UnknownMemberIDs) > 0 {
				fmt.Fprintf(app.Out, "%s ignored shifts for members not at %s: %v\n", yellow("!"), station, result.UnknownMemberIDs)
			}
			fmt.Fprintln(app.Out)
			return nil
		},
	}

	cmd.Flags().String("from", "", "First date to import (YYYY-MM-DD, default --days before --to)")
	cmd.Flags().String("to", "", "Last date to import (YYYY-MM-DD, default today)")
	cmd.Flags().Int("days", 14, "Days to import when --from is not given")

	return cmd
}
