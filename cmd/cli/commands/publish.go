package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jakechorley/watchtower/pkg/core/model"
	"github.com/jakechorley/watchtower/pkg/core/services"
)

// PublishCmd creates the publish command
func PublishCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "publish <roster_id>",
		Short: "Publish a draft roster",
		Long: `Publish a draft roster.

Compliance is re-checked against current history and any violation blocks the publish.
When a roster sheet or event broker is configured the published roster is written there too;
failures on those do not undo the publish.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := app.PublishDeps()
			if err != nil {
				return err
			}

			result, err := services.PublishRoster(app.Ctx, deps, args[0])
			var complianceErr *model.ComplianceError
			if errors.As(err, &complianceErr) {
				fmt.Fprintf(app.Out, "\n%s Roster %s was not published:\n", red("✗"), complianceErr.RosterID)
				for _, v := range complianceErr.Violations {
					fmt.Fprintf(app.Out, "  %s %s: %s\n", v.MemberID, v.Date.Format(model.DateLayout), v.Message)
				}
				fmt.Fprintln(app.Out)
				return err
			}
			if err != nil {
				return err
			}

			r := result.Roster
			fmt.Fprintf(app.Out, "\n%s Published %s\n", green("✓"), bold(r.ID))
			fmt.Fprintf(app.Out, "   %s, %s to %s\n", r.Station, formatDate(r.StartDate), formatDate(r.EndDate))

			notice := result.Notice.Message
			switch result.Notice.Status {
			case model.StatusCompliant:
				fmt.Fprintf(app.Out, "   %s\n", notice)
			case model.StatusWarning:
				fmt.Fprintf(app.Out, "   %s %s\n", yellow("!"), notice)
			default:
				fmt.Fprintf(app.Out, "   %s %s\n", red("!"), notice)
			}

			if result.SheetPublished {
				fmt.Fprintf(app.Out, "   Written to roster sheet\n")
			}
			if result.EventPublished {
				fmt.Fprintf(app.Out, "   Published event sent\n")
			}
			if sideErr := result.SideEffectErrors(); sideErr != nil {
				fmt.Fprintf(app.Out, "%s The roster is published but a follow-up step failed: %v\n", yellow("!"), sideErr)
			}
			fmt.Fprintln(app.Out)
			return nil
		},
	}
}
