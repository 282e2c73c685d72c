package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/watchtower/pkg/core/model"
)

// GenerateCmd creates the generate command
func GenerateCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate <station>",
		Short: "Generate a draft roster for a station",
		Long: `Generate a draft roster for a station starting on --start.

Coverage minimums, corro days and overrides come from the config file. The draft
is saved even when some slots could not be filled; they are listed as unresolved.
Press Ctrl-C to cancel a generation in progress. Nothing is saved when cancelled.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			station := args[0]
			if !app.Cfg.HasStation(station) {
				return fmt.Errorf("station %q is not configured for environment %s", station, app.Env)
			}

			start, err := dateFlag(cmd, "start", app.Now)
			if err != nil {
				return err
			}

			genCfg := app.Cfg.GenerationConfig(station, start)
			if cmd.Flags().Changed("weeks") {
				genCfg.PeriodWeeks, _ = cmd.Flags().GetInt("weeks")
			}
			if cmd.Flags().Changed("seed") {
				genCfg.Seed, _ = cmd.Flags().GetInt64("seed")
			}

			app.Logger.Debug("generate command",
				zap.String("station", station),
				zap.String("start", genCfg.StartDate.Format(model.DateLayout)),
				zap.Int("weeks", genCfg.PeriodWeeks))

			ctx, stop := signal.NotifyContext(app.Ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			task, err := app.Generator().Start(app.Ctx, genCfg)
			if err != nil {
				return err
			}

			go func() {
				<-ctx.Done()
				task.Cancel()
			}()

			roster, err := task.Wait(app.Ctx)
			if errors.Is(err, context.Canceled) {
				fmt.Fprintf(app.Out, "%s Generation cancelled, nothing was saved\n", yellow("!"))
				return nil
			}
			if err != nil {
				return err
			}

			printGenerated(app, roster)
			return nil
		},
	}

	cmd.Flags().String("start", "", "First date of the period (YYYY-MM-DD, default today)")
	cmd.Flags().Int("weeks", 2, "Period length in weeks (1, 2 or 4)")
	cmd.Flags().Int64("seed", 0, "Seed for tie-breaking between equally suited members")

	return cmd
}

func printGenerated(app *AppContext, roster *model.RosterPeriod) {
	fmt.Fprintf(app.Out, "\n%s Draft roster %s\n", green("✓"), bold(roster.ID))
	fmt.Fprintf(app.Out, "   %s, %s to %s\n", roster.Station, formatDate(roster.StartDate), formatDate(roster.EndDate))
	fmt.Fprintf(app.Out, "   %d assignments\n\n", len(roster.Assignments))

	if len(roster.UnresolvedSlots) > 0 {
		fmt.Fprintf(app.Out, "%s %d slot(s) could not reach minimum coverage:\n", yellow("!"), len(roster.UnresolvedSlots))
		for _, slot := range roster.UnresolvedSlots {
			fmt.Fprintf(app.Out, "   %s\n", slot)
		}
		fmt.Fprintln(app.Out)
	}

	printComplianceSummary(app, roster.ComplianceStatus)
}

func printComplianceSummary(app *AppContext, summary model.ComplianceStatusSummary) {
	switch {
	case summary.HasViolations:
		fmt.Fprintf(app.Out, "Compliance: %s (%d members checked)\n", red("violations"), summary.TotalMembersChecked)
	case summary.HasWarnings:
		fmt.Fprintf(app.Out, "Compliance: %s (%d members checked)\n", yellow("warnings"), summary.TotalMembersChecked)
	default:
		fmt.Fprintf(app.Out, "Compliance: %s (%d members checked)\n", green("compliant"), summary.TotalMembersChecked)
	}
	for _, v := range summary.Violations {
		fmt.Fprintf(app.Out, "  %s %s %s: %s\n", red("✗"), v.MemberID, v.Date.Format(model.DateLayout), v.Message)
	}
	for _, w := range summary.Warnings {
		fmt.Fprintf(app.Out, "  %s %s %s: %s\n", yellow("!"), w.MemberID, w.Date.Format(model.DateLayout), w.Message)
	}
	fmt.Fprintln(app.Out)
}
