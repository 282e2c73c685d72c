package commands

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jakechorley/watchtower/pkg/core/model"
	"github.com/jakechorley/watchtower/pkg/core/services"
)

// PreferencesCmd creates the preferences command
func PreferencesCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preferences <member_id>",
		Short: "Show or update a member's rostering preferences",
		Long: `Show or update a member's rostering preferences.

With no flags the current preferences and their change history are shown.
Flags change only the named preferences; the rest keep their current values.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			member, err := app.Database.GetMember(app.Ctx, args[0])
			if err != nil {
				return err
			}

			prefs, changed, err := preferencesFromFlags(cmd, member.Preferences)
			if err != nil {
				return err
			}

			if !changed {
				audits, err := app.Database.GetPreferenceAudit(app.Ctx, member.ID)
				if err != nil {
					return err
				}
				printPreferences(app, member, audits)
				return nil
			}

			changedBy, _ := cmd.Flags().GetString("changed-by")
			audit, err := services.UpdatePreferences(app.Ctx, app.Database, app.Logger, member.ID, prefs, changedBy, app.Now())
			if err != nil {
				return err
			}

			fmt.Fprintf(app.Out, "%s Updated preferences for %s\n", green("✓"), bold(member.ID))
			printPreferenceValues(app, audit.After)
			return nil
		},
	}

	cmd.Flags().Int("night-tolerance", 0, "Nights per month the member is willing to work")
	cmd.Flags().Bool("recall", true, "Willing to be recalled")
	cmd.Flags().Bool("avoid-doubles", true, "Avoid consecutive double shifts")
	cmd.Flags().Bool("avoid-four-earlies", true, "Avoid runs of four early shifts")
	cmd.Flags().StringSlice("rest-days", nil, "Preferred rest days, e.g. sat,sun")
	cmd.Flags().String("medical", "", "Medical limitations")
	cmd.Flags().String("welfare", "", "Welfare notes")
	cmd.Flags().String("changed-by", currentUser(), "Who is making the change")

	return cmd
}

// preferencesFromFlags overlays the changed flags on the current preferences
func preferencesFromFlags(cmd *cobra.Command, current model.Preferences) (model.Preferences, bool, error) {
	prefs := current
	flags := cmd.Flags()
	changed := false

	if flags.Changed("night-tolerance") {
		prefs.NightTolerancePerMonth, _ = flags.GetInt("night-tolerance")
		changed = true
	}
	if flags.Changed("recall") {
		prefs.RecallWillingness, _ = flags.GetBool("recall")
		changed = true
	}
	if flags.Changed("avoid-doubles") {
		prefs.AvoidConsecutiveDoubles, _ = flags.GetBool("avoid-doubles")
		changed = true
	}
	if flags.Changed("avoid-four-earlies") {
		prefs.AvoidFourEarlies, _ = flags.GetBool("avoid-four-earlies")
		changed = true
	}
	if flags.Changed("rest-days") {
		names, _ := flags.GetStringSlice("rest-days")
		days, err := parseWeekdays(names)
		if err != nil {
			return prefs, false, err
		}
		prefs.PreferredRestDays = days
		changed = true
	}
	if flags.Changed("medical") {
		prefs.MedicalLimitations, _ = flags.GetString("medical")
		changed = true
	}
	if flags.Changed("welfare") {
		prefs.WelfareNotes, _ = flags.GetString("welfare")
		changed = true
	}

	return prefs, changed, nil
}

func parseWeekdays(names []string) ([]time.Weekday, error) {
	days := make([]time.Weekday, 0, len(names))
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		found := false
		for d := time.Sunday; d <= time.Saturday; d++ {
			full := strings.ToLower(d.String())
			if name == full || name == full[:3] {
				days = append(days, d)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown weekday %q", name)
		}
	}
	return days, nil
}

func printPreferences(app *AppContext, member *model.Member, audits []model.PreferenceAudit) {
	fmt.Fprintf(app.Out, "\n%s %s\n", bold(member.ID), member.Name)
	printPreferenceValues(app, member.Preferences)

	if len(audits) == 0 {
		return
	}
	fmt.Fprintf(app.Out, "\nHistory\n")
	for _, a := range audits {
		fmt.Fprintf(app.Out, "  %s  %s\n", a.ChangedAt.Format("2006-01-02 15:04"), a.ChangedBy)
	}
	fmt.Fprintln(app.Out)
}

func printPreferenceValues(app *AppContext, p model.Preferences) {
	rest := make([]string, 0, len(p.PreferredRestDays))
	for _, d := range p.PreferredRestDays {
		rest = append(rest, d.String()[:3])
	}
	fmt.Fprintf(app.Out, "  Night tolerance:     %d per month\n", p.NightTolerancePerMonth)
	fmt.Fprintf(app.Out, "  Recall willingness:  %t\n", p.RecallWillingness)
	fmt.Fprintf(app.Out, "  Avoid doubles:       %t\n", p.AvoidConsecutiveDoubles)
	fmt.Fprintf(app.Out, "  Avoid four earlies:  %t\n", p.AvoidFourEarlies)
	fmt.Fprintf(app.Out, "  Preferred rest days: %s\n", strings.Join(rest, ", "))
	if p.MedicalLimitations != "" {
		fmt.Fprintf(app.Out, "  Medical:             %s\n", p.MedicalLimitations)
	}
	if p.WelfareNotes != "" {
		fmt.Fprintf(app.Out, "  Welfare:             %s\n", p.WelfareNotes)
	}
}

func currentUser() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "cli"
}
