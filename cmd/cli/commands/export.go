package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jakechorley/watchtower/pkg/core/services"
)

// ExportCmd creates the export command
func ExportCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <roster_id>",
		Short: "Export a roster period to an Excel workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, _ := cmd.Flags().GetString("out")
			if out == "" {
				out = args[0] + ".xlsx"
			}

			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", out, err)
			}

			roster, err := services.ExportRoster(app.Ctx, app.Database, app.Logger, args[0], f)
			if closeErr := f.Close(); err == nil && closeErr != nil {
				err = fmt.Errorf("failed to write %s: %w", out, closeErr)
			}
			if err != nil {
				_ = os.Remove(out)
				return err
			}

			fmt.Fprintf(app.Out, "%s Exported %s (%d assignments) to %s\n", green("✓"), roster.ID, len(roster.Assignments), out)
			return nil
		},
	}

	cmd.Flags().StringP("out", "o", "", "Output file (default <roster_id>.xlsx)")
	return cmd
}
