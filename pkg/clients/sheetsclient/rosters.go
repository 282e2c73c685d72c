package sheetsclient

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/watchtower/pkg/core/model"
)

const displayDateLayout = "Mon Jan 02 2006"

// headerRow is the row (0-based) the column headers are written to, below a two row gap
const headerRow = 2

// PublishedRosterRow is one date of a published roster
type PublishedRosterRow struct {
	Date   time.Time
	Shifts map[model.ShiftType][]string // member display names per shift type
}

// PublishedRoster is the sheet form of a published roster period
type PublishedRoster struct {
	Station   string
	StartDate time.Time
	EndDate   time.Time
	Rows      []PublishedRosterRow
}

// PublishRoster writes a roster to its own tab, titled "<station> Mon Jan 05 2026 - Sun Jan 18 2026".
// A new tab is created if needed. On an existing tab the date and shift columns are overwritten
// while any other columns (notes added by supervisors) are preserved.
func (c *Client) PublishRoster(ctx context.Context, spreadsheetID string, roster *PublishedRoster) error {
	tabTitle := generateTabTitle(roster.Station, roster.StartDate, roster.EndDate)

	exists, err := c.hasTab(ctx, spreadsheetID, tabTitle)
	if err != nil {
		return err
	}

	var existing [][]interface{}
	if exists {
		if existing, err = c.readTab(ctx, spreadsheetID, tabTitle); err != nil {
			return err
		}
	} else if err := c.addTab(ctx, spreadsheetID, tabTitle); err != nil {
		return err
	}

	if err := c.writeTab(ctx, spreadsheetID, tabTitle, buildRosterValues(roster, existing)); err != nil {
		return err
	}

	c.logger.Info("Roster written to sheet",
		zap.String("tab", tabTitle),
		zap.Bool("existing_tab", exists),
		zap.Int("rows", len(roster.Rows)))
	return nil
}

// generateTabTitle creates a tab title in the format "Ilford Mon Jan 05 2026 - Sun Jan 18 2026"
func generateTabTitle(station string, start, end time.Time) string {
	return fmt.Sprintf("%s %s - %s", station, start.Format(displayDateLayout), end.Format(displayDateLayout))
}

// managedColumns returns the header of the columns the roster owns
func managedColumns() []interface{} {
	header := []interface{}{"Date"}
	for _, t := range model.AllShiftTypes {
		header = append(header, columnTitle(t))
	}
	return header
}

func columnTitle(t model.ShiftType) string {
	s := string(t)
	return strings.ToUpper(s[:1]) + s[1:]
}

// buildRosterValues lays out the tab. Columns after the managed ones are carried over from existing,
// matched by row position.
func buildRosterValues(roster *PublishedRoster, existing [][]interface{}) [][]interface{} {
	managed := managedColumns()

	var extraHeader []interface{}
	if len(existing) > headerRow && len(existing[headerRow]) > len(managed) {
		extraHeader = existing[headerRow][len(managed):]
	}

	header := append(append([]interface{}{}, managed...), extraHeader...)
	values := [][]interface{}{
		{}, // Row 1 (empty)
		{}, // Row 2 (empty)
		header,
	}

	for i, row := range roster.Rows {
		sheetRow := []interface{}{row.Date.Format(displayDateLayout)}
		for _, t := range model.AllShiftTypes {
			sheetRow = append(sheetRow, strings.Join(row.Shifts[t], ", "))
		}

		existingIdx := headerRow + 1 + i
		if len(extraHeader) > 0 && existingIdx < len(existing) {
			existingRow := existing[existingIdx]
			for col := len(managed); col < len(managed)+len(extraHeader); col++ {
				if col < len(existingRow) {
					sheetRow = append(sheetRow, existingRow[col])
				} else {
					sheetRow = append(sheetRow, "")
				}
			}
		}

		values = append(values, sheetRow)
	}

	return values
}
