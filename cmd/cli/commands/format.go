package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/jakechorley/watchtower/pkg/core/model"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
	dim    = color.New(color.Faint).SprintFunc()
)

// statusText colours a compliance state
func statusText(status model.ComplianceState) string {
	switch status {
	case model.StatusCompliant:
		return green(string(status))
	case model.StatusWarning:
		return yellow(string(status))
	default:
		return red(string(status))
	}
}

func bandText(band model.RiskBand) string {
	switch band {
	case model.RiskLow:
		return green(string(band))
	case model.RiskModerate:
		return yellow(string(band))
	default:
		return red(string(band))
	}
}

func urgencyText(urgency model.CorroUrgency) string {
	switch urgency {
	case model.CorroOK:
		return green(string(urgency))
	case model.CorroOverdue:
		return yellow(string(urgency))
	default:
		return red(string(urgency))
	}
}

// dateFlag reads a YYYY-MM-DD flag, falling back to today
func dateFlag(cmd *cobra.Command, name string, now func() time.Time) (time.Time, error) {
	value, _ := cmd.Flags().GetString(name)
	if value == "" {
		return model.Day(now()), nil
	}
	date, err := model.ParseDate(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s must be a date like 2026-03-02: %w", name, err)
	}
	return date, nil
}

func formatDate(t time.Time) string {
	return t.Format("Mon 02 Jan 2006")
}

// shiftCounts renders per-type counts in display order, e.g. "van 3, night 1"
func shiftCounts(counts map[model.ShiftType]int) string {
	var parts []string
	for _, t := range model.AllShiftTypes {
		if n := counts[t]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s %d", t, n))
		}
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ", ")
}
