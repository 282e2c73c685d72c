package compliance

import (
	"fmt"
	"time"

	"github.com/jakechorley/watchtower/pkg/core/model"
)

// Advance notice thresholds for publishing a roster
const (
	NoticeCompliantDays = 28
	NoticeWarningDays   = 21

	// AlertLeadDays is how close to its publication deadline an unpublished period raises an alert
	AlertLeadDays = 7
)

// DaysUntilDeadline counts the days from asOf to the last day a roster starting at start can be
// published with full notice. Negative once the deadline has passed.
func DaysUntilDeadline(asOf, start time.Time) int {
	return int(model.Day(start).Sub(model.Day(asOf)).Hours()/24) - NoticeCompliantDays
}

// PublicationNotice grades how far ahead of its start date a roster is published
func PublicationNotice(publishedAt, startDate time.Time) model.PublicationNotice {
	days := int(model.Day(startDate).Sub(model.Day(publishedAt)).Hours() / 24)

	switch {
	case days >= NoticeCompliantDays:
		return model.PublicationNotice{
			DaysInAdvance: days,
			Status:        model.StatusCompliant,
			Message:       fmt.Sprintf("published %d days in advance", days),
		}
	case days >= NoticeWarningDays:
		return model.PublicationNotice{
			DaysInAdvance: days,
			Status:        model.StatusWarning,
			Message:       fmt.Sprintf("published %d days in advance, less than the %d day target", days, NoticeCompliantDays),
		}
	default:
		return model.PublicationNotice{
			DaysInAdvance: days,
			Status:        model.StatusViolation,
			Message:       fmt.Sprintf("published %d days in advance, less than the %d day minimum", days, NoticeWarningDays),
		}
	}
}
