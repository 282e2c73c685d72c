package criteria

import (
	"fmt"

	"github.com/jakechorley/watchtower/pkg/core/allocator"
)

// WeeklyHoursCriterion caps the hours a member works in any 7 day window
type WeeklyHoursCriterion struct {
	maxHours float64
}

// NewWeeklyHoursCriterion creates a new WeeklyHoursCriterion
func NewWeeklyHoursCriterion(maxHours float64) *WeeklyHoursCriterion {
	return &WeeklyHoursCriterion{maxHours: maxHours}
}

func (c *WeeklyHoursCriterion) Name() string {
	return "WeeklyHours"
}

func (c *WeeklyHoursCriterion) IsSlotValid(state *allocator.RosterState, member *allocator.MemberState, slot *allocator.Slot) bool {
	return member.HoursBetween(slot.Date.AddDate(0, 0, -6), slot.Date)+slot.Hours <= c.maxHours
}

func (c *WeeklyHoursCriterion) CalculateSlotAffinity(state *allocator.RosterState, member *allocator.MemberState, slot *allocator.Slot) float64 {
	return 0
}

func (c *WeeklyHoursCriterion) AffinityWeight() float64 {
	return 0
}

func (c *WeeklyHoursCriterion) ValidateRosterState(state *allocator.RosterState) []allocator.SlotValidationError {
	var errors []allocator.SlotValidationError
	for _, member := range state.Members {
		for _, slot := range member.Allocated {
			if hours := member.HoursBetween(slot.Date.AddDate(0, 0, -6), slot.Date); hours > c.maxHours {
				errors = append(errors, allocator.SlotValidationError{
					SlotIndex:     slot.Index,
					Date:          slot.Date,
					MemberID:      member.ID(),
					CriterionName: c.Name(),
					Description:   fmt.Sprintf("member %s rostered %.1fh in 7 days (cap %.0fh)", member.ID(), hours, c.maxHours),
				})
			}
		}
	}
	return errors
}
