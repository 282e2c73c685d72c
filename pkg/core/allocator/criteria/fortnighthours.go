package criteria

import (
	"fmt"

	"github.com/jakechorley/watchtower/pkg/core/allocator"
)

// FortnightHoursCriterion enforces the EBA fortnightly hours cap.
//
// Validity:
//   - Returns false if the member's hours in the 14 days ending on the slot's date,
//     plus the slot's hours, would exceed the cap
//   - Slots are filled chronologically, so checking the trailing window keeps
//     every later window within the cap too
type FortnightHoursCriterion struct {
	maxHours float64
}

// NewFortnightHoursCriterion creates a new FortnightHoursCriterion with the given cap
func NewFortnightHoursCriterion(maxHours float64) *FortnightHoursCriterion {
	return &FortnightHoursCriterion{maxHours: maxHours}
}

func (c *FortnightHoursCriterion) Name() string {
	return "FortnightHours"
}

func (c *FortnightHoursCriterion) IsSlotValid(state *allocator.RosterState, member *allocator.MemberState, slot *allocator.Slot) bool {
	worked := member.HoursBetween(slot.Date.AddDate(0, 0, -13), slot.Date)
	return worked+slot.Hours <= c.maxHours
}

func (c *FortnightHoursCriterion) CalculateSlotAffinity(state *allocator.RosterState, member *allocator.MemberState, slot *allocator.Slot) float64 {
	return 0
}

func (c *FortnightHoursCriterion) AffinityWeight() float64 {
	return 0
}

func (c *FortnightHoursCriterion) ValidateRosterState(state *allocator.RosterState) []allocator.SlotValidationError {
	var errors []allocator.SlotValidationError
	for _, member := range state.Members {
		for _, slot := range member.Allocated {
			hours := member.HoursBetween(slot.Date.AddDate(0, 0, -13), slot.Date)
			if hours > c.maxHours {
				errors = append(errors, allocator.SlotValidationError{
					SlotIndex:     slot.Index,
					Date:          slot.Date,
					MemberID:      member.ID(),
					CriterionName: c.Name(),
					Description:   fmt.Sprintf("member %s rostered %.1fh in fortnight (cap %.0fh)", member.ID(), hours, c.maxHours),
				})
			}
		}
	}
	return errors
}
