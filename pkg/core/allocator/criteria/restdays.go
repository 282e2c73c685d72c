package criteria

import (
	"fmt"

	"github.com/jakechorley/watchtower/pkg/core/allocator"
)

// RestDaysCriterion guarantees the minimum number of rest days in every fortnight.
//
// Validity:
//   - Returns false if working the slot would leave fewer than the minimum
//     rest days in the 14 days ending on the slot's date
type RestDaysCriterion struct {
	minRestDays int
}

// NewRestDaysCriterion creates a new RestDaysCriterion
func NewRestDaysCriterion(minRestDays int) *RestDaysCriterion {
	return &RestDaysCriterion{minRestDays: minRestDays}
}

func (c *RestDaysCriterion) Name() string {
	return "RestDays"
}

func (c *RestDaysCriterion) IsSlotValid(state *allocator.RosterState, member *allocator.MemberState, slot *allocator.Slot) bool {
	worked := member.WorkedDaysBetween(slot.Date.AddDate(0, 0, -13), slot.Date)
	if !member.WorksOn(slot.Date) {
		worked++
	}
	return 14-worked >= c.minRestDays
}

func (c *RestDaysCriterion) CalculateSlotAffinity(state *allocator.RosterState, member *allocator.MemberState, slot *allocator.Slot) float64 {
	return 0
}

func (c *RestDaysCriterion) AffinityWeight() float64 {
	return 0
}

func (c *RestDaysCriterion) ValidateRosterState(state *allocator.RosterState) []allocator.SlotValidationError {
	var errors []allocator.SlotValidationError
	for _, member := range state.Members {
		for _, slot := range member.Allocated {
			rest := 14 - member.WorkedDaysBetween(slot.Date.AddDate(0, 0, -13), slot.Date)
			if rest < c.minRestDays {
				errors = append(errors, allocator.SlotValidationError{
					SlotIndex:     slot.Index,
					Date:          slot.Date,
					MemberID:      member.ID(),
					CriterionName: c.Name(),
					Description:   fmt.Sprintf("member %s has %d rest days in fortnight (minimum %d)", member.ID(), rest, c.minRestDays),
				})
			}
		}
	}
	return errors
}
