package criteria

import (
	"fmt"

	"github.com/jakechorley/watchtower/pkg/core/allocator"
	"github.com/jakechorley/watchtower/pkg/core/model"
)

// OneShiftPerDayCriterion stops a member being rostered twice on one date.
//
// Validity:
//   - Returns false if the member already has a shift on the slot's date,
//     including shifts recorded in history
type OneShiftPerDayCriterion struct{}

// NewOneShiftPerDayCriterion creates a new OneShiftPerDayCriterion
func NewOneShiftPerDayCriterion() *OneShiftPerDayCriterion {
	return &OneShiftPerDayCriterion{}
}

func (c *OneShiftPerDayCriterion) Name() string {
	return "OneShiftPerDay"
}

func (c *OneShiftPerDayCriterion) IsSlotValid(state *allocator.RosterState, member *allocator.MemberState, slot *allocator.Slot) bool {
	return !member.WorksOn(slot.Date)
}

func (c *OneShiftPerDayCriterion) CalculateSlotAffinity(state *allocator.RosterState, member *allocator.MemberState, slot *allocator.Slot) float64 {
	return 0
}

func (c *OneShiftPerDayCriterion) AffinityWeight() float64 {
	return 0
}

func (c *OneShiftPerDayCriterion) ValidateRosterState(state *allocator.RosterState) []allocator.SlotValidationError {
	var errors []allocator.SlotValidationError
	for _, member := range state.Members {
		for _, slot := range member.Allocated {
			if shifts := member.ShiftsOn(slot.Date); len(shifts) > 1 {
				errors = append(errors, allocator.SlotValidationError{
					SlotIndex:     slot.Index,
					Date:          slot.Date,
					MemberID:      member.ID(),
					CriterionName: c.Name(),
					Description:   fmt.Sprintf("member %s has %d shifts on %s", member.ID(), len(shifts), slot.Date.Format(model.DateLayout)),
				})
			}
		}
	}
	return errors
}
