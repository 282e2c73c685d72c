package criteria

import (
	"fmt"

	"github.com/jakechorley/watchtower/pkg/core/allocator"
)

// CoverageCriterion prevents overfilling of slots.
//
// Validity:
//   - Returns false once the slot has reached its required coverage
//
// Affinity:
//   - No affinity contribution; the allocator fills slots in a fixed order
type CoverageCriterion struct{}

// NewCoverageCriterion creates a new CoverageCriterion
func NewCoverageCriterion() *CoverageCriterion {
	return &CoverageCriterion{}
}

func (c *CoverageCriterion) Name() string {
	return "Coverage"
}

func (c *CoverageCriterion) IsSlotValid(state *allocator.RosterState, member *allocator.MemberState, slot *allocator.Slot) bool {
	return slot.RemainingCapacity() > 0
}

func (c *CoverageCriterion) CalculateSlotAffinity(state *allocator.RosterState, member *allocator.MemberState, slot *allocator.Slot) float64 {
	return 0
}

func (c *CoverageCriterion) AffinityWeight() float64 {
	return 0
}

func (c *CoverageCriterion) ValidateRosterState(state *allocator.RosterState) []allocator.SlotValidationError {
	var errors []allocator.SlotValidationError
	for _, slot := range state.Slots {
		if len(slot.Assigned) > slot.Required {
			errors = append(errors, allocator.SlotValidationError{
				SlotIndex:     slot.Index,
				Date:          slot.Date,
				CriterionName: c.Name(),
				Description:   fmt.Sprintf("%s slot over-filled: %d assigned, %d required", slot.Type, len(slot.Assigned), slot.Required),
			})
		}
	}
	return errors
}
