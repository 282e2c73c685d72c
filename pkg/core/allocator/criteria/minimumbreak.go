package criteria

import (
	"fmt"

	"github.com/jakechorley/watchtower/pkg/core/allocator"
)

// MinimumBreakCriterion requires a minimum gap between the end of one shift and the start of the next.
//
// Validity:
//   - Returns false if any of the member's shifts on the previous day ends less
//     than the minimum break before the slot starts (a night followed by an early)
type MinimumBreakCriterion struct {
	minHours float64
}

// NewMinimumBreakCriterion creates a new MinimumBreakCriterion
func NewMinimumBreakCriterion(minHours float64) *MinimumBreakCriterion {
	return &MinimumBreakCriterion{minHours: minHours}
}

func (c *MinimumBreakCriterion) Name() string {
	return "MinimumBreak"
}

func (c *MinimumBreakCriterion) IsSlotValid(state *allocator.RosterState, member *allocator.MemberState, slot *allocator.Slot) bool {
	_, ok := c.breakBefore(state, member, slot)
	return ok
}

// breakBefore returns the shortest break before the slot and whether it meets the minimum
func (c *MinimumBreakCriterion) breakBefore(state *allocator.RosterState, member *allocator.MemberState, slot *allocator.Slot) (float64, bool) {
	start, _ := state.Patterns.Span(slot.Date, slot.Type, slot.Hours)
	shortest := -1.0
	for _, prev := range member.ShiftsOn(slot.Date.AddDate(0, 0, -1)) {
		_, end := state.Patterns.Span(prev.Date, prev.Type, prev.Hours)
		gap := max(start.Sub(end).Hours(), 0)
		if shortest < 0 || gap < shortest {
			shortest = gap
		}
	}
	if shortest < 0 {
		return 0, true
	}
	return shortest, shortest >= c.minHours
}

func (c *MinimumBreakCriterion) CalculateSlotAffinity(state *allocator.RosterState, member *allocator.MemberState, slot *allocator.Slot) float64 {
	return 0
}

func (c *MinimumBreakCriterion) AffinityWeight() float64 {
	return 0
}

func (c *MinimumBreakCriterion) ValidateRosterState(state *allocator.RosterState) []allocator.SlotValidationError {
	var errors []allocator.SlotValidationError
	for _, member := range state.Members {
		for _, slot := range member.Allocated {
			if gap, ok := c.breakBefore(state, member, slot); !ok {
				errors = append(errors, allocator.SlotValidationError{
					SlotIndex:     slot.Index,
					Date:          slot.Date,
					MemberID:      member.ID(),
					CriterionName: c.Name(),
					Description:   fmt.Sprintf("member %s has a %.1fh break before %s (minimum %.0fh)", member.ID(), gap, slot.Type, c.minHours),
				})
			}
		}
	}
	return errors
}
