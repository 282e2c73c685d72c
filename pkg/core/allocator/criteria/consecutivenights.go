package criteria

import (
	"fmt"

	"github.com/jakechorley/watchtower/pkg/core/allocator"
	"github.com/jakechorley/watchtower/pkg/core/model"
)

// ConsecutiveNightsCriterion limits runs of night shifts.
// Runs are counted back into history, so a run started before the period still counts.
type ConsecutiveNightsCriterion struct {
	maxNights int
}

// NewConsecutiveNightsCriterion creates a new ConsecutiveNightsCriterion
func NewConsecutiveNightsCriterion(maxNights int) *ConsecutiveNightsCriterion {
	return &ConsecutiveNightsCriterion{maxNights: maxNights}
}

func (c *ConsecutiveNightsCriterion) Name() string {
	return "ConsecutiveNights"
}

func (c *ConsecutiveNightsCriterion) IsSlotValid(state *allocator.RosterState, member *allocator.MemberState, slot *allocator.Slot) bool {
	if slot.Type != model.ShiftNight {
		return true
	}
	return member.RunLengthBefore(slot.Date, isNight)+1 <= c.maxNights
}

func (c *ConsecutiveNightsCriterion) CalculateSlotAffinity(state *allocator.RosterState, member *allocator.MemberState, slot *allocator.Slot) float64 {
	return 0
}

func (c *ConsecutiveNightsCriterion) AffinityWeight() float64 {
	return 0
}

func (c *ConsecutiveNightsCriterion) ValidateRosterState(state *allocator.RosterState) []allocator.SlotValidationError {
	var errors []allocator.SlotValidationError
	for _, member := range state.Members {
		for _, slot := range member.Allocated {
			if slot.Type != model.ShiftNight {
				continue
			}
			if run := member.RunLengthBefore(slot.Date, isNight) + 1; run > c.maxNights {
				errors = append(errors, allocator.SlotValidationError{
					SlotIndex:     slot.Index,
					Date:          slot.Date,
					MemberID:      member.ID(),
					CriterionName: c.Name(),
					Description:   fmt.Sprintf("member %s rostered %d consecutive nights (maximum %d)", member.ID(), run, c.maxNights),
				})
			}
		}
	}
	return errors
}

func isNight(t model.ShiftType) bool {
	return t == model.ShiftNight
}
