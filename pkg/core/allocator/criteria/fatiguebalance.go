package criteria

import (
	"github.com/jakechorley/watchtower/pkg/core/allocator"
	"github.com/jakechorley/watchtower/pkg/core/fatigue"
)

// FatigueBalanceCriterion steers slots away from fatigued members.
//
// Affinity:
//   - 1 - fatigue/100, with fatigue scored over history plus this run's
//     allocations as of the slot's date
type FatigueBalanceCriterion struct {
	affinityWeight float64
}

// NewFatigueBalanceCriterion creates a new FatigueBalanceCriterion with the given affinity weight
func NewFatigueBalanceCriterion(affinityWeight float64) *FatigueBalanceCriterion {
	return &FatigueBalanceCriterion{affinityWeight: affinityWeight}
}

func (c *FatigueBalanceCriterion) Name() string {
	return "FatigueBalance"
}

func (c *FatigueBalanceCriterion) IsSlotValid(state *allocator.RosterState, member *allocator.MemberState, slot *allocator.Slot) bool {
	return true
}

func (c *FatigueBalanceCriterion) CalculateSlotAffinity(state *allocator.RosterState, member *allocator.MemberState, slot *allocator.Slot) float64 {
	score := fatigue.Calculate(member.ID(), member.Records(), slot.Date, fatigue.DefaultWindowWeeks)
	return 1 - score.Score/100
}

func (c *FatigueBalanceCriterion) AffinityWeight() float64 {
	return c.affinityWeight
}

func (c *FatigueBalanceCriterion) ValidateRosterState(state *allocator.RosterState) []allocator.SlotValidationError {
	return nil
}
