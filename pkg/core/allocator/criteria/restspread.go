package criteria

import (
	"github.com/jakechorley/watchtower/pkg/core/allocator"
)

// spreadHorizonDays is the gap after which a member is considered fully rested
const spreadHorizonDays = 7

// RestSpreadCriterion optimizes for members who have gone longest without a shift.
//
// Validity:
//   - No validity constraints (always returns true)
//
// Affinity:
//   - Increases affinity with the days since the member last worked, looking
//     back through this run's allocations and history
//   - Reaches 1.0 at a week or more, or when the member has no recent shifts
type RestSpreadCriterion struct {
	affinityWeight float64
}

// NewRestSpreadCriterion creates a new RestSpreadCriterion with the given affinity weight
func NewRestSpreadCriterion(affinityWeight float64) *RestSpreadCriterion {
	return &RestSpreadCriterion{affinityWeight: affinityWeight}
}

func (c *RestSpreadCriterion) Name() string {
	return "RestSpread"
}

func (c *RestSpreadCriterion) IsSlotValid(state *allocator.RosterState, member *allocator.MemberState, slot *allocator.Slot) bool {
	return true
}

func (c *RestSpreadCriterion) CalculateSlotAffinity(state *allocator.RosterState, member *allocator.MemberState, slot *allocator.Slot) float64 {
	for gap := 1; gap <= spreadHorizonDays; gap++ {
		if member.WorksOn(slot.Date.AddDate(0, 0, -gap)) {
			return float64(gap-1) / spreadHorizonDays
		}
	}
	return 1
}

func (c *RestSpreadCriterion) AffinityWeight() float64 {
	return c.affinityWeight
}

func (c *RestSpreadCriterion) ValidateRosterState(state *allocator.RosterState) []allocator.SlotValidationError {
	return nil
}
