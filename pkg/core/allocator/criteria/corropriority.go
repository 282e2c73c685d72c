package criteria

import (
	"github.com/jakechorley/watchtower/pkg/core/allocator"
	"github.com/jakechorley/watchtower/pkg/core/corro"
	"github.com/jakechorley/watchtower/pkg/core/model"
)

// CorroPriorityCriterion rotates corro duty towards the members who have gone longest without it.
//
// Affinity (corro slots only):
//   - 1.0 when the member is critical or has never done corro within the lookback
//   - 0.75 when overdue
//   - Otherwise days since last corro as a fraction of the overdue threshold, scaled to 0.5
type CorroPriorityCriterion struct {
	affinityWeight float64
	thresholds     corro.Thresholds
}

// NewCorroPriorityCriterion creates a new CorroPriorityCriterion
func NewCorroPriorityCriterion(affinityWeight float64, thresholds corro.Thresholds) *CorroPriorityCriterion {
	return &CorroPriorityCriterion{affinityWeight: affinityWeight, thresholds: thresholds}
}

func (c *CorroPriorityCriterion) Name() string {
	return "CorroPriority"
}

func (c *CorroPriorityCriterion) IsSlotValid(state *allocator.RosterState, member *allocator.MemberState, slot *allocator.Slot) bool {
	return true
}

func (c *CorroPriorityCriterion) CalculateSlotAffinity(state *allocator.RosterState, member *allocator.MemberState, slot *allocator.Slot) float64 {
	if slot.Type != model.ShiftCorro {
		return 0
	}

	var daysSince *int
	if last, ok := member.LastShiftOfType(slot.Date, model.ShiftCorro); ok {
		days := int(slot.Date.Sub(last).Hours() / 24)
		if days <= c.thresholds.LookbackDays {
			daysSince = &days
		}
	}

	_, urgency := corro.Classify(daysSince, c.thresholds)
	switch urgency {
	case model.CorroCritical:
		return 1
	case model.CorroOverdue:
		return 0.75
	}
	return min(float64(*daysSince)/float64(c.thresholds.OverdueDays), 1) * 0.5
}

func (c *CorroPriorityCriterion) AffinityWeight() float64 {
	return c.affinityWeight
}

func (c *CorroPriorityCriterion) ValidateRosterState(state *allocator.RosterState) []allocator.SlotValidationError {
	return nil
}
