package criteria

import (
	"github.com/jakechorley/watchtower/pkg/core/allocator"
	"github.com/jakechorley/watchtower/pkg/core/model"
)

// earlyRunLimit is the number of earlies in a row a member avoiding four earlies will accept
const earlyRunLimit = 3

// PreferenceHeadroomCriterion spreads nights and earlies towards members with the most tolerance left.
//
// Affinity:
//   - Night slots: remaining monthly night tolerance as a fraction of the tolerance
//   - Early slots for members avoiding four earlies: remaining room before a fourth early
//   - Every other slot: 1.0
type PreferenceHeadroomCriterion struct {
	affinityWeight float64
}

// NewPreferenceHeadroomCriterion creates a new PreferenceHeadroomCriterion with the given affinity weight
func NewPreferenceHeadroomCriterion(affinityWeight float64) *PreferenceHeadroomCriterion {
	return &PreferenceHeadroomCriterion{affinityWeight: affinityWeight}
}

func (c *PreferenceHeadroomCriterion) Name() string {
	return "PreferenceHeadroom"
}

func (c *PreferenceHeadroomCriterion) IsSlotValid(state *allocator.RosterState, member *allocator.MemberState, slot *allocator.Slot) bool {
	return true
}

func (c *PreferenceHeadroomCriterion) CalculateSlotAffinity(state *allocator.RosterState, member *allocator.MemberState, slot *allocator.Slot) float64 {
	prefs := member.Member.Preferences

	switch {
	case slot.Type == model.ShiftNight:
		if prefs.NightTolerancePerMonth <= 0 {
			return 0
		}
		used := member.CountInMonth(slot.Date, model.ShiftNight)
		return max(float64(prefs.NightTolerancePerMonth-used), 0) / float64(prefs.NightTolerancePerMonth)

	case prefs.AvoidFourEarlies && state.Patterns.IsEarly(slot.Type):
		run := member.RunLengthBefore(slot.Date, state.Patterns.IsEarly)
		return max(float64(earlyRunLimit-run), 0) / earlyRunLimit
	}

	return 1
}

func (c *PreferenceHeadroomCriterion) AffinityWeight() float64 {
	return c.affinityWeight
}

func (c *PreferenceHeadroomCriterion) ValidateRosterState(state *allocator.RosterState) []allocator.SlotValidationError {
	return nil
}
