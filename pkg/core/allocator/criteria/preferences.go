package criteria

import (
	"github.com/jakechorley/watchtower/pkg/core/allocator"
	"github.com/jakechorley/watchtower/pkg/core/model"
)

// Penalties subtracted from a perfect preference match
const (
	restDayPenalty        = 0.5
	consecutiveDayPenalty = 0.25
	fourEarliesPenalty    = 0.25
	nightTolerancePenalty = 0.5
)

// PreferencesCriterion favours members whose stated preferences the slot respects.
//
// Validity:
//   - No validity constraints; preferences are never a veto
//
// Affinity:
//   - Starts at 1.0 and subtracts a penalty for each preference the slot would break:
//     a preferred rest day, working the day after another shift when avoiding doubles,
//     a fourth early in a row when avoiding four earlies, and a night beyond the
//     member's monthly night tolerance
//   - Clamped to [0, 1]
type PreferencesCriterion struct {
	affinityWeight float64
}

// NewPreferencesCriterion creates a new PreferencesCriterion with the given affinity weight
func NewPreferencesCriterion(affinityWeight float64) *PreferencesCriterion {
	return &PreferencesCriterion{affinityWeight: affinityWeight}
}

func (c *PreferencesCriterion) Name() string {
	return "Preferences"
}

func (c *PreferencesCriterion) IsSlotValid(state *allocator.RosterState, member *allocator.MemberState, slot *allocator.Slot) bool {
	return true
}

func (c *PreferencesCriterion) CalculateSlotAffinity(state *allocator.RosterState, member *allocator.MemberState, slot *allocator.Slot) float64 {
	prefs := member.Member.Preferences
	affinity := 1.0

	if prefs.PrefersRestOn(slot.Date.Weekday()) {
		affinity -= restDayPenalty
	}

	if prefs.AvoidConsecutiveDoubles && member.WorksOn(slot.Date.AddDate(0, 0, -1)) {
		affinity -= consecutiveDayPenalty
	}

	if prefs.AvoidFourEarlies && state.Patterns.IsEarly(slot.Type) &&
		member.RunLengthBefore(slot.Date, state.Patterns.IsEarly) >= 3 {
		affinity -= fourEarliesPenalty
	}

	if slot.Type == model.ShiftNight && member.CountInMonth(slot.Date, model.ShiftNight) >= prefs.NightTolerancePerMonth {
		affinity -= nightTolerancePenalty
	}

	return max(affinity, 0)
}

func (c *PreferencesCriterion) AffinityWeight() float64 {
	return c.affinityWeight
}

func (c *PreferencesCriterion) ValidateRosterState(state *allocator.RosterState) []allocator.SlotValidationError {
	// Preferences are soft, nothing to validate
	return nil
}
