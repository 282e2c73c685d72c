package criteria

import (
	"github.com/jakechorley/watchtower/pkg/core/allocator"
	"github.com/jakechorley/watchtower/pkg/core/compliance"
	"github.com/jakechorley/watchtower/pkg/core/corro"
	"github.com/jakechorley/watchtower/pkg/core/model"
)

// Weights are the affinity weights of the soft criteria
type Weights struct {
	Preferences        float64 `yaml:"preferences" validate:"min=0"`
	FatigueBalance     float64 `yaml:"fatigueBalance" validate:"min=0"`
	RestSpread         float64 `yaml:"restSpread" validate:"min=0"`
	PreferenceHeadroom float64 `yaml:"preferenceHeadroom" validate:"min=0"`
	CorroPriority      float64 `yaml:"corroPriority" validate:"min=0"`
}

// DefaultWeights returns the standard soft criterion weights
func DefaultWeights() Weights {
	return Weights{
		Preferences:        3,
		FatigueBalance:     4,
		RestSpread:         2,
		PreferenceHeadroom: 2,
		CorroPriority:      5,
	}
}

// ForConfig builds the criteria for a generation config.
// The EBA vetoes are always present; soft criteria switched off by the config get zero weight.
func ForConfig(cfg model.GenerationConfig, rules compliance.Rules, weights Weights, thresholds corro.Thresholds) []allocator.Criterion {
	criteria := []allocator.Criterion{
		NewCoverageCriterion(),
		NewOneShiftPerDayCriterion(),
		NewFortnightHoursCriterion(rules.MaxFortnightHours),
		NewWeeklyHoursCriterion(rules.MaxWeekHours),
		NewRestDaysCriterion(rules.MinRestDaysPerFortnight),
		NewConsecutiveNightsCriterion(rules.MaxConsecutiveNights),
		NewMinimumBreakCriterion(rules.MinBreakHours),
		NewPreferencesCriterion(weights.Preferences),
	}

	criteria = append(criteria,
		NewFatigueBalanceCriterion(enabled(cfg.FatigueBalancing, weights.FatigueBalance)),
		NewRestSpreadCriterion(enabled(cfg.FatigueBalancing, weights.RestSpread)),
		NewPreferenceHeadroomCriterion(enabled(cfg.PreferenceWeighting, weights.PreferenceHeadroom)),
		NewCorroPriorityCriterion(enabled(cfg.CorroRotationPriority, weights.CorroPriority), thresholds),
	)
	return criteria
}

func enabled(on bool, weight float64) float64 {
	if !on {
		return 0
	}
	return weight
}
