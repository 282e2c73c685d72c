package compliance

import (
	"strconv"

	"github.com/jakechorley/watchtower/pkg/core/model"
)

// Rules are the EBA limits a shift window is evaluated against
type Rules struct {
	MaxFortnightHours       float64
	WarnFortnightHours      float64
	MaxWeekHours            float64
	MaxConsecutiveNights    int
	MinRestDaysPerFortnight int
	MinBreakHours           float64
	Patterns                model.ShiftPatterns
}

// DefaultRules returns the limits of the current EBA
func DefaultRules() Rules {
	return Rules{
		MaxFortnightHours:       76,
		WarnFortnightHours:      65,
		MaxWeekHours:            60,
		MaxConsecutiveNights:    7,
		MinRestDaysPerFortnight: 4,
		MinBreakHours:           10,
		Patterns:                model.DefaultShiftPatterns(),
	}
}

// RulesFromConfig applies a generation config's limits on top of the defaults
func RulesFromConfig(cfg model.GenerationConfig) Rules {
	rules := DefaultRules()
	if cfg.MaxFortnightHours > 0 {
		rules.MaxFortnightHours = cfg.MaxFortnightHours
	}
	if cfg.MaxConsecutiveNights > 0 {
		rules.MaxConsecutiveNights = cfg.MaxConsecutiveNights
	}
	rules.MinRestDaysPerFortnight = cfg.MinRestDaysPerFortnight
	return rules
}

func formatHours(h float64) string {
	return strconv.FormatFloat(h, 'f', -1, 64)
}
