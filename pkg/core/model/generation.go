package model

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
)

// WeekdaysRule matches Monday to Friday
const WeekdaysRule = "FREQ=WEEKLY;BYDAY=MO,TU,WE,TH,FR"

// CoverageOverride raises or lowers the minimum coverage of one shift type on dates matching an RRULE
type CoverageOverride struct {
	RRule   string    `json:"rrule" validate:"required"`
	Type    ShiftType `json:"type" validate:"required,oneof=van watchhouse night corro other"`
	Minimum int       `json:"minimum" validate:"min=0"`
}

// GenerationConfig drives a single roster generation
type GenerationConfig struct {
	Station                 string             `json:"station" validate:"required"`
	StartDate               time.Time          `json:"start_date" validate:"required"`
	PeriodWeeks             int                `json:"period_weeks" validate:"oneof=1 2 4"`
	MinVanCoverage          int                `json:"min_van_coverage" validate:"min=0"`
	MinWatchhouseCoverage   int                `json:"min_watchhouse_coverage" validate:"min=0"`
	MinNightCoverage        int                `json:"min_night_coverage" validate:"min=0"`
	MinCorroCoverage        int                `json:"min_corro_coverage" validate:"min=0"`
	CorroRule               string             `json:"corro_rule,omitempty"`
	Overrides               []CoverageOverride `json:"overrides,omitempty" validate:"dive"`
	MaxConsecutiveNights    int                `json:"max_consecutive_nights" validate:"min=1,max=14"`
	MinRestDaysPerFortnight int                `json:"min_rest_days_per_fortnight" validate:"min=0,max=14"`
	MaxFortnightHours       float64            `json:"max_fortnight_hours" validate:"gt=0,lte=168"`
	FatigueBalancing        bool               `json:"fatigue_balancing"`
	PreferenceWeighting     bool               `json:"preference_weighting"`
	CorroRotationPriority   bool               `json:"corro_rotation_priority"`
	Seed                    int64              `json:"seed"`
}

// DefaultGenerationConfig returns the standard configuration for a station
func DefaultGenerationConfig(station string, start time.Time) GenerationConfig {
	return GenerationConfig{
		Station:                 station,
		StartDate:               Day(start),
		PeriodWeeks:             2,
		MinVanCoverage:          2,
		MinWatchhouseCoverage:   1,
		MinNightCoverage:        1,
		MinCorroCoverage:        1,
		CorroRule:               WeekdaysRule,
		MaxConsecutiveNights:    7,
		MinRestDaysPerFortnight: 4,
		MaxFortnightHours:       76,
		FatigueBalancing:        true,
		PreferenceWeighting:     true,
		CorroRotationPriority:   true,
	}
}

// EndDate returns the last date covered by the config
func (c GenerationConfig) EndDate() time.Time {
	return Day(c.StartDate).AddDate(0, 0, 7*c.PeriodWeeks-1)
}

// Key identifies the (station, period-range) this config generates for
func (c GenerationConfig) Key() string {
	return GenerationKey(c.Station, Day(c.StartDate), c.EndDate())
}

// Validate checks the config on its own, before the member pool is known
func (c GenerationConfig) Validate() error {
	var problems []string

	fieldProblems, err := translateProblems(c)
	if err != nil {
		return fmt.Errorf("failed to validate generation config: %w", err)
	}
	problems = append(problems, fieldProblems...)

	if c.CorroRule != "" {
		if _, err := rrule.StrToRRule(c.CorroRule); err != nil {
			problems = append(problems, fmt.Sprintf("invalid corro rule: %v", err))
		}
	}
	for i, o := range c.Overrides {
		if _, err := rrule.StrToRRule(o.RRule); err != nil {
			problems = append(problems, fmt.Sprintf("invalid rrule in overrides[%d]: %v", i, err))
		}
	}

	if len(problems) > 0 {
		return &ConfigError{Problems: problems}
	}
	return nil
}

// ValidateForPool checks the config against the number of members available at the station
func (c GenerationConfig) ValidateForPool(poolSize int) error {
	if err := c.Validate(); err != nil {
		return err
	}

	coverage, err := c.DailyCoverage()
	if err != nil {
		return &ConfigError{Problems: []string{err.Error()}}
	}

	peak := 0
	for _, day := range coverage {
		total := 0
		for _, n := range day {
			total += n
		}
		peak = max(peak, total)
	}

	if peak >= poolSize {
		return &ConfigError{Problems: []string{
			fmt.Sprintf("daily minimum coverage %d must be less than member pool size %d", peak, poolSize),
		}}
	}
	return nil
}

// DailyCoverage returns the minimum number of members required per shift type for every date in the period
func (c GenerationConfig) DailyCoverage() (map[time.Time]map[ShiftType]int, error) {
	start := Day(c.StartDate)
	end := c.EndDate()

	corroDates, err := matchDates(c.CorroRule, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to expand corro rule: %w", err)
	}

	coverage := make(map[time.Time]map[ShiftType]int)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		day := map[ShiftType]int{
			ShiftVan:        c.MinVanCoverage,
			ShiftWatchhouse: c.MinWatchhouseCoverage,
			ShiftNight:      c.MinNightCoverage,
		}
		if c.CorroRule == "" || corroDates[d] {
			day[ShiftCorro] = c.MinCorroCoverage
		}
		coverage[d] = day
	}

	for i, o := range c.Overrides {
		dates, err := matchDates(o.RRule, start, end)
		if err != nil {
			return nil, fmt.Errorf("failed to expand override %d: %w", i, err)
		}
		for d := range dates {
			coverage[d][o.Type] = o.Minimum
		}
	}

	return coverage, nil
}

// matchDates expands an RRULE over [start, end], returning the matching dates
func matchDates(rule string, start, end time.Time) (map[time.Time]bool, error) {
	matched := make(map[time.Time]bool)
	if rule == "" {
		return matched, nil
	}

	opt, err := rrule.StrToROption(rule)
	if err != nil {
		return nil, err
	}
	opt.Dtstart = start
	r, err := rrule.NewRRule(*opt)
	if err != nil {
		return nil, err
	}

	for _, occurrence := range r.Between(start, end.Add(24*time.Hour-time.Second), true) {
		matched[Day(occurrence)] = true
	}
	return matched, nil
}
