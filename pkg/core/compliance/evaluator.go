// Package compliance evaluates EBA hour and rest limits over a member's shift window.
package compliance

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/jakechorley/watchtower/pkg/core/fatigue"
	"github.com/jakechorley/watchtower/pkg/core/model"
)

const (
	// FortnightDays is the length of the trailing fortnight window
	FortnightDays = 14
	weekDays      = 7

	violationPenalty = 15.0
	warningPenalty   = 5.0
)

// Evaluate applies the rules to a member's shift records as of a date.
// It is a pure function of its inputs: records for other members are ignored and
// missing history is treated as no shifts worked.
func Evaluate(memberID string, records []model.ShiftRecord, asOf time.Time, rules Rules) *model.ComplianceResult {
	asOf = model.Day(asOf)
	fortnightStart := asOf.AddDate(0, 0, -(FortnightDays - 1))

	own := make([]model.ShiftRecord, 0, len(records))
	hoursByDay := make(map[time.Time]float64)
	nightDays := make(map[time.Time]bool)
	for _, r := range records {
		if r.MemberID != memberID {
			continue
		}
		day := model.Day(r.Date)
		if day.After(asOf) {
			continue
		}
		own = append(own, r)
		hoursByDay[day] += r.Hours
		if r.Type == model.ShiftNight {
			nightDays[day] = true
		}
	}

	result := &model.ComplianceResult{
		MemberID:   memberID,
		AsOf:       asOf,
		Violations: []string{},
		Warnings:   []string{},
	}

	result.FortnightHours = sumHours(hoursByDay, fortnightStart, asOf)
	result.PeakWeekHours = peakWeekHours(hoursByDay, fortnightStart, asOf)
	result.LongestNightRun = longestNightRun(nightDays, fortnightStart, asOf)
	result.RestDays = restDays(hoursByDay, fortnightStart, asOf)
	minBreak, hasBreak := shortestBreak(own, fortnightStart, rules.Patterns)

	// Hard rules
	if result.FortnightHours > rules.MaxFortnightHours {
		result.Violations = append(result.Violations,
			fmt.Sprintf("exceeds %s-hour fortnight limit", formatHours(rules.MaxFortnightHours)))
	}
	if result.PeakWeekHours > rules.MaxWeekHours {
		result.Violations = append(result.Violations,
			fmt.Sprintf("exceeds %sh in 7 days", formatHours(rules.MaxWeekHours)))
	}
	if result.LongestNightRun > rules.MaxConsecutiveNights {
		result.Violations = append(result.Violations,
			fmt.Sprintf("insufficient recovery after %d consecutive night shifts", result.LongestNightRun))
	}
	if result.RestDays < rules.MinRestDaysPerFortnight {
		result.Violations = append(result.Violations, "insufficient rest days in fortnight")
	}
	if hasBreak && rules.MinBreakHours > 0 && minBreak < rules.MinBreakHours {
		result.Violations = append(result.Violations,
			fmt.Sprintf("insufficient break between shifts (%.1fh < %sh)", minBreak, formatHours(rules.MinBreakHours)))
	}

	// Soft rules
	if result.FortnightHours > rules.WarnFortnightHours && result.FortnightHours <= rules.MaxFortnightHours {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("approaching %s-hour limit", formatHours(rules.MaxFortnightHours)))
	}

	switch {
	case len(result.Violations) > 0:
		result.Status = model.StatusViolation
	case len(result.Warnings) > 0:
		result.Status = model.StatusWarning
	default:
		result.Status = model.StatusCompliant
	}

	result.FatigueScore = fatigue.Calculate(memberID, own, asOf, fatigue.DefaultWindowWeeks).Score
	wellness := 100 - result.FatigueScore -
		violationPenalty*float64(len(result.Violations)) -
		warningPenalty*float64(len(result.Warnings))
	result.WellnessScore = math.Max(0, math.Min(100, wellness))

	return result
}

// HoursBetween sums a member's hours over the inclusive date range
func HoursBetween(memberID string, records []model.ShiftRecord, from, to time.Time) float64 {
	from, to = model.Day(from), model.Day(to)
	total := 0.0
	for _, r := range records {
		if r.MemberID != memberID {
			continue
		}
		day := model.Day(r.Date)
		if day.Before(from) || day.After(to) {
			continue
		}
		total += r.Hours
	}
	return total
}

func sumHours(hoursByDay map[time.Time]float64, from, to time.Time) float64 {
	total := 0.0
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		total += hoursByDay[d]
	}
	return total
}

// peakWeekHours returns the highest 7-day total over windows ending inside [from, to]
func peakWeekHours(hoursByDay map[time.Time]float64, from, to time.Time) float64 {
	peak := 0.0
	for end := from; !end.After(to); end = end.AddDate(0, 0, 1) {
		peak = math.Max(peak, sumHours(hoursByDay, end.AddDate(0, 0, -(weekDays-1)), end))
	}
	return peak
}

// longestNightRun returns the longest run of consecutive night shifts ending inside [from, to].
// Runs are counted back into earlier history.
func longestNightRun(nightDays map[time.Time]bool, from, to time.Time) int {
	longest := 0
	for end := from; !end.After(to); end = end.AddDate(0, 0, 1) {
		run := 0
		for d := end; nightDays[d]; d = d.AddDate(0, 0, -1) {
			run++
		}
		longest = max(longest, run)
	}
	return longest
}

func restDays(hoursByDay map[time.Time]float64, from, to time.Time) int {
	rest := 0
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if _, worked := hoursByDay[d]; !worked {
			rest++
		}
	}
	return rest
}

// shortestBreak returns the shortest gap in hours before any shift starting on or after from
func shortestBreak(records []model.ShiftRecord, from time.Time, patterns model.ShiftPatterns) (float64, bool) {
	type span struct{ start, end time.Time }
	spans := make([]span, 0, len(records))
	for _, r := range records {
		start, end := patterns.Span(r.Date, r.Type, r.Hours)
		spans = append(spans, span{start, end})
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].start.Before(spans[j].start) })

	shortest, found := 0.0, false
	for i := 1; i < len(spans); i++ {
		if spans[i].start.Before(from) {
			continue
		}
		gap := math.Max(0, spans[i].start.Sub(spans[i-1].end).Hours())
		if !found || gap < shortest {
			shortest, found = gap, true
		}
	}
	return shortest, found
}
