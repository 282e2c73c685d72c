package fatigue

import (
	"math"
	"time"

	"github.com/jakechorley/watchtower/pkg/core/model"
)

// Equity compares one member's shift mix over the window to the average of their station cohort.
// cohort should include the member; records may cover the whole cohort.
//
// Fairness is 100 * (1 - mean deviation / 100), where the mean is taken over the tracked shift
// types of |member share - cohort average share|. A member whose mix matches the cohort exactly
// scores 100; the score falls strictly as any single share moves away from the average.
func Equity(memberID string, cohort []string, records []model.ShiftRecord, asOf time.Time, weeks int) *model.EquityMetrics {
	if weeks <= 0 {
		weeks = DefaultWindowWeeks
	}
	start, end := Window(asOf, weeks)

	inCohort := make(map[string]bool, len(cohort))
	for _, id := range cohort {
		inCohort[id] = true
	}
	inCohort[memberID] = true

	counts := make(map[string]map[model.ShiftType]int)
	totals := make(map[string]int)
	for id := range inCohort {
		counts[id] = make(map[model.ShiftType]int)
	}
	for _, r := range records {
		if !inCohort[r.MemberID] {
			continue
		}
		day := model.Day(r.Date)
		if day.Before(start) || day.After(end) {
			continue
		}
		counts[r.MemberID][r.Type]++
		totals[r.MemberID]++
	}

	shares := func(id string) map[model.ShiftType]float64 {
		s := make(map[model.ShiftType]float64, len(model.TrackedShiftTypes))
		for _, t := range model.TrackedShiftTypes {
			if totals[id] > 0 {
				s[t] = 100 * float64(counts[id][t]) / float64(totals[id])
			}
		}
		return s
	}

	metrics := &model.EquityMetrics{
		Share:         shares(memberID),
		CohortAverage: make(map[model.ShiftType]float64, len(model.TrackedShiftTypes)),
		CorroCount:    counts[memberID][model.ShiftCorro],
	}

	n := float64(len(inCohort))
	for id := range inCohort {
		for t, share := range shares(id) {
			metrics.CohortAverage[t] += share / n
		}
	}

	deviation := 0.0
	for _, t := range model.TrackedShiftTypes {
		deviation += math.Abs(metrics.Share[t] - metrics.CohortAverage[t])
	}
	deviation /= float64(len(model.TrackedShiftTypes))
	metrics.FairnessScore = clamp(100*(1-deviation/100), 0, 100)

	below, equal := 0, 0
	for id := range inCohort {
		c := counts[id][model.ShiftCorro]
		switch {
		case c < metrics.CorroCount:
			below++
		case c == metrics.CorroCount:
			equal++
		}
	}
	metrics.CorroPercentile = 100 * (float64(below) + 0.5*float64(equal)) / n

	return metrics
}
