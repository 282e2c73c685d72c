// Package fatigue derives fatigue scores and workload equity metrics from shift history.
// All functions are pure and safe for concurrent use.
package fatigue

import (
	"fmt"
	"math"
	"time"

	"github.com/jakechorley/watchtower/pkg/core/model"
)

// DefaultWindowWeeks is the trailing window fatigue is scored over
const DefaultWindowWeeks = 8

// Score weights
const (
	weightVan        = 0.3
	weightWatchhouse = 0.3
	weightNight      = 0.2
	weightOvertime   = 0.1
	weightRecall     = 0.1
)

// Band thresholds
const (
	HighThreshold     = 60.0
	ModerateThreshold = 30.0
)

// Risk factor thresholds
const (
	riskVanPct        = 30.0
	riskWatchhousePct = 30.0
	riskNightPct      = 25.0
	riskOvertimeHours = 20.0
	riskRecallCount   = 3
)

// Window returns the inclusive [start, end] dates of a trailing window of weeks ending at asOf
func Window(asOf time.Time, weeks int) (time.Time, time.Time) {
	end := model.Day(asOf)
	return end.AddDate(0, 0, -7*weeks+1), end
}

// Calculate scores a member's fatigue over the trailing window ending at asOf.
// Records outside the window or belonging to other members are ignored.
func Calculate(memberID string, records []model.ShiftRecord, asOf time.Time, weeks int) *model.FatigueScore {
	if weeks <= 0 {
		weeks = DefaultWindowWeeks
	}
	start, end := Window(asOf, weeks)

	result := &model.FatigueScore{
		MemberID:    memberID,
		WindowStart: start,
		WindowEnd:   end,
		ShiftPct:    make(map[model.ShiftType]float64),
	}

	counts := make(map[model.ShiftType]int)
	for _, r := range records {
		if r.MemberID != memberID {
			continue
		}
		day := model.Day(r.Date)
		if day.Before(start) || day.After(end) {
			continue
		}

		result.TotalShifts++
		result.TotalHours += r.Hours
		counts[r.Type]++
		result.OvertimeHours += math.Max(0, r.Hours-model.StandardShiftHours)
		if r.Recall {
			result.RecallCount++
		}
	}

	if result.TotalShifts > 0 {
		for _, t := range model.AllShiftTypes {
			result.ShiftPct[t] = 100 * float64(counts[t]) / float64(result.TotalShifts)
		}
	}

	score := weightVan*result.ShiftPct[model.ShiftVan] +
		weightWatchhouse*result.ShiftPct[model.ShiftWatchhouse] +
		weightNight*result.ShiftPct[model.ShiftNight] +
		weightOvertime*result.OvertimeHours +
		weightRecall*float64(result.RecallCount)

	result.Score = clamp(score, 0, 100)
	result.Band = BandFor(result.Score)
	result.RiskFactors = riskFactors(result)

	return result
}

// BandFor maps a fatigue score onto its risk band
func BandFor(score float64) model.RiskBand {
	switch {
	case score > HighThreshold:
		return model.RiskHigh
	case score > ModerateThreshold:
		return model.RiskModerate
	default:
		return model.RiskLow
	}
}

func riskFactors(s *model.FatigueScore) []string {
	var factors []string
	if pct := s.ShiftPct[model.ShiftVan]; pct > riskVanPct {
		factors = append(factors, fmt.Sprintf("High van shifts: %.1f%%", pct))
	}
	if pct := s.ShiftPct[model.ShiftWatchhouse]; pct > riskWatchhousePct {
		factors = append(factors, fmt.Sprintf("High watchhouse shifts: %.1f%%", pct))
	}
	if pct := s.ShiftPct[model.ShiftNight]; pct > riskNightPct {
		factors = append(factors, fmt.Sprintf("High night shifts: %.1f%%", pct))
	}
	if s.OvertimeHours > riskOvertimeHours {
		factors = append(factors, fmt.Sprintf("Excessive overtime: %.1fh", s.OvertimeHours))
	}
	if s.RecallCount > riskRecallCount {
		factors = append(factors, fmt.Sprintf("Frequent recalls: %d", s.RecallCount))
	}
	return factors
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
