// Package corro tracks how fairly the corro duty is rotated through a station.
package corro

import (
	"sort"
	"time"

	"github.com/jakechorley/watchtower/pkg/core/model"
)

// Thresholds configure the corro rotation windows and urgency tiers
type Thresholds struct {
	WindowWeeks  int `yaml:"windowWeeks" validate:"min=1"`
	OverdueDays  int `yaml:"overdueDays" validate:"min=1"`
	CriticalDays int `yaml:"criticalDays" validate:"gtefield=OverdueDays"`
	LookbackDays int `yaml:"lookbackDays" validate:"gtefield=CriticalDays"`
}

// DefaultThresholds returns the reference corro tiers
func DefaultThresholds() Thresholds {
	return Thresholds{
		WindowWeeks:  4,
		OverdueDays:  28,
		CriticalDays: 35,
		LookbackDays: 90,
	}
}

// Track computes each member's corro position as of a date.
// Records of other shift types are ignored. The result is sorted most overdue first.
func Track(members []model.Member, records []model.ShiftRecord, asOf time.Time, thresholds Thresholds) []model.CorroStatus {
	asOf = model.Day(asOf)
	windowStart := asOf.AddDate(0, 0, -7*thresholds.WindowWeeks+1)
	lookbackStart := asOf.AddDate(0, 0, -thresholds.LookbackDays)

	counts := make(map[string]int)
	last := make(map[string]time.Time)
	for _, r := range records {
		if r.Type != model.ShiftCorro {
			continue
		}
		day := model.Day(r.Date)
		if day.After(asOf) || day.Before(lookbackStart) {
			continue
		}
		if !day.Before(windowStart) {
			counts[r.MemberID]++
		}
		if day.After(last[r.MemberID]) {
			last[r.MemberID] = day
		}
	}

	statuses := make([]model.CorroStatus, 0, len(members))
	for _, m := range members {
		status := model.CorroStatus{
			MemberID:   m.ID,
			MemberName: m.Name,
			CorroCount: counts[m.ID],
		}

		if lastCorro, ok := last[m.ID]; ok {
			days := int(asOf.Sub(lastCorro).Hours() / 24)
			status.LastCorro = &lastCorro
			status.DaysSinceLast = &days
		}
		status.Overdue, status.Urgency = Classify(status.DaysSinceLast, thresholds)

		statuses = append(statuses, status)
	}

	sort.SliceStable(statuses, func(i, j int) bool {
		a, b := statuses[i].DaysSinceLast, statuses[j].DaysSinceLast
		switch {
		case a == nil && b != nil:
			return true
		case a != nil && b == nil:
			return false
		case a != nil && b != nil && *a != *b:
			return *a > *b
		}
		return statuses[i].MemberID < statuses[j].MemberID
	})

	return statuses
}

// Classify maps days since the last corro shift onto the overdue flag and urgency tier.
// A member never assigned corro is treated as critical.
func Classify(daysSince *int, thresholds Thresholds) (bool, model.CorroUrgency) {
	if daysSince == nil {
		return true, model.CorroCritical
	}
	switch days := *daysSince; {
	case days > thresholds.CriticalDays:
		return true, model.CorroCritical
	case days > thresholds.OverdueDays:
		return true, model.CorroOverdue
	default:
		return false, model.CorroOK
	}
}
