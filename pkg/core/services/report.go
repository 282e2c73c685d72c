package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/watchtower/pkg/core/compliance"
	"github.com/jakechorley/watchtower/pkg/core/fatigue"
	"github.com/jakechorley/watchtower/pkg/core/model"
)

const (
	// CriticalFortnightHours marks an over-limit member as critical rather than high
	CriticalFortnightHours = 80.0

	// approachingHighHours marks an approaching member as high rather than medium risk
	approachingHighHours = 72.0
)

// Alert severities
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
)

// HoursAlert flags a member whose fortnight hours are over or close to the limit
type HoursAlert struct {
	MemberID       string
	MemberName     string
	Rank           string
	FortnightHours float64
	// Overage is negative for members still under the limit
	Overage  float64
	Severity string
}

// FatigueReportEntry is a high-risk member's fatigue score
type FatigueReportEntry struct {
	MemberName string
	Rank       string
	Score      *model.FatigueScore
}

// FatigueReport is the welfare picture for a station
type FatigueReport struct {
	Station     string
	AsOf        time.Time
	HighRisk    []FatigueReportEntry
	OverLimit   []HoursAlert
	Approaching []HoursAlert
}

// FatigueReportStore defines the database operations needed for a station fatigue report
type FatigueReportStore interface {
	GetMembers(ctx context.Context, station string) ([]model.Member, error)
	GetShiftRecords(ctx context.Context, from, to time.Time) ([]model.ShiftRecord, error)
}

// BuildFatigueReport lists the station's high fatigue members and the members over or
// approaching the fortnight hour limit
func BuildFatigueReport(
	ctx context.Context,
	store FatigueReportStore,
	logger *zap.Logger,
	station string,
	asOf time.Time,
	rules compliance.Rules,
) (*FatigueReport, error) {
	logger.Debug("Starting fatigueReport", zap.String("station", station), zap.Time("as_of", asOf))

	members, err := store.GetMembers(ctx, station)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch members: %w", err)
	}

	records, err := store.GetShiftRecords(ctx, historyStart(asOf), model.Day(asOf))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch shift history: %w", err)
	}

	report := &FatigueReport{
		Station:     station,
		AsOf:        model.Day(asOf),
		HighRisk:    []FatigueReportEntry{},
		OverLimit:   []HoursAlert{},
		Approaching: []HoursAlert{},
	}

	fortnightStart := model.Day(asOf).AddDate(0, 0, -(compliance.FortnightDays - 1))
	for _, m := range members {
		score := fatigue.Calculate(m.ID, records, asOf, fatigue.DefaultWindowWeeks)
		if score.Band == model.RiskHigh {
			report.HighRisk = append(report.HighRisk, FatigueReportEntry{MemberName: m.Name, Rank: m.Rank, Score: score})
		}

		hours := compliance.HoursBetween(m.ID, records, fortnightStart, asOf)
		alert := HoursAlert{
			MemberID:       m.ID,
			MemberName:     m.Name,
			Rank:           m.Rank,
			FortnightHours: hours,
			Overage:        math.Round((hours-rules.MaxFortnightHours)*10) / 10,
		}

		switch {
		case hours > rules.MaxFortnightHours:
			alert.Severity = SeverityHigh
			if hours > CriticalFortnightHours {
				alert.Severity = SeverityCritical
			}
			report.OverLimit = append(report.OverLimit, alert)
		case hours >= rules.WarnFortnightHours:
			alert.Severity = SeverityMedium
			if hours > approachingHighHours {
				alert.Severity = SeverityHigh
			}
			report.Approaching = append(report.Approaching, alert)
		}
	}

	sort.SliceStable(report.HighRisk, func(i, j int) bool {
		return report.HighRisk[i].Score.Score > report.HighRisk[j].Score.Score
	})
	sort.SliceStable(report.OverLimit, func(i, j int) bool {
		return report.OverLimit[i].Overage > report.OverLimit[j].Overage
	})
	sort.SliceStable(report.Approaching, func(i, j int) bool {
		return report.Approaching[i].FortnightHours > report.Approaching[j].FortnightHours
	})

	logger.Info("Fatigue report built",
		zap.String("station", station),
		zap.Int("high_risk", len(report.HighRisk)),
		zap.Int("over_limit", len(report.OverLimit)),
		zap.Int("approaching", len(report.Approaching)))

	return report, nil
}
