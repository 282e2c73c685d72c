package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jakechorley/watchtower/pkg/core/compliance"
	"github.com/jakechorley/watchtower/pkg/core/model"
)

// alertCycleDays is the length of the periods checked for a published roster
const alertCycleDays = 28

// alertEpoch aligns the cycles of a station that has never published a roster. It is a Monday.
var alertEpoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// PublicationAlertStore defines the database operations needed to raise publication alerts
type PublicationAlertStore interface {
	ListRosters(ctx context.Context, station string) ([]model.RosterPeriod, error)
	SaveAlerts(ctx context.Context, alerts []model.PublicationAlert) (int, error)
	GetActiveAlerts(ctx context.Context, station string) ([]model.PublicationAlert, error)
}

// PublicationAlerts raises an alert for every period without a published roster whose publication
// deadline is at most compliance.AlertLeadDays after asOf, then returns the station's unacknowledged
// alerts that are still unresolved.
//
// Gaps between published rosters are reported as they are. Around them the station is checked in
// consecutive 28 day cycles aligned to the first and last published rosters.
func PublicationAlerts(ctx context.Context, store PublicationAlertStore, logger *zap.Logger, station string, asOf time.Time) ([]model.PublicationAlert, error) {
	logger.Debug("Starting publicationAlerts", zap.String("station", station), zap.Time("as_of", asOf))

	// Step 1: Find the dates already covered by published rosters
	rosters, err := store.ListRosters(ctx, station)
	if err != nil {
		return nil, fmt.Errorf("failed to list rosters: %w", err)
	}
	covered := publishedDates(rosters)

	// Step 2: Raise alerts for uncovered periods inside the alert window
	today := model.Day(asOf)
	horizon := today.AddDate(0, 0, compliance.NoticeCompliantDays+compliance.AlertLeadDays)
	var raised []model.PublicationAlert
	for _, p := range uncoveredPeriods(covered, today, horizon) {
		raised = append(raised, newPublicationAlert(station, p, asOf))
	}

	inserted, err := store.SaveAlerts(ctx, raised)
	if err != nil {
		return nil, fmt.Errorf("failed to save publication alerts: %w", err)
	}

	// Step 3: Report unacknowledged alerts whose period still lacks a published roster
	active, err := store.GetActiveAlerts(ctx, station)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch publication alerts: %w", err)
	}
	alerts := unresolvedAlerts(active, covered)

	logger.Info("Publication alerts checked",
		zap.String("station", station),
		zap.Int("raised", inserted),
		zap.Int("active", len(alerts)))

	return alerts, nil
}

// AlertAcknowledger defines the database operations needed to acknowledge an alert
type AlertAcknowledger interface {
	AcknowledgeAlert(ctx context.Context, id string) error
}

// AcknowledgeAlert marks a publication alert as seen. Unknown IDs return model.ErrAlertNotFound.
func AcknowledgeAlert(ctx context.Context, store AlertAcknowledger, logger *zap.Logger, id string) error {
	if err := store.AcknowledgeAlert(ctx, id); err != nil {
		return fmt.Errorf("failed to acknowledge alert: %w", err)
	}
	logger.Info("Publication alert acknowledged", zap.String("alert_id", id))
	return nil
}

// publicationLookbackDays bounds the publications included in the compliance report
const publicationLookbackDays = 180

const recentPublicationLimit = 10

// PublicationComplianceReport grades a station's recent rosters on how far in advance they were published
type PublicationComplianceReport struct {
	Station              string
	Since                time.Time
	TotalPublications    int
	Compliant            int
	Warnings             int
	Violations           int
	AverageDaysInAdvance float64
	ActiveAlerts         int
	// Recent holds the latest publications, newest first
	Recent []model.RosterPeriod
}

// PublicationComplianceStore defines the database operations needed for the publication compliance report
type PublicationComplianceStore interface {
	ListRosters(ctx context.Context, station string) ([]model.RosterPeriod, error)
	GetActiveAlerts(ctx context.Context, station string) ([]model.PublicationAlert, error)
}

// PublicationCompliance summarises the notice given for rosters published in the 180 days up to and including asOf
func PublicationCompliance(ctx context.Context, store PublicationComplianceStore, logger *zap.Logger, station string, asOf time.Time) (*PublicationComplianceReport, error) {
	logger.Debug("Starting publicationCompliance", zap.String("station", station))

	rosters, err := store.ListRosters(ctx, station)
	if err != nil {
		return nil, fmt.Errorf("failed to list rosters: %w", err)
	}

	report := &PublicationComplianceReport{
		Station: station,
		Since:   model.Day(asOf).AddDate(0, 0, -publicationLookbackDays),
	}

	until := model.Day(asOf).AddDate(0, 0, 1)
	var published []model.RosterPeriod
	totalDays := 0
	for _, r := range rosters {
		if r.Status != model.RosterPublished || r.PublishedAt == nil || r.Notice == nil {
			continue
		}
		if r.PublishedAt.Before(report.Since) || !r.PublishedAt.Before(until) {
			continue
		}
		published = append(published, r)
		totalDays += r.Notice.DaysInAdvance

		switch r.Notice.Status {
		case model.StatusCompliant:
			report.Compliant++
		case model.StatusWarning:
			report.Warnings++
		case model.StatusViolation:
			report.Violations++
		}
	}

	report.TotalPublications = len(published)
	if len(published) > 0 {
		report.AverageDaysInAdvance = float64(totalDays) / float64(len(published))
	}

	sort.SliceStable(published, func(i, j int) bool { return published[i].PublishedAt.After(*published[j].PublishedAt) })
	report.Recent = published[:min(len(published), recentPublicationLimit)]

	active, err := store.GetActiveAlerts(ctx, station)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch publication alerts: %w", err)
	}
	report.ActiveAlerts = len(active)

	logger.Debug("Publication compliance summarised",
		zap.Int("publications", report.TotalPublications),
		zap.Int("violations", report.Violations))

	return report, nil
}

type datePeriod struct {
	start time.Time
	end   time.Time
}

func publishedDates(rosters []model.RosterPeriod) map[time.Time]bool {
	covered := make(map[time.Time]bool)
	for _, r := range rosters {
		if r.Status != model.RosterPublished {
			continue
		}
		for d := model.Day(r.StartDate); !d.After(r.EndDate); d = d.AddDate(0, 0, 1) {
			covered[d] = true
		}
	}
	return covered
}

// uncoveredPeriods lists the periods lacking a published roster that end on or after today and start by horizon
func uncoveredPeriods(covered map[time.Time]bool, today, horizon time.Time) []datePeriod {
	var first, last time.Time
	for d := range covered {
		if first.IsZero() || d.Before(first) {
			first = d
		}
		if d.After(last) {
			last = d
		}
	}

	var periods []datePeriod

	// Cycles before the first published roster, counted back from its start
	if !first.IsZero() {
		for end := first.AddDate(0, 0, -1); !end.Before(today); end = end.AddDate(0, 0, -alertCycleDays) {
			start := end.AddDate(0, 0, 1-alertCycleDays)
			if !start.After(horizon) {
				periods = append(periods, datePeriod{start: start, end: end})
			}
		}
		sort.Slice(periods, func(i, j int) bool { return periods[i].start.Before(periods[j].start) })
	}

	// Gaps between published rosters
	if !first.IsZero() {
		for d := first; !d.After(last) && !d.After(horizon); d = d.AddDate(0, 0, 1) {
			if covered[d] {
				continue
			}
			start := d
			for !covered[d.AddDate(0, 0, 1)] {
				d = d.AddDate(0, 0, 1)
			}
			if !d.Before(today) {
				periods = append(periods, datePeriod{start: start, end: d})
			}
		}
	}

	// Cycles after the last published roster
	start := alertEpoch
	if !last.IsZero() {
		start = last.AddDate(0, 0, 1)
	}
	if start.Before(today) {
		behind := int(today.Sub(start).Hours()/24) / alertCycleDays
		start = start.AddDate(0, 0, behind*alertCycleDays)
	}
	for ; !start.After(horizon); start = start.AddDate(0, 0, alertCycleDays) {
		periods = append(periods, datePeriod{start: start, end: start.AddDate(0, 0, alertCycleDays-1)})
	}

	return periods
}

func newPublicationAlert(station string, p datePeriod, asOf time.Time) model.PublicationAlert {
	days := compliance.DaysUntilDeadline(asOf, p.start)
	alert := model.PublicationAlert{
		Station:     station,
		PeriodStart: p.start,
		PeriodEnd:   p.end,
		Type:        model.AlertApproachingDeadline,
		CreatedAt:   asOf,
	}
	if days < 0 {
		alert.Type = model.AlertDeadlineMissed
		alert.Message = fmt.Sprintf("roster publication overdue by %d days for period starting %s", -days, p.start.Format(model.DateLayout))
	} else {
		alert.DaysRemaining = days
		alert.Message = fmt.Sprintf("roster publication due in %d days for period starting %s", days, p.start.Format(model.DateLayout))
	}
	alert.ID = alertID(station, p.start, alert.Type)
	return alert
}

// alertID is stable for a station, period start and alert type so the same alert is never raised twice
func alertID(station string, start time.Time, t model.AlertType) string {
	name := fmt.Sprintf("%s|%s|%s", station, start.Format(model.DateLayout), t)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String()
}

// unresolvedAlerts drops alerts whose period is now fully published and approaching alerts superseded
// by a missed alert for the same period
func unresolvedAlerts(active []model.PublicationAlert, covered map[time.Time]bool) []model.PublicationAlert {
	missed := make(map[time.Time]bool)
	for _, a := range active {
		if a.Type == model.AlertDeadlineMissed {
			missed[model.Day(a.PeriodStart)] = true
		}
	}

	alerts := make([]model.PublicationAlert, 0, len(active))
	for _, a := range active {
		if a.Type == model.AlertApproachingDeadline && missed[model.Day(a.PeriodStart)] {
			continue
		}
		if periodCovered(covered, a.PeriodStart, a.PeriodEnd) {
			continue
		}
		alerts = append(alerts, a)
	}
	sort.SliceStable(alerts, func(i, j int) bool { return alerts[i].PeriodStart.Before(alerts[j].PeriodStart) })
	return alerts
}

func periodCovered(covered map[time.Time]bool, start, end time.Time) bool {
	for d := model.Day(start); !d.After(end); d = d.AddDate(0, 0, 1) {
		if !covered[d] {
			return false
		}
	}
	return true
}
