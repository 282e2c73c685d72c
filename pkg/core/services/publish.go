package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/watchtower/pkg/clients/eventsclient"
	"github.com/jakechorley/watchtower/pkg/clients/sheetsclient"
	"github.com/jakechorley/watchtower/pkg/core/compliance"
	"github.com/jakechorley/watchtower/pkg/core/model"
	"github.com/jakechorley/watchtower/pkg/core/registry"
	"github.com/jakechorley/watchtower/pkg/metrics"
)

// PublishStore defines the database operations needed for publishing a roster
type PublishStore interface {
	GetRoster(ctx context.Context, id string) (*model.RosterPeriod, error)
	GetMembers(ctx context.Context, station string) ([]model.Member, error)
	GetShiftRecords(ctx context.Context, from, to time.Time) ([]model.ShiftRecord, error)
	GetPublishedAssignments(ctx context.Context, station string, from, to time.Time) ([]model.ShiftAssignment, error)
	UpdateComplianceStatus(ctx context.Context, id string, summary model.ComplianceStatusSummary) error
	MarkPublished(ctx context.Context, id string, publishedAt time.Time, notice model.PublicationNotice) (bool, error)
}

// RosterSheetPublisher writes a published roster to a spreadsheet
type RosterSheetPublisher interface {
	PublishRoster(ctx context.Context, spreadsheetID string, roster *sheetsclient.PublishedRoster) error
}

// RosterEventPublisher announces published rosters
type RosterEventPublisher interface {
	PublishRosterPublished(ctx context.Context, event eventsclient.RosterPublished) error
}

// PublishDeps are the collaborators of PublishRoster. Sheets and Events are optional.
type PublishDeps struct {
	Store         PublishStore
	Locks         *registry.KeyedMutex
	Sheets        RosterSheetPublisher
	SpreadsheetID string
	Events        RosterEventPublisher
	Metrics       metrics.Recorder
	Logger        *zap.Logger
	Now           func() time.Time
}

// PublishResult reports a successful publish and the outcome of its best-effort side effects
type PublishResult struct {
	Roster         *model.RosterPeriod
	Notice         model.PublicationNotice
	SheetPublished bool
	SheetError     error
	EventPublished bool
	EventError     error
}

// PublishRoster moves a draft roster to published.
//
// Compliance is re-evaluated over the assignments, current history and the station's other published
// rosters, and persisted on the roster. A member already rostered on the same date by a published roster
// counts as a violation.
// Any violation blocks the publish with a *model.ComplianceError; warnings do not. The status change is
// a conditional update, so of two racing publishes only one succeeds and the other gets model.ErrRosterNotDraft.
// Writing the roster sheet and the published event happen afterwards and never undo the publish.
func PublishRoster(ctx context.Context, deps PublishDeps, id string) (*PublishResult, error) {
	logger := deps.Logger
	recorder := deps.Metrics
	if recorder == nil {
		recorder = metrics.NewNop()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	logger.Debug("Starting publishRoster", zap.String("roster_id", id))

	unlock := deps.Locks.Lock(id)
	defer unlock()

	// Step 1: Fetch the draft
	roster, err := deps.Store.GetRoster(ctx, id)
	if err != nil {
		recorder.ObservePublish(metrics.OutcomeError)
		return nil, fmt.Errorf("failed to fetch roster: %w", err)
	}
	if roster.Status != model.RosterDraft {
		recorder.ObservePublish(metrics.OutcomeNotDraft)
		return nil, fmt.Errorf("%w: %s is %s", model.ErrRosterNotDraft, id, roster.Status)
	}

	// Step 2: Re-evaluate compliance against current history
	members, err := deps.Store.GetMembers(ctx, roster.Station)
	if err != nil {
		recorder.ObservePublish(metrics.OutcomeError)
		return nil, fmt.Errorf("failed to fetch members: %w", err)
	}
	memberIDs := rosterMemberIDs(members, roster.Assignments)

	history, err := deps.Store.GetShiftRecords(ctx, historyStart(roster.StartDate), roster.StartDate.AddDate(0, 0, -1))
	if err != nil {
		recorder.ObservePublish(metrics.OutcomeError)
		return nil, fmt.Errorf("failed to fetch shift history: %w", err)
	}
	published, err := deps.Store.GetPublishedAssignments(ctx, roster.Station, historyStart(roster.StartDate), roster.EndDate)
	if err != nil {
		recorder.ObservePublish(metrics.OutcomeError)
		return nil, fmt.Errorf("failed to fetch published assignments: %w", err)
	}
	history = withPublished(history, published, roster.ID)
	records := append(filterRecordsByMembers(history, memberIDs), roster.AssignmentsAsRecords()...)

	evaluatedAt := now()
	summary := compliance.Summarize(memberIDs, records, roster.Dates(), compliance.RulesFromConfig(roster.Config), evaluatedAt)
	if conflicts := doubleBookings(roster.Assignments, published, roster.ID); len(conflicts) > 0 {
		summary.Violations = append(conflicts, summary.Violations...)
		summary.HasViolations = true
	}
	if err := deps.Store.UpdateComplianceStatus(ctx, roster.ID, summary); err != nil {
		recorder.ObservePublish(metrics.OutcomeError)
		return nil, fmt.Errorf("failed to update compliance status: %w", err)
	}
	roster.ComplianceStatus = summary
	logger.Debug("Compliance re-evaluated",
		zap.Int("violations", len(summary.Violations)),
		zap.Int("warnings", len(summary.Warnings)))

	// Step 3: Gate on violations
	if summary.HasViolations {
		recorder.ObservePublish(metrics.OutcomeBlocked)
		logger.Info("Publish blocked by compliance violations",
			zap.String("roster_id", roster.ID),
			zap.Int("violations", len(summary.Violations)))
		return nil, &model.ComplianceError{RosterID: roster.ID, Violations: summary.Violations}
	}

	// Step 4: Publish
	publishedAt := now()
	notice := compliance.PublicationNotice(publishedAt, roster.StartDate)
	ok, err := deps.Store.MarkPublished(ctx, roster.ID, publishedAt, notice)
	if err != nil {
		recorder.ObservePublish(metrics.OutcomeError)
		return nil, fmt.Errorf("failed to mark roster published: %w", err)
	}
	if !ok {
		recorder.ObservePublish(metrics.OutcomeNotDraft)
		return nil, fmt.Errorf("%w: %s was published concurrently", model.ErrRosterNotDraft, roster.ID)
	}
	roster.Status = model.RosterPublished
	roster.PublishedAt = &publishedAt
	roster.Notice = &notice
	recorder.ObservePublish(metrics.OutcomePublished)

	logger.Info("Roster published",
		zap.String("roster_id", roster.ID),
		zap.String("station", roster.Station),
		zap.Int("notice_days", notice.DaysInAdvance),
		zap.String("notice_status", string(notice.Status)))

	result := &PublishResult{Roster: roster, Notice: notice}

	// Step 5: Best-effort side effects
	if deps.Sheets != nil && deps.SpreadsheetID != "" {
		if err := deps.Sheets.PublishRoster(ctx, deps.SpreadsheetID, buildPublishedRoster(roster, membersByID(members))); err != nil {
			logger.Warn("Failed to write roster sheet", zap.String("roster_id", roster.ID), zap.Error(err))
			result.SheetError = err
		} else {
			result.SheetPublished = true
		}
	}

	if deps.Events != nil {
		if err := deps.Events.PublishRosterPublished(ctx, rosterPublishedEvent(roster)); err != nil {
			logger.Warn("Failed to send roster published event", zap.String("roster_id", roster.ID), zap.Error(err))
			result.EventError = err
		} else {
			result.EventPublished = true
		}
	}

	return result, nil
}

// SideEffectErrors joins the errors of the best-effort steps
func (r *PublishResult) SideEffectErrors() error {
	return errors.Join(r.SheetError, r.EventError)
}

// rosterMemberIDs returns the station's members plus anyone assigned who has since left the station
func rosterMemberIDs(members []model.Member, assignments []model.ShiftAssignment) []string {
	seen := make(map[string]bool, len(members))
	ids := getMemberIDs(members)
	for _, id := range ids {
		seen[id] = true
	}
	for _, a := range assignments {
		if !seen[a.MemberID] {
			seen[a.MemberID] = true
			ids = append(ids, a.MemberID)
		}
	}
	sort.Strings(ids)
	return ids
}

// buildPublishedRoster groups assignments by date with member names, sorted within each shift
func buildPublishedRoster(roster *model.RosterPeriod, members map[string]model.Member) *sheetsclient.PublishedRoster {
	byDate := make(map[time.Time]map[model.ShiftType][]string)
	for _, a := range roster.Assignments {
		day := model.Day(a.Date)
		if byDate[day] == nil {
			byDate[day] = make(map[model.ShiftType][]string)
		}
		byDate[day][a.Type] = append(byDate[day][a.Type], displayName(a.MemberID, members))
	}

	published := &sheetsclient.PublishedRoster{
		Station:   roster.Station,
		StartDate: roster.StartDate,
		EndDate:   roster.EndDate,
	}
	for _, date := range roster.Dates() {
		shifts := byDate[date]
		for _, names := range shifts {
			sort.Strings(names)
		}
		published.Rows = append(published.Rows, sheetsclient.PublishedRosterRow{Date: date, Shifts: shifts})
	}
	return published
}

// displayName falls back to the member ID for members no longer in the directory
func displayName(memberID string, members map[string]model.Member) string {
	if m, ok := members[memberID]; ok && m.Name != "" {
		return m.Name
	}
	return memberID
}

func rosterPublishedEvent(roster *model.RosterPeriod) eventsclient.RosterPublished {
	event := eventsclient.RosterPublished{
		RosterID:        roster.ID,
		Station:         roster.Station,
		StartDate:       roster.StartDate.Format(model.DateLayout),
		EndDate:         roster.EndDate.Format(model.DateLayout),
		Assignments:     len(roster.Assignments),
		HasWarnings:     roster.ComplianceStatus.HasWarnings,
		UnresolvedSlots: len(roster.UnresolvedSlots),
	}
	if roster.PublishedAt != nil {
		event.PublishedAt = *roster.PublishedAt
	}
	if roster.Notice != nil {
		event.NoticeDays = roster.Notice.DaysInAdvance
		event.NoticeStatus = string(roster.Notice.Status)
	}
	return event
}
