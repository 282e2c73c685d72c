package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/watchtower/pkg/core/model"
	"github.com/jakechorley/watchtower/pkg/core/registry"
	"github.com/jakechorley/watchtower/pkg/metrics"
)

// draftRoster is a one week draft putting VP001 on van and VP002 on watchhouse for the first two days
func draftRoster(id string) *model.RosterPeriod {
	cfg := model.DefaultGenerationConfig("Ilford", periodStart)
	cfg.PeriodWeeks = 1
	return &model.RosterPeriod{
		ID:        id,
		Station:   "Ilford",
		StartDate: periodStart,
		EndDate:   periodStart.AddDate(0, 0, 6),
		Status:    model.RosterDraft,
		Config:    cfg,
		Assignments: []model.ShiftAssignment{
			{MemberID: "VP001", Date: periodStart, Type: model.ShiftVan, Hours: 8},
			{MemberID: "VP002", Date: periodStart, Type: model.ShiftWatchhouse, Hours: 8},
			{MemberID: "VP001", Date: periodStart.AddDate(0, 0, 1), Type: model.ShiftVan, Hours: 8},
			{MemberID: "VP002", Date: periodStart.AddDate(0, 0, 1), Type: model.ShiftWatchhouse, Hours: 8},
		},
		CreatedAt: fixedNow,
	}
}

// workedDaysBefore gives a member one 8h van shift on each of the days days before the period
func workedDaysBefore(memberID string, days int) []model.ShiftRecord {
	var records []model.ShiftRecord
	for d := 1; d <= days; d++ {
		records = append(records, shift(memberID, periodStart.AddDate(0, 0, -d), model.ShiftVan, 8))
	}
	return records
}

func publishDeps(store *mockStore) (PublishDeps, *mockSheetsClient, *mockEventPublisher, *mockRecorder) {
	sheets := &mockSheetsClient{}
	events := &mockEventPublisher{}
	rec := &mockRecorder{}
	return PublishDeps{
		Store:         store,
		Locks:         registry.NewKeyedMutex(),
		Sheets:        sheets,
		SpreadsheetID: "sheet-1",
		Events:        events,
		Metrics:       rec,
		Logger:        zap.NewNop(),
		Now:           func() time.Time { return fixedNow },
	}, sheets, events, rec
}

func TestPublishRoster_Success(t *testing.T) {
	store := newMockStore(stationPool("Ilford", 3), nil)
	store.rosters["roster-1"] = draftRoster("roster-1")
	deps, sheets, events, rec := publishDeps(store)

	result, err := PublishRoster(context.Background(), deps, "roster-1")
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, model.RosterPublished, result.Roster.Status)
	require.NotNil(t, result.Roster.PublishedAt)
	assert.Equal(t, fixedNow, *result.Roster.PublishedAt)

	// 2026-01-20 to 2026-03-02
	assert.Equal(t, 41, result.Notice.DaysInAdvance)
	assert.Equal(t, model.StatusCompliant, result.Notice.Status)

	stored := store.roster("roster-1")
	assert.Equal(t, model.RosterPublished, stored.Status)
	assert.Equal(t, fixedNow, stored.ComplianceStatus.EvaluatedAt)
	assert.Equal(t, 3, stored.ComplianceStatus.TotalMembersChecked)

	assert.True(t, result.SheetPublished)
	require.Len(t, sheets.published, 1)
	sheet := sheets.published[0]
	require.Len(t, sheet.Rows, 7)
	assert.Equal(t, []string{"Member 1"}, sheet.Rows[0].Shifts[model.ShiftVan])
	assert.Equal(t, []string{"Member 2"}, sheet.Rows[1].Shifts[model.ShiftWatchhouse])
	assert.Empty(t, sheet.Rows[2].Shifts)

	assert.True(t, result.EventPublished)
	require.Len(t, events.events, 1)
	event := events.events[0]
	assert.Equal(t, "roster-1", event.RosterID)
	assert.Equal(t, "2026-03-02", event.StartDate)
	assert.Equal(t, "2026-03-08", event.EndDate)
	assert.Equal(t, 4, event.Assignments)
	assert.Equal(t, 41, event.NoticeDays)

	assert.NoError(t, result.SideEffectErrors())
	assert.Equal(t, []string{metrics.OutcomePublished}, rec.publishes)
}

func TestPublishRoster_WarningsDoNotBlock(t *testing.T) {
	// 72h in the nine days before the period puts VP003 over the 65h warning line
	store := newMockStore(stationPool("Ilford", 3), workedDaysBefore("VP003", 9))
	store.rosters["roster-1"] = draftRoster("roster-1")
	deps, _, _, _ := publishDeps(store)

	result, err := PublishRoster(context.Background(), deps, "roster-1")
	require.NoError(t, err)

	assert.True(t, result.Roster.ComplianceStatus.HasWarnings)
	assert.False(t, result.Roster.ComplianceStatus.HasViolations)
	assert.Equal(t, model.RosterPublished, store.roster("roster-1").Status)
}

func TestPublishRoster_ViolationsBlock(t *testing.T) {
	// 80h in the ten days before the period puts VP002 over the 76h cap once the draft is added
	store := newMockStore(stationPool("Ilford", 3), workedDaysBefore("VP002", 10))
	store.rosters["roster-1"] = draftRoster("roster-1")
	deps, sheets, events, rec := publishDeps(store)

	result, err := PublishRoster(context.Background(), deps, "roster-1")
	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, model.ErrComplianceViolation)

	var complianceErr *model.ComplianceError
	require.ErrorAs(t, err, &complianceErr)
	assert.Equal(t, "roster-1", complianceErr.RosterID)
	require.NotEmpty(t, complianceErr.Violations)
	assert.Equal(t, "VP002", complianceErr.Violations[0].MemberID)

	stored := store.roster("roster-1")
	assert.Equal(t, model.RosterDraft, stored.Status)
	assert.True(t, stored.ComplianceStatus.HasViolations, "refreshed status is persisted on the draft")
	assert.Empty(t, sheets.published)
	assert.Empty(t, events.events)
	assert.Equal(t, []string{metrics.OutcomeBlocked}, rec.publishes)
}

func TestPublishRoster_AlreadyPublished(t *testing.T) {
	store := newMockStore(stationPool("Ilford", 3), nil)
	published := draftRoster("roster-1")
	published.Status = model.RosterPublished
	store.rosters["roster-1"] = published
	deps, _, _, rec := publishDeps(store)

	_, err := PublishRoster(context.Background(), deps, "roster-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrRosterNotDraft)
	assert.Equal(t, []string{metrics.OutcomeNotDraft}, rec.publishes)
}

func TestPublishRoster_NotFound(t *testing.T) {
	store := newMockStore(stationPool("Ilford", 3), nil)
	deps, _, _, _ := publishDeps(store)

	_, err := PublishRoster(context.Background(), deps, "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrRosterNotFound)
}

// lostRaceStore reports that another writer published the roster first
type lostRaceStore struct {
	*mockStore
}

func (s *lostRaceStore) MarkPublished(ctx context.Context, id string, publishedAt time.Time, notice model.PublicationNotice) (bool, error) {
	return false, nil
}

func TestPublishRoster_LostRace(t *testing.T) {
	store := newMockStore(stationPool("Ilford", 3), nil)
	store.rosters["roster-1"] = draftRoster("roster-1")
	deps, sheets, _, _ := publishDeps(store)
	deps.Store = &lostRaceStore{store}

	_, err := PublishRoster(context.Background(), deps, "roster-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrRosterNotDraft)
	assert.Empty(t, sheets.published)
}

func TestPublishRoster_ConcurrentCallsPublishOnce(t *testing.T) {
	store := newMockStore(stationPool("Ilford", 3), nil)
	store.rosters["roster-1"] = draftRoster("roster-1")
	deps, _, _, _ := publishDeps(store)
	deps.Sheets = nil
	deps.Events = nil

	const callers = 10
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = PublishRoster(context.Background(), deps, "roster-1")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, model.ErrRosterNotDraft)
	}
	assert.Equal(t, 1, succeeded)
}

func TestPublishRoster_SideEffectFailuresDoNotUndoPublish(t *testing.T) {
	store := newMockStore(stationPool("Ilford", 3), nil)
	store.rosters["roster-1"] = draftRoster("roster-1")
	deps, sheets, events, _ := publishDeps(store)
	sheets.err = errors.New("quota exceeded")
	events.err = errors.New("broker unreachable")

	result, err := PublishRoster(context.Background(), deps, "roster-1")
	require.NoError(t, err)

	assert.False(t, result.SheetPublished)
	assert.False(t, result.EventPublished)
	assert.ErrorContains(t, result.SideEffectErrors(), "quota exceeded")
	assert.ErrorContains(t, result.SideEffectErrors(), "broker unreachable")
	assert.Equal(t, model.RosterPublished, store.roster("roster-1").Status)
}

func TestPublishRoster_ShortNoticeStillPublishes(t *testing.T) {
	store := newMockStore(stationPool("Ilford", 3), nil)
	store.rosters["roster-1"] = draftRoster("roster-1")
	deps, _, _, _ := publishDeps(store)
	deps.Now = func() time.Time { return periodStart.AddDate(0, 0, -10) }

	result, err := PublishRoster(context.Background(), deps, "roster-1")
	require.NoError(t, err)
	assert.Equal(t, 10, result.Notice.DaysInAdvance)
	assert.Equal(t, model.StatusViolation, result.Notice.Status)
}

func TestRosterMemberIDs_IncludesDepartedMembers(t *testing.T) {
	ids := rosterMemberIDs(stationPool("Ilford", 2), []model.ShiftAssignment{
		{MemberID: "VP009"},
		{MemberID: "VP001"},
	})
	assert.Equal(t, []string{"VP001", "VP002", "VP009"}, ids)
}
