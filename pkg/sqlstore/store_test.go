package sqlstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/watchtower/pkg/core/model"
)

var monday = time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)

func setupStore(t *testing.T) *DB {
	t.Helper()
	ctx := context.Background()

	store, err := Open(ctx, SQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.RunMigrations(ctx))
	return store
}

func seedMembers(t *testing.T, store *DB) {
	t.Helper()
	err := store.UpsertMembers(context.Background(), []model.Member{
		{ID: "VP002", Name: "Bea", Rank: "Constable", Station: "Central", SeniorityYears: 3, Preferences: model.DefaultPreferences()},
		{ID: "VP001", Name: "Al", Rank: "Sergeant", Station: "Central", SeniorityYears: 11, Preferences: model.DefaultPreferences()},
		{ID: "VP003", Name: "Cy", Rank: "Constable", Station: "North", Preferences: model.DefaultPreferences()},
	})
	require.NoError(t, err)
}

func TestRunMigrations_Idempotent(t *testing.T) {
	store := setupStore(t)

	require.NoError(t, store.RunMigrations(context.Background()))

	var count int
	require.NoError(t, store.db.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&count))
	assert.Equal(t, 2, count)
}

func TestOpen_UnsupportedDialect(t *testing.T) {
	_, err := Open(context.Background(), Dialect("oracle"), "")
	assert.Error(t, err)
}

func TestRebind(t *testing.T) {
	pg := New(nil, Postgres)
	lite := New(nil, SQLite)

	query := `SELECT * FROM t WHERE a = ? AND b = ?`
	assert.Equal(t, `SELECT * FROM t WHERE a = $1 AND b = $2`, pg.rebind(query))
	assert.Equal(t, query, lite.rebind(query))
}

func TestMembers_GetByStation(t *testing.T) {
	store := setupStore(t)
	seedMembers(t, store)

	members, err := store.GetMembers(context.Background(), "Central")
	require.NoError(t, err)
	require.Len(t, members, 2)

	assert.Equal(t, "VP001", members[0].ID)
	assert.Equal(t, "Sergeant", members[0].Rank)
	assert.Equal(t, 11.0, members[0].SeniorityYears)
	assert.Equal(t, model.DefaultPreferences(), members[0].Preferences)
}

func TestMembers_GetMemberNotFound(t *testing.T) {
	store := setupStore(t)

	_, err := store.GetMember(context.Background(), "VP999")
	assert.ErrorIs(t, err, model.ErrMemberNotFound)
}

func TestMembers_UpsertKeepsUpdatedPreferences(t *testing.T) {
	store := setupStore(t)
	seedMembers(t, store)
	ctx := context.Background()

	updated := model.DefaultPreferences()
	updated.NightTolerancePerMonth = 5
	updated.PreferredRestDays = []time.Weekday{time.Saturday, time.Sunday}
	require.NoError(t, store.UpdatePreferences(ctx, model.PreferenceAudit{
		MemberID:  "VP001",
		ChangedBy: "VP900",
		ChangedAt: monday,
		Before:    model.DefaultPreferences(),
		After:     updated,
	}))

	// a feed refresh promotes the member but must not reset preferences
	require.NoError(t, store.UpsertMembers(ctx, []model.Member{
		{ID: "VP001", Name: "Al", Rank: "Senior Sergeant", Station: "Central", SeniorityYears: 12},
	}))

	member, err := store.GetMember(ctx, "VP001")
	require.NoError(t, err)
	assert.Equal(t, "Senior Sergeant", member.Rank)
	assert.Equal(t, 5, member.Preferences.NightTolerancePerMonth)
	assert.Equal(t, []time.Weekday{time.Saturday, time.Sunday}, member.Preferences.PreferredRestDays)
}

func TestPreferenceAudit_AppendsInOrder(t *testing.T) {
	store := setupStore(t)
	seedMembers(t, store)
	ctx := context.Background()

	first := model.DefaultPreferences()
	first.NightTolerancePerMonth = 3
	second := first
	second.AvoidFourEarlies = false

	require.NoError(t, store.UpdatePreferences(ctx, model.PreferenceAudit{
		MemberID: "VP002", ChangedBy: "VP002", ChangedAt: monday, Before: model.DefaultPreferences(), After: first,
	}))
	require.NoError(t, store.UpdatePreferences(ctx, model.PreferenceAudit{
		MemberID: "VP002", ChangedBy: "VP900", ChangedAt: monday.Add(time.Hour), Before: first, After: second,
	}))

	audits, err := store.GetPreferenceAudit(ctx, "VP002")
	require.NoError(t, err)
	require.Len(t, audits, 2)
	assert.Equal(t, 3, audits[0].After.NightTolerancePerMonth)
	assert.Equal(t, "VP900", audits[1].ChangedBy)
	assert.False(t, audits[1].After.AvoidFourEarlies)
	assert.True(t, audits[1].Before.AvoidFourEarlies)
}

func TestShiftRecords_InsertSkipsExistingIDs(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	records := []model.ShiftRecord{
		{ID: "s1", MemberID: "VP001", Date: monday, Type: model.ShiftVan, Hours: 8},
		{ID: "s2", MemberID: "VP001", Date: monday.AddDate(0, 0, 1), Type: model.ShiftNight, Hours: 10, Recall: true},
	}

	n, err := store.InsertShiftRecords(ctx, records)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = store.InsertShiftRecords(ctx, append(records, model.ShiftRecord{MemberID: "VP002", Date: monday, Type: model.ShiftCorro, Hours: 8}))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	all, err := store.GetShiftRecords(ctx, time.Time{}, monday.AddDate(0, 0, 7))
	require.NoError(t, err)
	assert.Len(t, all, 3)

	firstDay, err := store.GetShiftRecords(ctx, monday, monday)
	require.NoError(t, err)
	require.Len(t, firstDay, 2)
	assert.Equal(t, monday, firstDay[0].Date)

	second, err := store.GetShiftRecords(ctx, monday.AddDate(0, 0, 1), monday.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.True(t, second[0].Recall)
	assert.Equal(t, model.ShiftNight, second[0].Type)
	assert.Equal(t, 10.0, second[0].Hours)
}

func draftRoster() *model.RosterPeriod {
	cfg := model.DefaultGenerationConfig("Central", monday)
	return &model.RosterPeriod{
		Station:   "Central",
		StartDate: monday,
		EndDate:   cfg.EndDate(),
		Status:    model.RosterDraft,
		Config:    cfg,
		Assignments: []model.ShiftAssignment{
			{MemberID: "VP001", Date: monday, Type: model.ShiftVan, Hours: 8},
			{MemberID: "VP002", Date: monday, Type: model.ShiftNight, Hours: 8},
		},
		ComplianceStatus: model.ComplianceStatusSummary{
			HasWarnings:         true,
			Warnings:            []model.ComplianceIssue{{MemberID: "VP001", Date: monday, Message: "approaching 76-hour limit"}},
			Violations:          []model.ComplianceIssue{},
			TotalMembersChecked: 2,
			EvaluatedAt:         monday,
		},
		UnresolvedSlots: []model.UnresolvedSlot{{Date: monday, Type: model.ShiftCorro, Required: 1}},
		CreatedAt:       monday.Add(-30 * 24 * time.Hour),
	}
}

func TestRosters_SaveAndGet(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	roster := draftRoster()
	require.NoError(t, store.SaveRoster(ctx, roster))
	require.NotEmpty(t, roster.ID)
	require.NotEmpty(t, roster.Assignments[0].ID)

	loaded, err := store.GetRoster(ctx, roster.ID)
	require.NoError(t, err)

	assert.Equal(t, model.RosterDraft, loaded.Status)
	assert.Equal(t, monday, loaded.StartDate)
	assert.Equal(t, roster.Config.Key(), loaded.Config.Key())
	assert.Equal(t, 2, loaded.Weeks())
	assert.Len(t, loaded.Assignments, 2)
	assert.Equal(t, roster.ID, loaded.Assignments[0].RosterPeriodID)
	assert.True(t, loaded.ComplianceStatus.HasWarnings)
	require.Len(t, loaded.UnresolvedSlots, 1)
	assert.Equal(t, model.ShiftCorro, loaded.UnresolvedSlots[0].Type)
	assert.Nil(t, loaded.Notice)
	assert.Nil(t, loaded.PublishedAt)
}

func TestRosters_DuplicateAssignmentRollsBack(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	roster := draftRoster()
	roster.ID = "r-dup"
	roster.Assignments = append(roster.Assignments, model.ShiftAssignment{MemberID: "VP001", Date: monday, Type: model.ShiftCorro, Hours: 8})

	require.Error(t, store.SaveRoster(ctx, roster))

	_, err := store.GetRoster(ctx, "r-dup")
	assert.ErrorIs(t, err, model.ErrRosterNotFound)
}

func TestRosters_MarkPublishedOnlyOnce(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	roster := draftRoster()
	require.NoError(t, store.SaveRoster(ctx, roster))

	notice := model.PublicationNotice{DaysInAdvance: 30, Status: model.StatusCompliant, Message: "published 30 days in advance"}
	publishedAt := monday.AddDate(0, 0, -30)

	ok, err := store.MarkPublished(ctx, roster.ID, publishedAt, notice)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.MarkPublished(ctx, roster.ID, publishedAt, notice)
	require.NoError(t, err)
	assert.False(t, ok)

	loaded, err := store.GetRoster(ctx, roster.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RosterPublished, loaded.Status)
	require.NotNil(t, loaded.PublishedAt)
	assert.True(t, publishedAt.Equal(*loaded.PublishedAt))
	require.NotNil(t, loaded.Notice)
	assert.Equal(t, 30, loaded.Notice.DaysInAdvance)
}

func TestRosters_UpdateComplianceStatus(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	roster := draftRoster()
	require.NoError(t, store.SaveRoster(ctx, roster))

	summary := model.ComplianceStatusSummary{
		HasViolations: true,
		Violations:    []model.ComplianceIssue{{MemberID: "VP001", Date: monday, Message: "exceeds 76-hour fortnight limit"}},
	}
	require.NoError(t, store.UpdateComplianceStatus(ctx, roster.ID, summary))

	loaded, err := store.GetRoster(ctx, roster.ID)
	require.NoError(t, err)
	assert.True(t, loaded.ComplianceStatus.HasViolations)

	err = store.UpdateComplianceStatus(ctx, "missing", summary)
	assert.True(t, errors.Is(err, model.ErrRosterNotFound))
}

func TestRosters_ListByStation(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	first := draftRoster()
	second := draftRoster()
	second.StartDate = monday.AddDate(0, 0, 14)
	second.EndDate = monday.AddDate(0, 0, 27)
	second.Assignments = nil
	north := draftRoster()
	north.Station = "North"

	for _, r := range []*model.RosterPeriod{first, second, north} {
		require.NoError(t, store.SaveRoster(ctx, r))
	}

	rosters, err := store.ListRosters(ctx, "Central")
	require.NoError(t, err)
	require.Len(t, rosters, 2)
	assert.Equal(t, second.ID, rosters[0].ID)
	assert.Empty(t, rosters[0].Assignments)
}

func TestRosters_GetPublishedAssignments(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	published := draftRoster()
	draft := draftRoster()
	draft.Assignments = []model.ShiftAssignment{{MemberID: "VP001", Date: monday.AddDate(0, 0, 1), Type: model.ShiftVan, Hours: 8}}
	north := draftRoster()
	north.Station = "North"
	for _, r := range []*model.RosterPeriod{published, draft, north} {
		require.NoError(t, store.SaveRoster(ctx, r))
	}
	notice := model.PublicationNotice{DaysInAdvance: 30, Status: model.StatusCompliant}
	for _, r := range []*model.RosterPeriod{published, north} {
		ok, err := store.MarkPublished(ctx, r.ID, monday.AddDate(0, 0, -30), notice)
		require.NoError(t, err)
		require.True(t, ok)
	}

	assignments, err := store.GetPublishedAssignments(ctx, "Central", monday.AddDate(0, 0, -7), monday.AddDate(0, 0, 13))
	require.NoError(t, err)
	require.Len(t, assignments, 2)
	for _, a := range assignments {
		assert.Equal(t, published.ID, a.RosterPeriodID)
		assert.Equal(t, monday, a.Date)
	}

	none, err := store.GetPublishedAssignments(ctx, "Central", monday.AddDate(0, 0, 1), monday.AddDate(0, 0, 13))
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestAlerts_SaveSkipsDuplicatesAndAcknowledge(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	alerts := []model.PublicationAlert{
		{ID: "a-1", Station: "Central", PeriodStart: monday.AddDate(0, 0, 28), PeriodEnd: monday.AddDate(0, 0, 55), Type: model.AlertDeadlineMissed, Message: "overdue", CreatedAt: monday},
		{ID: "a-2", Station: "Central", PeriodStart: monday, PeriodEnd: monday.AddDate(0, 0, 27), Type: model.AlertApproachingDeadline, DaysRemaining: 3, Message: "due", CreatedAt: monday},
		{ID: "a-3", Station: "North", PeriodStart: monday, PeriodEnd: monday.AddDate(0, 0, 27), Type: model.AlertApproachingDeadline, CreatedAt: monday},
	}
	n, err := store.SaveAlerts(ctx, alerts)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	// same station, period and type under a new ID is still a duplicate
	dup := alerts[1]
	dup.ID = "a-4"
	n, err = store.SaveAlerts(ctx, []model.PublicationAlert{alerts[0], dup})
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	active, err := store.GetActiveAlerts(ctx, "Central")
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "a-2", active[0].ID)
	assert.Equal(t, monday, active[0].PeriodStart)
	assert.Equal(t, model.AlertApproachingDeadline, active[0].Type)
	assert.Equal(t, 3, active[0].DaysRemaining)
	assert.False(t, active[0].Acknowledged)

	require.NoError(t, store.AcknowledgeAlert(ctx, "a-2"))
	active, err = store.GetActiveAlerts(ctx, "Central")
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "a-1", active[0].ID)

	err = store.AcknowledgeAlert(ctx, "missing")
	assert.ErrorIs(t, err, model.ErrAlertNotFound)
}
