package corro

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/watchtower/pkg/core/model"
)

var asOf = time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

func corroShift(member string, daysAgo int) model.ShiftRecord {
	return model.ShiftRecord{MemberID: member, Date: asOf.AddDate(0, 0, -daysAgo), Type: model.ShiftCorro, Hours: 8}
}

func byID(statuses []model.CorroStatus) map[string]model.CorroStatus {
	m := make(map[string]model.CorroStatus)
	for _, s := range statuses {
		m[s.MemberID] = s
	}
	return m
}

func TestTrack_OverdueTiers(t *testing.T) {
	members := []model.Member{{ID: "forty"}, {ID: "twenty"}, {ID: "thirty"}}
	records := []model.ShiftRecord{
		corroShift("forty", 40),
		corroShift("twenty", 20),
		corroShift("thirty", 30),
	}

	statuses := byID(Track(members, records, asOf, DefaultThresholds()))

	forty := statuses["forty"]
	require.NotNil(t, forty.DaysSinceLast)
	assert.Equal(t, 40, *forty.DaysSinceLast)
	assert.True(t, forty.Overdue)
	assert.Equal(t, model.CorroCritical, forty.Urgency)
	assert.Equal(t, 0, forty.CorroCount) // outside the 4 week window

	twenty := statuses["twenty"]
	assert.False(t, twenty.Overdue)
	assert.Equal(t, model.CorroOK, twenty.Urgency)
	assert.Equal(t, 1, twenty.CorroCount)

	thirty := statuses["thirty"]
	assert.True(t, thirty.Overdue)
	assert.Equal(t, model.CorroOverdue, thirty.Urgency)
}

func TestTrack_NeverAssigned(t *testing.T) {
	members := []model.Member{{ID: "new", Name: "New Member"}}

	statuses := Track(members, nil, asOf, DefaultThresholds())

	require.Len(t, statuses, 1)
	assert.Nil(t, statuses[0].DaysSinceLast)
	assert.Nil(t, statuses[0].LastCorro)
	assert.True(t, statuses[0].Overdue)
	assert.Equal(t, model.CorroCritical, statuses[0].Urgency)
	assert.Equal(t, "New Member", statuses[0].MemberName)
}

func TestTrack_CountsOnlyCorroInWindow(t *testing.T) {
	members := []model.Member{{ID: "a"}}
	records := []model.ShiftRecord{
		corroShift("a", 1),
		corroShift("a", 8),
		corroShift("a", 27),
		corroShift("a", 28), // outside window
		{MemberID: "a", Date: asOf, Type: model.ShiftVan, Hours: 8},
		corroShift("a", -3), // future
	}

	statuses := Track(members, records, asOf, DefaultThresholds())

	assert.Equal(t, 3, statuses[0].CorroCount)
	assert.Equal(t, 1, *statuses[0].DaysSinceLast)
}

func TestTrack_SortedMostOverdueFirst(t *testing.T) {
	members := []model.Member{{ID: "b"}, {ID: "recent"}, {ID: "never"}, {ID: "a"}}
	records := []model.ShiftRecord{
		corroShift("recent", 2),
		corroShift("a", 10),
		corroShift("b", 10),
	}

	statuses := Track(members, records, asOf, DefaultThresholds())

	ids := make([]string, len(statuses))
	for i, s := range statuses {
		ids[i] = s.MemberID
	}
	assert.Equal(t, []string{"never", "a", "b", "recent"}, ids)
}

func TestClassify_Boundaries(t *testing.T) {
	th := DefaultThresholds()
	days := func(n int) *int { return &n }

	overdue, urgency := Classify(days(28), th)
	assert.False(t, overdue)
	assert.Equal(t, model.CorroOK, urgency)

	overdue, urgency = Classify(days(29), th)
	assert.True(t, overdue)
	assert.Equal(t, model.CorroOverdue, urgency)

	_, urgency = Classify(days(35), th)
	assert.Equal(t, model.CorroOverdue, urgency)

	_, urgency = Classify(days(36), th)
	assert.Equal(t, model.CorroCritical, urgency)
}
