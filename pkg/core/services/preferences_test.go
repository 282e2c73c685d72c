package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/watchtower/pkg/core/model"
)

func TestUpdatePreferences(t *testing.T) {
	store := newMockStore(stationPool("Ilford", 2), nil)
	now := time.Date(2026, 2, 1, 8, 30, 0, 0, time.UTC)

	prefs := model.DefaultPreferences()
	prefs.NightTolerancePerMonth = 0
	prefs.PreferredRestDays = []time.Weekday{time.Saturday, time.Sunday}
	prefs.MedicalLimitations = "no night shifts"

	audit, err := UpdatePreferences(context.Background(), store, zap.NewNop(), "VP001", prefs, "sgt.jones", now)
	require.NoError(t, err)

	assert.NotEmpty(t, audit.ID)
	assert.Equal(t, "VP001", audit.MemberID)
	assert.Equal(t, "sgt.jones", audit.ChangedBy)
	assert.Equal(t, now, audit.ChangedAt)
	assert.Equal(t, model.DefaultPreferences(), audit.Before)
	assert.Equal(t, 0, audit.After.NightTolerancePerMonth)
	assert.Equal(t, now, audit.After.UpdatedAt)
	assert.Equal(t, "sgt.jones", audit.After.UpdatedBy)

	member, err := store.GetMember(context.Background(), "VP001")
	require.NoError(t, err)
	assert.Equal(t, audit.After, member.Preferences)
	require.Len(t, store.audits, 1)
}

func TestUpdatePreferences_SecondChangeAuditsPreviousValues(t *testing.T) {
	store := newMockStore(stationPool("Ilford", 1), nil)
	now := time.Date(2026, 2, 1, 8, 30, 0, 0, time.UTC)

	first := model.DefaultPreferences()
	first.NightTolerancePerMonth = 4
	_, err := UpdatePreferences(context.Background(), store, zap.NewNop(), "VP001", first, "sgt.jones", now)
	require.NoError(t, err)

	second := model.DefaultPreferences()
	second.NightTolerancePerMonth = 1
	audit, err := UpdatePreferences(context.Background(), store, zap.NewNop(), "VP001", second, "insp.patel", now.Add(time.Hour))
	require.NoError(t, err)

	assert.Equal(t, 4, audit.Before.NightTolerancePerMonth)
	assert.Equal(t, "sgt.jones", audit.Before.UpdatedBy)
	assert.Equal(t, 1, audit.After.NightTolerancePerMonth)
}

func TestUpdatePreferences_Invalid(t *testing.T) {
	store := newMockStore(stationPool("Ilford", 1), nil)

	prefs := model.DefaultPreferences()
	prefs.NightTolerancePerMonth = 40

	_, err := UpdatePreferences(context.Background(), store, zap.NewNop(), "VP001", prefs, "sgt.jones", time.Now())
	require.Error(t, err)
	assert.ErrorContains(t, err, "invalid preferences")
	assert.Empty(t, store.audits)
}

func TestUpdatePreferences_UnknownMember(t *testing.T) {
	store := newMockStore(stationPool("Ilford", 1), nil)

	_, err := UpdatePreferences(context.Background(), store, zap.NewNop(), "VP999", model.DefaultPreferences(), "sgt.jones", time.Now())
	assert.ErrorIs(t, err, model.ErrMemberNotFound)
}
