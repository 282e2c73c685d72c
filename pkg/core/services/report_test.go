package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/watchtower/pkg/core/compliance"
	"github.com/jakechorley/watchtower/pkg/core/model"
)

func TestBuildFatigueReport(t *testing.T) {
	asOf := periodStart.AddDate(0, 0, -1)

	var records []model.ShiftRecord
	// VP001: twenty 24h van shifts, over the limit and high fatigue
	for d := 1; d <= 20; d++ {
		records = append(records, shift("VP001", periodStart.AddDate(0, 0, -d), model.ShiftVan, 24))
	}
	// VP002: 80h, just over the limit
	records = append(records, workedDaysBefore("VP002", 10)...)
	// VP003: 72h, approaching
	records = append(records, workedDaysBefore("VP003", 9)...)
	// VP004: 74h, approaching and above 72
	records = append(records, workedDaysBefore("VP004", 9)...)
	records = append(records, shift("VP004", periodStart.AddDate(0, 0, -10), model.ShiftOther, 2))
	// VP005 has nothing; VP101 is at another station
	records = append(records, workedDaysBefore("VP101", 12)...)

	members := append(stationPool("Ilford", 5), model.Member{ID: "VP101", Name: "Elsewhere", Station: "Barking"})
	store := newMockStore(members, records)

	report, err := BuildFatigueReport(context.Background(), store, zap.NewNop(), "Ilford", asOf, compliance.DefaultRules())
	require.NoError(t, err)

	assert.Equal(t, "Ilford", report.Station)
	assert.Equal(t, asOf, report.AsOf)

	require.Len(t, report.OverLimit, 2)
	assert.Equal(t, "VP001", report.OverLimit[0].MemberID)
	assert.Equal(t, SeverityCritical, report.OverLimit[0].Severity)
	assert.Equal(t, 336.0, report.OverLimit[0].FortnightHours)
	assert.Equal(t, 260.0, report.OverLimit[0].Overage)
	assert.Equal(t, "VP002", report.OverLimit[1].MemberID)
	assert.Equal(t, SeverityHigh, report.OverLimit[1].Severity)
	assert.Equal(t, 4.0, report.OverLimit[1].Overage)

	require.Len(t, report.Approaching, 2)
	assert.Equal(t, "VP004", report.Approaching[0].MemberID)
	assert.Equal(t, SeverityHigh, report.Approaching[0].Severity)
	assert.Equal(t, "VP003", report.Approaching[1].MemberID)
	assert.Equal(t, SeverityMedium, report.Approaching[1].Severity)

	require.Len(t, report.HighRisk, 1)
	assert.Equal(t, "Member 1", report.HighRisk[0].MemberName)
	assert.Equal(t, model.RiskHigh, report.HighRisk[0].Score.Band)
}

func TestBuildFatigueReport_EmptyStation(t *testing.T) {
	store := newMockStore(nil, nil)

	report, err := BuildFatigueReport(context.Background(), store, zap.NewNop(), "Ilford", periodStart, compliance.DefaultRules())
	require.NoError(t, err)
	assert.Empty(t, report.HighRisk)
	assert.Empty(t, report.OverLimit)
	assert.Empty(t, report.Approaching)
}

func TestBuildFatigueReport_StoreError(t *testing.T) {
	store := newMockStore(stationPool("Ilford", 2), nil)
	store.getMembersErr = errors.New("timeout")

	_, err := BuildFatigueReport(context.Background(), store, zap.NewNop(), "Ilford", periodStart, compliance.DefaultRules())
	assert.ErrorContains(t, err, "failed to fetch members")
}
