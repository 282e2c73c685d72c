package fatigue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/watchtower/pkg/core/model"
)

var asOf = time.Date(2025, 3, 30, 0, 0, 0, 0, time.UTC)

func record(member string, daysAgo int, t model.ShiftType, hours float64) model.ShiftRecord {
	return model.ShiftRecord{MemberID: member, Date: asOf.AddDate(0, 0, -daysAgo), Type: t, Hours: hours}
}

func TestCalculate_EmptyHistory(t *testing.T) {
	score := Calculate("m1", nil, asOf, 8)

	assert.Equal(t, 0.0, score.Score)
	assert.Equal(t, model.RiskLow, score.Band)
	assert.Equal(t, 0, score.TotalShifts)
	assert.Empty(t, score.RiskFactors)
}

func TestCalculate_FortyHourWeeksNoNightsIsLow(t *testing.T) {
	// 8 weeks of 5 x 8h shifts: four van and one corro per week
	var records []model.ShiftRecord
	for week := 0; week < 8; week++ {
		base := week * 7
		records = append(records,
			record("m1", base+0, model.ShiftVan, 8),
			record("m1", base+1, model.ShiftVan, 8),
			record("m1", base+2, model.ShiftVan, 8),
			record("m1", base+3, model.ShiftVan, 8),
			record("m1", base+4, model.ShiftCorro, 8),
		)
	}

	score := Calculate("m1", records, asOf, 8)

	assert.Equal(t, 40, score.TotalShifts)
	assert.InDelta(t, 320.0, score.TotalHours, 0.001)
	assert.InDelta(t, 80.0, score.ShiftPct[model.ShiftVan], 0.001)
	assert.Equal(t, 0.0, score.OvertimeHours)
	assert.Less(t, score.Score, 30.0)
	assert.Equal(t, model.RiskLow, score.Band)
}

func TestCalculate_Formula(t *testing.T) {
	records := []model.ShiftRecord{
		record("m1", 0, model.ShiftNight, 10), // 2h overtime
		record("m1", 1, model.ShiftNight, 8),
		record("m1", 2, model.ShiftWatchhouse, 8),
		{MemberID: "m1", Date: asOf.AddDate(0, 0, -3), Type: model.ShiftVan, Hours: 12, Recall: true}, // 4h overtime
	}

	score := Calculate("m1", records, asOf, 8)

	// 0.3*25 + 0.3*25 + 0.2*50 + 0.1*6 + 0.1*1
	assert.InDelta(t, 7.5+7.5+10+0.6+0.1, score.Score, 0.0001)
	assert.Equal(t, 1, score.RecallCount)
	assert.InDelta(t, 6.0, score.OvertimeHours, 0.0001)
	assert.Contains(t, score.RiskFactors, "High night shifts: 50.0%")
}

func TestCalculate_IgnoresOutOfWindowAndOtherMembers(t *testing.T) {
	records := []model.ShiftRecord{
		record("m1", 0, model.ShiftCorro, 8),
		record("m1", 56, model.ShiftNight, 8), // just outside an 8 week window
		record("m2", 0, model.ShiftNight, 8),
	}

	score := Calculate("m1", records, asOf, 8)

	assert.Equal(t, 1, score.TotalShifts)
	assert.Equal(t, 0.0, score.ShiftPct[model.ShiftNight])
}

func TestCalculate_Idempotent(t *testing.T) {
	records := []model.ShiftRecord{
		record("m1", 0, model.ShiftVan, 9),
		record("m1", 3, model.ShiftNight, 8),
	}

	first := Calculate("m1", records, asOf, 8)
	second := Calculate("m1", records, asOf, 8)

	assert.Equal(t, first, second)
}

func TestBandFor(t *testing.T) {
	assert.Equal(t, model.RiskLow, BandFor(0))
	assert.Equal(t, model.RiskLow, BandFor(30))
	assert.Equal(t, model.RiskModerate, BandFor(30.1))
	assert.Equal(t, model.RiskModerate, BandFor(60))
	assert.Equal(t, model.RiskHigh, BandFor(60.1))
}

func TestCalculate_OvertimeAndRecallsRaiseBand(t *testing.T) {
	var records []model.ShiftRecord
	for i := 0; i < 20; i++ {
		records = append(records, model.ShiftRecord{
			MemberID: "m1", Date: asOf.AddDate(0, 0, -i), Type: model.ShiftNight, Hours: 12, Recall: true,
		})
	}

	score := Calculate("m1", records, asOf, 8)

	// 0.2*100 + 0.1*80 + 0.1*20
	require.InDelta(t, 30.0, score.Score, 0.0001)
	assert.Len(t, score.RiskFactors, 3)

	for i := 20; i < 40; i++ {
		records = append(records, model.ShiftRecord{
			MemberID: "m1", Date: asOf.AddDate(0, 0, -i), Type: model.ShiftVan, Hours: 16, Recall: true,
		})
	}
	score = Calculate("m1", records, asOf, 8)

	// 0.3*50 + 0.2*50 + 0.1*(80+160) + 0.1*40 = 15 + 10 + 24 + 4
	assert.InDelta(t, 53.0, score.Score, 0.0001)
	assert.Equal(t, model.RiskModerate, score.Band)
}

func TestEquity_MatchingCohortIsFair(t *testing.T) {
	records := []model.ShiftRecord{
		record("a", 0, model.ShiftVan, 8),
		record("a", 1, model.ShiftCorro, 8),
		record("b", 0, model.ShiftVan, 8),
		record("b", 1, model.ShiftCorro, 8),
	}

	metrics := Equity("a", []string{"a", "b"}, records, asOf, 8)

	assert.InDelta(t, 100.0, metrics.FairnessScore, 0.0001)
	assert.InDelta(t, 50.0, metrics.Share[model.ShiftVan], 0.0001)
	assert.InDelta(t, 50.0, metrics.CorroPercentile, 0.0001)
}

func TestEquity_FairnessFallsWithDeviation(t *testing.T) {
	base := []model.ShiftRecord{
		record("b", 0, model.ShiftVan, 8),
		record("b", 1, model.ShiftCorro, 8),
		record("c", 0, model.ShiftVan, 8),
		record("c", 1, model.ShiftCorro, 8),
	}

	nearRecords := append([]model.ShiftRecord{
		record("a", 0, model.ShiftVan, 8),
		record("a", 1, model.ShiftVan, 8),
		record("a", 2, model.ShiftCorro, 8),
	}, base...)
	farRecords := append([]model.ShiftRecord{
		record("a", 0, model.ShiftNight, 8),
		record("a", 1, model.ShiftNight, 8),
		record("a", 2, model.ShiftNight, 8),
	}, base...)

	nearMetrics := Equity("a", []string{"a", "b", "c"}, nearRecords, asOf, 8)
	farMetrics := Equity("a", []string{"a", "b", "c"}, farRecords, asOf, 8)

	assert.Greater(t, nearMetrics.FairnessScore, farMetrics.FairnessScore)
	assert.Less(t, nearMetrics.FairnessScore, 100.0)
}

func TestEquity_CorroPercentile(t *testing.T) {
	records := []model.ShiftRecord{
		record("a", 0, model.ShiftCorro, 8),
		record("a", 1, model.ShiftCorro, 8),
		record("b", 0, model.ShiftCorro, 8),
	}

	metrics := Equity("a", []string{"a", "b", "c", "d"}, records, asOf, 8)

	// three members below, one equal (self)
	assert.Equal(t, 2, metrics.CorroCount)
	assert.InDelta(t, 100*(3+0.5)/4, metrics.CorroPercentile, 0.0001)
}
