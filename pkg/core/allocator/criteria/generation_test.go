package criteria

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/watchtower/pkg/core/allocator"
	"github.com/jakechorley/watchtower/pkg/core/compliance"
	"github.com/jakechorley/watchtower/pkg/core/corro"
	"github.com/jakechorley/watchtower/pkg/core/model"
)

// 2025-03-03 is a Monday
var periodStart = time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)

func stationPool(n int) []model.Member {
	pool := make([]model.Member, 0, n)
	for i := 1; i <= n; i++ {
		pool = append(pool, model.Member{
			ID:             fmt.Sprintf("VP%03d", i),
			Name:           fmt.Sprintf("Member %d", i),
			Station:        "Central",
			SeniorityYears: float64(i % 4),
			Preferences:    model.DefaultPreferences(),
		})
	}
	return pool
}

func generate(t *testing.T, cfg model.GenerationConfig, pool []model.Member, history []model.ShiftRecord) *allocator.AllocationOutcome {
	t.Helper()
	rules := compliance.RulesFromConfig(cfg)
	outcome, err := allocator.Allocate(context.Background(), allocator.AllocationConfig{
		Config:   cfg,
		Criteria: ForConfig(cfg, rules, DefaultWeights(), corro.DefaultThresholds()),
		Members:  pool,
		History:  history,
		Patterns: rules.Patterns,
	})
	require.NoError(t, err)
	return outcome
}

func TestGeneration_MeetsMinimumCoverageExactly(t *testing.T) {
	cfg := model.DefaultGenerationConfig("Central", periodStart)
	cfg.Seed = 1

	outcome := generate(t, cfg, stationPool(12), nil)

	require.Empty(t, outcome.UnresolvedSlots)
	require.Empty(t, outcome.ValidationErrors)
	assert.True(t, outcome.Success)

	vanPerDay := make(map[time.Time]int)
	for _, a := range outcome.Assignments {
		if a.Type == model.ShiftVan {
			vanPerDay[a.Date]++
		}
	}
	require.Len(t, vanPerDay, 14)
	for date, n := range vanPerDay {
		assert.Equal(t, cfg.MinVanCoverage, n, date.Format(model.DateLayout))
	}
}

func TestGeneration_SmallestPoolNeverExceedsVanMinimum(t *testing.T) {
	cfg := model.DefaultGenerationConfig("Central", periodStart)
	cfg.Seed = 5

	coverage, err := cfg.DailyCoverage()
	require.NoError(t, err)
	peak := 0
	for _, day := range coverage {
		total := 0
		for _, n := range day {
			total += n
		}
		peak = max(peak, total)
	}

	// one more member than the busiest day needs is the smallest valid pool
	require.NoError(t, cfg.ValidateForPool(peak+1))
	require.Error(t, cfg.ValidateForPool(peak))
	outcome := generate(t, cfg, stationPool(peak+1), nil)

	vanPerDay := make(map[time.Time]int)
	for _, a := range outcome.Assignments {
		if a.Type == model.ShiftVan {
			vanPerDay[a.Date]++
		}
	}
	unresolvedVan := make(map[time.Time]int)
	for _, u := range outcome.UnresolvedSlots {
		if u.Type == model.ShiftVan {
			unresolvedVan[u.Date] += u.Required - u.Assigned
		}
	}

	for d := periodStart; !d.After(cfg.EndDate()); d = d.AddDate(0, 0, 1) {
		date := d.Format(model.DateLayout)
		assert.LessOrEqual(t, vanPerDay[d], cfg.MinVanCoverage, date)
		assert.Equal(t, cfg.MinVanCoverage, vanPerDay[d]+unresolvedVan[d], "van shortfall on %s not reported", date)
	}
}

func TestGeneration_NoDoubleBookingAndCompliant(t *testing.T) {
	cfg := model.DefaultGenerationConfig("Central", periodStart)
	cfg.Seed = 99
	pool := stationPool(12)

	outcome := generate(t, cfg, pool, nil)

	seen := make(map[string]bool)
	records := make([]model.ShiftRecord, 0, len(outcome.Assignments))
	for _, a := range outcome.Assignments {
		key := a.MemberID + "|" + a.Date.Format(model.DateLayout)
		assert.False(t, seen[key], "double booked %s", key)
		seen[key] = true
		records = append(records, model.ShiftRecord{MemberID: a.MemberID, Date: a.Date, Type: a.Type, Hours: a.Hours})
	}

	ids := make([]string, 0, len(pool))
	for _, m := range pool {
		ids = append(ids, m.ID)
	}
	var dates []time.Time
	for d := periodStart; !d.After(cfg.EndDate()); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}

	summary := compliance.Summarize(ids, records, dates, compliance.RulesFromConfig(cfg), periodStart)
	assert.False(t, summary.HasViolations, "%v", summary.Violations)
}

func TestGeneration_RespectsHistoricalHours(t *testing.T) {
	cfg := model.DefaultGenerationConfig("Central", periodStart)
	pool := stationPool(12)

	// 72h in the 9 days before the period
	var history []model.ShiftRecord
	for d := 1; d <= 9; d++ {
		history = append(history, model.ShiftRecord{
			MemberID: "VP001",
			Date:     periodStart.AddDate(0, 0, -d),
			Type:     model.ShiftVan,
			Hours:    8,
		})
	}

	outcome := generate(t, cfg, pool, history)

	for _, a := range outcome.Assignments {
		if a.MemberID != "VP001" {
			continue
		}
		// 80h in the fortnight until the oldest historical shift drops out
		assert.False(t, a.Date.Before(periodStart.AddDate(0, 0, 5)), a.Date.Format(model.DateLayout))
	}
}

func TestGeneration_SameSeedSameRoster(t *testing.T) {
	cfg := model.DefaultGenerationConfig("Central", periodStart)
	cfg.Seed = 5

	first := generate(t, cfg, stationPool(12), nil)
	second := generate(t, cfg, stationPool(12), nil)

	assert.Equal(t, first.Assignments, second.Assignments)
}

func TestGeneration_UnderstaffedReportsUnresolved(t *testing.T) {
	cfg := model.DefaultGenerationConfig("Central", periodStart)

	outcome := generate(t, cfg, stationPool(4), nil)

	assert.False(t, outcome.Success)
	assert.NotEmpty(t, outcome.UnresolvedSlots)
	for _, u := range outcome.UnresolvedSlots {
		assert.Less(t, u.Assigned, u.Required)
	}
}

func TestGeneration_CorroGoesToMostOverdue(t *testing.T) {
	cfg := model.DefaultGenerationConfig("Central", periodStart)
	pool := stationPool(12)

	// everyone worked 3 days ago, but only VP007 has never done corro
	var history []model.ShiftRecord
	for _, m := range pool {
		shiftType := model.ShiftCorro
		if m.ID == "VP007" {
			shiftType = model.ShiftWatchhouse
		}
		history = append(history, model.ShiftRecord{
			MemberID: m.ID,
			Date:     periodStart.AddDate(0, 0, -3),
			Type:     shiftType,
			Hours:    8,
		})
	}

	outcome := generate(t, cfg, pool, history)

	for _, a := range outcome.Assignments {
		if a.Type == model.ShiftCorro && a.Date.Equal(periodStart) {
			assert.Equal(t, "VP007", a.MemberID)
		}
	}
}
