package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/watchtower/pkg/core/corro"
	"github.com/jakechorley/watchtower/pkg/core/model"
)

// CorroStore defines the database operations needed for the corro distribution
type CorroStore interface {
	GetMembers(ctx context.Context, station string) ([]model.Member, error)
	GetShiftRecords(ctx context.Context, from, to time.Time) ([]model.ShiftRecord, error)
}

// ComputeCorroDistribution returns every station member's corro position, most overdue first
func ComputeCorroDistribution(
	ctx context.Context,
	store CorroStore,
	logger *zap.Logger,
	station string,
	asOf time.Time,
	thresholds corro.Thresholds,
) ([]model.CorroStatus, error) {
	logger.Debug("Starting computeCorroDistribution", zap.String("station", station), zap.Time("as_of", asOf))

	members, err := store.GetMembers(ctx, station)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch members: %w", err)
	}

	from := model.Day(asOf).AddDate(0, 0, -thresholds.LookbackDays)
	records, err := store.GetShiftRecords(ctx, from, model.Day(asOf))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch shift history: %w", err)
	}

	statuses := corro.Track(members, filterRecordsByMembers(records, getMemberIDs(members)), asOf, thresholds)

	overdue := 0
	for _, s := range statuses {
		if s.Overdue {
			overdue++
		}
	}
	logger.Info("Corro distribution computed",
		zap.String("station", station),
		zap.Int("members", len(statuses)),
		zap.Int("overdue", overdue))

	return statuses, nil
}
