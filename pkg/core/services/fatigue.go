package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/watchtower/pkg/core/fatigue"
	"github.com/jakechorley/watchtower/pkg/core/model"
)

// FatigueStore defines the database operations needed to score a member's fatigue
type FatigueStore interface {
	GetMember(ctx context.Context, id string) (*model.Member, error)
	GetMembers(ctx context.Context, station string) ([]model.Member, error)
	GetShiftRecords(ctx context.Context, from, to time.Time) ([]model.ShiftRecord, error)
}

// ComputeFatigue scores a member over the trailing window of weeks ending at asOf,
// with equity measured against the other members of their station
func ComputeFatigue(
	ctx context.Context,
	store FatigueStore,
	logger *zap.Logger,
	memberID string,
	asOf time.Time,
	weeks int,
) (*model.FatigueScore, error) {
	if weeks <= 0 {
		weeks = fatigue.DefaultWindowWeeks
	}
	logger.Debug("Starting computeFatigue",
		zap.String("member_id", memberID),
		zap.Time("as_of", asOf),
		zap.Int("weeks", weeks))

	member, err := store.GetMember(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch member: %w", err)
	}

	cohort, err := store.GetMembers(ctx, member.Station)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch station members: %w", err)
	}
	cohortIDs := getMemberIDs(cohort)
	logger.Debug("Loaded station cohort", zap.String("station", member.Station), zap.Int("count", len(cohortIDs)))

	start, end := fatigue.Window(asOf, weeks)
	records, err := store.GetShiftRecords(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch shift history: %w", err)
	}

	score := fatigue.Calculate(member.ID, records, asOf, weeks)
	score.Equity = fatigue.Equity(member.ID, cohortIDs, records, asOf, weeks)

	logger.Info("Fatigue computed",
		zap.String("member_id", member.ID),
		zap.Float64("score", score.Score),
		zap.String("band", string(score.Band)),
		zap.Float64("fairness", score.Equity.FairnessScore))

	return score, nil
}
