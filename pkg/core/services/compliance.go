package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/watchtower/pkg/core/compliance"
	"github.com/jakechorley/watchtower/pkg/core/model"
	"github.com/jakechorley/watchtower/pkg/metrics"
)

// ComplianceStore defines the database operations needed to evaluate a member
type ComplianceStore interface {
	GetMember(ctx context.Context, id string) (*model.Member, error)
	GetShiftRecords(ctx context.Context, from, to time.Time) ([]model.ShiftRecord, error)
}

// ComputeCompliance evaluates a member's EBA compliance as of a date from their recorded shifts.
// A member with no history is compliant.
func ComputeCompliance(
	ctx context.Context,
	store ComplianceStore,
	logger *zap.Logger,
	recorder metrics.Recorder,
	memberID string,
	asOf time.Time,
	rules compliance.Rules,
) (*model.ComplianceResult, error) {
	logger.Debug("Starting computeCompliance",
		zap.String("member_id", memberID),
		zap.Time("as_of", asOf))

	member, err := store.GetMember(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch member: %w", err)
	}

	records, err := store.GetShiftRecords(ctx, historyStart(asOf), model.Day(asOf))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch shift history: %w", err)
	}

	result := compliance.Evaluate(member.ID, records, asOf, rules)
	recorder.ObserveCompliance(string(result.Status))

	logger.Info("Compliance evaluated",
		zap.String("member_id", member.ID),
		zap.String("status", string(result.Status)),
		zap.Float64("fortnight_hours", result.FortnightHours),
		zap.Int("violations", len(result.Violations)))

	return result, nil
}
