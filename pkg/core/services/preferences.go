package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jakechorley/watchtower/pkg/core/model"
)

// PreferencesStore defines the database operations needed for updating preferences
type PreferencesStore interface {
	GetMember(ctx context.Context, id string) (*model.Member, error)
	UpdatePreferences(ctx context.Context, audit model.PreferenceAudit) error
}

// UpdatePreferences overwrites a member's preferences and records the before and after in the audit trail
func UpdatePreferences(
	ctx context.Context,
	store PreferencesStore,
	logger *zap.Logger,
	memberID string,
	prefs model.Preferences,
	changedBy string,
	now time.Time,
) (*model.PreferenceAudit, error) {
	logger.Debug("Starting updatePreferences", zap.String("member_id", memberID), zap.String("changed_by", changedBy))

	if err := prefs.Validate(); err != nil {
		return nil, err
	}

	member, err := store.GetMember(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch member: %w", err)
	}

	prefs.UpdatedAt = now
	prefs.UpdatedBy = changedBy
	audit := model.PreferenceAudit{
		ID:        uuid.NewString(),
		MemberID:  member.ID,
		ChangedBy: changedBy,
		ChangedAt: now,
		Before:    member.Preferences,
		After:     prefs,
	}

	if err := store.UpdatePreferences(ctx, audit); err != nil {
		return nil, fmt.Errorf("failed to update preferences: %w", err)
	}

	logger.Info("Preferences updated", zap.String("member_id", member.ID), zap.String("audit_id", audit.ID))
	return &audit, nil
}
