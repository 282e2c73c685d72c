package sqlstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/jakechorley/watchtower/pkg/core/model"
)

// UpdatePreferences overwrites a member's preferences and appends the audit entry in one transaction
func (d *DB) UpdatePreferences(ctx context.Context, audit model.PreferenceAudit) error {
	if audit.ID == "" {
		audit.ID = uuid.NewString()
	}

	before, err := json.Marshal(audit.Before)
	if err != nil {
		return fmt.Errorf("failed to encode previous preferences: %w", err)
	}
	after, err := json.Marshal(audit.After)
	if err != nil {
		return fmt.Errorf("failed to encode preferences: %w", err)
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, d.rebind(`
		INSERT INTO member_preferences (member_id, preferences, updated_at, updated_by)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (member_id) DO UPDATE SET
			preferences = excluded.preferences,
			updated_at = excluded.updated_at,
			updated_by = excluded.updated_by
	`), audit.MemberID, string(after), audit.ChangedAt.UTC(), audit.ChangedBy)
	if err != nil {
		return fmt.Errorf("failed to update preferences: %w", err)
	}

	_, err = tx.ExecContext(ctx, d.rebind(`
		INSERT INTO preference_audit (id, member_id, changed_by, changed_at, before_preferences, after_preferences)
		VALUES (?, ?, ?, ?, ?, ?)
	`), audit.ID, audit.MemberID, audit.ChangedBy, audit.ChangedAt.UTC(), string(before), string(after))
	if err != nil {
		return fmt.Errorf("failed to insert preference audit: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetPreferenceAudit retrieves a member's preference changes, oldest first
func (d *DB) GetPreferenceAudit(ctx context.Context, memberID string) ([]model.PreferenceAudit, error) {
	rows, err := d.db.QueryContext(ctx, d.rebind(`
		SELECT id, member_id, changed_by, changed_at, before_preferences, after_preferences
		FROM preference_audit
		WHERE member_id = ?
		ORDER BY changed_at, id
	`), memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to query preference audit: %w", err)
	}
	defer rows.Close()

	var audits []model.PreferenceAudit
	for rows.Next() {
		var a model.PreferenceAudit
		var before, after string
		if err := rows.Scan(&a.ID, &a.MemberID, &a.ChangedBy, &a.ChangedAt, &before, &after); err != nil {
			return nil, fmt.Errorf("failed to scan preference audit: %w", err)
		}
		if err := json.Unmarshal([]byte(before), &a.Before); err != nil {
			return nil, fmt.Errorf("failed to decode previous preferences: %w", err)
		}
		if err := json.Unmarshal([]byte(after), &a.After); err != nil {
			return nil, fmt.Errorf("failed to decode preferences: %w", err)
		}
		audits = append(audits, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating preference audit: %w", err)
	}

	return audits, nil
}
