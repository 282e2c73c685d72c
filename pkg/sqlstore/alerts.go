package sqlstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jakechorley/watchtower/pkg/core/model"
)

// SaveAlerts inserts alerts not already raised for their station, period start and type.
// Returns the number of alerts inserted.
func (d *DB) SaveAlerts(ctx context.Context, alerts []model.PublicationAlert) (int, error) {
	if len(alerts) == 0 {
		return 0, nil
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	inserted := 0
	for _, a := range alerts {
		id := a.ID
		if id == "" {
			id = uuid.NewString()
		}

		result, err := tx.ExecContext(ctx, d.rebind(`
			INSERT INTO publication_alerts (id, station, period_start, period_end, alert_type, days_remaining, message, acknowledged, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT DO NOTHING
		`), id, a.Station, model.Day(a.PeriodStart), model.Day(a.PeriodEnd), string(a.Type), a.DaysRemaining, a.Message, a.Acknowledged, a.CreatedAt.UTC())
		if err != nil {
			return 0, fmt.Errorf("failed to insert publication alert: %w", err)
		}

		n, err := result.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to count inserted alerts: %w", err)
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return inserted, nil
}

// GetActiveAlerts retrieves a station's unacknowledged alerts, earliest period first
func (d *DB) GetActiveAlerts(ctx context.Context, station string) ([]model.PublicationAlert, error) {
	rows, err := d.db.QueryContext(ctx, d.rebind(`
		SELECT id, station, period_start, period_end, alert_type, days_remaining, message, acknowledged, created_at
		FROM publication_alerts
		WHERE station = ? AND acknowledged = ?
		ORDER BY period_start, alert_type
	`), station, false)
	if err != nil {
		return nil, fmt.Errorf("failed to query publication alerts: %w", err)
	}
	defer rows.Close()

	alerts := []model.PublicationAlert{}
	for rows.Next() {
		var a model.PublicationAlert
		var alertType string
		if err := rows.Scan(&a.ID, &a.Station, &a.PeriodStart, &a.PeriodEnd, &alertType, &a.DaysRemaining, &a.Message, &a.Acknowledged, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan publication alert: %w", err)
		}
		a.PeriodStart = model.Day(a.PeriodStart)
		a.PeriodEnd = model.Day(a.PeriodEnd)
		a.Type = model.AlertType(alertType)
		a.CreatedAt = a.CreatedAt.UTC()
		alerts = append(alerts, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating publication alerts: %w", err)
	}

	return alerts, nil
}

// AcknowledgeAlert marks an alert as seen so it is no longer reported
func (d *DB) AcknowledgeAlert(ctx context.Context, id string) error {
	result, err := d.db.ExecContext(ctx, d.rebind(`
		UPDATE publication_alerts SET acknowledged = ? WHERE id = ?
	`), true, id)
	if err != nil {
		return fmt.Errorf("failed to acknowledge alert: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("alert %s: %w", id, model.ErrAlertNotFound)
	}
	return nil
}
