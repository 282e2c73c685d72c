package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jakechorley/watchtower/pkg/core/model"
)

// GetShiftRecords retrieves worked shifts with dates in [from, to]
func (d *DB) GetShiftRecords(ctx context.Context, from, to time.Time) ([]model.ShiftRecord, error) {
	rows, err := d.db.QueryContext(ctx, d.rebind(`
		SELECT id, member_id, shift_date, shift_type, hours, recall
		FROM shift_records
		WHERE shift_date >= ? AND shift_date <= ?
		ORDER BY shift_date, member_id
	`), model.Day(from), model.Day(to))
	if err != nil {
		return nil, fmt.Errorf("failed to query shift records: %w", err)
	}
	defer rows.Close()

	var records []model.ShiftRecord
	for rows.Next() {
		var r model.ShiftRecord
		var shiftType string
		if err := rows.Scan(&r.ID, &r.MemberID, &r.Date, &shiftType, &r.Hours, &r.Recall); err != nil {
			return nil, fmt.Errorf("failed to scan shift record: %w", err)
		}
		r.Date = model.Day(r.Date)
		r.Type = model.ShiftType(shiftType)
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating shift records: %w", err)
	}

	return records, nil
}

// InsertShiftRecords inserts shift records, skipping ids already present
func (d *DB) InsertShiftRecords(ctx context.Context, records []model.ShiftRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	inserted := 0
	for _, r := range records {
		id := r.ID
		if id == "" {
			id = uuid.NewString()
		}

		result, err := tx.ExecContext(ctx, d.rebind(`
			INSERT INTO shift_records (id, member_id, shift_date, shift_type, hours, recall)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO NOTHING
		`), id, r.MemberID, model.Day(r.Date), string(r.Type), r.Hours, r.Recall)
		if err != nil {
			return 0, fmt.Errorf("failed to insert shift record: %w", err)
		}

		n, err := result.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to count inserted shift records: %w", err)
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return inserted, nil
}
