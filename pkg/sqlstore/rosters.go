package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jakechorley/watchtower/pkg/core/model"
)

// SaveRoster inserts a roster period and its assignments in one transaction
func (d *DB) SaveRoster(ctx context.Context, roster *model.RosterPeriod) error {
	if roster.ID == "" {
		roster.ID = uuid.NewString()
	}

	config, err := json.Marshal(roster.Config)
	if err != nil {
		return fmt.Errorf("failed to encode roster config: %w", err)
	}
	compliance, err := json.Marshal(roster.ComplianceStatus)
	if err != nil {
		return fmt.Errorf("failed to encode compliance status: %w", err)
	}
	unresolved, err := json.Marshal(nonNil(roster.UnresolvedSlots))
	if err != nil {
		return fmt.Errorf("failed to encode unresolved slots: %w", err)
	}
	notice, err := encodeNotice(roster.Notice)
	if err != nil {
		return err
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, d.rebind(`
		INSERT INTO roster_periods (id, station, start_date, end_date, status, config, compliance_status, unresolved_slots, notice, created_at, published_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`), roster.ID, roster.Station, model.Day(roster.StartDate), model.Day(roster.EndDate), string(roster.Status),
		string(config), string(compliance), string(unresolved), notice, roster.CreatedAt.UTC(), roster.PublishedAt)
	if err != nil {
		return fmt.Errorf("failed to insert roster period: %w", err)
	}

	for i := range roster.Assignments {
		a := &roster.Assignments[i]
		if a.ID == "" {
			a.ID = uuid.NewString()
		}
		a.RosterPeriodID = roster.ID

		_, err := tx.ExecContext(ctx, d.rebind(`
			INSERT INTO shift_assignments (id, roster_period_id, member_id, shift_date, shift_type, hours)
			VALUES (?, ?, ?, ?, ?, ?)
		`), a.ID, a.RosterPeriodID, a.MemberID, model.Day(a.Date), string(a.Type), a.Hours)
		if err != nil {
			return fmt.Errorf("failed to insert assignment: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

const rosterColumns = `
	SELECT id, station, start_date, end_date, status, config, compliance_status, unresolved_slots, notice, created_at, published_at
	FROM roster_periods
`

// GetRoster retrieves a roster period with its assignments
func (d *DB) GetRoster(ctx context.Context, id string) (*model.RosterPeriod, error) {
	row := d.db.QueryRowContext(ctx, d.rebind(rosterColumns+`WHERE id = ?`), id)
	roster, err := scanRoster(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("roster %s: %w", id, model.ErrRosterNotFound)
	}
	if err != nil {
		return nil, err
	}

	assignments, err := d.getAssignments(ctx, id)
	if err != nil {
		return nil, err
	}
	roster.Assignments = assignments

	return roster, nil
}

// ListRosters retrieves a station's roster periods without assignments, newest first
func (d *DB) ListRosters(ctx context.Context, station string) ([]model.RosterPeriod, error) {
	rows, err := d.db.QueryContext(ctx, d.rebind(rosterColumns+`WHERE station = ? ORDER BY start_date DESC, created_at DESC`), station)
	if err != nil {
		return nil, fmt.Errorf("failed to query roster periods: %w", err)
	}
	defer rows.Close()

	var rosters []model.RosterPeriod
	for rows.Next() {
		roster, err := scanRoster(rows)
		if err != nil {
			return nil, err
		}
		rosters = append(rosters, *roster)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating roster periods: %w", err)
	}

	return rosters, nil
}

// GetPublishedAssignments retrieves the assignments of a station's published rosters dated within [from, to]
func (d *DB) GetPublishedAssignments(ctx context.Context, station string, from, to time.Time) ([]model.ShiftAssignment, error) {
	rows, err := d.db.QueryContext(ctx, d.rebind(`
		SELECT a.id, a.roster_period_id, a.member_id, a.shift_date, a.shift_type, a.hours
		FROM shift_assignments a
		JOIN roster_periods r ON r.id = a.roster_period_id
		WHERE r.station = ? AND r.status = ? AND a.shift_date >= ? AND a.shift_date <= ?
		ORDER BY a.shift_date, a.shift_type, a.member_id
	`), station, string(model.RosterPublished), model.Day(from), model.Day(to))
	if err != nil {
		return nil, fmt.Errorf("failed to query published assignments: %w", err)
	}
	defer rows.Close()

	return scanAssignments(rows)
}

func (d *DB) getAssignments(ctx context.Context, rosterID string) ([]model.ShiftAssignment, error) {
	rows, err := d.db.QueryContext(ctx, d.rebind(`
		SELECT id, roster_period_id, member_id, shift_date, shift_type, hours
		FROM shift_assignments
		WHERE roster_period_id = ?
		ORDER BY shift_date, shift_type, member_id
	`), rosterID)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments: %w", err)
	}
	defer rows.Close()

	return scanAssignments(rows)
}

func scanAssignments(rows *sql.Rows) ([]model.ShiftAssignment, error) {

	assignments := []model.ShiftAssignment{}
	for rows.Next() {
		var a model.ShiftAssignment
		var shiftType string
		if err := rows.Scan(&a.ID, &a.RosterPeriodID, &a.MemberID, &a.Date, &shiftType, &a.Hours); err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		a.Date = model.Day(a.Date)
		a.Type = model.ShiftType(shiftType)
		assignments = append(assignments, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assignments: %w", err)
	}

	return assignments, nil
}

func scanRoster(s scanner) (*model.RosterPeriod, error) {
	var r model.RosterPeriod
	var status, config, compliance, unresolved string
	var notice *string
	var publishedAt *time.Time

	err := s.Scan(&r.ID, &r.Station, &r.StartDate, &r.EndDate, &status, &config, &compliance, &unresolved, &notice, &r.CreatedAt, &publishedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan roster period: %w", err)
	}

	r.StartDate = model.Day(r.StartDate)
	r.EndDate = model.Day(r.EndDate)
	r.Status = model.RosterStatus(status)
	if publishedAt != nil {
		t := publishedAt.UTC()
		r.PublishedAt = &t
	}

	if err := json.Unmarshal([]byte(config), &r.Config); err != nil {
		return nil, fmt.Errorf("failed to decode config for roster %s: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(compliance), &r.ComplianceStatus); err != nil {
		return nil, fmt.Errorf("failed to decode compliance status for roster %s: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(unresolved), &r.UnresolvedSlots); err != nil {
		return nil, fmt.Errorf("failed to decode unresolved slots for roster %s: %w", r.ID, err)
	}
	if notice != nil {
		r.Notice = &model.PublicationNotice{}
		if err := json.Unmarshal([]byte(*notice), r.Notice); err != nil {
			return nil, fmt.Errorf("failed to decode notice for roster %s: %w", r.ID, err)
		}
	}

	return &r, nil
}

// UpdateComplianceStatus replaces the compliance status attached to a roster
func (d *DB) UpdateComplianceStatus(ctx context.Context, id string, summary model.ComplianceStatusSummary) error {
	encoded, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to encode compliance status: %w", err)
	}

	result, err := d.db.ExecContext(ctx, d.rebind(`UPDATE roster_periods SET compliance_status = ? WHERE id = ?`), string(encoded), id)
	if err != nil {
		return fmt.Errorf("failed to update compliance status: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("roster %s: %w", id, model.ErrRosterNotFound)
	}
	return nil
}

// MarkPublished publishes a draft roster. The status check and update are a single statement.
func (d *DB) MarkPublished(ctx context.Context, id string, publishedAt time.Time, notice model.PublicationNotice) (bool, error) {
	encoded, err := encodeNotice(&notice)
	if err != nil {
		return false, err
	}

	result, err := d.db.ExecContext(ctx, d.rebind(`
		UPDATE roster_periods
		SET status = ?, published_at = ?, notice = ?
		WHERE id = ? AND status = ?
	`), string(model.RosterPublished), publishedAt.UTC(), encoded, id, string(model.RosterDraft))
	if err != nil {
		return false, fmt.Errorf("failed to publish roster: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n == 1, nil
}

func encodeNotice(notice *model.PublicationNotice) (*string, error) {
	if notice == nil {
		return nil, nil
	}
	encoded, err := json.Marshal(notice)
	if err != nil {
		return nil, fmt.Errorf("failed to encode publication notice: %w", err)
	}
	s := string(encoded)
	return &s, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
