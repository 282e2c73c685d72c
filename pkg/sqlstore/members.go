package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jakechorley/watchtower/pkg/core/model"
)

const memberColumns = `
	SELECT m.id, m.name, m.rank, m.station, m.seniority_years, p.preferences
	FROM members m
	LEFT JOIN member_preferences p ON p.member_id = m.id
`

// GetMembers retrieves every member at a station, ordered by id
func (d *DB) GetMembers(ctx context.Context, station string) ([]model.Member, error) {
	rows, err := d.db.QueryContext(ctx, d.rebind(memberColumns+`WHERE m.station = ? ORDER BY m.id`), station)
	if err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}
	defer rows.Close()

	var members []model.Member
	for rows.Next() {
		member, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, *member)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating members: %w", err)
	}

	return members, nil
}

// GetMember retrieves a single member by badge number
func (d *DB) GetMember(ctx context.Context, id string) (*model.Member, error) {
	row := d.db.QueryRowContext(ctx, d.rebind(memberColumns+`WHERE m.id = ?`), id)
	member, err := scanMember(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("member %s: %w", id, model.ErrMemberNotFound)
	}
	return member, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMember(s scanner) (*model.Member, error) {
	var m model.Member
	var prefs *string
	if err := s.Scan(&m.ID, &m.Name, &m.Rank, &m.Station, &m.SeniorityYears, &prefs); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan member: %w", err)
	}

	m.Preferences = model.DefaultPreferences()
	if prefs != nil {
		if err := json.Unmarshal([]byte(*prefs), &m.Preferences); err != nil {
			return nil, fmt.Errorf("failed to decode preferences for member %s: %w", m.ID, err)
		}
	}
	return &m, nil
}

// UpsertMembers inserts new members and refreshes the details of existing ones.
// Preferences of existing members are left untouched.
func (d *DB) UpsertMembers(ctx context.Context, members []model.Member) error {
	if len(members) == 0 {
		return nil
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, m := range members {
		_, err := tx.ExecContext(ctx, d.rebind(`
			INSERT INTO members (id, name, rank, station, seniority_years)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				name = excluded.name,
				rank = excluded.rank,
				station = excluded.station,
				seniority_years = excluded.seniority_years
		`), m.ID, m.Name, m.Rank, m.Station, m.SeniorityYears)
		if err != nil {
			return fmt.Errorf("failed to upsert member %s: %w", m.ID, err)
		}

		prefs, err := json.Marshal(m.Preferences)
		if err != nil {
			return fmt.Errorf("failed to encode preferences for member %s: %w", m.ID, err)
		}
		_, err = tx.ExecContext(ctx, d.rebind(`
			INSERT INTO member_preferences (member_id, preferences)
			VALUES (?, ?)
			ON CONFLICT (member_id) DO NOTHING
		`), m.ID, string(prefs))
		if err != nil {
			return fmt.Errorf("failed to insert preferences for member %s: %w", m.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
