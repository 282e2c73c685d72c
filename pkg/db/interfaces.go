package db

import (
	"context"
	"time"

	"github.com/jakechorley/watchtower/pkg/core/model"
)

// MemberDirectory lists the members rostered at a station
type MemberDirectory interface {
	GetMembers(ctx context.Context, station string) ([]model.Member, error)
	GetMember(ctx context.Context, id string) (*model.Member, error)
}

// MemberWriter creates or refreshes members
type MemberWriter interface {
	UpsertMembers(ctx context.Context, members []model.Member) error
}

// ShiftHistoryReader returns worked shifts in an inclusive date range.
// A zero from means no lower bound.
type ShiftHistoryReader interface {
	GetShiftRecords(ctx context.Context, from, to time.Time) ([]model.ShiftRecord, error)
}

// ShiftRecordWriter appends worked shifts. Records whose ID already exists are skipped.
// Returns the number of records inserted.
type ShiftRecordWriter interface {
	InsertShiftRecords(ctx context.Context, records []model.ShiftRecord) (int, error)
}

// RosterStore persists roster periods and their assignments
type RosterStore interface {
	SaveRoster(ctx context.Context, roster *model.RosterPeriod) error
	GetRoster(ctx context.Context, id string) (*model.RosterPeriod, error)
	ListRosters(ctx context.Context, station string) ([]model.RosterPeriod, error)
	UpdateComplianceStatus(ctx context.Context, id string, summary model.ComplianceStatusSummary) error
	// MarkPublished moves a draft to published. Returns false if the roster was not a draft.
	MarkPublished(ctx context.Context, id string, publishedAt time.Time, notice model.PublicationNotice) (bool, error)
	// GetPublishedAssignments returns the assignments of a station's published rosters dated in the inclusive range
	GetPublishedAssignments(ctx context.Context, station string, from, to time.Time) ([]model.ShiftAssignment, error)
}

// PreferenceStore overwrites member preferences and keeps their audit trail
type PreferenceStore interface {
	UpdatePreferences(ctx context.Context, audit model.PreferenceAudit) error
	GetPreferenceAudit(ctx context.Context, memberID string) ([]model.PreferenceAudit, error)
}

// AlertStore keeps publication deadline alerts until they are acknowledged
type AlertStore interface {
	SaveAlerts(ctx context.Context, alerts []model.PublicationAlert) (int, error)
	GetActiveAlerts(ctx context.Context, station string) ([]model.PublicationAlert, error)
	AcknowledgeAlert(ctx context.Context, id string) error
}

// Database defines the interface for all database operations
type Database interface {
	MemberDirectory
	MemberWriter
	ShiftHistoryReader
	ShiftRecordWriter
	RosterStore
	PreferenceStore
	AlertStore
	RunMigrations(ctx context.Context) error
	Close() error
}
