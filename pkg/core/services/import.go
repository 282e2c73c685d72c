package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/watchtower/pkg/core/model"
)

// ShiftFeed is the external source of members and worked shifts
type ShiftFeed interface {
	FetchMembers(ctx context.Context, station string) ([]model.Member, error)
	FetchShiftRecords(ctx context.Context, from, to time.Time) ([]model.ShiftRecord, error)
}

// ImportStore defines the database operations needed for importing from the feed
type ImportStore interface {
	UpsertMembers(ctx context.Context, members []model.Member) error
	InsertShiftRecords(ctx context.Context, records []model.ShiftRecord) (int, error)
}

// ImportResult counts what an import read and wrote
type ImportResult struct {
	Members          int
	RecordsFetched   int
	RecordsInserted  int
	RecordsSkipped   int
	UnknownMemberIDs []string
}

// ImportShifts refreshes a station's members from the feed and appends its worked shifts in [from, to].
// Records already imported (same ID) are skipped, so re-running an import is safe.
// Shifts for members not at the station are not imported and are reported in UnknownMemberIDs.
func ImportShifts(
	ctx context.Context,
	store ImportStore,
	feed ShiftFeed,
	logger *zap.Logger,
	station string,
	from, to time.Time,
) (*ImportResult, error) {
	logger.Debug("Starting importShifts",
		zap.String("station", station),
		zap.String("from", from.Format(model.DateLayout)),
		zap.String("to", to.Format(model.DateLayout)))

	if to.Before(from) {
		return nil, fmt.Errorf("import range ends before it starts")
	}

	// Step 1: Refresh members
	members, err := feed.FetchMembers(ctx, station)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch members from feed: %w", err)
	}
	for i := range members {
		if members[i].Station == "" {
			members[i].Station = station
		}
	}
	if err := store.UpsertMembers(ctx, members); err != nil {
		return nil, fmt.Errorf("failed to save members: %w", err)
	}

	// Step 2: Fetch shifts
	records, err := feed.FetchShiftRecords(ctx, model.Day(from), model.Day(to))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch shift records from feed: %w", err)
	}

	known := membersByID(members)
	unknown := make(map[string]bool)
	kept := make([]model.ShiftRecord, 0, len(records))
	for _, r := range records {
		if _, ok := known[r.MemberID]; !ok {
			unknown[r.MemberID] = true
			continue
		}
		kept = append(kept, r)
	}

	// Step 3: Append
	inserted, err := store.InsertShiftRecords(ctx, kept)
	if err != nil {
		return nil, fmt.Errorf("failed to save shift records: %w", err)
	}

	result := &ImportResult{
		Members:          len(members),
		RecordsFetched:   len(records),
		RecordsInserted:  inserted,
		RecordsSkipped:   len(kept) - inserted,
		UnknownMemberIDs: sortedKeys(unknown),
	}

	logger.Info("Shifts imported",
		zap.String("station", station),
		zap.Int("members", result.Members),
		zap.Int("fetched", result.RecordsFetched),
		zap.Int("inserted", result.RecordsInserted),
		zap.Int("skipped", result.RecordsSkipped))
	if len(result.UnknownMemberIDs) > 0 {
		logger.Warn("Shift records for members outside the station were ignored",
			zap.Strings("member_ids", result.UnknownMemberIDs))
	}

	return result, nil
}
