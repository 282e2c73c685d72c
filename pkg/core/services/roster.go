package services

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/jakechorley/watchtower/pkg/core/model"
)

// MemberRosterSummary totals one member's assignments in a roster period
type MemberRosterSummary struct {
	MemberID    string
	MemberName  string
	TotalShifts int
	TotalHours  float64
	ByType      map[model.ShiftType]int
}

// RosterView is a roster period with its per-member totals
type RosterView struct {
	Roster  *model.RosterPeriod
	Members []MemberRosterSummary
}

// RosterViewStore defines the database operations needed to view a roster
type RosterViewStore interface {
	GetRoster(ctx context.Context, id string) (*model.RosterPeriod, error)
	GetMembers(ctx context.Context, station string) ([]model.Member, error)
}

// GetRoster loads a roster period and summarises each assigned member, sorted by member ID
func GetRoster(ctx context.Context, store RosterViewStore, logger *zap.Logger, id string) (*RosterView, error) {
	logger.Debug("Starting getRoster", zap.String("roster_id", id))

	roster, err := store.GetRoster(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch roster: %w", err)
	}

	members, err := store.GetMembers(ctx, roster.Station)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch members: %w", err)
	}

	view := &RosterView{
		Roster:  roster,
		Members: summarizeAssignments(roster.Assignments, membersByID(members)),
	}

	logger.Debug("Roster loaded",
		zap.String("roster_id", roster.ID),
		zap.String("status", string(roster.Status)),
		zap.Int("members", len(view.Members)))

	return view, nil
}

// RosterListStore defines the database operations needed to list rosters
type RosterListStore interface {
	ListRosters(ctx context.Context, station string) ([]model.RosterPeriod, error)
}

// ListRosters returns a station's roster periods, newest first
func ListRosters(ctx context.Context, store RosterListStore, logger *zap.Logger, station string) ([]model.RosterPeriod, error) {
	rosters, err := store.ListRosters(ctx, station)
	if err != nil {
		return nil, fmt.Errorf("failed to list rosters: %w", err)
	}
	logger.Debug("Listed rosters", zap.String("station", station), zap.Int("count", len(rosters)))
	return rosters, nil
}

func summarizeAssignments(assignments []model.ShiftAssignment, members map[string]model.Member) []MemberRosterSummary {
	byMember := make(map[string]*MemberRosterSummary)
	for _, a := range assignments {
		s, ok := byMember[a.MemberID]
		if !ok {
			s = &MemberRosterSummary{
				MemberID:   a.MemberID,
				MemberName: members[a.MemberID].Name,
				ByType:     make(map[model.ShiftType]int),
			}
			byMember[a.MemberID] = s
		}
		s.TotalShifts++
		s.TotalHours += a.Hours
		s.ByType[a.Type]++
	}

	summaries := make([]MemberRosterSummary, 0, len(byMember))
	for _, s := range byMember {
		summaries = append(summaries, *s)
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].MemberID < summaries[j].MemberID })
	return summaries
}
