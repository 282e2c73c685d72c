package services

import (
	"fmt"
	"sort"
	"time"

	"github.com/jakechorley/watchtower/pkg/core/compliance"
	"github.com/jakechorley/watchtower/pkg/core/fatigue"
	"github.com/jakechorley/watchtower/pkg/core/model"
)

// historyLookbackDays is how far before a date history is loaded. It covers the fatigue
// window plus a full fortnight so that every compliance window is complete.
const historyLookbackDays = 7*fatigue.DefaultWindowWeeks + compliance.FortnightDays

// historyStart returns the first date of history needed to evaluate a member at date
func historyStart(date time.Time) time.Time {
	return model.Day(date).AddDate(0, 0, -historyLookbackDays)
}

// getMemberIDs returns the sorted IDs of the members
func getMemberIDs(members []model.Member) []string {
	ids := make([]string, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.ID)
	}
	sort.Strings(ids)
	return ids
}

// filterRecordsByMembers keeps the records belonging to the given members
func filterRecordsByMembers(records []model.ShiftRecord, memberIDs []string) []model.ShiftRecord {
	keep := make(map[string]bool, len(memberIDs))
	for _, id := range memberIDs {
		keep[id] = true
	}

	filtered := make([]model.ShiftRecord, 0, len(records))
	for _, r := range records {
		if keep[r.MemberID] {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

type memberDay struct {
	memberID string
	date     time.Time
}

// withPublished adds the assignments of published rosters to history as shift records.
// Assignments of excludeRosterID, and those on a (member, date) history already records as worked, are skipped.
func withPublished(history []model.ShiftRecord, published []model.ShiftAssignment, excludeRosterID string) []model.ShiftRecord {
	worked := make(map[memberDay]bool, len(history))
	for _, r := range history {
		worked[memberDay{r.MemberID, model.Day(r.Date)}] = true
	}

	merged := append([]model.ShiftRecord(nil), history...)
	for _, a := range published {
		if a.RosterPeriodID == excludeRosterID || worked[memberDay{a.MemberID, model.Day(a.Date)}] {
			continue
		}
		merged = append(merged, model.ShiftRecord{
			ID:       a.ID,
			MemberID: a.MemberID,
			Date:     model.Day(a.Date),
			Type:     a.Type,
			Hours:    a.Hours,
		})
	}
	return merged
}

// doubleBookings returns a violation for every assignment whose member is already rostered on that date
// in another published roster
func doubleBookings(assignments []model.ShiftAssignment, published []model.ShiftAssignment, rosterID string) []model.ComplianceIssue {
	booked := make(map[memberDay]model.ShiftAssignment, len(published))
	for _, a := range published {
		if a.RosterPeriodID != rosterID {
			booked[memberDay{a.MemberID, model.Day(a.Date)}] = a
		}
	}

	var issues []model.ComplianceIssue
	for _, a := range assignments {
		other, ok := booked[memberDay{a.MemberID, model.Day(a.Date)}]
		if !ok {
			continue
		}
		issues = append(issues, model.ComplianceIssue{
			MemberID: a.MemberID,
			Date:     model.Day(a.Date),
			Message:  fmt.Sprintf("already rostered on %s in published roster %s", other.Type, other.RosterPeriodID),
		})
	}
	sort.SliceStable(issues, func(i, j int) bool {
		if !issues[i].Date.Equal(issues[j].Date) {
			return issues[i].Date.Before(issues[j].Date)
		}
		return issues[i].MemberID < issues[j].MemberID
	})
	return issues
}

// membersByID indexes members by their ID
func membersByID(members []model.Member) map[string]model.Member {
	byID := make(map[string]model.Member, len(members))
	for _, m := range members {
		byID[m.ID] = m
	}
	return byID
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
