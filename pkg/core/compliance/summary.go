package compliance

import (
	"sort"
	"time"

	"github.com/jakechorley/watchtower/pkg/core/model"
)

// Summarize evaluates every member as of every date and aggregates the issues.
// A repeated (member, message) pair is reported once, on the first date it fires.
func Summarize(memberIDs []string, records []model.ShiftRecord, dates []time.Time, rules Rules, evaluatedAt time.Time) model.ComplianceStatusSummary {
	summary := model.ComplianceStatusSummary{
		Violations:          []model.ComplianceIssue{},
		Warnings:            []model.ComplianceIssue{},
		TotalMembersChecked: len(memberIDs),
		EvaluatedAt:         evaluatedAt,
	}

	byMember := make(map[string][]model.ShiftRecord, len(memberIDs))
	for _, r := range records {
		byMember[r.MemberID] = append(byMember[r.MemberID], r)
	}

	for _, memberID := range memberIDs {
		seenViolations := make(map[string]bool)
		seenWarnings := make(map[string]bool)

		for _, date := range dates {
			result := Evaluate(memberID, byMember[memberID], date, rules)

			for _, msg := range result.Violations {
				if seenViolations[msg] {
					continue
				}
				seenViolations[msg] = true
				summary.Violations = append(summary.Violations, model.ComplianceIssue{MemberID: memberID, Date: result.AsOf, Message: msg})
			}
			for _, msg := range result.Warnings {
				if seenWarnings[msg] {
					continue
				}
				seenWarnings[msg] = true
				summary.Warnings = append(summary.Warnings, model.ComplianceIssue{MemberID: memberID, Date: result.AsOf, Message: msg})
			}
		}
	}

	sortIssues(summary.Violations)
	sortIssues(summary.Warnings)
	summary.HasViolations = len(summary.Violations) > 0
	summary.HasWarnings = len(summary.Warnings) > 0

	return summary
}

func sortIssues(issues []model.ComplianceIssue) {
	sort.SliceStable(issues, func(i, j int) bool {
		if !issues[i].Date.Equal(issues[j].Date) {
			return issues[i].Date.Before(issues[j].Date)
		}
		return issues[i].MemberID < issues[j].MemberID
	})
}
