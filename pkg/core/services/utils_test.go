package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jakechorley/watchtower/pkg/core/model"
)

func TestHistoryStart(t *testing.T) {
	// eight week fatigue window plus a fortnight
	assert.Equal(t, periodStart.AddDate(0, 0, -70), historyStart(periodStart.Add(15*time.Hour)))
}

func TestFilterRecordsByMembers(t *testing.T) {
	records := []model.ShiftRecord{
		shift("VP001", periodStart, model.ShiftVan, 8),
		shift("VP002", periodStart, model.ShiftVan, 8),
		shift("VP003", periodStart, model.ShiftVan, 8),
	}

	filtered := filterRecordsByMembers(records, []string{"VP003", "VP001"})
	assert.Len(t, filtered, 2)
	assert.Equal(t, "VP001", filtered[0].MemberID)
	assert.Equal(t, "VP003", filtered[1].MemberID)

	assert.Empty(t, filterRecordsByMembers(records, nil))
}

func TestGetMemberIDs_Sorted(t *testing.T) {
	members := []model.Member{{ID: "VP003"}, {ID: "VP001"}, {ID: "VP002"}}
	assert.Equal(t, []string{"VP001", "VP002", "VP003"}, getMemberIDs(members))
}
