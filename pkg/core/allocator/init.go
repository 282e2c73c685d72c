package allocator

import (
	"fmt"
	"sort"
	"time"

	"github.com/jakechorley/watchtower/pkg/core/model"
)

// slotTypeOrder is the order shift types are filled within a single date
var slotTypeOrder = []model.ShiftType{
	model.ShiftNight,
	model.ShiftVan,
	model.ShiftWatchhouse,
	model.ShiftCorro,
	model.ShiftOther,
}

// InitAllocation builds the allocator and its initial roster state from the config
func InitAllocation(config AllocationConfig) (*Allocator, error) {
	if len(config.Members) == 0 {
		return nil, fmt.Errorf("no members available for allocation")
	}

	patterns := config.Patterns
	if patterns == nil {
		patterns = model.DefaultShiftPatterns()
	}

	slots, err := buildSlots(config.Config, patterns)
	if err != nil {
		return nil, err
	}

	members := make([]*MemberState, 0, len(config.Members))
	historyByMember := make(map[string][]model.ShiftRecord)
	for _, r := range config.History {
		historyByMember[r.MemberID] = append(historyByMember[r.MemberID], r)
	}
	for _, m := range config.Members {
		members = append(members, NewMemberState(m, historyByMember[m.ID]))
	}
	sort.Slice(members, func(i, j int) bool { return members[i].ID() < members[j].ID() })

	return &Allocator{
		criteria: config.Criteria,
		seed:     uint64(config.Config.Seed),
		state: &RosterState{
			Slots:    slots,
			Members:  members,
			Config:   config.Config,
			Patterns: patterns,
		},
	}, nil
}

// buildSlots expands the daily coverage into slots in processing order
func buildSlots(cfg model.GenerationConfig, patterns model.ShiftPatterns) ([]*Slot, error) {
	coverage, err := cfg.DailyCoverage()
	if err != nil {
		return nil, fmt.Errorf("failed to build coverage: %w", err)
	}

	var slots []*Slot
	for _, date := range dateRange(cfg) {
		day := coverage[date]
		for _, t := range slotTypeOrder {
			required := day[t]
			if required <= 0 {
				continue
			}
			slots = append(slots, &Slot{
				Index:    len(slots),
				Date:     date,
				Type:     t,
				Required: required,
				Hours:    patterns.Pattern(t).Hours,
			})
		}
	}
	return slots, nil
}

func dateRange(cfg model.GenerationConfig) []time.Time {
	var dates []time.Time
	for d := model.Day(cfg.StartDate); !d.After(cfg.EndDate()); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates
}
