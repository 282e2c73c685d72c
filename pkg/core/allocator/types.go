package allocator

import (
	"sort"
	"time"

	"github.com/jakechorley/watchtower/pkg/core/model"
)

// RosterState represents the current state of the roster during generation
type RosterState struct {
	// Slots being filled, in processing order
	Slots []*Slot

	// Members available for allocation at the station
	Members []*MemberState

	// Config the roster is being generated from
	Config model.GenerationConfig

	// Patterns give the start time and length of each shift type
	Patterns model.ShiftPatterns
}

// Slot is a (date, shift type) pair that needs Required members
type Slot struct {
	// Index in the Slots array (for quick reference)
	Index int

	Date     time.Time
	Type     model.ShiftType
	Required int

	// Hours each assigned member is rostered for
	Hours float64

	// Assigned tracks which members have been allocated to this slot
	Assigned []*MemberState
}

// IsFull returns true if the slot has reached its required coverage
func (s *Slot) IsFull() bool {
	return len(s.Assigned) >= s.Required
}

// RemainingCapacity returns the number of members still needed
func (s *Slot) RemainingCapacity() int {
	return max(s.Required-len(s.Assigned), 0)
}

// MemberState tracks a member's history and allocations during generation
type MemberState struct {
	Member model.Member

	// History is the member's shift records outside this run, including published rosters (read-only)
	History []model.ShiftRecord

	// Allocated tracks which slots this member has been allocated to
	Allocated []*Slot

	byDay map[time.Time][]model.ShiftRecord
}

// NewMemberState builds the state for a member from their history
func NewMemberState(member model.Member, history []model.ShiftRecord) *MemberState {
	ms := &MemberState{
		Member: member,
		byDay:  make(map[time.Time][]model.ShiftRecord),
	}
	for _, r := range history {
		if r.MemberID != member.ID {
			continue
		}
		ms.History = append(ms.History, r)
		ms.byDay[model.Day(r.Date)] = append(ms.byDay[model.Day(r.Date)], r)
	}
	sort.SliceStable(ms.History, func(i, j int) bool { return ms.History[i].Date.Before(ms.History[j].Date) })
	return ms
}

// ID returns the member's identifier
func (ms *MemberState) ID() string {
	return ms.Member.ID
}

// allocate records a slot against the member
func (ms *MemberState) allocate(slot *Slot) {
	ms.Allocated = append(ms.Allocated, slot)
	day := model.Day(slot.Date)
	ms.byDay[day] = append(ms.byDay[day], slotRecord(ms.Member.ID, slot))
}

// Records returns history plus allocations as shift records
func (ms *MemberState) Records() []model.ShiftRecord {
	records := make([]model.ShiftRecord, 0, len(ms.History)+len(ms.Allocated))
	records = append(records, ms.History...)
	for _, slot := range ms.Allocated {
		records = append(records, slotRecord(ms.Member.ID, slot))
	}
	return records
}

// WorksOn reports whether the member has any shift on the date
func (ms *MemberState) WorksOn(date time.Time) bool {
	return len(ms.byDay[model.Day(date)]) > 0
}

// ShiftsOn returns the member's shifts on a date
func (ms *MemberState) ShiftsOn(date time.Time) []model.ShiftRecord {
	return ms.byDay[model.Day(date)]
}

// HoursBetween sums the member's hours over the inclusive date range
func (ms *MemberState) HoursBetween(from, to time.Time) float64 {
	total := 0.0
	for d := model.Day(from); !d.After(to); d = d.AddDate(0, 0, 1) {
		for _, r := range ms.byDay[d] {
			total += r.Hours
		}
	}
	return total
}

// WorkedDaysBetween counts the days in the inclusive range with at least one shift
func (ms *MemberState) WorkedDaysBetween(from, to time.Time) int {
	days := 0
	for d := model.Day(from); !d.After(to); d = d.AddDate(0, 0, 1) {
		if len(ms.byDay[d]) > 0 {
			days++
		}
	}
	return days
}

// RunLengthBefore counts consecutive days immediately before date whose shifts all match
func (ms *MemberState) RunLengthBefore(date time.Time, match func(model.ShiftType) bool) int {
	run := 0
	for d := model.Day(date).AddDate(0, 0, -1); ; d = d.AddDate(0, 0, -1) {
		shifts := ms.byDay[d]
		if len(shifts) == 0 {
			return run
		}
		for _, r := range shifts {
			if !match(r.Type) {
				return run
			}
		}
		run++
	}
}

// CountInMonth counts shifts of a type in the calendar month of date, up to and excluding date
func (ms *MemberState) CountInMonth(date time.Time, t model.ShiftType) int {
	count := 0
	first := time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, time.UTC)
	for d := first; d.Before(model.Day(date)); d = d.AddDate(0, 0, 1) {
		for _, r := range ms.byDay[d] {
			if r.Type == t {
				count++
			}
		}
	}
	return count
}

// LastShiftOfType returns the most recent date before date the member worked a shift type
func (ms *MemberState) LastShiftOfType(date time.Time, t model.ShiftType) (time.Time, bool) {
	var last time.Time
	found := false
	for day, shifts := range ms.byDay {
		if !day.Before(model.Day(date)) {
			continue
		}
		for _, r := range shifts {
			if r.Type == t && (!found || day.After(last)) {
				last, found = day, true
			}
		}
	}
	return last, found
}

// RunHours returns the hours allocated to the member in this generation run
func (ms *MemberState) RunHours() float64 {
	total := 0.0
	for _, slot := range ms.Allocated {
		total += slot.Hours
	}
	return total
}

// IsAllocated returns true if the member has already been allocated to the slot
func (ms *MemberState) IsAllocated(slot *Slot) bool {
	for _, s := range ms.Allocated {
		if s == slot {
			return true
		}
	}
	return false
}

func slotRecord(memberID string, slot *Slot) model.ShiftRecord {
	return model.ShiftRecord{
		MemberID: memberID,
		Date:     slot.Date,
		Type:     slot.Type,
		Hours:    slot.Hours,
	}
}
