package model

import "time"

// StandardShiftHours is the rostered length of every shift type
const StandardShiftHours = 8.0

// ShiftPattern describes when a shift type starts and how long it is rostered for
type ShiftPattern struct {
	Start time.Duration // offset from midnight
	Hours float64
}

// ShiftPatterns maps shift types to their rostered pattern
type ShiftPatterns map[ShiftType]ShiftPattern

// DefaultShiftPatterns returns the station's standard shift times
func DefaultShiftPatterns() ShiftPatterns {
	return ShiftPatterns{
		ShiftVan:        {Start: 6 * time.Hour, Hours: StandardShiftHours},
		ShiftWatchhouse: {Start: 6 * time.Hour, Hours: StandardShiftHours},
		ShiftNight:      {Start: 22 * time.Hour, Hours: StandardShiftHours},
		ShiftCorro:      {Start: 9 * time.Hour, Hours: StandardShiftHours},
		ShiftOther:      {Start: 9 * time.Hour, Hours: StandardShiftHours},
	}
}

// Pattern returns the pattern for a shift type, falling back to the defaults
func (p ShiftPatterns) Pattern(t ShiftType) ShiftPattern {
	if pattern, ok := p[t]; ok {
		return pattern
	}
	if pattern, ok := DefaultShiftPatterns()[t]; ok {
		return pattern
	}
	return ShiftPattern{Start: 9 * time.Hour, Hours: StandardShiftHours}
}

// IsEarly reports whether a shift type starts before 07:00
func (p ShiftPatterns) IsEarly(t ShiftType) bool {
	return t != ShiftNight && p.Pattern(t).Start < 7*time.Hour
}

// Span returns the start and end instants of a shift worked on a date
// Worked hours override the rostered length when known.
func (p ShiftPatterns) Span(date time.Time, t ShiftType, hours float64) (time.Time, time.Time) {
	pattern := p.Pattern(t)
	if hours <= 0 {
		hours = pattern.Hours
	}
	start := Day(date).Add(pattern.Start)
	return start, start.Add(time.Duration(hours * float64(time.Hour)))
}
