package model

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

// DateLayout is the layout used for all roster dates
const DateLayout = "2006-01-02"

// ShiftType enumerates the kinds of shift a member can work
type ShiftType string

const (
	ShiftVan        ShiftType = "van"
	ShiftWatchhouse ShiftType = "watchhouse"
	ShiftNight      ShiftType = "night"
	ShiftCorro      ShiftType = "corro"
	ShiftOther      ShiftType = "other"
)

// AllShiftTypes lists every shift type in display order
var AllShiftTypes = []ShiftType{ShiftVan, ShiftWatchhouse, ShiftNight, ShiftCorro, ShiftOther}

// TrackedShiftTypes are the types used for equity comparisons
var TrackedShiftTypes = []ShiftType{ShiftVan, ShiftWatchhouse, ShiftNight, ShiftCorro}

// ParseShiftType converts a string into a ShiftType
func ParseShiftType(s string) (ShiftType, error) {
	t := ShiftType(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(AllShiftTypes, t) {
		return "", fmt.Errorf("unknown shift type %q", s)
	}
	return t, nil
}

// Preferences are a member's stated rostering preferences.
// They are overwritten on update, never deleted.
type Preferences struct {
	NightTolerancePerMonth  int            `json:"night_tolerance_per_month" validate:"min=0,max=31"`
	RecallWillingness       bool           `json:"recall_willingness"`
	AvoidConsecutiveDoubles bool           `json:"avoid_consecutive_doubles"`
	AvoidFourEarlies        bool           `json:"avoid_four_earlies"`
	PreferredRestDays       []time.Weekday `json:"preferred_rest_days" validate:"dive,min=0,max=6"`
	MedicalLimitations      string         `json:"medical_limitations,omitempty"`
	WelfareNotes            string         `json:"welfare_notes,omitempty"`
	UpdatedAt               time.Time      `json:"updated_at"`
	UpdatedBy               string         `json:"updated_by,omitempty"`
}

// DefaultPreferences returns the preferences assumed for a member who has never set any
func DefaultPreferences() Preferences {
	return Preferences{
		NightTolerancePerMonth:  2,
		RecallWillingness:       true,
		AvoidConsecutiveDoubles: true,
		AvoidFourEarlies:        true,
	}
}

// PrefersRestOn reports whether the weekday is one of the member's preferred rest days
func (p Preferences) PrefersRestOn(day time.Weekday) bool {
	return slices.Contains(p.PreferredRestDays, day)
}

// Member is a sworn member available for rostering at a station
type Member struct {
	ID             string // badge / VP number
	Name           string
	Rank           string
	Station        string
	SeniorityYears float64
	Preferences    Preferences
}

// PreferenceAudit records a single overwrite of a member's preferences
type PreferenceAudit struct {
	ID        string
	MemberID  string
	ChangedBy string
	ChangedAt time.Time
	Before    Preferences
	After     Preferences
}

// ShiftRecord is an immutable historical fact about a worked shift
type ShiftRecord struct {
	ID       string
	MemberID string
	Date     time.Time
	Type     ShiftType
	Hours    float64
	Recall   bool
}

// Day normalises a time to UTC midnight
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD date into UTC midnight
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return d, nil
}

// ComplianceState is the outcome of an EBA compliance evaluation
type ComplianceState string

const (
	StatusCompliant ComplianceState = "compliant"
	StatusWarning   ComplianceState = "warning"
	StatusViolation ComplianceState = "violation"
)

// ComplianceResult is derived from shift records and never stored on its own
type ComplianceResult struct {
	MemberID        string          `json:"member_id"`
	AsOf            time.Time       `json:"as_of"`
	Status          ComplianceState `json:"status"`
	FortnightHours  float64         `json:"fortnight_hours"`
	Violations      []string        `json:"violations"`
	Warnings        []string        `json:"warnings"`
	WellnessScore   float64         `json:"wellness_score"`
	FatigueScore    float64         `json:"fatigue_score"`
	PeakWeekHours   float64         `json:"peak_week_hours"`
	LongestNightRun int             `json:"longest_night_run"`
	RestDays        int             `json:"rest_days"`
}

// ComplianceIssue is a single violation or warning attributed to a member and date
type ComplianceIssue struct {
	MemberID string    `json:"member_id"`
	Date     time.Time `json:"date"`
	Message  string    `json:"message"`
}

// ComplianceStatusSummary is the aggregate compliance attached to a roster period
type ComplianceStatusSummary struct {
	HasViolations       bool              `json:"has_violations"`
	HasWarnings         bool              `json:"has_warnings"`
	Violations          []ComplianceIssue `json:"violations"`
	Warnings            []ComplianceIssue `json:"warnings"`
	TotalMembersChecked int               `json:"total_members_checked"`
	EvaluatedAt         time.Time         `json:"evaluated_at"`
}

// RiskBand classifies a fatigue score
type RiskBand string

const (
	RiskLow      RiskBand = "low"
	RiskModerate RiskBand = "moderate"
	RiskHigh     RiskBand = "high"
)

// FatigueScore is the fatigue and equity picture for one member over a window
type FatigueScore struct {
	MemberID      string
	WindowStart   time.Time
	WindowEnd     time.Time
	TotalShifts   int
	TotalHours    float64
	ShiftPct      map[ShiftType]float64
	OvertimeHours float64
	RecallCount   int
	Score         float64
	Band          RiskBand
	RiskFactors   []string
	Equity        *EquityMetrics
}

// EquityMetrics compares a member's workload mix to their station cohort
type EquityMetrics struct {
	Share           map[ShiftType]float64
	CohortAverage   map[ShiftType]float64
	CorroCount      int
	CorroPercentile float64
	FairnessScore   float64
}

// CorroUrgency is the urgency tier of a member's corro rotation
type CorroUrgency string

const (
	CorroOK       CorroUrgency = "ok"
	CorroOverdue  CorroUrgency = "overdue"
	CorroCritical CorroUrgency = "critical"
)

// CorroStatus is one member's position in the corro rotation
type CorroStatus struct {
	MemberID      string
	MemberName    string
	CorroCount    int
	LastCorro     *time.Time
	DaysSinceLast *int
	Overdue       bool
	Urgency       CorroUrgency
}

// RosterStatus is the lifecycle state of a roster period
type RosterStatus string

const (
	RosterDraft     RosterStatus = "draft"
	RosterPublished RosterStatus = "published"
)

// ShiftAssignment places one member on one shift type for one date
type ShiftAssignment struct {
	ID             string    `json:"id"`
	RosterPeriodID string    `json:"roster_period_id"`
	MemberID       string    `json:"member_id"`
	Date           time.Time `json:"date"`
	Type           ShiftType `json:"type"`
	Hours          float64   `json:"hours"`
}

// UnresolvedSlot is a required coverage slot that could not be filled
type UnresolvedSlot struct {
	Date     time.Time `json:"date"`
	Type     ShiftType `json:"type"`
	Required int       `json:"required"`
	Assigned int       `json:"assigned"`
}

func (u UnresolvedSlot) String() string {
	return fmt.Sprintf("%s %s: %d of %d assigned", u.Date.Format(DateLayout), u.Type, u.Assigned, u.Required)
}

// Err reports the slot as an ErrInfeasibleSlot
func (u UnresolvedSlot) Err() error {
	return fmt.Errorf("%w: %s", ErrInfeasibleSlot, u)
}

// PublicationNotice records how far in advance a roster was published
type PublicationNotice struct {
	DaysInAdvance int             `json:"days_in_advance"`
	Status        ComplianceState `json:"status"`
	Message       string          `json:"message"`
}

// AlertType classifies a publication deadline alert
type AlertType string

const (
	AlertApproachingDeadline AlertType = "approaching_deadline"
	AlertDeadlineMissed      AlertType = "deadline_missed"
)

// PublicationAlert warns that an upcoming period has no published roster inside the notice window
type PublicationAlert struct {
	ID            string    `json:"id"`
	Station       string    `json:"station"`
	PeriodStart   time.Time `json:"period_start"`
	PeriodEnd     time.Time `json:"period_end"`
	Type          AlertType `json:"alert_type"`
	DaysRemaining int       `json:"days_remaining"`
	Message       string    `json:"message"`
	Acknowledged  bool      `json:"acknowledged"`
	CreatedAt     time.Time `json:"created_at"`
}

// RosterPeriod is a generated roster for one station over 1, 2 or 4 weeks
type RosterPeriod struct {
	ID               string
	Station          string
	StartDate        time.Time
	EndDate          time.Time
	Status           RosterStatus
	Config           GenerationConfig
	Assignments      []ShiftAssignment
	ComplianceStatus ComplianceStatusSummary
	UnresolvedSlots  []UnresolvedSlot
	Notice           *PublicationNotice
	CreatedAt        time.Time
	PublishedAt      *time.Time
}

// Weeks returns the length of the period in weeks
func (r *RosterPeriod) Weeks() int {
	return (int(r.EndDate.Sub(r.StartDate).Hours()/24) + 1) / 7
}

// Dates returns every date in the period
func (r *RosterPeriod) Dates() []time.Time {
	var dates []time.Time
	for d := r.StartDate; !d.After(r.EndDate); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates
}

// InfeasibleSlots joins the errors of every unresolved slot, or returns nil when coverage was met
func (r *RosterPeriod) InfeasibleSlots() error {
	errs := make([]error, 0, len(r.UnresolvedSlots))
	for _, u := range r.UnresolvedSlots {
		errs = append(errs, u.Err())
	}
	return errors.Join(errs...)
}

// AssignmentsAsRecords converts the period's assignments into shift records
func (r *RosterPeriod) AssignmentsAsRecords() []ShiftRecord {
	records := make([]ShiftRecord, 0, len(r.Assignments))
	for _, a := range r.Assignments {
		records = append(records, ShiftRecord{
			ID:       a.ID,
			MemberID: a.MemberID,
			Date:     a.Date,
			Type:     a.Type,
			Hours:    a.Hours,
		})
	}
	return records
}

// GenerationKey identifies a generation request for the concurrency guard
func GenerationKey(station string, start, end time.Time) string {
	return fmt.Sprintf("%s|%s|%s", station, start.Format(DateLayout), end.Format(DateLayout))
}
