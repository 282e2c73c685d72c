package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jakechorley/watchtower/pkg/clients/eventsclient"
	"github.com/jakechorley/watchtower/pkg/clients/sheetsclient"
	"github.com/jakechorley/watchtower/pkg/core/model"
)

// 2026-03-02 is a Monday
var periodStart = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func stationPool(station string, n int) []model.Member {
	pool := make([]model.Member, 0, n)
	for i := 1; i <= n; i++ {
		pool = append(pool, model.Member{
			ID:             fmt.Sprintf("VP%03d", i),
			Name:           fmt.Sprintf("Member %d", i),
			Rank:           "Constable",
			Station:        station,
			SeniorityYears: float64(i % 4),
			Preferences:    model.DefaultPreferences(),
		})
	}
	return pool
}

func shift(memberID string, date time.Time, t model.ShiftType, hours float64) model.ShiftRecord {
	return model.ShiftRecord{
		ID:       fmt.Sprintf("%s-%s-%s", memberID, date.Format(model.DateLayout), t),
		MemberID: memberID,
		Date:     date,
		Type:     t,
		Hours:    hours,
	}
}

// mockStore is an in-memory store implementing every store interface used by the services
type mockStore struct {
	mu      sync.Mutex
	members []model.Member
	records []model.ShiftRecord
	rosters map[string]*model.RosterPeriod
	audits  []model.PreferenceAudit
	alerts  []model.PublicationAlert

	getMembersErr error
	getRecordsErr error
	saveErr       error
	markErr       error
	upsertErr     error

	// recordsGate, when set, blocks GetShiftRecords until closed or the context is done
	recordsGate    chan struct{}
	recordsEntered chan struct{}

	getMembersCalls int
	saveCalls       int
}

func newMockStore(members []model.Member, records []model.ShiftRecord) *mockStore {
	return &mockStore{
		members: members,
		records: records,
		rosters: make(map[string]*model.RosterPeriod),
	}
}

func (m *mockStore) GetMembers(ctx context.Context, station string) ([]model.Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getMembersCalls++
	if m.getMembersErr != nil {
		return nil, m.getMembersErr
	}
	var out []model.Member
	for _, mem := range m.members {
		if mem.Station == station {
			out = append(out, mem)
		}
	}
	return out, nil
}

func (m *mockStore) GetMember(ctx context.Context, id string) (*model.Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, mem := range m.members {
		if mem.ID == id {
			found := mem
			return &found, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", model.ErrMemberNotFound, id)
}

func (m *mockStore) GetShiftRecords(ctx context.Context, from, to time.Time) ([]model.ShiftRecord, error) {
	if m.recordsEntered != nil {
		m.recordsEntered <- struct{}{}
	}
	if m.recordsGate != nil {
		select {
		case <-m.recordsGate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getRecordsErr != nil {
		return nil, m.getRecordsErr
	}
	var out []model.ShiftRecord
	for _, r := range m.records {
		if (!from.IsZero() && r.Date.Before(from)) || r.Date.After(to) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (m *mockStore) SaveRoster(ctx context.Context, roster *model.RosterPeriod) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveCalls++
	if m.saveErr != nil {
		return m.saveErr
	}
	stored := *roster
	m.rosters[roster.ID] = &stored
	return nil
}

func (m *mockStore) GetRoster(ctx context.Context, id string) (*model.RosterPeriod, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rosters[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrRosterNotFound, id)
	}
	copied := *r
	return &copied, nil
}

func (m *mockStore) ListRosters(ctx context.Context, station string) ([]model.RosterPeriod, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.RosterPeriod
	for _, r := range m.rosters {
		if r.Station == station {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.After(out[j].StartDate) })
	return out, nil
}

func (m *mockStore) UpdateComplianceStatus(ctx context.Context, id string, summary model.ComplianceStatusSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rosters[id]
	if !ok {
		return model.ErrRosterNotFound
	}
	r.ComplianceStatus = summary
	return nil
}

func (m *mockStore) MarkPublished(ctx context.Context, id string, publishedAt time.Time, notice model.PublicationNotice) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.markErr != nil {
		return false, m.markErr
	}
	r, ok := m.rosters[id]
	if !ok || r.Status != model.RosterDraft {
		return false, nil
	}
	r.Status = model.RosterPublished
	r.PublishedAt = &publishedAt
	r.Notice = &notice
	return true, nil
}

func (m *mockStore) GetPublishedAssignments(ctx context.Context, station string, from, to time.Time) ([]model.ShiftAssignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.ShiftAssignment
	for _, r := range m.rosters {
		if r.Station != station || r.Status != model.RosterPublished {
			continue
		}
		for _, a := range r.Assignments {
			if a.Date.Before(from) || a.Date.After(to) {
				continue
			}
			a.RosterPeriodID = r.ID
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (m *mockStore) UpsertMembers(ctx context.Context, members []model.Member) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertErr != nil {
		return m.upsertErr
	}
	for _, mem := range members {
		replaced := false
		for i := range m.members {
			if m.members[i].ID == mem.ID {
				mem.Preferences = m.members[i].Preferences
				m.members[i] = mem
				replaced = true
			}
		}
		if !replaced {
			mem.Preferences = model.DefaultPreferences()
			m.members = append(m.members, mem)
		}
	}
	return nil
}

func (m *mockStore) InsertShiftRecords(ctx context.Context, records []model.ShiftRecord) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing := make(map[string]bool, len(m.records))
	for _, r := range m.records {
		existing[r.ID] = true
	}
	inserted := 0
	for _, r := range records {
		if existing[r.ID] {
			continue
		}
		existing[r.ID] = true
		m.records = append(m.records, r)
		inserted++
	}
	return inserted, nil
}

func (m *mockStore) UpdatePreferences(ctx context.Context, audit model.PreferenceAudit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.members {
		if m.members[i].ID == audit.MemberID {
			m.members[i].Preferences = audit.After
			m.audits = append(m.audits, audit)
			return nil
		}
	}
	return model.ErrMemberNotFound
}

func (m *mockStore) SaveAlerts(ctx context.Context, alerts []model.PublicationAlert) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inserted := 0
	for _, a := range alerts {
		exists := false
		for _, b := range m.alerts {
			if b.ID == a.ID || (b.Station == a.Station && b.PeriodStart.Equal(a.PeriodStart) && b.Type == a.Type) {
				exists = true
			}
		}
		if !exists {
			m.alerts = append(m.alerts, a)
			inserted++
		}
	}
	return inserted, nil
}

func (m *mockStore) GetActiveAlerts(ctx context.Context, station string) ([]model.PublicationAlert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.PublicationAlert{}
	for _, a := range m.alerts {
		if a.Station == station && !a.Acknowledged {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PeriodStart.Before(out[j].PeriodStart) })
	return out, nil
}

func (m *mockStore) AcknowledgeAlert(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.alerts {
		if m.alerts[i].ID == id {
			m.alerts[i].Acknowledged = true
			return nil
		}
	}
	return fmt.Errorf("alert %s: %w", id, model.ErrAlertNotFound)
}

func (m *mockStore) roster(id string) *model.RosterPeriod {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rosters[id]
}

// mockRecorder captures metric observations
type mockRecorder struct {
	mu          sync.Mutex
	generations []string
	unresolved  int
	publishes   []string
	compliance  []string
}

func (r *mockRecorder) ObserveGeneration(station, outcome string, _ time.Duration, unresolved int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generations = append(r.generations, outcome)
	r.unresolved += unresolved
}

func (r *mockRecorder) ObservePublish(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.publishes = append(r.publishes, outcome)
}

func (r *mockRecorder) ObserveCompliance(status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.compliance = append(r.compliance, status)
}

func (r *mockRecorder) generationOutcomes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.generations...)
}

// mockSheetsClient records published rosters
type mockSheetsClient struct {
	published []*sheetsclient.PublishedRoster
	err       error
}

func (m *mockSheetsClient) PublishRoster(ctx context.Context, spreadsheetID string, roster *sheetsclient.PublishedRoster) error {
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, roster)
	return nil
}

// mockEventPublisher records roster events
type mockEventPublisher struct {
	events []eventsclient.RosterPublished
	err    error
}

func (m *mockEventPublisher) PublishRosterPublished(ctx context.Context, event eventsclient.RosterPublished) error {
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, event)
	return nil
}

// mockFeed serves fixed members and records
type mockFeed struct {
	members    []model.Member
	records    []model.ShiftRecord
	membersErr error
	recordsErr error
}

func (m *mockFeed) FetchMembers(ctx context.Context, station string) ([]model.Member, error) {
	return m.members, m.membersErr
}

func (m *mockFeed) FetchShiftRecords(ctx context.Context, from, to time.Time) ([]model.ShiftRecord, error) {
	return m.records, m.recordsErr
}
