package report

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/solacehealth/practice/internal/domain/assessment"
	"github.com/solacehealth/practice/internal/domain/identity"
	"github.com/solacehealth/practice/internal/domain/therapy"
)

type mockSessionRepo struct {
	requests map[uuid.UUID]*therapy.TherapyRequest
	sessions map[uuid.UUID][]therapy.SessionRef
}

func newMockSessionRepo() *mockSessionRepo {
	return &mockSessionRepo{
		requests: make(map[uuid.UUID]*therapy.TherapyRequest),
		sessions: make(map[uuid.UUID][]therapy.SessionRef),
	}
}

func (m *mockSessionRepo) GetByID(_ context.Context, id uuid.UUID) (*therapy.TherapyRequest, error) {
	return m.requests[id], nil
}

func (m *mockSessionRepo) ListSessions(_ context.Context, id uuid.UUID) ([]therapy.SessionRef, error) {
	return m.sessions[id], nil
}

func (m *mockSessionRepo) RequestIDForSession(_ context.Context, sessionID int64) (*uuid.UUID, error) {
	for reqID, sessions := range m.sessions {
		for _, s := range sessions {
			if s.SessionID == sessionID {
				id := reqID
				return &id, nil
			}
		}
	}
	return nil, nil
}

type mockStore struct {
	records  map[uuid.UUID]*Record
	typeData map[uuid.UUID]json.RawMessage
}

func newMockStore() *mockStore {
	return &mockStore{
		records:  make(map[uuid.UUID]*Record),
		typeData: make(map[uuid.UUID]json.RawMessage),
	}
}

func (m *mockStore) GetBySession(_ context.Context, sessionID int64, reportType string) (*Record, error) {
	for _, rec := range m.records {
		if rec.SessionID == sessionID && rec.ReportType == reportType {
			return rec, nil
		}
	}
	return nil, nil
}

func (m *mockStore) GetByID(_ context.Context, reportID uuid.UUID) (*Record, error) {
	return m.records[reportID], nil
}

func (m *mockStore) Create(_ context.Context, rec *Record) error {
	for _, existing := range m.records {
		if existing.SessionID == rec.SessionID && existing.ReportType == rec.ReportType {
			return fmt.Errorf("%w: session %d type %s", ErrConflict, rec.SessionID, rec.ReportType)
		}
	}
	m.records[rec.ReportID] = rec
	return nil
}

func (m *mockStore) SetLocked(_ context.Context, reportID uuid.UUID, locked bool) error {
	rec, ok := m.records[reportID]
	if !ok {
		return fmt.Errorf("%w: report %s", ErrNotFound, reportID)
	}
	rec.IsLocked = locked
	return nil
}

func (m *mockStore) List(_ context.Context, filter ListFilter) ([]Record, int, error) {
	var out []Record
	for _, rec := range m.records {
		if filter.ReportType != "" && rec.ReportType != filter.ReportType {
			continue
		}
		if filter.ClientID != nil && (rec.ClientID == nil || *rec.ClientID != *filter.ClientID) {
			continue
		}
		out = append(out, *rec)
	}
	return out, len(out), nil
}

func (m *mockStore) GetTypeData(_ context.Context, reportID uuid.UUID, reportType string) (*TypeData, error) {
	raw, ok := m.typeData[reportID]
	if !ok {
		return nil, nil
	}
	return &TypeData{ReportID: reportID, ReportType: reportType, Metadata: raw}, nil
}

func (m *mockStore) UpsertTypeData(_ context.Context, reportID uuid.UUID, _ string, metadata json.RawMessage, _ string) error {
	m.typeData[reportID] = metadata
	return nil
}

func newUnlockedRecord(f *fixture, sessionID int64, reportType string) string {
	id := uuid.New()
	f.store.records[id] = &Record{ReportID: id, SessionID: sessionID, ReportType: reportType, TenantID: "acme"}
	return id.String()
}

func newLockedRecord(f *fixture, sessionID int64, reportType string) string {
	id := uuid.New()
	f.store.records[id] = &Record{ReportID: id, SessionID: sessionID, ReportType: reportType, TenantID: "acme", IsLocked: true}
	f.store.typeData[id] = json.RawMessage(`{"report":{"summary":"frozen","assessments":[]}}`)
	return id.String()
}

type mockAssessments struct {
	summaries []assessment.Summary
	smartGoal *string
}

func (m *mockAssessments) Recent(_ context.Context, _ []int64) []assessment.Summary {
	return m.summaries
}

func (m *mockAssessments) LatestSmartGoal(_ context.Context, _ []int64) *string {
	return m.smartGoal
}

type mockProfiles struct {
	profiles   map[uuid.UUID]*identity.Profile
	tenant     *identity.Tenant
	intakeForm *identity.ClientIntakeForm
}

func newMockProfiles() *mockProfiles {
	return &mockProfiles{profiles: make(map[uuid.UUID]*identity.Profile)}
}

func (m *mockProfiles) GetProfile(_ context.Context, id uuid.UUID) (*identity.Profile, error) {
	return m.profiles[id], nil
}

func (m *mockProfiles) GetTenant(_ context.Context, _ string) (*identity.Tenant, error) {
	return m.tenant, nil
}

func (m *mockProfiles) ResolveIntakeForm(_ context.Context, _, _ uuid.UUID, _, _ string) (*identity.ClientIntakeForm, error) {
	return m.intakeForm, nil
}

type mockRenderer struct {
	lastType string
	lastDoc  json.RawMessage
}

func (m *mockRenderer) Render(reportType string, document json.RawMessage) ([]byte, error) {
	m.lastType = reportType
	m.lastDoc = document
	return []byte("%PDF-mock"), nil
}

type mockNotifier struct {
	sent []string
}

func (m *mockNotifier) ReportReady(_ context.Context, email, reportType string, _ uuid.UUID) error {
	m.sent = append(m.sent, email+":"+reportType)
	return nil
}
