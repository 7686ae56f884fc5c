package therapy

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

type mockRepo struct {
	requests map[uuid.UUID]*TherapyRequest
	sessions map[uuid.UUID][]SessionRef
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		requests: make(map[uuid.UUID]*TherapyRequest),
		sessions: make(map[uuid.UUID][]SessionRef),
	}
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*TherapyRequest, error) {
	return m.requests[id], nil
}

func (m *mockRepo) ListSessions(_ context.Context, id uuid.UUID) ([]SessionRef, error) {
	return m.sessions[id], nil
}

func (m *mockRepo) RequestIDForSession(_ context.Context, sessionID int64) (*uuid.UUID, error) {
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

func seedRequest(repo *mockRepo, sessions ...SessionRef) uuid.UUID {
	id := uuid.New()
	repo.requests[id] = &TherapyRequest{ID: id, Status: StatusOngoing}
	for i := range sessions {
		sessions[i].TherapyRequestID = id
	}
	repo.sessions[id] = sessions
	return id
}

func TestResolveSessionHistory(t *testing.T) {
	repo := newMockRepo()
	id := seedRequest(repo,
		SessionRef{SessionID: 1, Status: SessionShow, SessionNumber: 1},
		SessionRef{SessionID: 2, Status: SessionNoShow, SessionNumber: 2},
		SessionRef{SessionID: 3, Status: SessionShow, IsReport: true, ServiceCode: ServiceProgress},
	)

	asOf := int64(3)
	hist, err := NewResolver(repo).ResolveSessionHistory(context.Background(), id, ServiceProgress, &asOf)
	if err != nil {
		t.Fatalf("ResolveSessionHistory: %v", err)
	}
	if hist.ReportSession == nil || hist.ReportSession.SessionID != 3 {
		t.Fatalf("report session = %+v, want session 3", hist.ReportSession)
	}
	if hist.Stats.Total != 2 {
		t.Errorf("total = %d, want 2", hist.Stats.Total)
	}
	if hist.Stats.Attended != 1 {
		t.Errorf("attended = %d, want 1", hist.Stats.Attended)
	}
	if hist.Stats.Cancelled != 1 {
		t.Errorf("cancelled = %d, want 1", hist.Stats.Cancelled)
	}
}

func TestResolveSessionHistoryExcludesMarkersAndInactive(t *testing.T) {
	repo := newMockRepo()
	id := seedRequest(repo,
		SessionRef{SessionID: 1, Status: SessionShow},
		SessionRef{SessionID: 2, Status: SessionInactive},
		SessionRef{SessionID: 3, Status: SessionShow, IsReport: true, ServiceCode: ServiceIntake},
		SessionRef{SessionID: 4, Status: SessionCancelled},
	)

	hist, err := NewResolver(repo).ResolveSessionHistory(context.Background(), id, ServiceIntake, nil)
	if err != nil {
		t.Fatalf("ResolveSessionHistory: %v", err)
	}
	if hist.Stats.Total != 2 {
		t.Errorf("total = %d, want 2 (marker and INACTIVE excluded)", hist.Stats.Total)
	}
	if hist.Stats.Attended != 1 || hist.Stats.Cancelled != 1 {
		t.Errorf("stats = %+v, want attended 1 cancelled 1", hist.Stats)
	}
}

func TestResolveSessionHistoryAsOfTruncation(t *testing.T) {
	repo := newMockRepo()
	id := seedRequest(repo,
		SessionRef{SessionID: 1, Status: SessionShow},
		SessionRef{SessionID: 2, Status: SessionShow, IsReport: true, ServiceCode: ServiceProgress},
		SessionRef{SessionID: 3, Status: SessionShow},
		SessionRef{SessionID: 4, Status: SessionNoShow},
	)

	asOf := int64(2)
	hist, err := NewResolver(repo).ResolveSessionHistory(context.Background(), id, ServiceProgress, &asOf)
	if err != nil {
		t.Fatalf("ResolveSessionHistory: %v", err)
	}
	if hist.Stats.Total != 1 || hist.Stats.Attended != 1 || hist.Stats.Cancelled != 0 {
		t.Errorf("stats = %+v, want only session 1 counted", hist.Stats)
	}
	// Full timeline is still returned even when stats are truncated.
	if len(hist.Sessions) != 4 {
		t.Errorf("sessions = %d, want 4", len(hist.Sessions))
	}
}

func TestResolveSessionHistoryTreatmentPlanAlias(t *testing.T) {
	repo := newMockRepo()
	id := seedRequest(repo,
		SessionRef{SessionID: 1, Status: SessionShow, IsReport: true, ServiceCode: "TREATMENT_PLAN"},
	)

	hist, err := NewResolver(repo).ResolveSessionHistory(context.Background(), id, ServiceTreatmentPlan, nil)
	if err != nil {
		t.Fatalf("ResolveSessionHistory: %v", err)
	}
	if hist.ReportSession.SessionID != 1 {
		t.Errorf("report session = %d, want 1", hist.ReportSession.SessionID)
	}
}

func TestResolveSessionHistoryRequestNotFound(t *testing.T) {
	repo := newMockRepo()
	_, err := NewResolver(repo).ResolveSessionHistory(context.Background(), uuid.New(), ServiceIntake, nil)
	if !errors.Is(err, ErrRequestNotFound) {
		t.Fatalf("err = %v, want ErrRequestNotFound", err)
	}
}

func TestResolveSessionHistoryReportSessionNotFound(t *testing.T) {
	repo := newMockRepo()
	id := seedRequest(repo,
		SessionRef{SessionID: 1, Status: SessionShow},
	)
	_, err := NewResolver(repo).ResolveSessionHistory(context.Background(), id, ServiceDischarge, nil)
	if !errors.Is(err, ErrReportSessionNotFound) {
		t.Fatalf("err = %v, want ErrReportSessionNotFound", err)
	}
}
