package therapy

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrRequestNotFound       = errors.New("therapy request not found")
	ErrReportSessionNotFound = errors.New("report session not found")
)

// Resolver projects a therapy request's normalized session rows into an
// ordered history with attendance statistics and the report-marker session
// for a requested report family.
type Resolver struct {
	repo Repository
}

func NewResolver(repo Repository) *Resolver {
	return &Resolver{repo: repo}
}

// ResolveSessionHistory loads the therapy request and its sessions, locates
// the first report-marker session whose service code belongs to the given
// family, and computes attendance statistics. When asOfSessionID is non-nil,
// statistics only cover sessions with session_id <= asOfSessionID so the
// report reflects attendance truth at that point in the timeline.
func (r *Resolver) ResolveSessionHistory(ctx context.Context, therapyRequestID uuid.UUID, family string, asOfSessionID *int64) (*SessionHistory, error) {
	req, err := r.repo.GetByID(ctx, therapyRequestID)
	if err != nil {
		return nil, fmt.Errorf("load therapy request %s: %w", therapyRequestID, err)
	}
	if req == nil {
		return nil, fmt.Errorf("%w: %s", ErrRequestNotFound, therapyRequestID)
	}

	sessions, err := r.repo.ListSessions(ctx, therapyRequestID)
	if err != nil {
		return nil, fmt.Errorf("load sessions for %s: %w", therapyRequestID, err)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].SessionID < sessions[j].SessionID
	})

	var reportSession *SessionRef
	for i := range sessions {
		if sessions[i].IsReport && matchesFamily(sessions[i].ServiceCode, family) {
			reportSession = &sessions[i]
			break
		}
	}
	if reportSession == nil {
		return nil, fmt.Errorf("%w: no %s session on therapy request %s", ErrReportSessionNotFound, family, therapyRequestID)
	}

	return &SessionHistory{
		Request:       req,
		Sessions:      sessions,
		ReportSession: reportSession,
		Stats:         ComputeStats(sessions, asOfSessionID),
	}, nil
}

// matchesFamily reports whether a session's service code belongs to the
// requested report family. Treatment-plan markers appear under both the
// short and the long code historically.
func matchesFamily(serviceCode, family string) bool {
	code := strings.ToUpper(strings.TrimSpace(serviceCode))
	switch family {
	case ServiceIntake:
		return code == ServiceIntake
	case ServiceProgress:
		return code == ServiceProgress
	case ServiceDischarge:
		return code == ServiceDischarge
	case ServiceTreatmentPlan:
		return code == ServiceTreatmentPlan || code == "TREATMENT_PLAN"
	default:
		return false
	}
}

// ComputeStats counts attendance over the session window. Report markers and
// INACTIVE sessions never count; NO-SHOW is treated as cancelled.
func ComputeStats(sessions []SessionRef, asOfSessionID *int64) SessionStats {
	var stats SessionStats
	for _, s := range sessions {
		if s.IsReport || s.Status == SessionInactive {
			continue
		}
		if asOfSessionID != nil && s.SessionID > *asOfSessionID {
			continue
		}
		stats.Total++
		switch s.Status {
		case SessionShow:
			stats.Attended++
		case SessionNoShow, SessionCancelled:
			stats.Cancelled++
		}
	}
	return stats
}
