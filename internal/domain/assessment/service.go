package assessment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/solacehealth/practice/internal/domain/identity"
	"github.com/solacehealth/practice/internal/domain/therapy"
)

var (
	ErrRequestNotFound = errors.New("therapy request not found")
	ErrSessionNotFound = errors.New("session not found")
)

// SessionSource is the slice of the therapy domain the service consumes.
type SessionSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (*therapy.TherapyRequest, error)
	ListSessions(ctx context.Context, therapyRequestID uuid.UUID) ([]therapy.SessionRef, error)
}

// TenantSource resolves tenants for their per-tenant form mode override.
type TenantSource interface {
	GetTenant(ctx context.Context, id string) (*identity.Tenant, error)
}

// SessionSchedule is the resolved form schedule for one session: the forms
// the active policy assigns to it and the aggregated completion state of
// everything submitted in the session's window.
type SessionSchedule struct {
	SessionID int64     `json:"session_id"`
	FormMode  string    `json:"form_mode"`
	Policy    Policy    `json:"completion_policy"`
	Forms     []Form    `json:"forms"`
	Summaries []Summary `json:"summaries"`
}

// Service answers form-schedule questions for sessions and therapy requests.
type Service struct {
	repo        Repository
	sessions    SessionSource
	tenants     TenantSource
	agg         *Aggregator
	defaultMode string
	log         zerolog.Logger
}

func NewService(repo Repository, sessions SessionSource, tenants TenantSource, agg *Aggregator, defaultMode string, log zerolog.Logger) *Service {
	return &Service{
		repo:        repo,
		sessions:    sessions,
		tenants:     tenants,
		agg:         agg,
		defaultMode: defaultMode,
		log:         log,
	}
}

// Aggregator exposes the underlying aggregator for collaborators that only
// need summaries.
func (s *Service) Aggregator() *Aggregator { return s.agg }

// SessionSchedule resolves the form schedule for one session of a therapy
// request under the tenant's form mode.
func (s *Service) SessionSchedule(ctx context.Context, therapyRequestID uuid.UUID, sessionID int64) (*SessionSchedule, error) {
	req, err := s.sessions.GetByID(ctx, therapyRequestID)
	if err != nil {
		return nil, fmt.Errorf("get therapy request: %w", err)
	}
	if req == nil {
		return nil, fmt.Errorf("%w: %s", ErrRequestNotFound, therapyRequestID)
	}

	all, err := s.sessions.ListSessions(ctx, therapyRequestID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	var session *therapy.SessionRef
	for i := range all {
		if all[i].SessionID == sessionID {
			session = &all[i]
			break
		}
	}
	if session == nil {
		return nil, fmt.Errorf("%w: %d", ErrSessionNotFound, sessionID)
	}

	mode := s.resolveMode(ctx, req.TenantID)
	policy, err := NewSessionFormPolicy(mode, s.repo)
	if err != nil {
		return nil, err
	}

	forms, err := policy.FormsForSession(ctx, req, session)
	if err != nil {
		return nil, fmt.Errorf("resolve forms for session %d: %w", sessionID, err)
	}

	return &SessionSchedule{
		SessionID: sessionID,
		FormMode:  mode,
		Policy:    policy.CompletionPolicy(),
		Forms:     forms,
		Summaries: s.agg.Aggregate(ctx, []int64{sessionID}, policy.CompletionPolicy()),
	}, nil
}

// RequestInstances returns the combined form instances across a therapy
// request's active sessions, deduplicated so a form scheduled against both
// the request and an individual session appears once.
func (s *Service) RequestInstances(ctx context.Context, therapyRequestID uuid.UUID) ([]Instance, error) {
	req, err := s.sessions.GetByID(ctx, therapyRequestID)
	if err != nil {
		return nil, fmt.Errorf("get therapy request: %w", err)
	}
	if req == nil {
		return nil, fmt.Errorf("%w: %s", ErrRequestNotFound, therapyRequestID)
	}

	all, err := s.sessions.ListSessions(ctx, therapyRequestID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	inRequest := map[int64]bool{}
	var sessionIDs []int64
	for _, sess := range all {
		if sess.Status == therapy.SessionInactive {
			continue
		}
		inRequest[sess.SessionID] = true
		sessionIDs = append(sessionIDs, sess.SessionID)
	}

	instances, err := s.repo.ListInstances(ctx, sessionIDs)
	if err != nil {
		return nil, fmt.Errorf("list form instances: %w", err)
	}

	reqID := therapyRequestID.String()
	return DedupeInstances(instances, func(in Instance) *string {
		if in.SessionID != nil && inRequest[*in.SessionID] {
			return &reqID
		}
		return nil
	}), nil
}

// resolveMode returns the tenant's form mode, falling back to the server
// default when the tenant is unknown or carries no override.
func (s *Service) resolveMode(ctx context.Context, tenantID string) string {
	tenant, err := s.tenants.GetTenant(ctx, tenantID)
	if err != nil {
		s.log.Warn().Err(err).Str("tenant_id", tenantID).Msg("tenant lookup failed, using default form mode")
		return s.defaultMode
	}
	if tenant == nil || tenant.FormMode == "" {
		return s.defaultMode
	}
	return tenant.FormMode
}
