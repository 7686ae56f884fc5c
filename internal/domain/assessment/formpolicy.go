package assessment

import (
	"context"
	"fmt"

	"github.com/solacehealth/practice/internal/config"
	"github.com/solacehealth/practice/internal/domain/therapy"
)

// SessionFormPolicy decides which forms a session should receive and which
// completion policy applies when judging them done. One implementation per
// form mode; the mode is resolved per tenant, not process-wide.
type SessionFormPolicy interface {
	FormsForSession(ctx context.Context, req *therapy.TherapyRequest, session *therapy.SessionRef) ([]Form, error)
	CompletionPolicy() Policy
}

// NewSessionFormPolicy selects the policy implementation for a tenant's
// form mode.
func NewSessionFormPolicy(mode string, repo Repository) (SessionFormPolicy, error) {
	switch mode {
	case config.FormModeService:
		return &serviceModePolicy{repo: repo}, nil
	case config.FormModeTreatmentTarget:
		return &treatmentTargetPolicy{repo: repo}, nil
	default:
		return nil, fmt.Errorf("unknown form mode %q", mode)
	}
}

// serviceModePolicy schedules forms from the session's service code. Any
// single submission satisfies the form.
type serviceModePolicy struct {
	repo Repository
}

func (p *serviceModePolicy) FormsForSession(ctx context.Context, _ *therapy.TherapyRequest, session *therapy.SessionRef) ([]Form, error) {
	return p.repo.ListFormsByServiceCode(ctx, session.ServiceCode)
}

func (p *serviceModePolicy) CompletionPolicy() Policy { return PolicyAny }

// treatmentTargetPolicy schedules forms from the therapy request's
// treatment target. Every scheduled instance must be submitted before the
// form counts as done.
type treatmentTargetPolicy struct {
	repo Repository
}

func (p *treatmentTargetPolicy) FormsForSession(ctx context.Context, req *therapy.TherapyRequest, _ *therapy.SessionRef) ([]Form, error) {
	if req.TreatmentTarget == nil || *req.TreatmentTarget == "" {
		return nil, nil
	}
	return p.repo.ListFormsByTreatmentTarget(ctx, *req.TreatmentTarget)
}

func (p *treatmentTargetPolicy) CompletionPolicy() Policy { return PolicyAll }

// DedupeInstances removes duplicate form instances from a combined list
// (treatment-target, consent and intake forms). The key is the form plus
// the therapy request; instances with no therapy request fall back to the
// client so two different clients' unscheduled forms never collapse into
// one entry.
func DedupeInstances(instances []Instance, therapyRequestID func(Instance) *string) []Instance {
	seen := map[string]bool{}
	out := make([]Instance, 0, len(instances))
	for _, in := range instances {
		key := fmt.Sprintf("%d|", in.FormID)
		if reqID := therapyRequestID(in); reqID != nil && *reqID != "" {
			key += *reqID
		} else if in.ClientID != nil {
			key += "client:" + in.ClientID.String()
		} else if in.SessionID != nil {
			key += fmt.Sprintf("session:%d", *in.SessionID)
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, in)
	}
	return out
}
