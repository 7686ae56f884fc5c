package identity

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

type Service struct {
	profiles ProfileRepository
	tenants  TenantRepository
	intakes  IntakeFormRepository
}

func NewService(profiles ProfileRepository, tenants TenantRepository, intakes IntakeFormRepository) *Service {
	return &Service{profiles: profiles, tenants: tenants, intakes: intakes}
}

func (s *Service) GetProfile(ctx context.Context, id uuid.UUID) (*Profile, error) {
	return s.profiles.GetByID(ctx, id)
}

func (s *Service) GetTenant(ctx context.Context, id string) (*Tenant, error) {
	return s.tenants.GetByID(ctx, id)
}

// ResolveIntakeForm finds the intake form for a client of the given
// counselor. Priority: a form filled through the counselor's enrollment link
// for this exact client user, then a full-name match among the counselor's
// forms, then the most recently submitted form overall. Returns nil when no
// form exists at all.
func (s *Service) ResolveIntakeForm(ctx context.Context, counselorUserID, clientUserID uuid.UUID, clientFirstName, clientLastName string) (*ClientIntakeForm, error) {
	forms, err := s.intakes.ListByCounselor(ctx, counselorUserID)
	if err != nil {
		return nil, err
	}

	for _, f := range forms {
		if f.ClientUserID != nil && *f.ClientUserID == clientUserID {
			return f, nil
		}
	}

	want := normalizeName(clientFirstName) + " " + normalizeName(clientLastName)
	for _, f := range forms {
		var first, last string
		if f.ClientFirstName != nil {
			first = *f.ClientFirstName
		}
		if f.ClientLastName != nil {
			last = *f.ClientLastName
		}
		if normalizeName(first)+" "+normalizeName(last) == want {
			return f, nil
		}
	}

	return s.intakes.MostRecent(ctx)
}

func normalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
