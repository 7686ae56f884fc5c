package identity

import (
	"context"

	"github.com/google/uuid"
)

type ProfileRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Profile, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*Profile, error)
}

type TenantRepository interface {
	GetByID(ctx context.Context, id string) (*Tenant, error)
}

type IntakeFormRepository interface {
	// ListByCounselor returns intake forms linked to the counselor,
	// newest first.
	ListByCounselor(ctx context.Context, counselorUserID uuid.UUID) ([]*ClientIntakeForm, error)
	// MostRecent returns the newest intake form regardless of linkage,
	// or nil when none exist.
	MostRecent(ctx context.Context) (*ClientIntakeForm, error)
}
