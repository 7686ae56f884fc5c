package identity

import (
	"time"

	"github.com/google/uuid"
)

// Profile roles.
const (
	RoleClient    = "client"
	RoleCounselor = "counselor"
	RoleAdmin     = "admin"
)

// Profile maps to the user_profile table. Both clients and counselors are
// profiles; Role tells them apart.
type Profile struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	TenantID  string    `db:"tenant_id" json:"tenant_id"`
	Role      string    `db:"role" json:"role"`
	FirstName string    `db:"first_name" json:"first_name"`
	LastName  string    `db:"last_name" json:"last_name"`
	ClamNum   *string   `db:"clam_num" json:"clam_num,omitempty"`
	Email     *string   `db:"email" json:"email,omitempty"`
	Timezone  *string   `db:"timezone" json:"timezone,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// FullName returns "First Last" with surrounding whitespace trimmed away.
func (p *Profile) FullName() string {
	if p.FirstName == "" {
		return p.LastName
	}
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

// Tenant maps to the tenant table. FormMode overrides the server default for
// this tenant when non-empty.
type Tenant struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Timezone  string    `db:"timezone" json:"timezone"`
	FormMode  string    `db:"form_mode" json:"form_mode"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ClientIntakeForm maps to the client_intake_form table: paperwork a client
// fills before enrollment, linked to a counselor when filled through that
// counselor's enrollment link.
type ClientIntakeForm struct {
	ID                  int64      `db:"id" json:"id"`
	CounselorUserID     *uuid.UUID `db:"counselor_user_id" json:"counselor_user_id,omitempty"`
	ClientUserID        *uuid.UUID `db:"client_user_id" json:"client_user_id,omitempty"`
	ClientFirstName     *string    `db:"client_first_name" json:"client_first_name,omitempty"`
	ClientLastName      *string    `db:"client_last_name" json:"client_last_name,omitempty"`
	PresentingProblem   *string    `db:"presenting_problem" json:"presenting_problem,omitempty"`
	ProblemDurationCode *int       `db:"problem_duration_code" json:"problem_duration_code,omitempty"`
	SelfHarmCode        *int       `db:"self_harm_code" json:"self_harm_code,omitempty"`
	HarmingOthers       *int       `db:"harming_others" json:"harming_others,omitempty"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
}
