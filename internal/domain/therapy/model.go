package therapy

import (
	"time"

	"github.com/google/uuid"
)

// Therapy request statuses.
const (
	StatusOngoing    = "ONGOING"
	StatusPaused     = "PAUSED"
	StatusDischarged = "DISCHARGED"
)

// Session statuses.
const (
	SessionShow      = "SHOW"
	SessionNoShow    = "NO-SHOW"
	SessionCancelled = "CANCELLED"
	SessionInactive  = "INACTIVE"
)

// Report session service-code families. A session flagged is_report with one
// of these service codes anchors the corresponding clinical report in the
// session timeline.
const (
	ServiceIntake        = "INTAKE"
	ServiceProgress      = "PR"
	ServiceDischarge     = "DR"
	ServiceTreatmentPlan = "TP"
)

// TherapyRequest maps to the therapy_request table.
type TherapyRequest struct {
	ID              uuid.UUID `db:"id" json:"id"`
	ClientID        uuid.UUID `db:"client_id" json:"client_id"`
	CounselorID     uuid.UUID `db:"counselor_id" json:"counselor_id"`
	TenantID        string    `db:"tenant_id" json:"tenant_id"`
	Status          string    `db:"status" json:"status"`
	TreatmentTarget *string   `db:"treatment_target" json:"treatment_target,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// SessionRef maps to the session table. Sessions with IsReport set are
// placeholders anchoring a clinical report; they never count toward
// attendance statistics.
type SessionRef struct {
	SessionID        int64      `db:"session_id" json:"session_id"`
	TherapyRequestID uuid.UUID  `db:"thrpy_req_id" json:"thrpy_req_id"`
	Status           string     `db:"status" json:"status"`
	IsReport         bool       `db:"is_report" json:"is_report"`
	SessionNumber    int        `db:"session_number" json:"session_number"`
	ServiceCode      string     `db:"service_code" json:"service_code"`
	IntakeDate       *time.Time `db:"intake_date" json:"intake_date,omitempty"`
}

// SessionStats are attendance statistics over a session window. Report
// markers and INACTIVE sessions are excluded from every count.
type SessionStats struct {
	Total     int `json:"total"`
	Attended  int `json:"attended"`
	Cancelled int `json:"cancelled"`
}

// SessionHistory is the resolved view of a therapy request's timeline for one
// report type.
type SessionHistory struct {
	Request       *TherapyRequest `json:"request"`
	Sessions      []SessionRef    `json:"sessions"`
	ReportSession *SessionRef     `json:"report_session"`
	Stats         SessionStats    `json:"stats"`
}
