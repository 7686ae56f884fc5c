package report

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Report types. Each has a dedicated metadata table.
const (
	TypeIntake        = "INTAKE"
	TypeTreatmentPlan = "TREATMENT_PLAN"
	TypeProgress      = "PROGRESS"
	TypeDischarge     = "DISCHARGE"
)

// ValidType reports whether t names a known report type.
func ValidType(t string) bool {
	switch t {
	case TypeIntake, TypeTreatmentPlan, TypeProgress, TypeDischarge:
		return true
	}
	return false
}

// Record maps to the report table. At most one current record exists per
// (session_id, report_type) pair; callers resolve by that compound key.
type Record struct {
	ReportID    uuid.UUID  `db:"report_id" json:"report_id"`
	SessionID   int64      `db:"session_id" json:"session_id"`
	ClientID    *uuid.UUID `db:"client_id" json:"client_id,omitempty"`
	CounselorID *uuid.UUID `db:"counselor_id" json:"counselor_id,omitempty"`
	TenantID    string     `db:"tenant_id" json:"tenant_id"`
	ReportType  string     `db:"report_type" json:"report_type"`
	IsLocked    bool       `db:"is_locked" json:"is_locked"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// TypeData is one row of a per-type metadata table. The metadata column is
// the single source of truth for saved report content; once the parent
// record is locked it is returned verbatim.
type TypeData struct {
	ReportID   uuid.UUID       `db:"report_id" json:"report_id"`
	ReportType string          `db:"report_type" json:"report_type"`
	Metadata   json.RawMessage `db:"metadata" json:"metadata"`
	TenantID   string          `db:"tenant_id" json:"tenant_id"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time       `db:"updated_at" json:"updated_at"`
}

// ListFilter narrows a report listing.
type ListFilter struct {
	ReportType string
	ClientID   *uuid.UUID
	Limit      int
	Offset     int
}
