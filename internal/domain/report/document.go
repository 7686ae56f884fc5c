package report

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Document is the typed report document shared by all four report types.
// Saved metadata is validated against this schema at the merge boundary so
// malformed content fails fast instead of propagating nulls.
type Document struct {
	Meta      Meta     `json:"meta"`
	Client    Party    `json:"client"`
	Practice  Practice `json:"practice"`
	Therapist Party    `json:"therapist"`
	Report    Body     `json:"report"`
	SignOff   *SignOff `json:"sign_off,omitempty"`
}

// Meta identifies the document. ReportID is null on a first-time, unsaved
// draft.
type Meta struct {
	ReportID         *uuid.UUID `json:"report_id"`
	ReportType       string     `json:"report_type"`
	SessionID        int64      `json:"session_id"`
	TherapyRequestID uuid.UUID  `json:"thrpy_req_id"`
	ReportDate       string     `json:"report_date"`
}

// Party is a client or therapist rendered into the document.
type Party struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	FullName  string `json:"full_name"`
	ClamNum   string `json:"clam_num,omitempty"`
	Email     string `json:"email,omitempty"`
	Timezone  string `json:"timezone,omitempty"`
}

type Practice struct {
	Name     string `json:"name"`
	Timezone string `json:"timezone"`
}

// Body holds the report-type-specific content. Attendance counts and scores
// are derived facts; the narrative fields are therapist-authored.
type Body struct {
	Status                 string `json:"status"`
	TreatmentTarget        string `json:"treatment_target,omitempty"`
	TotalSessionsCompleted int    `json:"total_sessions_completed"`
	Attended               int    `json:"attended"`
	Cancelled              int    `json:"cancelled"`

	PresentingProblem string            `json:"presenting_problem,omitempty"`
	ProblemDuration   string            `json:"problem_duration,omitempty"`
	SafetyAssessment  *SafetyAssessment `json:"safety_assessment,omitempty"`

	Assessments []Assessment `json:"assessments"`

	Summary   string `json:"summary,omitempty"`
	LongTerm  string `json:"long_term,omitempty"`
	ShortTerm string `json:"short_term,omitempty"`

	RiskScreening        *RiskFlags      `json:"risk_screening,omitempty"`
	DischargeReasonFlags *DischargeFlags `json:"discharge_reason_flags,omitempty"`
	DischargeSummary     string          `json:"discharge_summary,omitempty"`
}

// Assessment is one row of the report's assessment table. Score is derived;
// TherapistNotes is authored and survives recomputes.
type Assessment struct {
	Tool           string `json:"tool"`
	Score          string `json:"score"`
	TherapistNotes string `json:"therapist_notes,omitempty"`
}

// RiskFlags is authored content; when saved it is taken wholesale.
type RiskFlags struct {
	SuicidalIdeation bool `json:"suicidal_ideation"`
	SelfHarm         bool `json:"self_harm"`
	HarmToOthers     bool `json:"harm_to_others"`
	SubstanceUse     bool `json:"substance_use"`
}

// DischargeFlags is authored content; when saved it is taken wholesale.
type DischargeFlags struct {
	GoalsMet       bool `json:"goals_met"`
	ClientWithdrew bool `json:"client_withdrew"`
	MovedAway      bool `json:"moved_away"`
	ReferredOut    bool `json:"referred_out"`
}

type SignOff struct {
	Method     string `json:"method"`
	ApprovedBy string `json:"approved_by"`
	ApprovedOn string `json:"approved_on"`
}

// SafetyAssessment folds intake-form safety answers into the document.
type SafetyAssessment struct {
	SelfHarm      string `json:"self_harm"`
	HarmingOthers bool   `json:"harming_others"`
}

// ParseSaved decodes stored metadata into the document schema. Any decode
// failure is surfaced as data corruption rather than defaulted over.
func ParseSaved(raw json.RawMessage) (*Document, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty metadata", ErrDataCorruption)
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataCorruption, err)
	}
	return &doc, nil
}
