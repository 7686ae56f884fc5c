package assessment

import (
	"time"

	"github.com/google/uuid"
)

// Completion policies for deciding whether a form counts as done.
type Policy string

const (
	// PolicyAny marks a form done when at least one of its instances has a
	// matching feedback row. Used for the general "has this form ever been
	// filled" listing view.
	PolicyAny Policy = "ANY"
	// PolicyAll marks a form done only when every instance of it has a
	// matching feedback row. Used where a definitive completion signal is
	// needed.
	PolicyAll Policy = "ALL"
)

// Well-known form codes.
const (
	FormCodeSessionSummary = "SESSION-SUMMARY"
	FormCodeSmartGoal      = "SMART-GOAL"
)

// ScoreNA is returned when a feedback row carries no scorable result.
const ScoreNA = "N/A"

// RecentLimit caps the number of feedback rows shown in "recent
// assessments" views.
const RecentLimit = 5

// Form is a catalog entry from the form table.
type Form struct {
	FormID   int64  `db:"form_id" json:"form_id"`
	FormCode string `db:"form_cde" json:"form_cde"`
	FormName string `db:"form_name" json:"form_name"`
}

// Instance is one scheduled/sent form occurrence (a form_send row). It is
// scoped to a session, or to a client when SessionID is null.
type Instance struct {
	ID        int64      `db:"id" json:"id"`
	FormID    int64      `db:"form_id" json:"form_id"`
	FormCode  string     `db:"form_cde" json:"form_cde"`
	FormName  string     `db:"form_name" json:"form_name"`
	SessionID *int64     `db:"session_id" json:"session_id,omitempty"`
	ClientID  *uuid.UUID `db:"client_id" json:"client_id,omitempty"`
	IsSent    bool       `db:"is_sent" json:"is_sent"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

// FeedbackRow is a submitted assessment joined with its per-tool score
// sub-tables. At most one of the score columns is populated per row.
type FeedbackRow struct {
	FeedbackID int64      `db:"feedback_id" json:"feedback_id"`
	FormID     int64      `db:"form_id" json:"form_id"`
	FormCode   string     `db:"form_cde" json:"form_cde"`
	FormName   string     `db:"form_name" json:"form_name"`
	SessionID  *int64     `db:"session_id" json:"session_id,omitempty"`
	ClientID   *uuid.UUID `db:"client_id" json:"client_id,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`

	PHQ9Score     *int     `db:"phq9_score" json:"phq9_score,omitempty"`
	GAD7Score     *int     `db:"gad7_score" json:"gad7_score,omitempty"`
	PCL5Score     *int     `db:"pcl5_score" json:"pcl5_score,omitempty"`
	WHODASOverall *float64 `db:"whodas_overall" json:"whodas_overall,omitempty"`
	GASTotal      *float64 `db:"gas_total" json:"gas_total,omitempty"`
}

// Summary is the aggregated view of one form across a session window.
type Summary struct {
	Tool         string   `json:"tool"`
	Score        string   `json:"score"`
	Done         bool     `json:"done"`
	DoneNames    []string `json:"doneNames"`
	NotDoneNames []string `json:"notDoneNames"`
}

// FeedbackFilter narrows a feedback lookup. Zero-value fields are ignored.
type FeedbackFilter struct {
	SessionIDs []int64
	ClientID   *uuid.UUID
	FormID     *int64
}
