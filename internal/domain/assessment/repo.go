package assessment

import (
	"context"
)

type Repository interface {
	GetFormByCode(ctx context.Context, code string) (*Form, error)
	GetFormByID(ctx context.Context, id int64) (*Form, error)
	// ListInstances returns form_send rows scoped to the given sessions,
	// including client-scoped rows with a null session_id for those
	// sessions' clients.
	ListInstances(ctx context.Context, sessionIDs []int64) ([]Instance, error)
	// FindFeedback returns feedback rows joined with their per-tool score
	// sub-tables, most recent first.
	FindFeedback(ctx context.Context, filter FeedbackFilter) ([]FeedbackRow, error)
	// ListFormsByServiceCode returns the forms scheduled for a service code.
	ListFormsByServiceCode(ctx context.Context, serviceCode string) ([]Form, error)
	// ListFormsByTreatmentTarget returns the forms scheduled for a
	// treatment target.
	ListFormsByTreatmentTarget(ctx context.Context, target string) ([]Form, error)
	// LatestSmartGoal returns the most recently updated SMART-goal text
	// submitted against any of the given sessions, or nil when none exists.
	LatestSmartGoal(ctx context.Context, sessionIDs []int64) (*string, error)
}
