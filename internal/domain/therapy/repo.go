package therapy

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*TherapyRequest, error)
	// ListSessions returns all sessions of a therapy request ordered by
	// session_id ascending.
	ListSessions(ctx context.Context, therapyRequestID uuid.UUID) ([]SessionRef, error)
	// RequestIDForSession resolves the therapy request a session belongs
	// to. Returns nil when the session does not exist.
	RequestIDForSession(ctx context.Context, sessionID int64) (*uuid.UUID, error)
}
