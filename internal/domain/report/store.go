package report

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
)

// Store persists report records and their per-type metadata snapshots.
type Store interface {
	// GetBySession resolves the current record for a (session, report type)
	// pair. Returns nil when none exists.
	GetBySession(ctx context.Context, sessionID int64, reportType string) (*Record, error)
	GetByID(ctx context.Context, reportID uuid.UUID) (*Record, error)
	// Create inserts a new record. Fails with ErrConflict when one already
	// exists for the (session, report type) pair.
	Create(ctx context.Context, rec *Record) error
	SetLocked(ctx context.Context, reportID uuid.UUID, locked bool) error
	List(ctx context.Context, filter ListFilter) ([]Record, int, error)

	// GetTypeData returns the saved metadata row, or nil when none exists.
	GetTypeData(ctx context.Context, reportID uuid.UUID, reportType string) (*TypeData, error)
	// UpsertTypeData inserts or wholesale-replaces the metadata column. The
	// caller must have merged first; there are no partial-update semantics.
	UpsertTypeData(ctx context.Context, reportID uuid.UUID, reportType string, metadata json.RawMessage, tenantID string) error
}
