package therapy

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/solacehealth/practice/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*TherapyRequest, error) {
	var t TherapyRequest
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, client_id, counselor_id, tenant_id, status, treatment_target, created_at, updated_at
		FROM therapy_request WHERE id = $1`, id).
		Scan(&t.ID, &t.ClientID, &t.CounselorID, &t.TenantID, &t.Status, &t.TreatmentTarget, &t.CreatedAt, &t.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *repoPG) RequestIDForSession(ctx context.Context, sessionID int64) (*uuid.UUID, error) {
	var id uuid.UUID
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT thrpy_req_id FROM session WHERE session_id = $1`, sessionID).Scan(&id)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func (r *repoPG) ListSessions(ctx context.Context, therapyRequestID uuid.UUID) ([]SessionRef, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT session_id, thrpy_req_id, status, is_report, session_number, service_code, intake_date
		FROM session WHERE thrpy_req_id = $1 ORDER BY session_id ASC`, therapyRequestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []SessionRef
	for rows.Next() {
		var s SessionRef
		var isReport int16
		if err := rows.Scan(&s.SessionID, &s.TherapyRequestID, &s.Status, &isReport,
			&s.SessionNumber, &s.ServiceCode, &s.IntakeDate); err != nil {
			return nil, err
		}
		s.IsReport = isReport == 1
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}
