package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

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

type storePG struct{ pool *pgxpool.Pool }

func NewStorePG(pool *pgxpool.Pool) Store {
	return &storePG{pool: pool}
}

func (s *storePG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return s.pool
}

// typeTable maps a report type to its metadata table.
func typeTable(reportType string) (string, error) {
	switch reportType {
	case TypeIntake:
		return "report_intake", nil
	case TypeTreatmentPlan:
		return "report_treatment_plan", nil
	case TypeProgress:
		return "report_progress", nil
	case TypeDischarge:
		return "report_discharge", nil
	}
	return "", fmt.Errorf("%w: unknown report type %q", ErrValidation, reportType)
}

const recordColumns = `report_id, session_id, client_id, counselor_id, tenant_id, report_type, is_locked, created_at, updated_at`

func scanRecord(row pgx.Row) (*Record, error) {
	var rec Record
	err := row.Scan(&rec.ReportID, &rec.SessionID, &rec.ClientID, &rec.CounselorID,
		&rec.TenantID, &rec.ReportType, &rec.IsLocked, &rec.CreatedAt, &rec.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *storePG) GetBySession(ctx context.Context, sessionID int64, reportType string) (*Record, error) {
	return scanRecord(s.conn(ctx).QueryRow(ctx,
		`SELECT `+recordColumns+` FROM report WHERE session_id = $1 AND report_type = $2`,
		sessionID, reportType))
}

func (s *storePG) GetByID(ctx context.Context, reportID uuid.UUID) (*Record, error) {
	return scanRecord(s.conn(ctx).QueryRow(ctx,
		`SELECT `+recordColumns+` FROM report WHERE report_id = $1`, reportID))
}

func (s *storePG) Create(ctx context.Context, rec *Record) error {
	_, err := s.conn(ctx).Exec(ctx, `
		INSERT INTO report (report_id, session_id, client_id, counselor_id, tenant_id, report_type, is_locked)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE)`,
		rec.ReportID, rec.SessionID, rec.ClientID, rec.CounselorID, rec.TenantID, rec.ReportType)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: session %d type %s", ErrConflict, rec.SessionID, rec.ReportType)
	}
	return err
}

func (s *storePG) SetLocked(ctx context.Context, reportID uuid.UUID, locked bool) error {
	tag, err := s.conn(ctx).Exec(ctx,
		`UPDATE report SET is_locked = $2, updated_at = NOW() WHERE report_id = $1`,
		reportID, locked)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: report %s", ErrNotFound, reportID)
	}
	return nil
}

func (s *storePG) List(ctx context.Context, filter ListFilter) ([]Record, int, error) {
	where := " WHERE 1=1"
	args := []interface{}{}
	if filter.ReportType != "" {
		args = append(args, filter.ReportType)
		where += fmt.Sprintf(" AND report_type = $%d", len(args))
	}
	if filter.ClientID != nil {
		args = append(args, *filter.ClientID)
		where += fmt.Sprintf(" AND client_id = $%d", len(args))
	}

	var total int
	if err := s.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM report`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, filter.Limit)
	limitPos := len(args)
	args = append(args, filter.Offset)
	rows, err := s.conn(ctx).Query(ctx,
		`SELECT `+recordColumns+` FROM report`+where+
			fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, limitPos, limitPos+1),
		args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ReportID, &rec.SessionID, &rec.ClientID, &rec.CounselorID,
			&rec.TenantID, &rec.ReportType, &rec.IsLocked, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, rec)
	}
	return out, total, rows.Err()
}

func (s *storePG) GetTypeData(ctx context.Context, reportID uuid.UUID, reportType string) (*TypeData, error) {
	table, err := typeTable(reportType)
	if err != nil {
		return nil, err
	}
	var td TypeData
	td.ReportType = reportType
	err = s.conn(ctx).QueryRow(ctx,
		`SELECT report_id, metadata, tenant_id, created_at, updated_at FROM `+table+` WHERE report_id = $1`,
		reportID).Scan(&td.ReportID, &td.Metadata, &td.TenantID, &td.CreatedAt, &td.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &td, nil
}

func (s *storePG) UpsertTypeData(ctx context.Context, reportID uuid.UUID, reportType string, metadata json.RawMessage, tenantID string) error {
	table, err := typeTable(reportType)
	if err != nil {
		return err
	}
	_, err = s.conn(ctx).Exec(ctx, `
		INSERT INTO `+table+` (report_id, metadata, tenant_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (report_id)
		DO UPDATE SET metadata = EXCLUDED.metadata, updated_at = NOW()`,
		reportID, metadata, tenantID)
	return err
}
