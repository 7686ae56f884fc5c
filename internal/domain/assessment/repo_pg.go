package assessment

import (
	"context"
	"fmt"
	"strings"

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

func (r *repoPG) GetFormByCode(ctx context.Context, code string) (*Form, error) {
	var f Form
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT form_id, form_cde, form_name FROM form WHERE form_cde = $1`, code).
		Scan(&f.FormID, &f.FormCode, &f.FormName)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *repoPG) GetFormByID(ctx context.Context, id int64) (*Form, error) {
	var f Form
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT form_id, form_cde, form_name FROM form WHERE form_id = $1`, id).
		Scan(&f.FormID, &f.FormCode, &f.FormName)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *repoPG) ListInstances(ctx context.Context, sessionIDs []int64) ([]Instance, error) {
	if len(sessionIDs) == 0 {
		return nil, nil
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT fs.id, fs.form_id, f.form_cde, f.form_name, fs.session_id, fs.client_id, fs.is_sent, fs.created_at
		FROM form_send fs
		JOIN form f ON f.form_id = fs.form_id
		WHERE fs.session_id = ANY($1)
		   OR (fs.session_id IS NULL AND fs.client_id IN (
		        SELECT tr.client_id FROM session s
		        JOIN therapy_request tr ON tr.id = s.thrpy_req_id
		        WHERE s.session_id = ANY($1)))
		ORDER BY fs.created_at DESC`, sessionIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Instance
	for rows.Next() {
		var in Instance
		var isSent int16
		if err := rows.Scan(&in.ID, &in.FormID, &in.FormCode, &in.FormName,
			&in.SessionID, &in.ClientID, &isSent, &in.CreatedAt); err != nil {
			return nil, err
		}
		in.IsSent = isSent == 1
		out = append(out, in)
	}
	return out, rows.Err()
}

func (r *repoPG) FindFeedback(ctx context.Context, filter FeedbackFilter) ([]FeedbackRow, error) {
	var (
		where []string
		args  []interface{}
	)
	if len(filter.SessionIDs) > 0 {
		args = append(args, filter.SessionIDs)
		where = append(where, fmt.Sprintf("fb.session_id = ANY($%d)", len(args)))
	}
	if filter.ClientID != nil {
		args = append(args, *filter.ClientID)
		where = append(where, fmt.Sprintf("fb.client_id = $%d", len(args)))
	}
	if filter.FormID != nil {
		args = append(args, *filter.FormID)
		where = append(where, fmt.Sprintf("fb.form_id = $%d", len(args)))
	}
	if len(where) == 0 {
		return nil, fmt.Errorf("feedback filter is empty")
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT fb.feedback_id, fb.form_id, f.form_cde, f.form_name, fb.session_id, fb.client_id, fb.created_at,
		       p.total_score, g.total_score, pc.total_score, w.overall_score, ga.total_score
		FROM feedback fb
		JOIN form f ON f.form_id = fb.form_id
		LEFT JOIN feedback_phq9 p ON p.feedback_id = fb.feedback_id
		LEFT JOIN feedback_gad7 g ON g.feedback_id = fb.feedback_id
		LEFT JOIN feedback_pcl5 pc ON pc.feedback_id = fb.feedback_id
		LEFT JOIN feedback_whodas w ON w.feedback_id = fb.feedback_id
		LEFT JOIN feedback_gas ga ON ga.feedback_id = fb.feedback_id
		WHERE `+strings.Join(where, " AND ")+`
		ORDER BY fb.created_at DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []FeedbackRow
	for rows.Next() {
		var fb FeedbackRow
		if err := rows.Scan(&fb.FeedbackID, &fb.FormID, &fb.FormCode, &fb.FormName,
			&fb.SessionID, &fb.ClientID, &fb.CreatedAt,
			&fb.PHQ9Score, &fb.GAD7Score, &fb.PCL5Score, &fb.WHODASOverall, &fb.GASTotal); err != nil {
			return nil, err
		}
		out = append(out, fb)
	}
	return out, rows.Err()
}

func (r *repoPG) ListFormsByServiceCode(ctx context.Context, serviceCode string) ([]Form, error) {
	return r.listForms(ctx, `
		SELECT f.form_id, f.form_cde, f.form_name
		FROM form_service fs
		JOIN form f ON f.form_id = fs.form_id
		WHERE fs.service_code = $1
		ORDER BY f.form_id`, serviceCode)
}

func (r *repoPG) ListFormsByTreatmentTarget(ctx context.Context, target string) ([]Form, error) {
	return r.listForms(ctx, `
		SELECT f.form_id, f.form_cde, f.form_name
		FROM form_treatment_target ft
		JOIN form f ON f.form_id = ft.form_id
		WHERE LOWER(ft.treatment_target) = LOWER($1)
		ORDER BY f.form_id`, target)
}

func (r *repoPG) listForms(ctx context.Context, sql string, arg interface{}) ([]Form, error) {
	rows, err := r.conn(ctx).Query(ctx, sql, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Form
	for rows.Next() {
		var f Form
		if err := rows.Scan(&f.FormID, &f.FormCode, &f.FormName); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *repoPG) LatestSmartGoal(ctx context.Context, sessionIDs []int64) (*string, error) {
	if len(sessionIDs) == 0 {
		return nil, nil
	}
	var text string
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT sg.goal_text
		FROM feedback_smart_goal sg
		JOIN feedback fb ON fb.feedback_id = sg.feedback_id
		JOIN form f ON f.form_id = fb.form_id
		WHERE fb.session_id = ANY($1) AND f.form_cde = $2
		ORDER BY sg.updated_at DESC
		LIMIT 1`, sessionIDs, FormCodeSmartGoal).Scan(&text)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &text, nil
}
