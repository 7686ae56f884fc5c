package identity

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

// =========== Profile Repository ===========

type profileRepoPG struct{ pool *pgxpool.Pool }

func NewProfileRepoPG(pool *pgxpool.Pool) ProfileRepository {
	return &profileRepoPG{pool: pool}
}

func (r *profileRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const profileCols = `id, user_id, tenant_id, role, first_name, last_name,
	clam_num, email, timezone, created_at, updated_at`

func scanProfile(row pgx.Row) (*Profile, error) {
	var p Profile
	err := row.Scan(&p.ID, &p.UserID, &p.TenantID, &p.Role, &p.FirstName, &p.LastName,
		&p.ClamNum, &p.Email, &p.Timezone, &p.CreatedAt, &p.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *profileRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Profile, error) {
	return scanProfile(r.conn(ctx).QueryRow(ctx, `SELECT `+profileCols+` FROM user_profile WHERE id = $1`, id))
}

func (r *profileRepoPG) GetByUserID(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	return scanProfile(r.conn(ctx).QueryRow(ctx, `SELECT `+profileCols+` FROM user_profile WHERE user_id = $1 ORDER BY created_at DESC LIMIT 1`, userID))
}

// =========== Tenant Repository ===========

type tenantRepoPG struct{ pool *pgxpool.Pool }

func NewTenantRepoPG(pool *pgxpool.Pool) TenantRepository {
	return &tenantRepoPG{pool: pool}
}

func (r *tenantRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

func scanTenant(row pgx.Row) (*Tenant, error) {
	var t Tenant
	err := row.Scan(&t.ID, &t.Name, &t.Timezone, &t.FormMode, &t.CreatedAt, &t.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *tenantRepoPG) GetByID(ctx context.Context, id string) (*Tenant, error) {
	return scanTenant(r.conn(ctx).QueryRow(ctx,
		`SELECT id, name, timezone, form_mode, created_at, updated_at FROM tenant WHERE id = $1`, id))
}

// =========== Intake Form Repository ===========

type intakeFormRepoPG struct{ pool *pgxpool.Pool }

func NewIntakeFormRepoPG(pool *pgxpool.Pool) IntakeFormRepository {
	return &intakeFormRepoPG{pool: pool}
}

func (r *intakeFormRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const intakeFormCols = `id, counselor_user_id, client_user_id, client_first_name,
	client_last_name, presenting_problem, problem_duration_code, self_harm_code,
	harming_others, created_at`

func scanIntakeForm(row pgx.Row) (*ClientIntakeForm, error) {
	var f ClientIntakeForm
	err := row.Scan(&f.ID, &f.CounselorUserID, &f.ClientUserID, &f.ClientFirstName,
		&f.ClientLastName, &f.PresentingProblem, &f.ProblemDurationCode, &f.SelfHarmCode,
		&f.HarmingOthers, &f.CreatedAt)
	return &f, err
}

func (r *intakeFormRepoPG) ListByCounselor(ctx context.Context, counselorUserID uuid.UUID) ([]*ClientIntakeForm, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+intakeFormCols+` FROM client_intake_form WHERE counselor_user_id = $1 ORDER BY created_at DESC`,
		counselorUserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*ClientIntakeForm
	for rows.Next() {
		f, err := scanIntakeForm(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, f)
	}
	return items, rows.Err()
}

func (r *intakeFormRepoPG) MostRecent(ctx context.Context) (*ClientIntakeForm, error) {
	f, err := scanIntakeForm(r.conn(ctx).QueryRow(ctx,
		`SELECT `+intakeFormCols+` FROM client_intake_form ORDER BY created_at DESC LIMIT 1`))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}
