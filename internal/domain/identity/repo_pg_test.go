package identity

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
)

type fakeRow struct {
	err error
}

func (r fakeRow) Scan(_ ...interface{}) error { return r.err }

func TestScanProfileMissingRowIsNil(t *testing.T) {
	p, err := scanProfile(fakeRow{err: pgx.ErrNoRows})
	if err != nil {
		t.Fatalf("err = %v, want nil for a missing profile", err)
	}
	if p != nil {
		t.Errorf("profile = %+v, want nil", p)
	}
}

func TestScanTenantMissingRowIsNil(t *testing.T) {
	tn, err := scanTenant(fakeRow{err: pgx.ErrNoRows})
	if err != nil {
		t.Fatalf("err = %v, want nil for a missing tenant", err)
	}
	if tn != nil {
		t.Errorf("tenant = %+v, want nil", tn)
	}
}

func TestScanHelpersPropagateOtherErrors(t *testing.T) {
	scanErr := errors.New("scan failed")
	if _, err := scanProfile(fakeRow{err: scanErr}); !errors.Is(err, scanErr) {
		t.Errorf("scanProfile err = %v, want %v", err, scanErr)
	}
	if _, err := scanTenant(fakeRow{err: scanErr}); !errors.Is(err, scanErr) {
		t.Errorf("scanTenant err = %v, want %v", err, scanErr)
	}
}
