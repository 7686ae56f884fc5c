package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/solacehealth/practice/internal/domain/therapy"
)

func newService(f *fixture) (*Service, *mockRenderer, *mockNotifier) {
	renderer := &mockRenderer{}
	notifier := &mockNotifier{}
	svc := NewService(f.store, f.builder, f.repo, f.profiles, renderer, notifier, zerolog.Nop())
	return svc, renderer, notifier
}

func TestSaveCreatesRecordLazily(t *testing.T) {
	f := newFixture(t,
		therapy.SessionRef{SessionID: 1, Status: therapy.SessionShow, IsReport: true, ServiceCode: therapy.ServiceProgress},
	)
	svc, _, _ := newService(f)

	rec, err := svc.Save(context.Background(), TypeProgress, 1,
		json.RawMessage(`{"report":{"summary":"First note","assessments":[]}}`), "acme")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if rec.ReportID == uuid.Nil || rec.SessionID != 1 || rec.ReportType != TypeProgress {
		t.Errorf("record = %+v", rec)
	}
	// The record carries the parties from the therapy request; the report
	// table requires both and the lock notice needs the counselor.
	if rec.ClientID == nil || *rec.ClientID != f.clientID {
		t.Errorf("client_id = %v, want %s", rec.ClientID, f.clientID)
	}
	if rec.CounselorID == nil || *rec.CounselorID != f.counselorID {
		t.Errorf("counselor_id = %v, want %s", rec.CounselorID, f.counselorID)
	}
	if _, ok := f.store.typeData[rec.ReportID]; !ok {
		t.Error("metadata not persisted")
	}

	// Second save reuses the record and merges over the saved content.
	again, err := svc.Save(context.Background(), TypeProgress, 1,
		json.RawMessage(`{"report":{"short_term":"Weekly journaling","assessments":[]}}`), "acme")
	if err != nil {
		t.Fatalf("second Save: %v", err)
	}
	if again.ReportID != rec.ReportID {
		t.Errorf("second save created a new record %s", again.ReportID)
	}
	var doc Document
	if err := json.Unmarshal(f.store.typeData[rec.ReportID], &doc); err != nil {
		t.Fatal(err)
	}
	if doc.Report.Summary != "First note" || doc.Report.ShortTerm != "Weekly journaling" {
		t.Errorf("merged metadata = %+v", doc.Report)
	}
}

func TestLockNotifiesAfterLazySave(t *testing.T) {
	f := newFixture(t,
		therapy.SessionRef{SessionID: 1, Status: therapy.SessionShow, IsReport: true, ServiceCode: therapy.ServiceProgress},
	)
	svc, _, notifier := newService(f)
	email := "dana@acme.example"
	f.profiles.profiles[f.counselorID].Email = &email

	rec, err := svc.Save(context.Background(), TypeProgress, 1,
		json.RawMessage(`{"report":{"summary":"note","assessments":[]}}`), "acme")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := svc.SetLocked(context.Background(), rec.ReportID, true); err != nil {
		t.Fatalf("SetLocked: %v", err)
	}
	if len(notifier.sent) != 1 || notifier.sent[0] != "dana@acme.example:"+TypeProgress {
		t.Errorf("notices = %v", notifier.sent)
	}
}

func TestSaveByID(t *testing.T) {
	f := newFixture(t,
		therapy.SessionRef{SessionID: 1, Status: therapy.SessionShow, IsReport: true, ServiceCode: therapy.ServiceProgress},
	)
	svc, _, _ := newService(f)

	reportID := uuid.MustParse(newUnlockedRecord(f, 1, TypeProgress))
	rec, err := svc.SaveByID(context.Background(), TypeProgress, reportID,
		json.RawMessage(`{"report":{"summary":"By id","assessments":[]}}`), "acme")
	if err != nil {
		t.Fatalf("SaveByID: %v", err)
	}
	if rec.ReportID != reportID {
		t.Errorf("record = %+v", rec)
	}

	// A second patch merges over the first, same as the session-keyed path.
	if _, err := svc.SaveByID(context.Background(), TypeProgress, reportID,
		json.RawMessage(`{"report":{"short_term":"Journaling","assessments":[]}}`), "acme"); err != nil {
		t.Fatalf("second SaveByID: %v", err)
	}
	var doc Document
	if err := json.Unmarshal(f.store.typeData[reportID], &doc); err != nil {
		t.Fatal(err)
	}
	if doc.Report.Summary != "By id" || doc.Report.ShortTerm != "Journaling" {
		t.Errorf("merged metadata = %+v", doc.Report)
	}

	patch := json.RawMessage(`{"report":{"assessments":[]}}`)
	if _, err := svc.SaveByID(context.Background(), TypeDischarge, reportID, patch, "acme"); !errors.Is(err, ErrValidation) {
		t.Errorf("wrong type: err = %v, want ErrValidation", err)
	}
	if _, err := svc.SaveByID(context.Background(), TypeProgress, uuid.New(), patch, "acme"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing: err = %v, want ErrNotFound", err)
	}

	f.store.records[reportID].IsLocked = true
	if _, err := svc.SaveByID(context.Background(), TypeProgress, reportID, patch, "acme"); !errors.Is(err, ErrLocked) {
		t.Errorf("locked: err = %v, want ErrLocked", err)
	}
}

func TestSaveRejectsLockedAndLeavesMetadata(t *testing.T) {
	f := newFixture(t,
		therapy.SessionRef{SessionID: 1, Status: therapy.SessionShow, IsReport: true, ServiceCode: therapy.ServiceProgress},
	)
	svc, _, _ := newService(f)

	reportID := uuid.New()
	frozen := json.RawMessage(`{"report":{"summary":"frozen","assessments":[]}}`)
	f.store.records[reportID] = &Record{ReportID: reportID, SessionID: 1, ReportType: TypeProgress, IsLocked: true}
	f.store.typeData[reportID] = frozen

	_, err := svc.Save(context.Background(), TypeProgress, 1,
		json.RawMessage(`{"report":{"summary":"overwrite attempt","assessments":[]}}`), "acme")
	if !errors.Is(err, ErrLocked) {
		t.Fatalf("err = %v, want ErrLocked", err)
	}
	if !bytes.Equal(f.store.typeData[reportID], frozen) {
		t.Error("stored metadata changed after rejected write")
	}
}

func TestSaveValidation(t *testing.T) {
	f := newFixture(t)
	svc, _, _ := newService(f)

	if _, err := svc.Save(context.Background(), "WEEKLY", 1, json.RawMessage(`{}`), "acme"); !errors.Is(err, ErrValidation) {
		t.Errorf("unknown type: err = %v, want ErrValidation", err)
	}
	if _, err := svc.Save(context.Background(), TypeProgress, 1, json.RawMessage(`{bad json`), "acme"); !errors.Is(err, ErrValidation) {
		t.Errorf("bad body: err = %v, want ErrValidation", err)
	}
	if _, err := svc.Save(context.Background(), TypeProgress, 42, json.RawMessage(`{}`), "acme"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown session: err = %v, want ErrNotFound", err)
	}
}

func TestReplaceTreatmentPlan(t *testing.T) {
	f := newFixture(t)
	svc, _, _ := newService(f)

	planID := uuid.New()
	f.store.records[planID] = &Record{ReportID: planID, SessionID: 1, ReportType: TypeTreatmentPlan}
	progressID := uuid.New()
	f.store.records[progressID] = &Record{ReportID: progressID, SessionID: 2, ReportType: TypeProgress}

	metadata := json.RawMessage(`{"report":{"long_term":"New goal","assessments":[]}}`)
	if err := svc.ReplaceTreatmentPlan(context.Background(), planID, metadata, "acme"); err != nil {
		t.Fatalf("ReplaceTreatmentPlan: %v", err)
	}
	if !bytes.Equal(f.store.typeData[planID], metadata) {
		t.Error("metadata not replaced wholesale")
	}

	if err := svc.ReplaceTreatmentPlan(context.Background(), progressID, metadata, "acme"); !errors.Is(err, ErrValidation) {
		t.Errorf("wrong type: err = %v, want ErrValidation", err)
	}
	if err := svc.ReplaceTreatmentPlan(context.Background(), uuid.New(), metadata, "acme"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing: err = %v, want ErrNotFound", err)
	}

	f.store.records[planID].IsLocked = true
	if err := svc.ReplaceTreatmentPlan(context.Background(), planID, metadata, "acme"); !errors.Is(err, ErrLocked) {
		t.Errorf("locked: err = %v, want ErrLocked", err)
	}
}

func TestSetLockedSnapshotsAndNotifies(t *testing.T) {
	f := newFixture(t,
		therapy.SessionRef{SessionID: 1, Status: therapy.SessionShow},
		therapy.SessionRef{SessionID: 2, Status: therapy.SessionShow, IsReport: true, ServiceCode: therapy.ServiceProgress},
	)
	svc, _, notifier := newService(f)

	reportID := uuid.New()
	f.store.records[reportID] = &Record{
		ReportID: reportID, SessionID: 2, ReportType: TypeProgress,
		CounselorID: &f.counselorID, TenantID: "acme",
	}
	email := "dana@acme.example"
	f.profiles.profiles[f.counselorID].Email = &email

	rec, err := svc.SetLocked(context.Background(), reportID, true)
	if err != nil {
		t.Fatalf("SetLocked: %v", err)
	}
	if !rec.IsLocked {
		t.Error("record not locked")
	}
	// Locking with no saved metadata snapshots the built document first.
	if _, ok := f.store.typeData[reportID]; !ok {
		t.Error("no metadata snapshot taken on lock")
	}
	if len(notifier.sent) != 1 || notifier.sent[0] != "dana@acme.example:"+TypeProgress {
		t.Errorf("notices = %v", notifier.sent)
	}

	// Locking again is a no-op and does not renotify.
	if _, err := svc.SetLocked(context.Background(), reportID, true); err != nil {
		t.Fatal(err)
	}
	if len(notifier.sent) != 1 {
		t.Errorf("idempotent lock resent notices: %v", notifier.sent)
	}

	if _, err := svc.SetLocked(context.Background(), uuid.New(), true); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing: err = %v, want ErrNotFound", err)
	}
}

func TestRenderPDF(t *testing.T) {
	f := newFixture(t,
		therapy.SessionRef{SessionID: 1, Status: therapy.SessionShow, IsReport: true, ServiceCode: therapy.ServiceDischarge},
	)
	svc, renderer, _ := newService(f)

	reportID := uuid.New()
	f.store.records[reportID] = &Record{ReportID: reportID, SessionID: 1, ReportType: TypeDischarge}

	pdf, reportType, err := svc.RenderPDF(context.Background(), reportID)
	if err != nil {
		t.Fatalf("RenderPDF: %v", err)
	}
	if len(pdf) == 0 || reportType != TypeDischarge {
		t.Errorf("pdf=%d bytes type=%s", len(pdf), reportType)
	}
	if renderer.lastType != TypeDischarge || len(renderer.lastDoc) == 0 {
		t.Errorf("renderer saw type=%s doc=%d bytes", renderer.lastType, len(renderer.lastDoc))
	}

	if _, _, err := svc.RenderPDF(context.Background(), uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing report: err = %v, want ErrNotFound", err)
	}

	// Locked report with no saved metadata is a 404-class failure.
	f.store.records[reportID].IsLocked = true
	if _, _, err := svc.RenderPDF(context.Background(), reportID); !errors.Is(err, ErrNotFound) {
		t.Errorf("locked without metadata: err = %v, want ErrNotFound", err)
	}
}
