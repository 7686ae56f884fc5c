package report

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/solacehealth/practice/internal/domain/therapy"
)

// Renderer turns a report document into PDF bytes.
type Renderer interface {
	Render(reportType string, document json.RawMessage) ([]byte, error)
}

// Notifier delivers report lifecycle notices.
type Notifier interface {
	ReportReady(ctx context.Context, email, reportType string, reportID uuid.UUID) error
}

// RequestSource is the slice of the therapy repository the service needs to
// lazily create report records.
type RequestSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (*therapy.TherapyRequest, error)
	RequestIDForSession(ctx context.Context, sessionID int64) (*uuid.UUID, error)
}

// Service owns the write path for report metadata and the read paths that
// are not plain document builds: listing, locking and PDF rendering.
type Service struct {
	store    Store
	builder  *Builder
	requests RequestSource
	profiles Profiles
	renderer Renderer
	notifier Notifier
	log      zerolog.Logger
}

func NewService(store Store, builder *Builder, requests RequestSource, profiles Profiles, renderer Renderer, notifier Notifier, log zerolog.Logger) *Service {
	return &Service{
		store:    store,
		builder:  builder,
		requests: requests,
		profiles: profiles,
		renderer: renderer,
		notifier: notifier,
		log:      log,
	}
}

// Get builds the report document for a therapy request.
func (s *Service) Get(ctx context.Context, therapyRequestID uuid.UUID, reportType string, asOfSessionID *int64) (json.RawMessage, error) {
	return s.builder.Build(ctx, therapyRequestID, reportType, asOfSessionID)
}

// Save upserts authored report metadata for a session. The report record is
// created lazily on first save; writes to a locked report are rejected and
// leave the stored metadata untouched.
func (s *Service) Save(ctx context.Context, reportType string, sessionID int64, patch json.RawMessage, tenantID string) (*Record, error) {
	if !ValidType(reportType) {
		return nil, fmt.Errorf("%w: unknown report type %q", ErrValidation, reportType)
	}
	var patchDoc Document
	if err := json.Unmarshal(patch, &patchDoc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	rec, err := s.store.GetBySession(ctx, sessionID, reportType)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		if rec, err = s.createRecord(ctx, reportType, sessionID, tenantID); err != nil {
			return nil, err
		}
	}
	return s.applyPatch(ctx, rec, patch, &patchDoc, tenantID)
}

// SaveByID upserts authored metadata against an existing report record,
// for callers that hold the report id rather than the session.
func (s *Service) SaveByID(ctx context.Context, reportType string, reportID uuid.UUID, patch json.RawMessage, tenantID string) (*Record, error) {
	if !ValidType(reportType) {
		return nil, fmt.Errorf("%w: unknown report type %q", ErrValidation, reportType)
	}
	var patchDoc Document
	if err := json.Unmarshal(patch, &patchDoc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	rec, err := s.store.GetByID(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: report %s", ErrNotFound, reportID)
	}
	if rec.ReportType != reportType {
		return nil, fmt.Errorf("%w: report %s is %s, not %s", ErrValidation, reportID, rec.ReportType, reportType)
	}
	return s.applyPatch(ctx, rec, patch, &patchDoc, tenantID)
}

// applyPatch merges the patch over any previously saved metadata and
// persists the result. Locked records reject the write.
func (s *Service) applyPatch(ctx context.Context, rec *Record, patch json.RawMessage, patchDoc *Document, tenantID string) (*Record, error) {
	if rec.IsLocked {
		return nil, fmt.Errorf("%w: report %s", ErrLocked, rec.ReportID)
	}

	metadata := patch
	existing, err := s.store.GetTypeData(ctx, rec.ReportID, rec.ReportType)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		existingDoc, err := ParseSaved(existing.Metadata)
		if err != nil {
			return nil, err
		}
		if metadata, err = json.Marshal(Merge(existingDoc, patchDoc)); err != nil {
			return nil, err
		}
	}
	if err := s.store.UpsertTypeData(ctx, rec.ReportID, rec.ReportType, metadata, tenantID); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Service) createRecord(ctx context.Context, reportType string, sessionID int64, tenantID string) (*Record, error) {
	reqID, err := s.requests.RequestIDForSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if reqID == nil {
		return nil, fmt.Errorf("%w: session %d", ErrNotFound, sessionID)
	}
	req, err := s.requests.GetByID(ctx, *reqID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, fmt.Errorf("%w: therapy request %s", ErrNotFound, *reqID)
	}
	clientID, counselorID := req.ClientID, req.CounselorID
	rec := &Record{
		ReportID:    uuid.New(),
		SessionID:   sessionID,
		ClientID:    &clientID,
		CounselorID: &counselorID,
		TenantID:    tenantID,
		ReportType:  reportType,
	}
	if err := s.store.Create(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// ReplaceTreatmentPlan wholesale-replaces a treatment plan's metadata by
// report id.
func (s *Service) ReplaceTreatmentPlan(ctx context.Context, reportID uuid.UUID, metadata json.RawMessage, tenantID string) error {
	if !json.Valid(metadata) {
		return fmt.Errorf("%w: metadata is not valid JSON", ErrValidation)
	}
	rec, err := s.store.GetByID(ctx, reportID)
	if err != nil {
		return err
	}
	if rec == nil {
		return fmt.Errorf("%w: report %s", ErrNotFound, reportID)
	}
	if rec.ReportType != TypeTreatmentPlan {
		return fmt.Errorf("%w: report %s is %s, not %s", ErrValidation, reportID, rec.ReportType, TypeTreatmentPlan)
	}
	if rec.IsLocked {
		return fmt.Errorf("%w: report %s", ErrLocked, reportID)
	}
	return s.store.UpsertTypeData(ctx, reportID, TypeTreatmentPlan, metadata, tenantID)
}

// SetLocked freezes or unfreezes a report. Locking first snapshots the
// current built document when nothing was ever saved, so a locked report
// always has metadata to return verbatim.
func (s *Service) SetLocked(ctx context.Context, reportID uuid.UUID, locked bool) (*Record, error) {
	rec, err := s.store.GetByID(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: report %s", ErrNotFound, reportID)
	}
	if rec.IsLocked == locked {
		return rec, nil
	}

	if locked {
		td, err := s.store.GetTypeData(ctx, reportID, rec.ReportType)
		if err != nil {
			return nil, err
		}
		if td == nil {
			doc, err := s.buildForRecord(ctx, rec)
			if err != nil {
				return nil, err
			}
			if err := s.store.UpsertTypeData(ctx, reportID, rec.ReportType, doc, rec.TenantID); err != nil {
				return nil, err
			}
		}
	}

	if err := s.store.SetLocked(ctx, reportID, locked); err != nil {
		return nil, err
	}
	rec.IsLocked = locked
	if locked {
		s.notifyReady(ctx, rec)
	}
	return rec, nil
}

func (s *Service) notifyReady(ctx context.Context, rec *Record) {
	if s.notifier == nil || rec.CounselorID == nil {
		return
	}
	profile, err := s.profiles.GetProfile(ctx, *rec.CounselorID)
	if err != nil || profile == nil || profile.Email == nil {
		return
	}
	if err := s.notifier.ReportReady(ctx, *profile.Email, rec.ReportType, rec.ReportID); err != nil {
		s.log.Warn().Err(err).Stringer("report_id", rec.ReportID).Msg("report-ready notice failed")
	}
}

// RenderPDF builds or loads the report document and renders it to PDF
// bytes.
func (s *Service) RenderPDF(ctx context.Context, reportID uuid.UUID) ([]byte, string, error) {
	rec, err := s.store.GetByID(ctx, reportID)
	if err != nil {
		return nil, "", err
	}
	if rec == nil {
		return nil, "", fmt.Errorf("%w: report %s", ErrNotFound, reportID)
	}

	var doc json.RawMessage
	if rec.IsLocked {
		td, err := s.store.GetTypeData(ctx, reportID, rec.ReportType)
		if err != nil {
			return nil, "", err
		}
		if td == nil {
			return nil, "", fmt.Errorf("%w: report %s has no saved metadata", ErrNotFound, reportID)
		}
		doc = td.Metadata
	} else {
		if doc, err = s.buildForRecord(ctx, rec); err != nil {
			return nil, "", err
		}
	}

	bytes, err := s.renderer.Render(rec.ReportType, doc)
	if err != nil {
		return nil, "", err
	}
	return bytes, rec.ReportType, nil
}

func (s *Service) buildForRecord(ctx context.Context, rec *Record) (json.RawMessage, error) {
	reqID, err := s.requests.RequestIDForSession(ctx, rec.SessionID)
	if err != nil {
		return nil, err
	}
	if reqID == nil {
		return nil, fmt.Errorf("%w: session %d", ErrNotFound, rec.SessionID)
	}
	return s.builder.Build(ctx, *reqID, rec.ReportType, &rec.SessionID)
}

// List pages through report records.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Record, int, error) {
	return s.store.List(ctx, filter)
}
