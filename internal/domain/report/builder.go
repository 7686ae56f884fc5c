package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/solacehealth/practice/internal/domain/assessment"
	"github.com/solacehealth/practice/internal/domain/identity"
	"github.com/solacehealth/practice/internal/domain/therapy"
)

// SessionResolver is the slice of the therapy domain the builder consumes.
type SessionResolver interface {
	ResolveSessionHistory(ctx context.Context, therapyRequestID uuid.UUID, family string, asOfSessionID *int64) (*therapy.SessionHistory, error)
}

// Assessments is the slice of the assessment domain the builder consumes.
type Assessments interface {
	Recent(ctx context.Context, sessionIDs []int64) []assessment.Summary
	LatestSmartGoal(ctx context.Context, sessionIDs []int64) *string
}

// Profiles is the slice of the identity domain the builder consumes.
type Profiles interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*identity.Profile, error)
	GetTenant(ctx context.Context, id string) (*identity.Tenant, error)
	ResolveIntakeForm(ctx context.Context, counselorUserID, clientUserID uuid.UUID, clientFirstName, clientLastName string) (*identity.ClientIntakeForm, error)
}

// Builder assembles report documents. A locked report short-circuits to its
// frozen metadata; an unlocked one is recomputed from session history,
// assessments and profiles, then merged with any saved therapist edits.
type Builder struct {
	store       Store
	sessions    SessionResolver
	assessments Assessments
	profiles    Profiles
	log         zerolog.Logger
	now         func() time.Time
}

func NewBuilder(store Store, sessions SessionResolver, assessments Assessments, profiles Profiles, log zerolog.Logger) *Builder {
	return &Builder{
		store:       store,
		sessions:    sessions,
		assessments: assessments,
		profiles:    profiles,
		log:         log,
		now:         time.Now,
	}
}

// familyOf maps a report type to the service-code family of its report
// session.
func familyOf(reportType string) string {
	switch reportType {
	case TypeIntake:
		return therapy.ServiceIntake
	case TypeProgress:
		return therapy.ServiceProgress
	case TypeDischarge:
		return therapy.ServiceDischarge
	case TypeTreatmentPlan:
		return therapy.ServiceTreatmentPlan
	}
	return ""
}

// Build produces the report document for a therapy request as raw JSON.
// When asOfSessionID is nil, statistics are computed as of the report
// session itself. Locked reports return their frozen metadata verbatim.
func (b *Builder) Build(ctx context.Context, therapyRequestID uuid.UUID, reportType string, asOfSessionID *int64) (json.RawMessage, error) {
	if !ValidType(reportType) {
		return nil, fmt.Errorf("%w: unknown report type %q", ErrValidation, reportType)
	}

	hist, err := b.sessions.ResolveSessionHistory(ctx, therapyRequestID, familyOf(reportType), asOfSessionID)
	if err != nil {
		switch {
		case errors.Is(err, therapy.ErrRequestNotFound):
			return nil, fmt.Errorf("%w: therapy request %s", ErrNotFound, therapyRequestID)
		case errors.Is(err, therapy.ErrReportSessionNotFound):
			return nil, fmt.Errorf("%w: %s report session on therapy request %s", ErrNotFound, reportType, therapyRequestID)
		}
		return nil, err
	}
	if asOfSessionID == nil {
		asOf := hist.ReportSession.SessionID
		hist.Stats = therapy.ComputeStats(hist.Sessions, &asOf)
	}

	rec, err := b.store.GetBySession(ctx, hist.ReportSession.SessionID, reportType)
	if err != nil {
		return nil, err
	}
	if rec != nil && rec.IsLocked {
		return b.frozen(ctx, rec)
	}

	base, err := b.baseDocument(ctx, hist, reportType)
	if err != nil {
		return nil, err
	}

	var saved *Document
	if rec != nil {
		base.Meta.ReportID = &rec.ReportID
		td, err := b.store.GetTypeData(ctx, rec.ReportID, reportType)
		if err != nil {
			return nil, err
		}
		if td != nil {
			if saved, err = ParseSaved(td.Metadata); err != nil {
				return nil, err
			}
		}
	}

	return json.Marshal(Merge(base, saved))
}

// frozen returns a locked report's stored metadata unchanged. The resolver,
// aggregator and merge engine are never consulted, so the content cannot
// drift even when the underlying session or feedback data changes.
func (b *Builder) frozen(ctx context.Context, rec *Record) (json.RawMessage, error) {
	td, err := b.store.GetTypeData(ctx, rec.ReportID, rec.ReportType)
	if err != nil {
		return nil, err
	}
	if td == nil {
		return nil, fmt.Errorf("%w: locked report %s has no saved metadata", ErrDataCorruption, rec.ReportID)
	}
	if _, err := ParseSaved(td.Metadata); err != nil {
		return nil, err
	}
	return td.Metadata, nil
}

func (b *Builder) baseDocument(ctx context.Context, hist *therapy.SessionHistory, reportType string) (*Document, error) {
	activeIDs := activeSessionIDs(hist.Sessions)

	var (
		client, counselor *identity.Profile
		tenant            *identity.Tenant
		summaries         []assessment.Summary
		smartGoal         *string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if client, err = b.profiles.GetProfile(gctx, hist.Request.ClientID); err != nil {
			return err
		}
		if client == nil {
			return fmt.Errorf("%w: client profile %s", ErrNotFound, hist.Request.ClientID)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if counselor, err = b.profiles.GetProfile(gctx, hist.Request.CounselorID); err != nil {
			return err
		}
		if counselor == nil {
			return fmt.Errorf("%w: counselor profile %s", ErrNotFound, hist.Request.CounselorID)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		tenant, err = b.profiles.GetTenant(gctx, hist.Request.TenantID)
		return err
	})
	g.Go(func() error {
		summaries = b.assessments.Recent(gctx, activeIDs)
		return nil
	})
	if reportType == TypeTreatmentPlan {
		g.Go(func() error {
			smartGoal = b.assessments.LatestSmartGoal(gctx, activeIDs)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	doc := &Document{
		Meta: Meta{
			ReportType:       reportType,
			SessionID:        hist.ReportSession.SessionID,
			TherapyRequestID: hist.Request.ID,
			ReportDate:       b.reportDate(hist),
		},
		Client:    party(client),
		Therapist: party(counselor),
		Report: Body{
			Status:                 hist.Request.Status,
			TotalSessionsCompleted: hist.Stats.Attended,
			Attended:               hist.Stats.Attended,
			Cancelled:              hist.Stats.Cancelled,
			Assessments:            toAssessments(summaries),
		},
	}
	if hist.Request.TreatmentTarget != nil {
		doc.Report.TreatmentTarget = *hist.Request.TreatmentTarget
	}
	if tenant != nil {
		doc.Practice = Practice{Name: tenant.Name, Timezone: tenant.Timezone}
	}

	switch reportType {
	case TypeIntake:
		form, err := b.profiles.ResolveIntakeForm(ctx, counselor.UserID, client.UserID, client.FirstName, client.LastName)
		if err != nil {
			b.log.Warn().Err(err).Stringer("thrpy_req_id", hist.Request.ID).
				Msg("intake form lookup failed, report renders without it")
		} else {
			foldIntakeForm(doc, form)
		}
	case TypeTreatmentPlan:
		if smartGoal != nil {
			doc.Report.LongTerm = *smartGoal
		}
	case TypeDischarge:
		doc.Report.DischargeReasonFlags = &DischargeFlags{}
	}
	return doc, nil
}

func (b *Builder) reportDate(hist *therapy.SessionHistory) string {
	if hist.ReportSession.IntakeDate != nil {
		return hist.ReportSession.IntakeDate.Format("2006-01-02")
	}
	return b.now().UTC().Format("2006-01-02")
}

func activeSessionIDs(sessions []therapy.SessionRef) []int64 {
	ids := make([]int64, 0, len(sessions))
	for _, s := range sessions {
		if s.IsReport || s.Status == therapy.SessionInactive {
			continue
		}
		ids = append(ids, s.SessionID)
	}
	return ids
}

func party(p *identity.Profile) Party {
	out := Party{
		FirstName: p.FirstName,
		LastName:  p.LastName,
		FullName:  p.FullName(),
	}
	if p.ClamNum != nil {
		out.ClamNum = *p.ClamNum
	}
	if p.Email != nil {
		out.Email = *p.Email
	}
	if p.Timezone != nil {
		out.Timezone = *p.Timezone
	}
	return out
}

func toAssessments(summaries []assessment.Summary) []Assessment {
	out := make([]Assessment, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, Assessment{Tool: s.Tool, Score: s.Score})
	}
	return out
}
