package services

import (
	"bytes"
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/treatmentplan-backend/internal/data/repos"
	"github.com/yungbote/treatmentplan-backend/internal/domain/plan"
	"github.com/yungbote/treatmentplan-backend/internal/media"
	"github.com/yungbote/treatmentplan-backend/internal/observability"
	"github.com/yungbote/treatmentplan-backend/internal/platform/apierr"
	"github.com/yungbote/treatmentplan-backend/internal/platform/dbctx"
	"github.com/yungbote/treatmentplan-backend/internal/platform/errreport"
	"github.com/yungbote/treatmentplan-backend/internal/platform/gcp"
	"github.com/yungbote/treatmentplan-backend/internal/platform/logger"
	"github.com/yungbote/treatmentplan-backend/internal/session"
	"github.com/yungbote/treatmentplan-backend/internal/webhook"
)

const defaultUploadConcurrency = 4

// ISO-8601 in UTC with milliseconds, as stored in the object metadata.
const uploadDateLayout = "2006-01-02T15:04:05.000Z07:00"

type SubmissionConfig struct {
	Links              plan.Links
	ScreenshotMaxChars int
	UploadConcurrency  int
}

// Submission is everything one submit attempt needs, detached from the draft
// so the pipeline never touches live session state.
type Submission struct {
	Record      plan.Record
	Attachments []media.Item
	Screenshot  string
}

// SubmissionFromDraft snapshots a draft. The caller holds the draft lock.
func SubmissionFromDraft(d *session.Draft) Submission {
	return Submission{
		Record:      d.RecordWithMedia(),
		Attachments: d.Attachments.List(),
		Screenshot:  d.Screenshot.Data(),
	}
}

type SubmissionResult struct {
	DocumentID  string       `json:"documentId,omitempty"`
	RedirectURL string       `json:"redirect,omitempty"`
	ViewerURL   string       `json:"viewerUrl,omitempty"`
	Record      *plan.Record `json:"record,omitempty"`
	Notices     []Notice     `json:"notices"`
}

type SubmissionService interface {
	// Submit runs aggregate → upload → screenshot ceiling → persist → webhook.
	// On a persistence failure both the result (with its notices) and an
	// *apierr.Error are returned.
	Submit(ctx context.Context, sub Submission) (*SubmissionResult, error)
}

type submissionService struct {
	log      *logger.Logger
	bucket   gcp.BucketService
	plans    repos.TreatmentPlanRepo
	notifier *webhook.Notifier
	reporter *errreport.Reporter
	cfg      SubmissionConfig
	now      func() time.Time
}

func NewSubmissionService(
	baseLog *logger.Logger,
	bucket gcp.BucketService,
	plans repos.TreatmentPlanRepo,
	notifier *webhook.Notifier,
	reporter *errreport.Reporter,
	cfg SubmissionConfig,
) SubmissionService {
	if cfg.Links == (plan.Links{}) {
		cfg.Links = plan.DefaultLinks()
	}
	if cfg.ScreenshotMaxChars <= 0 {
		cfg.ScreenshotMaxChars = media.MaxScreenshotChars
	}
	if cfg.UploadConcurrency <= 0 {
		cfg.UploadConcurrency = defaultUploadConcurrency
	}
	return &submissionService{
		log:      baseLog.With("service", "SubmissionService"),
		bucket:   bucket,
		plans:    plans,
		notifier: notifier,
		reporter: reporter,
		cfg:      cfg,
		now:      time.Now,
	}
}

func (s *submissionService) Submit(ctx context.Context, sub Submission) (*SubmissionResult, error) {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, "submission.submit")
	defer span.End()

	rec := sub.Record
	res := &SubmissionResult{Notices: []Notice{}}

	uploaded, failed := s.uploadAttachments(ctx, rec.IDPatient, sub.Attachments)
	rec.UploadedFiles = uploaded
	if failed > 0 {
		res.Notices = append(res.Notices, notice(NoticeError, MsgUploadFailed))
	}

	shot, ok := media.FitScreenshot(sub.Screenshot, s.cfg.ScreenshotMaxChars)
	if !ok {
		s.log.Warn("Screenshot dropped", "chars", len(sub.Screenshot), "max", s.cfg.ScreenshotMaxChars)
		res.Notices = append(res.Notices, notice(NoticeWarning, media.WarnScreenshotTooLarge))
	}
	rec.Screenshot = shot

	docID := plan.DocumentID(rec.IDPatient, rec.IDCentre)
	span.SetAttributes(
		observability.PlanAttr(docID),
		attribute.Int("plan.attachments", len(sub.Attachments)),
		attribute.Int("plan.attachments_failed", failed),
	)

	row, err := s.plans.Upsert(dbctx.Context{Ctx: ctx}, docID, rec)
	if err == nil {
		var saved *plan.Record
		if saved, err = row.Decode(); err == nil {
			res.Record = saved
		}
	}
	if err != nil {
		s.log.Error("Persist treatment plan failed", "document_id", docID, "error", err)
		s.reporter.Capture("submission", err, map[string]string{"stage": "persist"})
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist failed")
		observability.Current().ObserveSubmission("failed", time.Since(start))
		res.Notices = append(res.Notices, notice(NoticeError, MsgPersistFailed))
		return res, apierr.Upstream("persist_failed", err)
	}

	res.DocumentID = docID
	res.ViewerURL = s.cfg.Links.Viewer(docID)
	res.RedirectURL = plan.ConfirmationPath(docID)

	// The webhook outcome never changes the result.
	_ = s.notifier.Notify(ctx, webhook.Params{
		PractitionerID: rec.IDPraticien,
		CenterID:       rec.IDCentre,
		PatientLink:    s.cfg.Links.PatientNavigation(rec.IDPatient),
		PlanLink:       res.ViewerURL,
	})

	res.Notices = append(res.Notices, notice(NoticeSuccess, MsgSubmitted))
	outcome := "ok"
	if failed > 0 || !ok {
		outcome = "partial"
	}
	observability.Current().ObserveSubmission(outcome, time.Since(start))
	s.log.Info("Treatment plan submitted",
		"document_id", docID,
		"uploaded", len(uploaded),
		"upload_failures", failed,
		"screenshot", shot != "",
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

// uploadAttachments pushes every attachment to the uploads bucket and returns
// the ones that made it, in input order, plus the failure count. A failed file
// never cancels its siblings.
func (s *submissionService) uploadAttachments(ctx context.Context, patientID string, items []media.Item) ([]plan.UploadedFile, int) {
	out := []plan.UploadedFile{}
	if len(items) == 0 {
		return out, 0
	}
	ctx, span := observability.StartSpan(ctx, "submission.upload", attribute.Int("files", len(items)))
	defer span.End()

	at := s.now()
	results := make([]*plan.UploadedFile, len(items))
	var g errgroup.Group
	g.SetLimit(s.cfg.UploadConcurrency)
	for i, it := range items {
		g.Go(func() error {
			key := plan.UploadKey(patientID, at, it.Name)
			opts := gcp.UploadOptions{
				ContentType: it.ContentType,
				Metadata: map[string]string{
					"originalName": it.Name,
					"uploadDate":   at.UTC().Format(uploadDateLayout),
				},
			}
			err := s.bucket.UploadFile(dbctx.Context{Ctx: ctx}, gcp.BucketCategoryUploads, key, bytes.NewReader(it.Data), opts)
			if err != nil {
				s.log.Warn("Attachment upload failed", "key", key, "size", it.Size, "error", err)
				observability.Current().ObserveUpload("failed", 0)
				return nil
			}
			observability.Current().ObserveUpload("ok", it.Size)
			results[i] = &plan.UploadedFile{
				Name: it.Name,
				URL:  s.bucket.GetPublicURL(gcp.BucketCategoryUploads, key),
				Type: it.ContentType,
				Size: it.Size,
				Path: key,
			}
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, r := range results {
		if r == nil {
			failed++
			continue
		}
		out = append(out, *r)
	}
	return out, failed
}
