package services

import (
	"context"
	"time"

	"github.com/yungbote/treatmentplan-backend/internal/data/repos"
	"github.com/yungbote/treatmentplan-backend/internal/domain/plan"
	"github.com/yungbote/treatmentplan-backend/internal/media"
	"github.com/yungbote/treatmentplan-backend/internal/observability"
	"github.com/yungbote/treatmentplan-backend/internal/platform/apierr"
	"github.com/yungbote/treatmentplan-backend/internal/platform/dbctx"
	"github.com/yungbote/treatmentplan-backend/internal/platform/logger"
	"github.com/yungbote/treatmentplan-backend/internal/render"
)

type ShareResult struct {
	DocumentID string            `json:"documentId"`
	ViewerURL  string            `json:"viewerUrl"`
	QRCode     string            `json:"qrCode"`
	Links      render.ShareLinks `json:"links"`
	Notices    []Notice          `json:"notices"`
}

type ShareService interface {
	// Share saves an ad-hoc copy of rec under a timestamped id and returns the
	// viewer link, a QR code pointing at it and the message links.
	Share(ctx context.Context, rec plan.Record) (*ShareResult, error)
}

type shareService struct {
	log    *logger.Logger
	plans  repos.TreatmentPlanRepo
	links  plan.Links
	qrSize int
	loc    *time.Location
	now    func() time.Time
}

func NewShareService(baseLog *logger.Logger, plans repos.TreatmentPlanRepo, links plan.Links) ShareService {
	if links == (plan.Links{}) {
		links = plan.DefaultLinks()
	}
	return &shareService{
		log:    baseLog.With("service", "ShareService"),
		plans:  plans,
		links:  links,
		qrSize: render.DefaultQRSize,
		loc:    render.DefaultLocation(),
		now:    time.Now,
	}
}

func (s *shareService) Share(ctx context.Context, rec plan.Record) (*ShareResult, error) {
	ctx, span := observability.StartSpan(ctx, "share.create")
	defer span.End()

	docID := plan.AdHocDocumentID(rec.IDPatient, s.now())
	if _, err := s.plans.Upsert(dbctx.Context{Ctx: ctx}, docID, rec); err != nil {
		s.log.Error("Persist shared plan failed", "document_id", docID, "error", err)
		res := &ShareResult{Notices: []Notice{notice(NoticeError, MsgPersistFailed)}}
		return res, apierr.Upstream("persist_failed", err)
	}
	viewer := s.links.Viewer(docID)
	png, err := render.QRCode(viewer, s.qrSize)
	if err != nil {
		return nil, apierr.Internal("qr_failed", err)
	}
	s.log.Info("Plan shared", "document_id", docID)
	return &ShareResult{
		DocumentID: docID,
		ViewerURL:  viewer,
		QRCode:     media.DataURL("image/png", png),
		Links:      render.BuildShareLinks(rec, viewer, s.loc),
		Notices:    []Notice{notice(NoticeSuccess, MsgShared)},
	}, nil
}
