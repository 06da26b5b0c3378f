package services

import (
	"bytes"
	"context"

	"github.com/yungbote/treatmentplan-backend/internal/domain/plan"
	"github.com/yungbote/treatmentplan-backend/internal/observability"
	"github.com/yungbote/treatmentplan-backend/internal/platform/apierr"
	"github.com/yungbote/treatmentplan-backend/internal/platform/dbctx"
	"github.com/yungbote/treatmentplan-backend/internal/platform/gcp"
	"github.com/yungbote/treatmentplan-backend/internal/platform/logger"
	"github.com/yungbote/treatmentplan-backend/internal/render"
)

type Export struct {
	FileName string
	PDF      []byte
	// URL is set once the export has been published to the exports bucket.
	URL string
}

type ExportService interface {
	// Render builds the PDF of any record, saved or not.
	Render(ctx context.Context, rec plan.Record) (*Export, error)
	// Export renders a saved plan.
	Export(ctx context.Context, documentID string) (*Export, error)
	// Publish renders a saved plan and stores the PDF under exports/{id}/{file}.
	Publish(ctx context.Context, documentID string) (*Export, error)
}

type exportService struct {
	log      *logger.Logger
	plans    PlanService
	renderer *render.Renderer
	bucket   gcp.BucketService
}

func NewExportService(baseLog *logger.Logger, plans PlanService, renderer *render.Renderer, bucket gcp.BucketService) ExportService {
	return &exportService{
		log:      baseLog.With("service", "ExportService"),
		plans:    plans,
		renderer: renderer,
		bucket:   bucket,
	}
}

func (s *exportService) Render(ctx context.Context, rec plan.Record) (*Export, error) {
	_, span := observability.StartSpan(ctx, "export.render", observability.PlanAttr(rec.DocumentID))
	defer span.End()
	raw, err := s.renderer.PDF(rec)
	if err != nil {
		span.RecordError(err)
		return nil, apierr.Internal("render_failed", err)
	}
	return &Export{FileName: plan.ExportFileName(rec, s.renderer.Location()), PDF: raw}, nil
}

func (s *exportService) Export(ctx context.Context, documentID string) (*Export, error) {
	rec, err := s.plans.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}
	return s.Render(ctx, *rec)
}

func (s *exportService) Publish(ctx context.Context, documentID string) (*Export, error) {
	exp, err := s.Export(ctx, documentID)
	if err != nil {
		return nil, err
	}
	key := "exports/" + documentID + "/" + exp.FileName
	opts := gcp.UploadOptions{
		ContentType: "application/pdf",
		Metadata:    map[string]string{"documentId": documentID},
	}
	if err := s.bucket.UploadFile(dbctx.Context{Ctx: ctx}, gcp.BucketCategoryExports, key, bytes.NewReader(exp.PDF), opts); err != nil {
		s.log.Error("Publish export failed", "document_id", documentID, "error", err)
		return nil, apierr.Upstream("export_upload_failed", err)
	}
	exp.URL = s.bucket.GetPublicURL(gcp.BucketCategoryExports, key)
	s.log.Info("Export published", "document_id", documentID, "bytes", len(exp.PDF))
	return exp, nil
}
