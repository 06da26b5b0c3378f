package services

import (
	"context"
	"errors"
	"strings"

	"github.com/yungbote/treatmentplan-backend/internal/data/repos"
	"github.com/yungbote/treatmentplan-backend/internal/domain/plan"
	"github.com/yungbote/treatmentplan-backend/internal/platform/apierr"
	"github.com/yungbote/treatmentplan-backend/internal/platform/dbctx"
	"github.com/yungbote/treatmentplan-backend/internal/platform/logger"
	"github.com/yungbote/treatmentplan-backend/internal/session"
)

const defaultListLimit = 20

type PlanService interface {
	Get(ctx context.Context, documentID string) (*plan.Record, error)
	ListByPatient(ctx context.Context, patientID string, limit int) ([]*plan.Record, error)
	// Restore replays a saved plan into d. The caller holds the draft lock.
	Restore(ctx context.Context, d *session.Draft, documentID string) (*plan.Record, error)
}

type planService struct {
	log   *logger.Logger
	plans repos.TreatmentPlanRepo
}

func NewPlanService(baseLog *logger.Logger, plans repos.TreatmentPlanRepo) PlanService {
	return &planService{log: baseLog.With("service", "PlanService"), plans: plans}
}

func (s *planService) Get(ctx context.Context, documentID string) (*plan.Record, error) {
	documentID = strings.TrimSpace(documentID)
	if documentID == "" {
		return nil, apierr.BadRequest("missing_document_id", errors.New("document id is required"))
	}
	row, err := s.plans.GetByDocumentID(dbctx.Context{Ctx: ctx}, documentID)
	if errors.Is(err, repos.ErrNotFound) {
		return nil, apierr.NotFound("plan_not_found", err)
	}
	if err != nil {
		return nil, apierr.Upstream("plan_lookup_failed", err)
	}
	rec, err := row.Decode()
	if err != nil {
		return nil, apierr.Internal("plan_decode_failed", err)
	}
	return rec, nil
}

func (s *planService) ListByPatient(ctx context.Context, patientID string, limit int) ([]*plan.Record, error) {
	patientID = strings.TrimSpace(patientID)
	if patientID == "" {
		return nil, apierr.BadRequest("missing_patient_id", errors.New("patient id is required"))
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	rows, err := s.plans.ListByPatient(dbctx.Context{Ctx: ctx}, patientID, limit)
	if err != nil {
		return nil, apierr.Upstream("plan_lookup_failed", err)
	}
	out := make([]*plan.Record, 0, len(rows))
	for _, row := range rows {
		rec, err := row.Decode()
		if err != nil {
			s.log.Warn("Skipping undecodable plan", "document_id", row.DocumentID, "error", err)
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *planService) Restore(ctx context.Context, d *session.Draft, documentID string) (*plan.Record, error) {
	rec, err := s.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}
	d.LoadRecord(*rec)
	if rec.Screenshot != "" {
		d.Screenshot.Set(rec.Screenshot)
	}
	s.log.Debug("Plan restored into draft", "draft_id", d.ID, "document_id", rec.DocumentID)
	return rec, nil
}
