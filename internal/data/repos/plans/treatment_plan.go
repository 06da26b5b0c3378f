package plans

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/treatmentplan-backend/internal/domain/plan"
	"github.com/yungbote/treatmentplan-backend/internal/platform/dbctx"
	"github.com/yungbote/treatmentplan-backend/internal/platform/logger"
)

var ErrNotFound = errors.New("treatment plan not found")

type TreatmentPlanRepo interface {
	// Upsert writes the record under documentID, replacing any previous row
	// in full. Both timestamps are stamped from the server clock.
	Upsert(dbc dbctx.Context, documentID string, record plan.Record) (*plan.TreatmentPlan, error)
	GetByDocumentID(dbc dbctx.Context, documentID string) (*plan.TreatmentPlan, error)
	ListByPatient(dbc dbctx.Context, patientID string, limit int) ([]*plan.TreatmentPlan, error)
	Delete(dbc dbctx.Context, documentID string) error
}

type treatmentPlanRepo struct {
	db  *gorm.DB
	log *logger.Logger
	now func() time.Time
}

func NewTreatmentPlanRepo(db *gorm.DB, baseLog *logger.Logger) TreatmentPlanRepo {
	repoLog := baseLog.With("repo", "TreatmentPlanRepo")
	return &treatmentPlanRepo{db: db, log: repoLog, now: func() time.Time { return time.Now().UTC() }}
}

func (r *treatmentPlanRepo) tx(dbc dbctx.Context) *gorm.DB {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Context())
}

func (r *treatmentPlanRepo) Upsert(dbc dbctx.Context, documentID string, record plan.Record) (*plan.TreatmentPlan, error) {
	row, err := plan.NewTreatmentPlan(documentID, record)
	if err != nil {
		return nil, err
	}
	now := r.now()
	row.CreatedAt = now
	row.UpdatedAt = now

	if err := r.tx(dbc).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "document_id"}},
		// Every column, created_at included: a resubmission replaces the plan.
		DoUpdates: clause.AssignmentColumns([]string{
			"patient_id", "center_id", "practitioner_id", "record", "created_at", "updated_at",
		}),
	}).Create(row).Error; err != nil {
		return nil, fmt.Errorf("upsert plan %s: %w", documentID, err)
	}
	return row, nil
}

func (r *treatmentPlanRepo) GetByDocumentID(dbc dbctx.Context, documentID string) (*plan.TreatmentPlan, error) {
	var row plan.TreatmentPlan
	err := r.tx(dbc).Where("document_id = ?", documentID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// ListByPatient returns the patient's plans, most recently updated first.
func (r *treatmentPlanRepo) ListByPatient(dbc dbctx.Context, patientID string, limit int) ([]*plan.TreatmentPlan, error) {
	var results []*plan.TreatmentPlan
	if patientID == "" {
		return results, nil
	}
	q := r.tx(dbc).Where("patient_id = ?", patientID).Order("updated_at DESC").Order("document_id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *treatmentPlanRepo) Delete(dbc dbctx.Context, documentID string) error {
	return r.tx(dbc).Where("document_id = ?", documentID).Delete(&plan.TreatmentPlan{}).Error
}
