package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/treatmentplan-backend/internal/domain/plan"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&plan.TreatmentPlan{},
	)
}

// EnsurePlanIndexes adds the composite lookup used when listing a patient's
// plans per center. Safe to re-run.
func EnsurePlanIndexes(db *gorm.DB) error {
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_plans_traitement_patient_center
		ON plans_traitement(patient_id, center_id);
	`).Error; err != nil {
		return fmt.Errorf("create idx_plans_traitement_patient_center: %w", err)
	}
	return nil
}
