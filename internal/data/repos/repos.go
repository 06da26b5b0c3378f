package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/treatmentplan-backend/internal/data/repos/plans"
	"github.com/yungbote/treatmentplan-backend/internal/platform/logger"
)

type TreatmentPlanRepo = plans.TreatmentPlanRepo

var ErrNotFound = plans.ErrNotFound

type Repos struct {
	TreatmentPlans TreatmentPlanRepo
}

func New(db *gorm.DB, log *logger.Logger) Repos {
	return Repos{
		TreatmentPlans: plans.NewTreatmentPlanRepo(db, log),
	}
}
