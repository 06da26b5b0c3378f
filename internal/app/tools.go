package app

import (
	"context"
	"fmt"

	"github.com/yungbote/treatmentplan-backend/internal/data/db"
	"github.com/yungbote/treatmentplan-backend/internal/data/repos"
	"github.com/yungbote/treatmentplan-backend/internal/render"
	"github.com/yungbote/treatmentplan-backend/internal/services"
)

// Migrate applies the document store schema and indexes, then exits.
func Migrate() error {
	log, cfg, err := loadEnv()
	if err != nil {
		return err
	}
	defer log.Sync()

	store, err := db.Open(log, cfg.DB)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := migrate(store.DB()); err != nil {
		return err
	}
	log.Info("Migration complete", "driver", store.Driver())
	return nil
}

// ExportPlan renders a saved plan to PDF. With publish set the PDF is also
// stored in the exports bucket, which needs the full object storage config.
func ExportPlan(ctx context.Context, documentID string, publish bool) (*services.Export, error) {
	if publish {
		a, err := New()
		if err != nil {
			return nil, err
		}
		defer a.Close()
		return a.Services.Export.Publish(ctx, documentID)
	}

	log, cfg, err := loadEnv()
	if err != nil {
		return nil, err
	}
	defer log.Sync()

	store, err := db.Open(log, cfg.DB)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	renderer, err := render.New(log, render.Config{
		FontPath: cfg.RenderFontPath,
		Location: cfg.Location(log),
	})
	if err != nil {
		return nil, fmt.Errorf("init renderer: %w", err)
	}
	plans := services.NewPlanService(log, repos.New(store.DB(), log).TreatmentPlans)
	return services.NewExportService(log, plans, renderer, nil).Export(ctx, documentID)
}
