package app

import (
	"fmt"

	"github.com/yungbote/treatmentplan-backend/internal/data/repos"
	"github.com/yungbote/treatmentplan-backend/internal/platform/logger"
	"github.com/yungbote/treatmentplan-backend/internal/render"
	"github.com/yungbote/treatmentplan-backend/internal/services"
	"github.com/yungbote/treatmentplan-backend/internal/webhook"
)

type Services struct {
	Drafts     services.DraftService
	Plans      services.PlanService
	Submission services.SubmissionService
	Share      services.ShareService
	Export     services.ExportService
	Renderer   *render.Renderer
}

func wireServices(log *logger.Logger, cfg Config, clients *Clients, reposet repos.Repos) (Services, error) {
	log.Info("Wiring services...")

	renderer, err := render.New(log, render.Config{
		FontPath: cfg.RenderFontPath,
		CacheTTL: cfg.RenderCacheTTL,
		Location: cfg.Location(log),
	})
	if err != nil {
		return Services{}, fmt.Errorf("init renderer: %w", err)
	}

	notifier := clients.Notifier
	if notifier == nil {
		notifier = webhook.New(log, webhook.Config{
			URL:        cfg.WebhookURL,
			Timeout:    cfg.WebhookTimeout,
			HTTPClient: clients.WebhookHTTPClient,
		})
		clients.Notifier = notifier
	}

	drafts := services.NewDraftService(log, clients.Drafts, services.MediaConfig{
		PhotoMaxWidth: cfg.PhotoMaxWidth,
		JPEGQuality:   cfg.PhotoJPEGQuality,
	})
	plans := services.NewPlanService(log, reposet.TreatmentPlans)
	submission := services.NewSubmissionService(
		log,
		clients.Bucket,
		reposet.TreatmentPlans,
		notifier,
		clients.Reporter,
		services.SubmissionConfig{
			Links:              cfg.Links,
			ScreenshotMaxChars: cfg.ScreenshotMaxChars,
			UploadConcurrency:  cfg.UploadConcurrency,
		},
	)

	return Services{
		Drafts:     drafts,
		Plans:      plans,
		Submission: submission,
		Share:      services.NewShareService(log, reposet.TreatmentPlans, cfg.Links),
		Export:     services.NewExportService(log, plans, renderer, clients.Bucket),
		Renderer:   renderer,
	}, nil
}
