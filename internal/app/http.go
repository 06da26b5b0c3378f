package app

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/treatmentplan-backend/internal/http"
	httpH "github.com/yungbote/treatmentplan-backend/internal/http/handlers"
	httpMW "github.com/yungbote/treatmentplan-backend/internal/http/middleware"
	"github.com/yungbote/treatmentplan-backend/internal/observability"
	"github.com/yungbote/treatmentplan-backend/internal/platform/logger"
)

type Middleware struct {
	Token *httpMW.TokenMiddleware
}

type Handlers struct {
	Health   *httpH.HealthHandler
	Draft    *httpH.DraftHandler
	Media    *httpH.MediaHandler
	Document *httpH.DocumentHandler
}

func wireHandlers(log *logger.Logger, cfg Config, clients *Clients, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health: httpH.NewHealthHandler(clients.DB),
		Draft:  httpH.NewDraftHandler(log, services.Drafts),
		Media:  httpH.NewMediaHandler(log, services.Drafts),
		Document: httpH.NewDocumentHandler(httpH.DocumentHandlerDeps{
			Log:        log,
			Drafts:     services.Drafts,
			Plans:      services.Plans,
			Submission: services.Submission,
			Share:      services.Share,
			Export:     services.Export,
			Renderer:   services.Renderer,
			Links:      cfg.Links,
		}),
	}
}

func wireMiddleware(log *logger.Logger, cfg Config) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Token: httpMW.NewTokenMiddleware(log, cfg.APIToken),
	}
}

func wireRouter(log *logger.Logger, cfg Config, handlers Handlers, middleware Middleware) *gin.Engine {
	return http.NewRouter(http.RouterConfig{
		Log:             log,
		ServiceName:     serviceName,
		AllowedOrigins:  cfg.AllowedOrigins,
		MaxBodyBytes:    cfg.MaxBodyBytes,
		Metrics:         observability.Current(),
		Token:           middleware.Token,
		HealthHandler:   handlers.Health,
		DraftHandler:    handlers.Draft,
		MediaHandler:    handlers.Media,
		DocumentHandler: handlers.Document,
	})
}
