package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/treatmentplan-backend/internal/http/handlers"
	httpMW "github.com/yungbote/treatmentplan-backend/internal/http/middleware"
	"github.com/yungbote/treatmentplan-backend/internal/observability"
	"github.com/yungbote/treatmentplan-backend/internal/platform/logger"
)

const defaultMaxBodyBytes = 32 << 20

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	AllowedOrigins []string
	MaxBodyBytes   int64
	Metrics        *observability.Metrics
	Token          *httpMW.TokenMiddleware

	HealthHandler   *httpH.HealthHandler
	DraftHandler    *httpH.DraftHandler
	MediaHandler    *httpH.MediaHandler
	DocumentHandler *httpH.DocumentHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS(cfg.AllowedOrigins))

	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBodyBytes
	}
	r.Use(httpMW.LimitRequestBody(maxBody))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api")
	if cfg.Token != nil {
		api.Use(cfg.Token.RequireToken())
	}

	// Drafts (one per open form)
	if h := cfg.DraftHandler; h != nil {
		api.POST("/drafts", h.Create)
		api.GET("/drafts/:id", h.Get)
		api.DELETE("/drafts/:id", h.Delete)
		api.PUT("/drafts/:id/values", h.PutValues)
		api.PUT("/drafts/:id/transitoires", h.SetTransitional)
		api.PUT("/drafts/:id/categories/:category", h.SetCategory)
		api.GET("/drafts/:id/categories/:category/chart", h.ChartFragment)
		api.PUT("/drafts/:id/categories/:category/teeth", h.SetTeeth)
		api.POST("/drafts/:id/categories/:category/teeth/:tooth/toggle", h.ToggleTooth)
		api.POST("/drafts/:id/categories/:category/teeth/:tooth/keys/:key", h.KeyTooth)
	}

	// Media
	if h := cfg.MediaHandler; h != nil {
		api.POST("/drafts/:id/media/:kind", h.Add)
		api.PATCH("/drafts/:id/media/:kind/:item", h.Rename)
		api.DELETE("/drafts/:id/media/:kind/:item", h.Remove)
		api.POST("/drafts/:id/screenshot", h.SetScreenshot)
		api.DELETE("/drafts/:id/screenshot", h.ClearScreenshot)
	}

	// Documents
	if h := cfg.DocumentHandler; h != nil {
		api.POST("/drafts/:id/preview", h.Preview)
		api.POST("/drafts/:id/pdf", h.DraftPDF)
		api.POST("/drafts/:id/submit", h.Submit)
		api.POST("/drafts/:id/share", h.Share)
		api.POST("/drafts/:id/restore/:documentId", h.Restore)

		api.GET("/plans", h.ListPlans)
		api.GET("/plans/:id", h.GetPlan)
		api.GET("/plans/:id/document", h.PlanHTML)
		api.GET("/plans/:id/document.txt", h.PlanText)
		api.GET("/plans/:id/pdf", h.PlanPDF)
		api.GET("/plans/:id/chart.png", h.PlanChart)
		api.GET("/plans/:id/qr.png", h.PlanQR)
	}

	return r
}
