package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/treatmentplan-backend/internal/data/repos"
	"github.com/yungbote/treatmentplan-backend/internal/http"
	"github.com/yungbote/treatmentplan-backend/internal/observability"
	"github.com/yungbote/treatmentplan-backend/internal/platform/logger"
)

const serviceName = "treatmentplan-backend"

type App struct {
	Log      *logger.Logger
	Cfg      Config
	Clients  *Clients
	Repos    repos.Repos
	Services Services
	Router   *gin.Engine

	server       *http.Server
	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

// New builds the app from the environment.
func New() (*App, error) {
	log, cfg, err := loadEnv()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	observability.Init(log)
	otelShutdown := observability.InitTracing(ctx, log,
		observability.TraceConfigFromEnv(log, serviceName, cfg.Environment, cfg.Version))

	clients, err := wireClients(ctx, log, cfg)
	if err != nil {
		cancel()
		log.Sync()
		return nil, err
	}

	a, err := Assemble(log, cfg, clients)
	if err != nil {
		cancel()
		clients.Close()
		log.Sync()
		return nil, err
	}
	a.otelShutdown = otelShutdown
	a.cancel = cancel
	return a, nil
}

func loadEnv() (*logger.Logger, Config, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, Config{}, fmt.Errorf("init logger: %w", err)
	}
	log.Info("Loading environment variables...")
	return log, LoadConfig(log), nil
}

// Assemble wires repos, services, handlers and the router on top of ready
// clients.
func Assemble(log *logger.Logger, cfg Config, clients *Clients) (*App, error) {
	if clients == nil || clients.DB == nil || clients.Bucket == nil || clients.Drafts == nil {
		return nil, errors.New("app: db, bucket and draft store are required")
	}
	reposet := wireRepos(clients.DB, log)
	serviceset, err := wireServices(log, cfg, clients, reposet)
	if err != nil {
		return nil, err
	}
	handlerset := wireHandlers(log, cfg, clients, serviceset)
	middleware := wireMiddleware(log, cfg)
	router := wireRouter(log, cfg, handlerset, middleware)

	return &App{
		Log:      log,
		Cfg:      cfg,
		Clients:  clients,
		Repos:    reposet,
		Services: serviceset,
		Router:   router,
	}, nil
}

func (a *App) Run(addr string) error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	a.server = &http.Server{Engine: a.Router}
	a.Log.Info("Listening", "addr", addr)
	return a.server.Run(addr)
}

// Shutdown stops accepting requests and waits for in-flight ones, bounded by
// ctx.
func (a *App) Shutdown(ctx context.Context) error {
	if a == nil || a.server == nil {
		return nil
	}
	return a.server.Shutdown(ctx)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = a.otelShutdown(ctx)
		cancel()
		a.otelShutdown = nil
	}
	if a.Clients != nil {
		a.Clients.Reporter.Flush(2 * time.Second)
		a.Clients.Close()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
