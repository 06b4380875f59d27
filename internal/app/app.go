package app

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/gitrec/internal/config"
	"github.com/yungbote/gitrec/internal/data/db"
	"github.com/yungbote/gitrec/internal/data/repos"
	httpserver "github.com/yungbote/gitrec/internal/http"
	"github.com/yungbote/gitrec/internal/observability"
	"github.com/yungbote/gitrec/internal/platform/logger"
)

// Version is stamped into traces.
var Version = "dev"

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Cfg      *config.Config
	Repos    repos.Set
	Clients  Clients
	Services Services
	Metrics  *observability.Metrics
	Server   *httpserver.Server

	dbService    *db.Service
	otelShutdown func(context.Context) error
}

// New wires the API server from cfg. The caller owns Close.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config required")
	}
	if err := cfg.ValidateServer(); err != nil {
		return nil, err
	}
	if log == nil {
		l, err := logger.New(cfg.Env)
		if err != nil {
			return nil, fmt.Errorf("init logger: %w", err)
		}
		log = l
	}

	otelShutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: "gitrec-api",
		Environment: cfg.Env,
		Version:     Version,
	})

	log.Info("Opening database...", "driver", cfg.DB.Driver)
	dbService, err := db.NewService(cfg.DB, log)
	if err != nil {
		_ = otelShutdown(ctx)
		return nil, fmt.Errorf("init db: %w", err)
	}
	if err := db.AutoMigrateAll(dbService.DB()); err != nil {
		_ = dbService.Close()
		_ = otelShutdown(ctx)
		return nil, fmt.Errorf("automigrate: %w", err)
	}
	theDB := dbService.DB()

	metrics := observability.NewMetrics()

	clients, err := wireClients(log, cfg, metrics)
	if err != nil {
		_ = dbService.Close()
		_ = otelShutdown(ctx)
		return nil, err
	}

	log.Info("Wiring repos...")
	reposet := repos.NewSet(theDB, log)

	serviceset := wireServices(theDB, log, cfg, reposet, clients)
	server := wireHTTP(theDB, log, cfg, serviceset, metrics)

	return &App{
		Log:          log,
		DB:           theDB,
		Cfg:          cfg,
		Repos:        reposet,
		Clients:      clients,
		Services:     serviceset,
		Metrics:      metrics,
		Server:       server,
		dbService:    dbService,
		otelShutdown: otelShutdown,
	}, nil
}

// Run serves HTTP until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	return a.Server.Run(ctx)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	a.Clients.Close()
	if a.dbService != nil {
		_ = a.dbService.Close()
	}
	if a.otelShutdown != nil {
		_ = a.otelShutdown(context.Background())
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
