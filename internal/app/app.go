package app

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"crowdwatch/internal/config"
	"crowdwatch/internal/logger"
	"crowdwatch/internal/repository/sqlite"
	"crowdwatch/internal/route"
	"crowdwatch/internal/service"
	"crowdwatch/internal/service/hub"
	"crowdwatch/internal/service/session"
	"crowdwatch/internal/service/storage"
	"crowdwatch/internal/service/vision"
	"crowdwatch/internal/service/zone"
)

type App struct {
	config  *config.Config
	logger  *logger.Logger
	db      *sqlite.DB
	manager *service.Manager
	routes  http.Handler
	viewers *hub.Hub
}

func NewApp() (*App, error) {
	cfg := config.Load()
	log := logger.New(cfg.LogDirectory)

	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	zoneRepo := sqlite.NewZoneRepository(db)
	analyticsRepo := sqlite.NewAnalyticsRepository(db)
	userRepo := sqlite.NewUserRepository(db)

	uploads, err := storage.NewUploadStore(cfg.UploadDirectory, cfg.MaxUploadDirSize, log)
	if err != nil {
		return nil, err
	}

	detectors := vision.NewPool(cfg.DetectorPool, func() *vision.Detector {
		return vision.NewDetector(cfg.ModelPath, cfg.ModelConfigPath, cfg.ConfidenceMin, log)
	})

	engine := zone.NewEngine()
	newTracker := func() *vision.Tracker {
		return vision.NewTracker(cfg.TrackerMaxAge, cfg.TrackerMinHits)
	}

	sessions := session.NewManager(newTracker, engine.Reset, log)
	live := session.NewLive(cfg.CameraDevice, newTracker, log)
	viewers := hub.New(log)

	manager := service.NewManager(
		detectors,
		vision.NewHeatmap(cfg.HeatmapBlurKernel),
		vision.NewOverlay(),
		engine,
		sessions,
		live,
		uploads,
		viewers,
		zoneRepo,
		analyticsRepo,
		cfg.PreviewFPS,
		log,
	)

	routes := route.SetupRoutes(manager, viewers, uploads, cfg, log, zoneRepo, analyticsRepo, userRepo)

	return &App{
		config:  cfg,
		logger:  log,
		db:      db,
		manager: manager,
		routes:  routes,
		viewers: viewers,
	}, nil
}

func (a *App) Run() error {
	go a.viewers.Run()

	a.logger.Info("Crowd analytics server listening on port %d", a.config.Port)
	a.logger.Info("Database: %s", a.config.DatabasePath)
	a.logger.Info("Uploads: %s", a.config.UploadDirectory)
	a.logger.Info("Model: %s", a.config.ModelPath)

	return http.ListenAndServe(fmt.Sprintf(":%d", a.config.Port), a.routes)
}
