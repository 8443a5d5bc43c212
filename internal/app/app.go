package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"spatialsearch/internal/config"
	"spatialsearch/internal/logger"
	"spatialsearch/internal/repository/sqlite"
	"spatialsearch/internal/routes"
	"spatialsearch/internal/service"
	"spatialsearch/internal/service/ai"
	"spatialsearch/internal/service/capture"
	"spatialsearch/internal/service/detection"
	"spatialsearch/internal/service/imaging"
	"spatialsearch/internal/service/state"
	"spatialsearch/internal/service/status"
	"spatialsearch/internal/service/storage"
	"spatialsearch/internal/service/stream"
	"spatialsearch/internal/service/websocket"
	"spatialsearch/internal/threshold"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	config   *config.Config
	logger   *logger.Logger
	db       *sqlite.DB
	video    *imaging.VideoFile
	detector *ai.DetectorService
	manager  *service.Manager
}

// NewApp opens the database, the video and the model and wires the pipeline.
func NewApp(cfg *config.Config, log *logger.Logger) (*App, error) {
	thresholds, err := threshold.Load(cfg.ThresholdsPath, cfg.Thresholds)
	if err != nil {
		return nil, err
	}

	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	if err := os.MkdirAll(cfg.UploadDirectory, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	video, err := imaging.OpenVideoFile(cfg.VideoPath)
	if err != nil {
		db.Close()
		return nil, err
	}

	detector, err := ai.NewDetectorService(cfg, thresholds, log)
	if err != nil {
		video.Close()
		db.Close()
		return nil, err
	}

	shared := state.NewShared(time.Now())
	codec := imaging.NewJPEGCodec(cfg.JPEGQuality)
	repo := sqlite.NewSpatialLogRepository(db)
	gateway := storage.NewGateway(cfg.UploadDirectory, codec, repo, log)
	aggregator := detection.NewAggregator(thresholds, &shared.Scan, cfg.ScanInterval, gateway, log)

	manager := service.NewManager(service.Components{
		FrameSource:        capture.NewFrameSource(video, shared, cfg.PlaybackSpeed, log),
		Engine:             detection.NewEngine(shared, detector, aggregator, cfg.DetectionInterval, log),
		Streamer:           stream.NewStreamer(shared, codec, cfg.StreamInterval, log),
		Reporter:           status.NewReporter(shared, cfg.ScanInterval, log),
		HubService:         websocket.NewHubService(log),
		Gateway:            gateway,
		Repository:         repo,
		StatusPushInterval: cfg.StatusPushInterval,
	}, log)

	for _, label := range thresholds.Labels() {
		log.Info("🎯 Threshold %s = %.2f", label, thresholds.Cutoff(label))
	}

	return &App{
		config:   cfg,
		logger:   log,
		db:       db,
		video:    video,
		detector: detector,
		manager:  manager,
	}, nil
}

// Run serves HTTP and runs the pipeline until ctx is cancelled, then shuts
// both down and releases every resource.
func (a *App) Run(ctx context.Context) error {
	defer a.close()

	a.manager.Start(ctx)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.config.Port),
		Handler:           routes.SetupRoutes(a.manager, a.config, a.logger),
		ReadHeaderTimeout: 10 * time.Second,
		// Streams and websockets end with the application context.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	a.logger.Info("🚀 Spatial search server")
	a.logger.Info("📍 URL: %s", a.config.PublicURL)
	a.logger.Info("🎞️  Video: %s (speed x%d)", a.config.VideoPath, a.config.PlaybackSpeed)
	a.logger.Info("🤖 AI Model: %s", a.config.ModelPath)
	a.logger.Info("📁 Snapshots: %s, scan every %v", a.config.UploadDirectory, a.config.ScanInterval)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	var err error
	select {
	case err = <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
	case <-ctx.Done():
		a.logger.Info("🛑 Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
			a.logger.Warning("HTTP shutdown: %v", shutdownErr)
		}
	}

	a.manager.Wait()
	return err
}

func (a *App) close() {
	if err := a.detector.Close(); err != nil {
		a.logger.Warning("Failed to close detector: %v", err)
	}
	if err := a.video.Close(); err != nil {
		a.logger.Warning("Failed to close video: %v", err)
	}
	if err := a.db.Close(); err != nil {
		a.logger.Warning("Failed to close database: %v", err)
	}
}
