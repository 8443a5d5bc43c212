package service

import (
	"context"
	"sync"
	"time"

	"spatialsearch/internal/logger"
	"spatialsearch/internal/repository"
	"spatialsearch/internal/service/capture"
	"spatialsearch/internal/service/detection"
	"spatialsearch/internal/service/status"
	"spatialsearch/internal/service/storage"
	"spatialsearch/internal/service/stream"
	"spatialsearch/internal/service/websocket"
)

// Manager owns the long-lived pipeline loops and hands the request-scoped
// services to the HTTP layer.
type Manager struct {
	frameSource *capture.FrameSource
	engine      *detection.Engine
	streamer    *stream.Streamer
	reporter    *status.Reporter
	hubService  *websocket.HubService
	gateway     *storage.Gateway
	repository  repository.SpatialLogRepository

	statusPushInterval time.Duration
	logger             *logger.Logger

	wg sync.WaitGroup
}

// Components groups what NewManager wires together.
type Components struct {
	FrameSource        *capture.FrameSource
	Engine             *detection.Engine
	Streamer           *stream.Streamer
	Reporter           *status.Reporter
	HubService         *websocket.HubService
	Gateway            *storage.Gateway
	Repository         repository.SpatialLogRepository
	StatusPushInterval time.Duration
}

func NewManager(c Components, logger *logger.Logger) *Manager {
	return &Manager{
		frameSource:        c.FrameSource,
		engine:             c.Engine,
		streamer:           c.Streamer,
		reporter:           c.Reporter,
		hubService:         c.HubService,
		gateway:            c.Gateway,
		repository:         c.Repository,
		statusPushInterval: c.StatusPushInterval,
		logger:             logger,
	}
}

// Start launches the frame source, the detection engine, the status hub and
// the status broadcaster. They all stop when ctx is cancelled.
func (m *Manager) Start(ctx context.Context) {
	m.goRun(func() { m.frameSource.Run(ctx) })
	m.goRun(func() { m.engine.Run(ctx) })
	m.goRun(func() { m.hubService.Run(ctx) })
	m.goRun(func() { m.reporter.Publish(ctx, m.hubService, m.statusPushInterval) })

	m.logger.Info("🎬 Manager started - detection, capture and status loops running")
}

func (m *Manager) goRun(fn func()) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		fn()
	}()
}

// Wait blocks until every loop started by Start returned.
func (m *Manager) Wait() {
	m.wg.Wait()
	m.logger.Info("🛑 All pipeline loops stopped")
}

func (m *Manager) GetStreamer() *stream.Streamer {
	return m.streamer
}
func (m *Manager) GetReporter() *status.Reporter {
	return m.reporter
}
func (m *Manager) GetHubService() *websocket.HubService {
	return m.hubService
}
func (m *Manager) GetGateway() *storage.Gateway {
	return m.gateway
}
func (m *Manager) GetRepository() repository.SpatialLogRepository {
	return m.repository
}
