package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"spatialsearch/internal/dto"
	"spatialsearch/internal/logger"
	"spatialsearch/internal/model"
	"spatialsearch/internal/repository"
	"spatialsearch/internal/repository/sqlite"
	"spatialsearch/internal/service"
	"spatialsearch/internal/service/state"
	"spatialsearch/internal/service/status"
	"spatialsearch/internal/service/storage"
	"spatialsearch/internal/service/stream"
	"spatialsearch/internal/service/websocket"
)

type rawEncoder struct{}

func (rawEncoder) EncodeJPEG(frame *state.Frame) ([]byte, error) { return frame.Data, nil }

type brokenRepo struct{}

func (brokenRepo) InsertBatch(logs []model.SpatialLog) error { return errors.New("db down") }
func (brokenRepo) GetAll() ([]model.SpatialLog, error)       { return nil, errors.New("db down") }
func (brokenRepo) CountByObject() (map[string]int, error)    { return nil, errors.New("db down") }
func (brokenRepo) GetImageFilenames() ([]string, error)      { return nil, errors.New("db down") }
func (brokenRepo) DeleteAll() error                          { return errors.New("db down") }

type testEnv struct {
	manager   *service.Manager
	shared    *state.Shared
	gateway   *storage.Gateway
	uploadDir string
}

func newTestEnv(t *testing.T, repo repository.SpatialLogRepository) *testEnv {
	t.Helper()

	dir := t.TempDir()
	if repo == nil {
		db, err := sqlite.New(filepath.Join(dir, "test.db"))
		if err != nil {
			t.Fatalf("Failed to create test database: %v", err)
		}
		t.Cleanup(func() { db.Close() })
		repo = sqlite.NewSpatialLogRepository(db)
	}

	log := logger.NewDiscard()
	shared := state.NewShared(time.Now())
	uploadDir := filepath.Join(dir, "uploads")
	gateway := storage.NewGateway(uploadDir, rawEncoder{}, repo, log)

	manager := service.NewManager(service.Components{
		Streamer:   stream.NewStreamer(shared, rawEncoder{}, 5*time.Millisecond, log),
		Reporter:   status.NewReporter(shared, 10*time.Second, log),
		HubService: websocket.NewHubService(log),
		Gateway:    gateway,
		Repository: repo,
	}, log)

	return &testEnv{manager: manager, shared: shared, gateway: gateway, uploadDir: uploadDir}
}

func (e *testEnv) persist(t *testing.T, at time.Time, candidates ...dto.DetectionCandidate) {
	t.Helper()
	if err := e.gateway.Persist(at, &state.Frame{Data: []byte("jpeg")}, candidates); err != nil {
		t.Fatalf("Failed to persist: %v", err)
	}
}

func TestDataHandlerEmpty(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := httptest.NewRecorder()
	DataHandler(env.manager, "http://127.0.0.1:8000", logger.NewDiscard())(rec, httptest.NewRequest(http.MethodGet, "/api/data", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("Expected [], got %s", rec.Body.String())
	}
}

func TestDataHandlerGroupsByFirstAppearance(t *testing.T) {
	env := newTestEnv(t, nil)
	base := time.Date(2024, 3, 1, 14, 30, 5, 0, time.UTC)

	env.persist(t, base,
		dto.DetectionCandidate{Label: "Wallet", Confidence: 0.7, Box: dto.BBox{X1: 0.1, Y1: 0.2, X2: 0.3, Y2: 0.5}},
		dto.DetectionCandidate{Label: "Keys", Confidence: 0.9, Box: dto.BBox{X1: 0, Y1: 0, X2: 0.5, Y2: 0.5}},
	)
	env.persist(t, base.Add(10*time.Second),
		dto.DetectionCandidate{Label: "Keys", Confidence: 0.8, Box: dto.BBox{X1: 0.2, Y1: 0.2, X2: 0.4, Y2: 0.4}},
	)

	rec := httptest.NewRecorder()
	DataHandler(env.manager, "http://cam.local:8000/", logger.NewDiscard())(rec, httptest.NewRequest(http.MethodGet, "/api/data", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var groups []dto.ObjectHistory
	if err := json.NewDecoder(rec.Body).Decode(&groups); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(groups) != 2 || groups[0].Name != "Wallet" || groups[1].Name != "Keys" {
		t.Fatalf("Unexpected groups: %+v", groups)
	}

	wallet := groups[0].History[0]
	if wallet.Time != "14:30:05" || wallet.Date != "2024-03-01" {
		t.Errorf("Unexpected time/date: %s %s", wallet.Time, wallet.Date)
	}
	if wallet.X != 10 || wallet.Y != 20 || wallet.W != 20 || wallet.H != 30 || wallet.Conf != 0.7 {
		t.Errorf("Unexpected coordinates: %+v", wallet)
	}
	if wallet.Img != "http://cam.local:8000/uploads/snap_1709303405.jpg" {
		t.Errorf("Unexpected img: %s", wallet.Img)
	}

	keys := groups[1].History
	if len(keys) != 2 || keys[0].Time != "14:30:05" || keys[1].Time != "14:30:15" {
		t.Errorf("Expected ascending Keys history, got %+v", keys)
	}
}

func TestDataHandlerStoreError(t *testing.T) {
	env := newTestEnv(t, brokenRepo{})

	rec := httptest.NewRecorder()
	DataHandler(env.manager, "", logger.NewDiscard())(rec, httptest.NewRequest(http.MethodGet, "/api/data", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("Expected 500, got %d", rec.Code)
	}
	var body map[string]string
	json.NewDecoder(rec.Body).Decode(&body)
	if body["error"] == "" {
		t.Errorf("Expected error message in body, got %v", body)
	}
}

func TestResetHandler(t *testing.T) {
	env := newTestEnv(t, nil)
	env.persist(t, time.Unix(1_700_000_000, 0), dto.DetectionCandidate{Label: "Keys", Confidence: 0.9, Box: dto.BBox{X2: 1, Y2: 1}})

	rec := httptest.NewRecorder()
	ResetHandler(env.manager, logger.NewDiscard())(rec, httptest.NewRequest(http.MethodPost, "/api/reset", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) != `{"status":"cleared"}` {
		t.Errorf("Unexpected body: %s", rec.Body.String())
	}

	logs, _ := env.manager.GetRepository().GetAll()
	if len(logs) != 0 {
		t.Errorf("Expected no rows after reset, got %d", len(logs))
	}
	entries, _ := os.ReadDir(env.uploadDir)
	if len(entries) != 0 {
		t.Errorf("Expected empty upload dir, got %d files", len(entries))
	}

	// Resetting an empty store succeeds as well.
	rec = httptest.NewRecorder()
	ResetHandler(env.manager, logger.NewDiscard())(rec, httptest.NewRequest(http.MethodPost, "/api/reset", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200 on second reset, got %d", rec.Code)
	}
}

func TestResetHandlerRejectsGet(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := httptest.NewRecorder()
	ResetHandler(env.manager, logger.NewDiscard())(rec, httptest.NewRequest(http.MethodGet, "/api/reset", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405, got %d", rec.Code)
	}
	if rec.Header().Get("Allow") != http.MethodPost {
		t.Errorf("Expected Allow: POST, got %q", rec.Header().Get("Allow"))
	}
}

func TestResetHandlerStoreError(t *testing.T) {
	env := newTestEnv(t, brokenRepo{})

	rec := httptest.NewRecorder()
	ResetHandler(env.manager, logger.NewDiscard())(rec, httptest.NewRequest(http.MethodPost, "/api/reset", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", rec.Code)
	}
}

func TestStatusHandler(t *testing.T) {
	env := newTestEnv(t, nil)
	env.shared.SetPlayback(state.Playback{Position: 0, TotalFrames: 300, FPS: 30, Speed: 1})

	rec := httptest.NewRecorder()
	StatusHandler(env.manager, logger.NewDiscard())(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var got dto.Status
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("Failed to decode status: %v", err)
	}
	if got.ScanRemainingMS <= 0 || got.ScanRemainingMS > 10_000 {
		t.Errorf("Unexpected scan_remaining_ms: %d", got.ScanRemainingMS)
	}
	if got.VideoRemainingSec != 10 {
		t.Errorf("Expected video_remaining_sec 10, got %d", got.VideoRemainingSec)
	}
}

func TestStreamHandlerRejectsInvalidFlag(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := httptest.NewRecorder()
	StreamHandler(env.manager, logger.NewDiscard())(rec, httptest.NewRequest(http.MethodGet, "/api/stream?annotated=maybe", nil))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
}

func TestStreamHandlerStreamsUntilClientLeaves(t *testing.T) {
	env := newTestEnv(t, nil)
	env.shared.Raw.Store(&state.Frame{Data: []byte("raw-frame")})

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/stream?annotated=false", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	StreamHandler(env.manager, logger.NewDiscard())(rec, req)

	if ct := rec.Header().Get("Content-Type"); ct != "multipart/x-mixed-replace; boundary=frame" {
		t.Errorf("Unexpected content type: %s", ct)
	}
	if !strings.HasPrefix(rec.Body.String(), "--frame\r\nContent-Type: image/jpeg\r\n\r\nraw-frame\r\n") {
		t.Errorf("Unexpected stream body: %q", rec.Body.String())
	}
}

func TestLogsHandlers(t *testing.T) {
	dir := t.TempDir()
	log, err := logger.NewLogger(dir)
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	defer log.Close()
	log.Warning("disk almost full")

	rec := httptest.NewRecorder()
	ShowLogsHandler(log)(rec, httptest.NewRequest(http.MethodGet, "/api/logs?level=warning", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "disk almost full") {
		t.Fatalf("Expected warning log content, got %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	ShowLogsHandler(log)(rec, httptest.NewRequest(http.MethodGet, "/api/logs?level=debug", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown level, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	ClearLogsHandler(log)(rec, httptest.NewRequest(http.MethodPost, "/api/logs/clear?level=warning", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	data, _ := os.ReadFile(filepath.Join(dir, "warning.log"))
	if len(data) != 0 {
		t.Errorf("Expected truncated warning.log, got %q", data)
	}
}

func TestStaticFileHandler(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>spatial</html>"), 0644)

	h := StaticFileHandler(dir, "index.html")

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "spatial") {
		t.Errorf("Expected index.html, got %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", rec.Code)
	}
}
