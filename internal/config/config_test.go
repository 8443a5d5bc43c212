package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "SCAN_INTERVAL", "PLAYBACK_SPEED", "DETECTION_INTERVAL_MS", "UPLOAD_DIR"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.Port != 8000 {
		t.Errorf("Expected port 8000, got %d", cfg.Port)
	}
	if cfg.ScanInterval != 10*time.Second {
		t.Errorf("Expected scan interval 10s, got %v", cfg.ScanInterval)
	}
	if cfg.PlaybackSpeed != 1 {
		t.Errorf("Expected playback speed 1, got %d", cfg.PlaybackSpeed)
	}
	if cfg.DetectionInterval != 50*time.Millisecond {
		t.Errorf("Expected detection interval 50ms, got %v", cfg.DetectionInterval)
	}
	if cfg.UploadDirectory != "uploads" {
		t.Errorf("Expected upload dir 'uploads', got %s", cfg.UploadDirectory)
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("SCAN_INTERVAL", "2.5")
	t.Setenv("PLAYBACK_SPEED", "4")
	t.Setenv("STREAM_INTERVAL_MS", "100")

	cfg := Load()

	if cfg.Port != 9090 {
		t.Errorf("Expected port 9090, got %d", cfg.Port)
	}
	if cfg.ScanInterval != 2500*time.Millisecond {
		t.Errorf("Expected scan interval 2.5s, got %v", cfg.ScanInterval)
	}
	if cfg.PlaybackSpeed != 4 {
		t.Errorf("Expected playback speed 4, got %d", cfg.PlaybackSpeed)
	}
	if cfg.StreamInterval != 100*time.Millisecond {
		t.Errorf("Expected stream interval 100ms, got %v", cfg.StreamInterval)
	}
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("PORT", "abc")
	t.Setenv("SCAN_INTERVAL", "-3")
	t.Setenv("PLAYBACK_SPEED", "0")

	cfg := Load()

	if cfg.Port != 8000 {
		t.Errorf("Expected default port, got %d", cfg.Port)
	}
	if cfg.ScanInterval != 10*time.Second {
		t.Errorf("Expected default scan interval, got %v", cfg.ScanInterval)
	}
	if cfg.PlaybackSpeed != 1 {
		t.Errorf("Expected playback speed clamped to 1, got %d", cfg.PlaybackSpeed)
	}
}

func TestLoad_SubSecondScanIntervalClamped(t *testing.T) {
	t.Setenv("SCAN_INTERVAL", "0.2")

	cfg := Load()

	if cfg.ScanInterval != MinScanInterval {
		t.Errorf("Expected scan interval clamped to %v, got %v", MinScanInterval, cfg.ScanInterval)
	}
}
