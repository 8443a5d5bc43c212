package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// MinScanInterval is the shortest accepted SCAN_INTERVAL.
const MinScanInterval = time.Second

// Config holds every tunable of the monitoring pipeline and HTTP server.
type Config struct {
	Port      int
	PublicURL string

	VideoPath       string
	ModelPath       string
	ModelConfigPath string
	LabelsPath      string
	ModelInputSize  int

	ThresholdsPath string
	Thresholds     string // inline "Label=0.5,Default=0.6", overrides ThresholdsPath entries

	ScanInterval       time.Duration
	PlaybackSpeed      int
	DetectionInterval  time.Duration
	StreamInterval     time.Duration
	StatusPushInterval time.Duration
	JPEGQuality        int

	UploadDirectory string
	DatabasePath    string
	StaticDirectory string
	LogDirectory    string
}

// Load reads an optional .env file and then the process environment.
func Load() *Config {
	// .env is optional; real environment variables always win.
	_ = godotenv.Load()

	playbackSpeed := getEnvAsInt("PLAYBACK_SPEED", 1)
	if playbackSpeed < 1 {
		playbackSpeed = 1
	}

	// Snapshots are named by unix second; a shorter window would reuse a name.
	scanInterval := getEnvAsDuration("SCAN_INTERVAL", time.Second, 10*time.Second)
	if scanInterval < MinScanInterval {
		scanInterval = MinScanInterval
	}

	return &Config{
		Port:      getEnvAsInt("PORT", 8000),
		PublicURL: getEnv("PUBLIC_URL", "http://127.0.0.1:8000"),

		VideoPath:       getEnv("VIDEO_PATH", "demo.mp4"),
		ModelPath:       getEnv("MODEL_PATH", filepath.Join(".", "model", "frozen_inference_graph.pb")),
		ModelConfigPath: getEnv("MODEL_CONFIG_PATH", filepath.Join(".", "model", "ssd_mobilenet.pbtxt")),
		LabelsPath:      getEnv("LABELS_PATH", ""),
		ModelInputSize:  getEnvAsInt("MODEL_INPUT_SIZE", 300),

		ThresholdsPath: getEnv("THRESHOLDS_PATH", ""),
		Thresholds:     getEnv("THRESHOLDS", ""),

		ScanInterval:       scanInterval,
		PlaybackSpeed:      playbackSpeed,
		DetectionInterval:  getEnvAsDuration("DETECTION_INTERVAL_MS", time.Millisecond, 50*time.Millisecond),
		StreamInterval:     getEnvAsDuration("STREAM_INTERVAL_MS", time.Millisecond, 50*time.Millisecond),
		StatusPushInterval: getEnvAsDuration("STATUS_PUSH_INTERVAL_MS", time.Millisecond, time.Second),
		JPEGQuality:        getEnvAsInt("JPEG_QUALITY", 90),

		UploadDirectory: getEnv("UPLOAD_DIR", "uploads"),
		DatabasePath:    getEnv("DB_PATH", "spatial_search.db"),
		StaticDirectory: getEnv("STATIC_DIR", "static"),
		LogDirectory:    getEnv("LOG_DIR", filepath.Join(".", "logs")),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsDuration reads a positive number of units (seconds, milliseconds...).
// Fractional values are accepted so SCAN_INTERVAL=2.5 works.
func getEnvAsDuration(key string, unit, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil && f > 0 {
			return time.Duration(f * float64(unit))
		}
	}
	return defaultValue
}
