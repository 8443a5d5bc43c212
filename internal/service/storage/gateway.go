package storage

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"spatialsearch/internal/dto"
	"spatialsearch/internal/logger"
	"spatialsearch/internal/model"
	"spatialsearch/internal/repository"
	"spatialsearch/internal/service/state"
)

// ErrNoCandidates is returned when Persist is called with nothing to store.
var ErrNoCandidates = errors.New("no candidates to persist")

// JPEGEncoder turns a frame into JPEG bytes.
type JPEGEncoder interface {
	EncodeJPEG(frame *state.Frame) ([]byte, error)
}

// Gateway writes scan-window snapshots to disk and their detections to the
// spatial log. The image is always complete on disk before any row
// referencing it is committed.
type Gateway struct {
	snapshotDir string
	encoder     JPEGEncoder
	repo        repository.SpatialLogRepository
	logger      *logger.Logger
}

// NewGateway creates a Gateway storing snapshots under snapshotDir.
func NewGateway(snapshotDir string, encoder JPEGEncoder, repo repository.SpatialLogRepository, logger *logger.Logger) *Gateway {
	return &Gateway{
		snapshotDir: snapshotDir,
		encoder:     encoder,
		repo:        repo,
		logger:      logger,
	}
}

// SnapshotFilename derives the snapshot name from the trigger instant.
func SnapshotFilename(at time.Time) string {
	return fmt.Sprintf("snap_%d.jpg", at.Unix())
}

// Persist stores frame as the snapshot of the window triggered at `at` and
// commits one row per candidate in a single batch. A failed image write aborts
// before any row is written.
func (g *Gateway) Persist(at time.Time, frame *state.Frame, candidates []dto.DetectionCandidate) error {
	if len(candidates) == 0 {
		return ErrNoCandidates
	}

	data, err := g.encoder.EncodeJPEG(frame)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	filename := SnapshotFilename(at)
	if err := g.writeSnapshot(filename, data); err != nil {
		return err
	}

	logs := make([]model.SpatialLog, 0, len(candidates))
	for _, c := range candidates {
		logs = append(logs, NewSpatialLog(c, at, filename))
	}

	if err := g.repo.InsertBatch(logs); err != nil {
		// The snapshot stays behind as an orphan; cmd/audit can prune it.
		return fmt.Errorf("failed to commit %d spatial logs for %s: %w", len(logs), filename, err)
	}

	return nil
}

// writeSnapshot writes through a temporary file so the final name only ever
// points at a complete image.
func (g *Gateway) writeSnapshot(filename string, data []byte) error {
	if err := os.MkdirAll(g.snapshotDir, 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	tmp, err := os.CreateTemp(g.snapshotDir, ".snap-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create snapshot file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write snapshot %s: %w", filename, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close snapshot %s: %w", filename, err)
	}

	if err := os.Rename(tmpName, filepath.Join(g.snapshotDir, filename)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to finalize snapshot %s: %w", filename, err)
	}
	return nil
}

// Reset deletes every spatial log and every file in the snapshot directory.
// It is not serialized against a concurrent Persist.
func (g *Gateway) Reset() error {
	if err := g.repo.DeleteAll(); err != nil {
		return err
	}

	entries, err := os.ReadDir(g.snapshotDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read snapshot directory: %w", err)
	}

	var firstErr error
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(g.snapshotDir, entry.Name())
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			g.logger.Error("Error deleting snapshot %s: %v", entry.Name(), err)
			if firstErr == nil {
				firstErr = fmt.Errorf("failed to delete snapshot %s: %w", entry.Name(), err)
			}
			continue
		}
		removed++
	}

	g.logger.Info("🧹 Spatial log cleared, %d snapshot(s) removed from %s", removed, g.snapshotDir)
	return firstErr
}

// NewSpatialLog converts a normalized candidate into a percent-space row.
func NewSpatialLog(c dto.DetectionCandidate, at time.Time, filename string) model.SpatialLog {
	return model.SpatialLog{
		ObjectName:    c.Label,
		X:             round(c.Box.X1*100, 2),
		Y:             round(c.Box.Y1*100, 2),
		W:             round((c.Box.X2-c.Box.X1)*100, 2),
		H:             round((c.Box.Y2-c.Box.Y1)*100, 2),
		Confidence:    round(c.Confidence, 4),
		Timestamp:     at.UTC(),
		ImageFilename: filename,
	}
}

func round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
