package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"spatialsearch/internal/repository"
)

// AuditReport compares the snapshot directory with the spatial log.
type AuditReport struct {
	// OrphanFiles are snapshots no row references, left behind when a row
	// commit failed or a reset raced a persist.
	OrphanFiles []string
	// MissingFiles are referenced by rows but absent on disk.
	MissingFiles []string
	// Referenced is the number of distinct snapshots rows point at.
	Referenced int
}

// Audit lists snapshot files and rows that do not match up. Temporary files
// of in-flight writes are ignored.
func Audit(snapshotDir string, repo repository.SpatialLogRepository) (*AuditReport, error) {
	referenced, err := repo.GetImageFilenames()
	if err != nil {
		return nil, fmt.Errorf("failed to read referenced snapshots: %w", err)
	}

	onDisk := make(map[string]bool)
	entries, err := os.ReadDir(snapshotDir)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read snapshot directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".snap-") {
			continue
		}
		onDisk[entry.Name()] = true
	}

	report := &AuditReport{Referenced: len(referenced)}
	for _, name := range referenced {
		if onDisk[name] {
			delete(onDisk, name)
			continue
		}
		report.MissingFiles = append(report.MissingFiles, name)
	}
	for name := range onDisk {
		report.OrphanFiles = append(report.OrphanFiles, name)
	}
	sort.Strings(report.OrphanFiles)
	sort.Strings(report.MissingFiles)

	return report, nil
}

// PruneOrphans deletes the report's orphan files and returns how many were removed.
func PruneOrphans(snapshotDir string, report *AuditReport) (int, error) {
	removed := 0
	for _, name := range report.OrphanFiles {
		if err := os.Remove(filepath.Join(snapshotDir, name)); err != nil && !os.IsNotExist(err) {
			return removed, fmt.Errorf("failed to delete %s: %w", name, err)
		}
		removed++
	}
	return removed, nil
}
