package sqlite

import (
	"fmt"

	"spatialsearch/internal/model"
)

// SpatialLogRepository implements repository.SpatialLogRepository for SQLite.
type SpatialLogRepository struct {
	db *DB
}

// NewSpatialLogRepository creates a new SQLite spatial log repository.
func NewSpatialLogRepository(db *DB) *SpatialLogRepository {
	return &SpatialLogRepository{db: db}
}

// InsertBatch adds all logs in a single transaction: either every row is
// committed or none is.
func (r *SpatialLogRepository) InsertBatch(logs []model.SpatialLog) error {
	if len(logs) == 0 {
		return nil
	}

	r.db.Lock()
	defer r.db.Unlock()

	tx, err := r.db.Conn().Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO spatial_logs (object_name, x_coord, y_coord, w_coord, h_coord, confidence, timestamp, image_filename)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, l := range logs {
		if _, err := stmt.Exec(l.ObjectName, l.X, l.Y, l.W, l.H, l.Confidence, l.Timestamp.UTC(), l.ImageFilename); err != nil {
			return fmt.Errorf("failed to insert spatial log: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetAll returns every log ordered by timestamp ascending (insertion order on ties).
func (r *SpatialLogRepository) GetAll() ([]model.SpatialLog, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`
		SELECT id, object_name, x_coord, y_coord, w_coord, h_coord, confidence, timestamp, image_filename
		FROM spatial_logs
		ORDER BY timestamp ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query spatial logs: %w", err)
	}
	defer rows.Close()

	logs := []model.SpatialLog{}
	for rows.Next() {
		var l model.SpatialLog
		if err := rows.Scan(&l.ID, &l.ObjectName, &l.X, &l.Y, &l.W, &l.H, &l.Confidence, &l.Timestamp, &l.ImageFilename); err != nil {
			return nil, fmt.Errorf("failed to scan spatial log: %w", err)
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate spatial logs: %w", err)
	}

	return logs, nil
}

// CountByObject returns how many logs exist per object name.
func (r *SpatialLogRepository) CountByObject() (map[string]int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`SELECT object_name, COUNT(*) FROM spatial_logs GROUP BY object_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to count spatial logs: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var name string
		var count int
		if err := rows.Scan(&name, &count); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[name] = count
	}

	return counts, rows.Err()
}

// GetImageFilenames returns the distinct snapshot filenames referenced by logs.
func (r *SpatialLogRepository) GetImageFilenames() ([]string, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`SELECT DISTINCT image_filename FROM spatial_logs ORDER BY image_filename`)
	if err != nil {
		return nil, fmt.Errorf("failed to query image filenames: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan image filename: %w", err)
		}
		names = append(names, name)
	}

	return names, rows.Err()
}

// DeleteAll removes every log.
func (r *SpatialLogRepository) DeleteAll() error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(`DELETE FROM spatial_logs`); err != nil {
		return fmt.Errorf("failed to delete spatial logs: %w", err)
	}
	return nil
}
