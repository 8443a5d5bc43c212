package repository

import "spatialsearch/internal/model"

// SpatialLogRepository is the persistence collaborator of the pipeline.
type SpatialLogRepository interface {
	// Create operations
	InsertBatch(logs []model.SpatialLog) error

	// Read operations
	GetAll() ([]model.SpatialLog, error) // ascending by timestamp
	CountByObject() (map[string]int, error)
	GetImageFilenames() ([]string, error)

	// Delete operations
	DeleteAll() error
}
