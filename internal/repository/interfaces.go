package repository

import "surveillance/internal/models"

// EvidenceRepository defines the interface for the evidence catalog.
type EvidenceRepository interface {
	// Create operations
	Insert(rec *models.EvidenceRecord) (int64, error)

	// Read operations
	GetByFilename(filename string) (*models.EvidenceRecord, error)
	GetAll(filter *models.EvidenceFilter) ([]models.EvidenceRecord, error)
	Count(filter *models.EvidenceFilter) (int, error)
	GetStats() (*models.EvidenceStats, error)

	// Delete operations
	DeleteByFilename(filename string) error
	DeleteAll() error
}
