package repository

import (
	"context"

	"go-skintone-analyzer/pkg/models"
)

// RecordRepository defines the data access operations for analysis records.
type RecordRepository interface {
	// SaveRecord stores a new analysis record and returns its id.
	SaveRecord(ctx context.Context, record *models.AnalysisRecord) (int64, error)

	// GetRecord retrieves a single record by id.
	GetRecord(ctx context.Context, id int64) (*models.AnalysisRecord, error)

	// ListRecords retrieves records matching the filter, newest first.
	ListRecords(ctx context.Context, filter RecordFilter) ([]*models.AnalysisRecord, error)
}

// RecordFilter narrows a record listing. Zero-valued fields are ignored.
type RecordFilter struct {
	PatientID    int64
	AnalysisType string
}
