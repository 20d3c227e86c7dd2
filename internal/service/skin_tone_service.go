package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"time"

	"github.com/sirupsen/logrus"

	"go-skintone-analyzer/internal/analyzer"
	apperrors "go-skintone-analyzer/internal/errors"
	"go-skintone-analyzer/internal/landmark"
	"go-skintone-analyzer/internal/logger"
	"go-skintone-analyzer/internal/render"
	"go-skintone-analyzer/internal/repository"
	"go-skintone-analyzer/internal/storage"
	"go-skintone-analyzer/pkg/models"
)

// SkinToneService orchestrates one analysis request: decode the upload,
// detect landmarks, classify, render charts, persist the record.
type SkinToneService interface {
	AnalyzeSkinTone(ctx context.Context, patientID int64, imageData []byte) (*models.AnalysisRecord, error)
	GetRecord(ctx context.Context, id int64) (*models.AnalysisRecord, error)
	ListRecords(ctx context.Context, filter repository.RecordFilter) ([]*models.AnalysisRecord, error)
}

type skinToneService struct {
	records    repository.RecordRepository
	detector   landmark.Provider
	classifier *analyzer.ToneClassifier
	renderer   *render.ChartRenderer
	archiver   storage.ImageArchiver
}

// NewSkinToneService wires the analysis pipeline.
func NewSkinToneService(
	records repository.RecordRepository,
	detector landmark.Provider,
	classifier *analyzer.ToneClassifier,
	renderer *render.ChartRenderer,
	archiver storage.ImageArchiver,
) SkinToneService {
	return &skinToneService{
		records:    records,
		detector:   detector,
		classifier: classifier,
		renderer:   renderer,
		archiver:   archiver,
	}
}

func (s *skinToneService) AnalyzeSkinTone(ctx context.Context, patientID int64, imageData []byte) (*models.AnalysisRecord, error) {
	if patientID <= 0 {
		return nil, apperrors.NewValidationError("patient_id must be a positive integer", nil)
	}
	if len(imageData) == 0 {
		return nil, apperrors.NewValidationError("uploaded image is empty", nil)
	}

	img, format, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return nil, apperrors.NewValidationError("cannot decode uploaded image", err)
	}

	points, err := s.detector.Detect(ctx, img)
	if err != nil {
		return nil, apperrors.NewNetworkError("landmark detection failed", err)
	}

	result, err := s.classifier.Classify(img, points)
	if err != nil {
		return nil, classificationError(err)
	}

	report := models.SkinToneReport{ClassificationResult: *result}
	report.AnalysisPlotBase64, err = s.renderer.CompositePlot(result.Weights, result.GroupWeights, result.BestIdx)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to render composition chart", err)
	}
	report.AnalysisRosePlotBase64, err = s.renderer.RosePlot(result.Weights)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to render rose chart", err)
	}

	payload, err := json.Marshal(report)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to serialize analysis result", err)
	}

	record := &models.AnalysisRecord{
		PatientID:      patientID,
		AnalysisType:   models.AnalysisTypeSkinTone,
		AnalysisResult: payload,
		CreatedAt:      time.Now().UTC(),
	}
	id, err := s.records.SaveRecord(ctx, record)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to persist analysis record", err)
	}
	record.ID = id

	// Best-effort archive of the original upload; never fails the request.
	name := fmt.Sprintf("%s/%d.%s", models.AnalysisTypeSkinTone, id, format)
	if err := s.archiver.ArchiveImage(ctx, name, imageData); err != nil {
		logger.WithError(err).WithFields(logrus.Fields{
			"record_id": id,
			"blob":      name,
		}).Warn("Failed to archive uploaded image")
	}

	return record, nil
}

func (s *skinToneService) GetRecord(ctx context.Context, id int64) (*models.AnalysisRecord, error) {
	record, err := s.records.GetRecord(ctx, id)
	if errors.Is(err, repository.ErrRecordNotFound) {
		return nil, apperrors.NewNotFoundError("analysis record not found", err)
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load analysis record", err)
	}
	return record, nil
}

func (s *skinToneService) ListRecords(ctx context.Context, filter repository.RecordFilter) ([]*models.AnalysisRecord, error) {
	records, err := s.records.ListRecords(ctx, filter)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list analysis records", err)
	}
	return records, nil
}

// classificationError maps the classifier's expected failures onto the
// application error taxonomy. No-face and no-skin-pixels are user conditions
// (a different photo is needed), not server faults.
func classificationError(err error) *apperrors.AppError {
	switch {
	case errors.Is(err, analyzer.ErrNoFaceDetected):
		return apperrors.NewProcessingError("no face detected in the image", err)
	case errors.Is(err, analyzer.ErrNoValidSkinPixels):
		return apperrors.NewProcessingError("face detected, but no valid skin pixels found", err)
	case errors.Is(err, analyzer.ErrInvalidImage):
		return apperrors.NewValidationError("image is empty or malformed", err)
	default:
		return apperrors.NewInternalError("classification failed", err)
	}
}
