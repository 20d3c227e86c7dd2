package service

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"sort"
	"testing"

	"go-skintone-analyzer/internal/analyzer"
	apperrors "go-skintone-analyzer/internal/errors"
	"go-skintone-analyzer/internal/landmark"
	"go-skintone-analyzer/internal/palette"
	"go-skintone-analyzer/internal/render"
	"go-skintone-analyzer/internal/repository"
	"go-skintone-analyzer/internal/storage"
	"go-skintone-analyzer/pkg/models"
)

// memoryRepo is an in-memory RecordRepository for service tests.
type memoryRepo struct {
	records map[int64]*models.AnalysisRecord
	nextID  int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{records: map[int64]*models.AnalysisRecord{}}
}

func (m *memoryRepo) SaveRecord(_ context.Context, record *models.AnalysisRecord) (int64, error) {
	m.nextID++
	stored := *record
	stored.ID = m.nextID
	m.records[m.nextID] = &stored
	return m.nextID, nil
}

func (m *memoryRepo) GetRecord(_ context.Context, id int64) (*models.AnalysisRecord, error) {
	record, ok := m.records[id]
	if !ok {
		return nil, repository.ErrRecordNotFound
	}
	return record, nil
}

func (m *memoryRepo) ListRecords(_ context.Context, filter repository.RecordFilter) ([]*models.AnalysisRecord, error) {
	var out []*models.AnalysisRecord
	for _, record := range m.records {
		if filter.PatientID != 0 && record.PatientID != filter.PatientID {
			continue
		}
		if filter.AnalysisType != "" && record.AnalysisType != filter.AnalysisType {
			continue
		}
		out = append(out, record)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func encodeTestImage(t *testing.T, fill color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			img.Set(x, y, fill)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

func newTestService(repo repository.RecordRepository, detector landmark.Provider) SkinToneService {
	model := palette.Default()
	return NewSkinToneService(
		repo,
		detector,
		analyzer.NewToneClassifier(model, landmark.FaceMeshExclusions()),
		render.NewChartRenderer(model),
		storage.NewNoopArchiver(),
	)
}

func TestAnalyzeSkinTone_HoneyPipeline(t *testing.T) {
	repo := newMemoryRepo()
	detector := &landmark.StaticProvider{Points: []landmark.Point{{X: 0.5, Y: 0.5}}}
	svc := newTestService(repo, detector)

	imageData := encodeTestImage(t, color.RGBA{175, 130, 105, 255}) // Honey
	record, err := svc.AnalyzeSkinTone(context.Background(), 42, imageData)
	if err != nil {
		t.Fatalf("AnalyzeSkinTone failed: %v", err)
	}

	if record.ID <= 0 {
		t.Errorf("expected persisted record id, got %d", record.ID)
	}
	if record.AnalysisType != models.AnalysisTypeSkinTone {
		t.Errorf("analysis type: got %q", record.AnalysisType)
	}

	var report models.SkinToneReport
	if err := json.Unmarshal(record.AnalysisResult, &report); err != nil {
		t.Fatalf("stored result is not valid JSON: %v", err)
	}
	if report.Status != models.StatusAnalysisComplete {
		t.Errorf("status: got %q", report.Status)
	}
	if report.BestMatch != "Honey" {
		t.Errorf("best match: got %q, want Honey", report.BestMatch)
	}
	if report.AnalysisPlotBase64 == "" || report.AnalysisRosePlotBase64 == "" {
		t.Error("expected both chart artifacts to be rendered")
	}
	if len(report.DetailedComposition) != 12 {
		t.Errorf("composition length: got %d, want 12", len(report.DetailedComposition))
	}

	// The record must be readable back through the service.
	loaded, err := svc.GetRecord(context.Background(), record.ID)
	if err != nil {
		t.Fatalf("GetRecord failed: %v", err)
	}
	if !bytes.Equal(loaded.AnalysisResult, record.AnalysisResult) {
		t.Error("stored result does not round-trip")
	}
}

func TestAnalyzeSkinTone_NoFace(t *testing.T) {
	svc := newTestService(newMemoryRepo(), &landmark.StaticProvider{})

	imageData := encodeTestImage(t, color.RGBA{200, 160, 140, 255})
	_, err := svc.AnalyzeSkinTone(context.Background(), 1, imageData)
	if err == nil {
		t.Fatal("expected error for empty landmark set")
	}
	if !apperrors.IsType(err, apperrors.ErrorTypeProcessing) {
		t.Errorf("expected processing error, got %v", err)
	}
}

func TestAnalyzeSkinTone_UndecodableImage(t *testing.T) {
	svc := newTestService(newMemoryRepo(), &landmark.StaticProvider{Points: []landmark.Point{{X: 0.5, Y: 0.5}}})

	_, err := svc.AnalyzeSkinTone(context.Background(), 1, []byte("not an image"))
	if err == nil {
		t.Fatal("expected error for undecodable payload")
	}
	if !apperrors.IsType(err, apperrors.ErrorTypeValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestAnalyzeSkinTone_InvalidPatient(t *testing.T) {
	svc := newTestService(newMemoryRepo(), &landmark.StaticProvider{Points: []landmark.Point{{X: 0.5, Y: 0.5}}})

	imageData := encodeTestImage(t, color.RGBA{200, 160, 140, 255})
	if _, err := svc.AnalyzeSkinTone(context.Background(), 0, imageData); err == nil {
		t.Fatal("expected error for non-positive patient id")
	}
}

func TestGetRecord_NotFoundMapsTo404(t *testing.T) {
	svc := newTestService(newMemoryRepo(), &landmark.StaticProvider{})

	_, err := svc.GetRecord(context.Background(), 123)
	if err == nil {
		t.Fatal("expected error for missing record")
	}
	if apperrors.GetStatusCode(err) != 404 {
		t.Errorf("status code: got %d, want 404", apperrors.GetStatusCode(err))
	}
}
