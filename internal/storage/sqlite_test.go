package storage

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"go-skintone-analyzer/internal/repository"
	"go-skintone-analyzer/pkg/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testRecord(patientID int64) *models.AnalysisRecord {
	result, _ := json.Marshal(map[string]string{"status": models.StatusAnalysisComplete, "best_match": "Honey"})
	return &models.AnalysisRecord{
		PatientID:      patientID,
		AnalysisType:   models.AnalysisTypeSkinTone,
		AnalysisResult: result,
		CreatedAt:      time.Now().UTC(),
	}
}

func TestSaveAndGetRecord(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	record := testRecord(42)
	id, err := store.SaveRecord(ctx, record)
	if err != nil {
		t.Fatalf("SaveRecord failed: %v", err)
	}
	if id <= 0 {
		t.Fatalf("expected positive id, got %d", id)
	}

	loaded, err := store.GetRecord(ctx, id)
	if err != nil {
		t.Fatalf("GetRecord failed: %v", err)
	}
	if loaded.PatientID != 42 {
		t.Errorf("patient id: got %d, want 42", loaded.PatientID)
	}
	if loaded.AnalysisType != models.AnalysisTypeSkinTone {
		t.Errorf("analysis type: got %q", loaded.AnalysisType)
	}

	// The stored result must round-trip losslessly.
	var decoded map[string]string
	if err := json.Unmarshal(loaded.AnalysisResult, &decoded); err != nil {
		t.Fatalf("stored result is not valid JSON: %v", err)
	}
	if decoded["best_match"] != "Honey" {
		t.Errorf("best match: got %q, want Honey", decoded["best_match"])
	}
}

func TestGetRecord_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetRecord(context.Background(), 9999)
	if !errors.Is(err, repository.ErrRecordNotFound) {
		t.Errorf("got %v, want ErrRecordNotFound", err)
	}
}

func TestSaveRecord_Invalid(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.SaveRecord(ctx, nil); !errors.Is(err, repository.ErrInvalidRecord) {
		t.Errorf("nil record: got %v, want ErrInvalidRecord", err)
	}

	record := testRecord(1)
	record.AnalysisResult = nil
	if _, err := store.SaveRecord(ctx, record); !errors.Is(err, repository.ErrInvalidRecord) {
		t.Errorf("empty result: got %v, want ErrInvalidRecord", err)
	}
}

func TestListRecords_Filtering(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, patientID := range []int64{1, 1, 2} {
		if _, err := store.SaveRecord(ctx, testRecord(patientID)); err != nil {
			t.Fatalf("SaveRecord failed: %v", err)
		}
	}

	all, err := store.ListRecords(ctx, repository.RecordFilter{})
	if err != nil {
		t.Fatalf("ListRecords failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("unfiltered: got %d records, want 3", len(all))
	}

	patient1, err := store.ListRecords(ctx, repository.RecordFilter{PatientID: 1})
	if err != nil {
		t.Fatalf("ListRecords failed: %v", err)
	}
	if len(patient1) != 2 {
		t.Errorf("patient 1: got %d records, want 2", len(patient1))
	}

	none, err := store.ListRecords(ctx, repository.RecordFilter{AnalysisType: "other"})
	if err != nil {
		t.Fatalf("ListRecords failed: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("other type: got %d records, want 0", len(none))
	}
}

func TestListRecords_NewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	older := testRecord(7)
	older.CreatedAt = time.Now().UTC().Add(-time.Hour)
	if _, err := store.SaveRecord(ctx, older); err != nil {
		t.Fatalf("SaveRecord failed: %v", err)
	}
	newer := testRecord(7)
	newerID, err := store.SaveRecord(ctx, newer)
	if err != nil {
		t.Fatalf("SaveRecord failed: %v", err)
	}

	records, err := store.ListRecords(ctx, repository.RecordFilter{PatientID: 7})
	if err != nil {
		t.Fatalf("ListRecords failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].ID != newerID {
		t.Errorf("expected newest record first, got id %d", records[0].ID)
	}
}
