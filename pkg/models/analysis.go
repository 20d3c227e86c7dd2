package models

import (
	"encoding/json"
	"time"
)

// Analysis status values reported to clients.
const (
	StatusAnalysisComplete = "analysis_complete"
	StatusError            = "error"
)

// Palette group tags. Every palette entry carries exactly one of these.
const (
	GroupWarm    = "warm"
	GroupCool    = "cool"
	GroupNeutral = "neutral"
)

// AnalysisTypeSkinTone is the analysis_type stored for skin tone records.
const AnalysisTypeSkinTone = "skin_tone"

// CompositionEntry is a single palette tone's share of the observed skin
// color. Entries are always emitted in catalog order.
type CompositionEntry struct {
	Name       string  `json:"name"`
	Percentage float64 `json:"percentage"`
	Group      string  `json:"group"`
}

// ClassificationResult is the output of one skin tone classification.
// The exported JSON shape round-trips losslessly so stored results can be
// replayed without recomputation. Raw fields are rendering inputs only and
// are never serialized.
type ClassificationResult struct {
	Status              string             `json:"status"`
	BestMatch           string             `json:"best_match"`
	WarmCoolNeutralBase map[string]float64 `json:"warm_cool_neutral_base"`
	DetailedComposition []CompositionEntry `json:"detailed_composition"`

	// Raw artifacts consumed by chart rendering, aligned to catalog order.
	Weights      []float64          `json:"-"`
	GroupWeights map[string]float64 `json:"-"`
	BestIdx      int                `json:"-"`
}

// SkinToneReport is the persisted result shape: the classification plus the
// rendered chart artifacts.
type SkinToneReport struct {
	ClassificationResult
	AnalysisPlotBase64     string `json:"analysis_plot_base64,omitempty"`
	AnalysisRosePlotBase64 string `json:"analysis_rose_plot_base64,omitempty"`
}

// AnalysisRecord mirrors one row of the analysis_records table.
type AnalysisRecord struct {
	ID             int64           `json:"id"`
	PatientID      int64           `json:"patient_id"`
	AnalysisType   string          `json:"analysis_type"`
	AnalysisResult json.RawMessage `json:"analysis_result"`
	CreatedAt      time.Time       `json:"created_at"`
}
