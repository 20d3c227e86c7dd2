// Package analyzer implements skin tone classification: facial landmark
// pixels are sampled from an image, averaged in CIE-Lab, and matched against
// the palette catalog with distance-based weighting.
package analyzer

import (
	"errors"
	"image"
	"math"

	"go-skintone-analyzer/internal/landmark"
	"go-skintone-analyzer/internal/palette"
	"go-skintone-analyzer/pkg/models"
)

// Expected classification failures. These are input conditions, not bugs,
// and are always returned rather than panicked.
var (
	ErrNoFaceDetected    = errors.New("no face detected in the image")
	ErrNoValidSkinPixels = errors.New("face detected, but no valid skin pixels found")
	ErrInvalidImage      = errors.New("image is empty or malformed")
)

// distanceEpsilon guards the inverse-distance weighting against division by
// zero when a sample exactly matches a palette color. The 1/(d+eps) form is
// kept as-is for compatibility with previously stored results.
const distanceEpsilon = 1e-6

// ToneClassifier matches the mean sampled facial skin color against a
// palette model. It holds no per-call state, so a single instance serves
// concurrent requests.
type ToneClassifier struct {
	palette *palette.Model
	exclude landmark.ExcludeFunc
}

// NewToneClassifier builds a classifier over the given palette model. The
// exclusion predicate skips landmark indices (eyes, mouth) that would bias
// the sample; nil means no exclusions.
func NewToneClassifier(m *palette.Model, exclude landmark.ExcludeFunc) *ToneClassifier {
	if exclude == nil {
		exclude = landmark.ExcludeNone()
	}
	return &ToneClassifier{palette: m, exclude: exclude}
}

// Classify computes the weighted palette composition for the face described
// by the landmark set. For a fixed image and landmark set the output is
// fully deterministic.
func (c *ToneClassifier) Classify(img image.Image, points []landmark.Point) (*models.ClassificationResult, error) {
	if img == nil {
		return nil, ErrInvalidImage
	}
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w < 1 || h < 1 {
		return nil, ErrInvalidImage
	}

	if len(points) == 0 {
		return nil, ErrNoFaceDetected
	}

	// Sample every non-excluded landmark that lands inside the image.
	var sumL, sumA, sumB float64
	samples := 0
	for idx, p := range points {
		if c.exclude(idx) {
			continue
		}

		x := int(p.X * float64(w))
		y := int(p.Y * float64(h))
		if x < 0 || x >= w || y < 0 || y >= h {
			continue
		}

		r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
		lab := palette.RGBToLab(uint8(r>>8), uint8(g>>8), uint8(b>>8))
		sumL += lab[0]
		sumA += lab[1]
		sumB += lab[2]
		samples++
	}
	if samples == 0 {
		return nil, ErrNoValidSkinPixels
	}

	mean := palette.Lab{
		sumL / float64(samples),
		sumA / float64(samples),
		sumB / float64(samples),
	}

	// Distance to every palette entry; ties resolve to the lowest catalog
	// index via the strict comparison.
	n := c.palette.Len()
	distances := make([]float64, n)
	bestIdx := 0
	for i := 0; i < n; i++ {
		distances[i] = labDistance(mean, c.palette.Lab(i))
		if distances[i] < distances[bestIdx] {
			bestIdx = i
		}
	}

	weights := make([]float64, n)
	var total float64
	for i, d := range distances {
		weights[i] = 1 / (d + distanceEpsilon)
		total += weights[i]
	}
	for i := range weights {
		weights[i] /= total
	}

	groupWeights := map[string]float64{
		models.GroupWarm:    0,
		models.GroupCool:    0,
		models.GroupNeutral: 0,
	}
	composition := make([]models.CompositionEntry, n)
	for i := 0; i < n; i++ {
		entry := c.palette.Entry(i)
		groupWeights[entry.Group] += weights[i]
		composition[i] = models.CompositionEntry{
			Name:       entry.Name,
			Percentage: weights[i] * 100,
			Group:      entry.Group,
		}
	}

	base := make(map[string]float64, len(groupWeights))
	for group, weight := range groupWeights {
		base[group] = weight * 100
	}

	return &models.ClassificationResult{
		Status:              models.StatusAnalysisComplete,
		BestMatch:           c.palette.Entry(bestIdx).Name,
		WarmCoolNeutralBase: base,
		DetailedComposition: composition,
		Weights:             weights,
		GroupWeights:        groupWeights,
		BestIdx:             bestIdx,
	}, nil
}

func labDistance(a, b palette.Lab) float64 {
	dl := a[0] - b[0]
	da := a[1] - b[1]
	db := a[2] - b[2]
	return math.Sqrt(dl*dl + da*da + db*db)
}
