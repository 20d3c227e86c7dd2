// Package landmark defines the facial landmark contract the classifier
// depends on. Detectors are external; this package only fixes the shape of
// their output and which landmark indices count as skin.
package landmark

import (
	"context"
	"image"
)

// Point is one detected landmark in image-relative fractional coordinates,
// each axis in [0,1] relative to image width and height.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Provider locates the landmark set of the primary face in an image.
// Implementations return points in the detector's canonical index order.
// An empty slice with a nil error means no face was found.
type Provider interface {
	Detect(ctx context.Context, img image.Image) ([]Point, error)
}

// ExcludeFunc reports whether the landmark at canonical index i must be
// excluded from skin sampling. The predicate is detector-specific, so a
// different detector's indexing can be substituted without touching the
// classifier.
type ExcludeFunc func(i int) bool

// FaceMesh index ranges for regions that bias skin sampling (lip pigment,
// eye color, cosmetics). Both ranges are inclusive.
const (
	faceMeshMouthStart = 61
	faceMeshMouthEnd   = 88
	faceMeshEyesStart  = 33
	faceMeshEyesEnd    = 132
)

// FaceMeshExclusions returns the exclusion predicate for the MediaPipe
// FaceMesh indexing scheme: the mouth and eye regions are skipped.
func FaceMeshExclusions() ExcludeFunc {
	return func(i int) bool {
		if i >= faceMeshMouthStart && i <= faceMeshMouthEnd {
			return true
		}
		return i >= faceMeshEyesStart && i <= faceMeshEyesEnd
	}
}

// ExcludeNone keeps every landmark. Useful for detectors whose output is
// already restricted to skin points.
func ExcludeNone() ExcludeFunc {
	return func(int) bool { return false }
}

// StaticProvider returns a fixed landmark set regardless of input. It backs
// tests and offline development where no detector sidecar is running.
type StaticProvider struct {
	Points []Point
}

// Detect returns the configured points.
func (p *StaticProvider) Detect(_ context.Context, _ image.Image) ([]Point, error) {
	return p.Points, nil
}
