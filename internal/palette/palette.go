// Package palette holds the canonical skin tone catalog and its precomputed
// perceptual (CIE-Lab) representation. The model is built once at startup and
// is read-only afterwards, so it is safe for concurrent use.
package palette

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"

	"go-skintone-analyzer/pkg/models"
)

// Entry is one named reference skin tone.
type Entry struct {
	Name  string
	RGB   [3]uint8
	Group string
}

// SkinTones is the canonical tone catalog. Order is significant: it defines
// the index used for composition output and chart placement.
var SkinTones = []Entry{
	{Name: "Porcelain", RGB: [3]uint8{255, 226, 220}, Group: models.GroupCool},
	{Name: "Fair Pink", RGB: [3]uint8{255, 214, 200}, Group: models.GroupCool},
	{Name: "Light Ivory", RGB: [3]uint8{245, 205, 180}, Group: models.GroupNeutral},
	{Name: "Warm Sand", RGB: [3]uint8{235, 190, 160}, Group: models.GroupWarm},
	{Name: "Beige", RGB: [3]uint8{220, 175, 150}, Group: models.GroupNeutral},
	{Name: "Soft Tan", RGB: [3]uint8{205, 160, 130}, Group: models.GroupWarm},
	{Name: "Tan", RGB: [3]uint8{190, 145, 115}, Group: models.GroupWarm},
	{Name: "Honey", RGB: [3]uint8{175, 130, 105}, Group: models.GroupWarm},
	{Name: "Caramel", RGB: [3]uint8{160, 115, 95}, Group: models.GroupWarm},
	{Name: "Chestnut", RGB: [3]uint8{145, 100, 85}, Group: models.GroupWarm},
	{Name: "Bronze", RGB: [3]uint8{130, 85, 70}, Group: models.GroupWarm},
	{Name: "Deep", RGB: [3]uint8{115, 70, 60}, Group: models.GroupCool},
}

// Lab is a color in CIE-Lab with lightness on the conventional 0-100 scale.
// Euclidean distance in this space approximates perceived color difference.
type Lab [3]float64

// Model is a tone catalog with each entry converted once to Lab. Entry i of
// the catalog corresponds to lab[i].
type Model struct {
	entries []Entry
	lab     []Lab
}

// NewModel validates the catalog and precomputes its Lab representation.
func NewModel(entries []Entry) (*Model, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("palette catalog is empty")
	}

	seen := make(map[string]bool, len(entries))
	lab := make([]Lab, len(entries))
	for i, e := range entries {
		if e.Name == "" {
			return nil, fmt.Errorf("palette entry %d has no name", i)
		}
		if seen[e.Name] {
			return nil, fmt.Errorf("duplicate palette entry %q", e.Name)
		}
		seen[e.Name] = true

		switch e.Group {
		case models.GroupWarm, models.GroupCool, models.GroupNeutral:
		default:
			return nil, fmt.Errorf("palette entry %q has invalid group %q", e.Name, e.Group)
		}

		lab[i] = RGBToLab(e.RGB[0], e.RGB[1], e.RGB[2])
	}

	if len(lab) != len(entries) {
		return nil, fmt.Errorf("lab array length %d does not match catalog length %d", len(lab), len(entries))
	}

	return &Model{entries: entries, lab: lab}, nil
}

// Default returns the model for the canonical catalog. The catalog is a
// compile-time constant, so a validation failure here is a build defect and
// panics.
func Default() *Model {
	m, err := NewModel(SkinTones)
	if err != nil {
		panic(fmt.Sprintf("palette: invalid canonical catalog: %v", err))
	}
	return m
}

// Len returns the number of catalog entries.
func (m *Model) Len() int {
	return len(m.entries)
}

// Entry returns the catalog entry at index i.
func (m *Model) Entry(i int) Entry {
	return m.entries[i]
}

// Lab returns the precomputed Lab color for catalog index i.
func (m *Model) Lab(i int) Lab {
	return m.lab[i]
}

// RGBToLab converts 8-bit sRGB channels to CIE-Lab under D65, the same
// transform applied to palette entries and sampled skin pixels.
func RGBToLab(r, g, b uint8) Lab {
	c := colorful.Color{
		R: float64(r) / 255.0,
		G: float64(g) / 255.0,
		B: float64(b) / 255.0,
	}
	l, a, bb := c.Lab()
	// go-colorful scales Lab to ~[0,1]; restore the conventional 0-100
	// lightness scale so distances match the usual CIE-Lab magnitudes.
	return Lab{l * 100, a * 100, bb * 100}
}
