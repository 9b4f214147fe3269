// Package color assigns stable presentation colors to genre labels for the
// analytics charts.
package color

import (
	"fmt"
	"slices"

	"github.com/shelfmark/shelfmark-server/internal/domain"
)

// UnknownColor is the reserved color for the Unknown sentinel genre. It sits
// outside the palette so unresolved data reads as neutral in every chart.
const UnknownColor = "#9CA3AF"

// paletteSize is the number of distinct chart colors. Genre counts beyond it
// wrap around and reuse colors.
const paletteSize = 12

// palette holds the chart colors, built once from evenly spaced hues with
// fixed saturation and lightness for pleasant, readable stacked charts.
var palette = buildPalette()

func buildPalette() []string {
	colors := make([]string, paletteSize)
	for i := range paletteSize {
		hue := float64(i) * (360.0 / paletteSize)
		r, g, b := hslToRGB(hue, 0.55, 0.55)
		colors[i] = fmt.Sprintf("#%02X%02X%02X", r, g, b)
	}
	return colors
}

// Assign maps each genre to a color. The mapping depends only on the SET of
// genres, never on input order: genres are sorted canonically before cycling
// through the palette. The Unknown sentinel always gets UnknownColor and does
// not consume a palette slot.
func Assign(genres []string) map[string]string {
	sorted := make([]string, 0, len(genres))
	seen := make(map[string]struct{}, len(genres))
	for _, g := range genres {
		if _, dup := seen[g]; dup {
			continue
		}
		seen[g] = struct{}{}
		if g == domain.GenreUnknown {
			continue
		}
		sorted = append(sorted, g)
	}
	slices.Sort(sorted)

	assigned := make(map[string]string, len(seen))
	for i, g := range sorted {
		assigned[g] = palette[i%len(palette)]
	}
	if _, hasUnknown := seen[domain.GenreUnknown]; hasUnknown {
		assigned[domain.GenreUnknown] = UnknownColor
	}
	return assigned
}

// hslToRGB converts HSL color space to RGB.
// h: hue (0-360), s: saturation (0-1), l: lightness (0-1)
// Returns RGB values (0-255).
func hslToRGB(h, s, l float64) (r, g, b uint8) {
	h /= 360.0

	var r1, g1, b1 float64

	if s == 0 {
		// Achromatic (gray)
		r1, g1, b1 = l, l, l
	} else {
		var q float64
		if l < 0.5 {
			q = l * (1 + s)
		} else {
			q = l + s - l*s
		}
		p := 2*l - q

		r1 = hueToRGB(p, q, h+1.0/3.0)
		g1 = hueToRGB(p, q, h)
		b1 = hueToRGB(p, q, h-1.0/3.0)
	}

	r = uint8(r1 * 255)
	g = uint8(g1 * 255)
	b = uint8(b1 * 255)
	return
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t++
	}
	if t > 1 {
		t--
	}
	if t < 1.0/6.0 {
		return p + (q-p)*6*t
	}
	if t < 1.0/2.0 {
		return q
	}
	if t < 2.0/3.0 {
		return p + (q-p)*(2.0/3.0-t)*6
	}
	return p
}
