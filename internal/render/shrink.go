package render

import (
	"fmt"
	"image"
	"image/png"
	"os"
)

// shrinkParams bound the font-shrink loop. Caption text length is unbounded,
// so oversized entries are scaled down until they fit the frame or hit the
// floor.
type shrinkParams struct {
	MinFontSize      float64
	Factor           float64
	MaxWidthFraction float64
	MaxIterations    int
}

// overflows reports whether the measured caption escapes the canvas: wider
// than the allowed fraction of the width, or past the top or bottom edge.
func (p shrinkParams) overflows(m measurement, canvasWidth, canvasHeight int) bool {
	if m.Width > p.MaxWidthFraction*float64(canvasWidth) {
		return true
	}
	return m.Top < 0 || m.Bottom > float64(canvasHeight)
}

// next returns the reduced font size and whether shrinking may continue.
func (p shrinkParams) next(fontSize float64) (float64, bool) {
	reduced := fontSize * p.Factor
	if reduced < p.MinFontSize {
		return fontSize, false
	}
	return reduced, true
}

// WriteBlankPNG writes a fully transparent image at the canvas size. Filler
// frames between caption entries use it so the overlay track never flashes.
func WriteBlankPNG(path string, width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("blank png: invalid dimensions %dx%d", width, height)
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("blank png: %w", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("blank png encode: %w", err)
	}
	return f.Close()
}
