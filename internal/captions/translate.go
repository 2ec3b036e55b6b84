package captions

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// defaultASSColor is opaque white, the substitute for malformed hex input.
const defaultASSColor = "&H00FFFFFF"

// ParseHexColor decodes a #RRGGBB string into its byte components.
func ParseHexColor(value string) (r, g, b uint8, err error) {
	hex := strings.TrimPrefix(strings.TrimSpace(value), "#")
	if len(hex) != 6 {
		return 0, 0, 0, fmt.Errorf("hex color %q: want 6 digits", value)
	}
	parsed, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("hex color %q: %w", value, err)
	}
	return uint8(parsed >> 16), uint8(parsed >> 8), uint8(parsed), nil
}

// ASSColor converts a hex color plus an opacity in [0,1] into the ASS
// &HAABBGGRR token. The alpha byte inverts the opacity (0 is opaque) and the
// color bytes are emitted blue-green-red. Malformed input yields opaque
// white.
func ASSColor(hex string, opacity float64) string {
	r, g, b, err := ParseHexColor(hex)
	if err != nil {
		return defaultASSColor
	}
	alpha := int(math.Round((1 - clampUnit(opacity)) * 255))
	return fmt.Sprintf("&H%02X%02X%02X%02X", alpha, b, g, r)
}

// CSSBackground converts a hex color plus an opacity in [0,1] into a CSS
// rgba() token with the opacity carried straight (not inverted). This is the
// image renderer's encoding and must not be confused with ASSColor's.
func CSSBackground(hex string, opacity float64) string {
	r, g, b, err := ParseHexColor(hex)
	if err != nil {
		r, g, b = 0, 0, 0
	}
	return fmt.Sprintf("rgba(%d, %d, %d, %s)", r, g, b,
		strconv.FormatFloat(clampUnit(opacity), 'g', -1, 64))
}

// VerticalMargin converts a yAlign percentage (distance from the top) into
// the bottom-anchored margin for a video of the given height. yAlign 100 puts
// the caption at the very bottom (margin 0); 0 pins it to the top.
func VerticalMargin(videoHeight int, yAlign float64) int {
	return int(math.Round(float64(videoHeight) * (1 - yAlign/100)))
}

// FontWeightValue parses a CSS-style font weight. Unparseable input counts
// as regular weight.
func FontWeightValue(weight string) int {
	w := strings.ToLower(strings.TrimSpace(weight))
	switch w {
	case "bold":
		return 700
	case "normal", "":
		return 400
	}
	if value, err := strconv.Atoi(w); err == nil && value > 0 {
		return value
	}
	return 400
}

// IsBold reports whether a font weight renders bold (600 and up).
func IsBold(weight string) bool {
	return FontWeightValue(weight) >= 600
}

// ResolveFontFile looks for a font file named after the family inside dir.
// Callers fall back to the family name alone when no file is found.
func ResolveFontFile(dir, family string) (string, bool) {
	if strings.TrimSpace(dir) == "" || strings.TrimSpace(family) == "" {
		return "", false
	}
	for _, ext := range []string{".ttf", ".otf", ".ttc"} {
		candidate := filepath.Join(dir, family+ext)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
	}
	return "", false
}

func clampUnit(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}
