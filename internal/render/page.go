package render

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"inkcap/internal/captions"
)

// measurement is the layout snapshot the page script reports for the caption
// element after each font-size adjustment.
type measurement struct {
	Width    float64 `json:"width"`
	Top      float64 `json:"top"`
	Bottom   float64 `json:"bottom"`
	FontSize float64 `json:"fontSize"`
}

const measureScript = `(() => {
	const el = document.getElementById('caption');
	const rect = el.getBoundingClientRect();
	const fontSize = parseFloat(window.getComputedStyle(el).fontSize);
	return {width: rect.width, top: rect.top, bottom: rect.bottom, fontSize: fontSize};
})()`

// buildPage produces the HTML document captions are laid out on. The canvas
// matches the video dimensions, the caption box is horizontally centered and
// anchored at the style's vertical percentage, and the body stays transparent
// so screenshots keep their alpha channel.
func buildPage(style captions.Style, width, height int, fontFile string) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<style>\n")
	if fontFile != "" {
		fmt.Fprintf(&b, "@font-face { font-family: %q; src: url(%q); }\n", style.FontFamily, fileURL(fontFile))
	}
	fmt.Fprintf(&b, "html, body { margin: 0; padding: 0; width: %dpx; height: %dpx; background: transparent; overflow: hidden; }\n", width, height)
	fmt.Fprintf(&b, "#caption-box { position: absolute; left: 0; width: 100%%; top: %g%%; transform: translateY(-50%%); text-align: center; }\n", style.YAlign)
	b.WriteString("#caption {\n")
	b.WriteString("  display: inline-block;\n")
	fmt.Fprintf(&b, "  font-family: %q, sans-serif;\n", style.FontFamily)
	fmt.Fprintf(&b, "  font-size: %gpx;\n", style.FontSize)
	fmt.Fprintf(&b, "  font-weight: %d;\n", captions.FontWeightValue(style.FontWeight))
	fmt.Fprintf(&b, "  color: %s;\n", cssColor(style.Color))
	if style.HasBackground() {
		fmt.Fprintf(&b, "  background-color: %s;\n", captions.CSSBackground(style.BackgroundColor, style.BackgroundOpacity))
		b.WriteString("  padding: 8px 16px;\n")
		b.WriteString("  border-radius: 8px;\n")
	}
	b.WriteString("  text-shadow: 2px 2px 4px rgba(0, 0, 0, 0.8);\n")
	b.WriteString("  text-align: center;\n")
	b.WriteString("  white-space: pre-wrap;\n")
	b.WriteString("}\n</style>\n</head>\n<body><div id=\"caption-box\"><span id=\"caption\"></span></div></body>\n</html>\n")
	return b.String()
}

// writePage saves the caption document into the working directory and returns
// a file:// URL the browser can navigate to.
func writePage(dir string, style captions.Style, width, height int, fontFile string) (string, error) {
	path := filepath.Join(dir, "caption.html")
	if err := os.WriteFile(path, []byte(buildPage(style, width, height, fontFile)), 0o644); err != nil {
		return "", fmt.Errorf("write caption page: %w", err)
	}
	return fileURL(path), nil
}

func fileURL(path string) string {
	return "file://" + filepath.ToSlash(path)
}

// cssColor passes hex colors through and falls back to white for anything the
// translator cannot parse, mirroring the markup writer's default.
func cssColor(hex string) string {
	if _, _, _, err := captions.ParseHexColor(hex); err != nil {
		return "#FFFFFF"
	}
	if !strings.HasPrefix(hex, "#") {
		return "#" + hex
	}
	return hex
}
