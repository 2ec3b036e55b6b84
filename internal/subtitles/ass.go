package subtitles

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"inkcap/internal/captions"
)

const (
	// assStyleName is the single named style every dialogue event references.
	assStyleName = "Caption"

	// Bottom-center alignment with fixed horizontal margins.
	assAlignment    = 2
	assMarginH      = 20
	assOutlineWidth = 2
)

// FormatASSTimestamp renders seconds as H:MM:SS.cc with centisecond
// precision and an unpadded hour field.
func FormatASSTimestamp(seconds float64) string {
	total := int64(math.Round(seconds * 100))
	if total < 0 {
		total = 0
	}
	centis := total % 100
	secs := (total / 100) % 60
	mins := (total / 6000) % 60
	hours := total / 360000
	return fmt.Sprintf("%d:%02d:%02d.%02d", hours, mins, secs, centis)
}

// WriteASS serializes entries as an ASS script sized for the given video
// resolution, with one style derived from the caption style settings. A
// declared background color switches the style to an opaque box
// (BorderStyle 3); otherwise text renders with an outline (BorderStyle 1).
func WriteASS(w io.Writer, entries []captions.Entry, style captions.Style, width, height int) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "[Script Info]\n")
	fmt.Fprintf(bw, "ScriptType: v4.00+\n")
	fmt.Fprintf(bw, "PlayResX: %d\n", width)
	fmt.Fprintf(bw, "PlayResY: %d\n", height)
	fmt.Fprintf(bw, "WrapStyle: 0\n")
	fmt.Fprintf(bw, "ScaledBorderAndShadow: yes\n\n")

	primary := captions.ASSColor(style.Color, 1.0)
	outline := captions.ASSColor(style.StrokeColor, 1.0)

	borderStyle := 1
	shadow := 1
	back := "&H80000000"
	if style.HasBackground() {
		borderStyle = 3
		shadow = 0
		back = captions.ASSColor(style.BackgroundColor, style.BackgroundOpacity)
	}

	bold := 0
	if captions.IsBold(style.FontWeight) {
		bold = -1
	}

	fmt.Fprintf(bw, "[V4+ Styles]\n")
	fmt.Fprintf(bw, "Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding\n")
	fmt.Fprintf(bw, "Style: %s,%s,%g,%s,%s,%s,%s,%d,0,0,0,100,100,0,0,%d,%d,%d,%d,%d,%d,%d,1\n\n",
		assStyleName,
		style.FontFamily,
		style.FontSize,
		primary,
		primary,
		outline,
		back,
		bold,
		borderStyle,
		assOutlineWidth,
		shadow,
		assAlignment,
		assMarginH,
		assMarginH,
		captions.VerticalMargin(height, style.YAlign),
	)

	fmt.Fprintf(bw, "[Events]\n")
	fmt.Fprintf(bw, "Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")
	for _, entry := range entries {
		text := strings.ReplaceAll(strings.TrimSpace(entry.Text), "\n", "\\N")
		if _, err := fmt.Fprintf(bw, "Dialogue: 0,%s,%s,%s,,0,0,0,,%s\n",
			FormatASSTimestamp(entry.Start),
			FormatASSTimestamp(entry.End),
			assStyleName,
			text,
		); err != nil {
			return err
		}
	}

	return bw.Flush()
}

// WriteASSFile writes entries to path in ASS format.
func WriteASSFile(path string, entries []captions.Entry, style captions.Style, width, height int) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create ass: %w", err)
	}
	defer file.Close()
	if err := WriteASS(file, entries, style, width, height); err != nil {
		return fmt.Errorf("write ass: %w", err)
	}
	return nil
}
