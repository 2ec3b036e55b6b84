package subtitles

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"inkcap/internal/captions"
)

// FormatSRTTimestamp renders seconds as HH:MM:SS,mmm. Hours grow past two
// digits when needed; negative inputs clamp to zero.
func FormatSRTTimestamp(seconds float64) string {
	total := int64(math.Round(seconds * 1000))
	if total < 0 {
		total = 0
	}
	millis := total % 1000
	secs := (total / 1000) % 60
	mins := (total / 60000) % 60
	hours := total / 3600000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, mins, secs, millis)
}

// WriteSRT serializes entries as SRT cues: 1-based sequential numbers, a
// timing line, the trimmed text, and a blank separator line.
func WriteSRT(w io.Writer, entries []captions.Entry) error {
	bw := bufio.NewWriter(w)
	for i, entry := range entries {
		if _, err := fmt.Fprintf(bw, "%d\n%s --> %s\n%s\n\n",
			i+1,
			FormatSRTTimestamp(entry.Start),
			FormatSRTTimestamp(entry.End),
			strings.TrimSpace(entry.Text),
		); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteSRTFile writes entries to path in SRT format.
func WriteSRTFile(path string, entries []captions.Entry) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create srt: %w", err)
	}
	defer file.Close()
	if err := WriteSRT(file, entries); err != nil {
		return fmt.Errorf("write srt: %w", err)
	}
	return nil
}

// Cue is one parsed SRT block.
type Cue struct {
	Index int
	Start float64
	End   float64
	Text  string
}

// ParseSRT decodes SRT content into cues. Blocks without a valid timing line
// are skipped rather than failing the whole file.
func ParseSRT(data []byte) []Cue {
	content := strings.ReplaceAll(string(data), "\r\n", "\n")
	blocks := strings.Split(strings.TrimSpace(content), "\n\n")
	cues := make([]Cue, 0, len(blocks))
	for _, block := range blocks {
		lines := strings.Split(strings.TrimSpace(block), "\n")
		if len(lines) < 2 {
			continue
		}
		index, err := strconv.Atoi(strings.TrimSpace(lines[0]))
		if err != nil {
			continue
		}
		parts := strings.Split(lines[1], "-->")
		if len(parts) != 2 {
			continue
		}
		start, errStart := ParseSRTTimestamp(parts[0])
		end, errEnd := ParseSRTTimestamp(parts[1])
		if errStart != nil || errEnd != nil {
			continue
		}
		cues = append(cues, Cue{
			Index: index,
			Start: start,
			End:   end,
			Text:  strings.Join(lines[2:], "\n"),
		})
	}
	return cues
}

// ParseSRTFile reads and parses an SRT file.
func ParseSRTFile(path string) ([]Cue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read srt: %w", err)
	}
	return ParseSRT(data), nil
}

// ParseSRTTimestamp converts HH:MM:SS,mmm into seconds. A period millisecond
// separator is tolerated.
func ParseSRTTimestamp(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty timestamp")
	}
	value = strings.ReplaceAll(value, ".", ",")
	timeParts := strings.Split(value, ",")
	if len(timeParts) != 2 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hms := strings.Split(timeParts[0], ":")
	if len(hms) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hours, errH := strconv.Atoi(hms[0])
	minutes, errM := strconv.Atoi(hms[1])
	seconds, errS := strconv.Atoi(hms[2])
	millis, errMS := strconv.Atoi(timeParts[1])
	if errH != nil || errM != nil || errS != nil || errMS != nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	return float64(hours*3600+minutes*60+seconds) + float64(millis)/1000, nil
}

// ValidateSRT checks an SRT file for format issues. Returns the issues
// found; an empty slice means validation passed. A positive videoSeconds
// also checks that the cues do not run far past the media.
func ValidateSRT(path string, videoSeconds float64) []string {
	var issues []string

	cues, err := ParseSRTFile(path)
	if err != nil {
		issues = append(issues, fmt.Sprintf("read_error: %v", err))
		return issues
	}
	if len(cues) == 0 {
		issues = append(issues, "empty_subtitle_file")
		return issues
	}

	var last float64
	for i, cue := range cues {
		if cue.End < cue.Start {
			issues = append(issues, fmt.Sprintf("cue_%d_ends_before_start", cue.Index))
		}
		if i > 0 && cue.Start < cues[i-1].Start {
			issues = append(issues, fmt.Sprintf("cue_%d_out_of_order", cue.Index))
		}
		if cue.End > last {
			last = cue.End
		}
	}

	if videoSeconds > 0 && last > videoSeconds+durationSlackSeconds {
		issues = append(issues, fmt.Sprintf("duration_mismatch: delta=%.1fs", last-videoSeconds))
	}

	return issues
}

// durationSlackSeconds tolerates cues slightly outlasting the media before
// flagging a duration mismatch.
const durationSlackSeconds = 5.0
