package burnin

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"inkcap/internal/captions"
)

// timelineSegment is one image shown for an exact duration in the composited
// caption track.
type timelineSegment struct {
	path     string
	duration float64
}

// buildTimeline alternates filler and caption images so the composited track
// tracks absolute entry times. images is parallel to entries; entries whose
// image path is empty display nothing and their span is covered by filler.
// Gaps at or under the threshold are absorbed into the following caption so
// sub-frame gaps never flicker and boundary drift never accumulates. The
// track is padded with a final filler when the video runs past the last
// caption.
func buildTimeline(entries []captions.Entry, images []string, videoDuration, gapThreshold float64, blankPath string) ([]timelineSegment, error) {
	if len(images) != len(entries) {
		return nil, fmt.Errorf("timeline: %d images for %d entries", len(images), len(entries))
	}

	var segments []timelineSegment
	cursor := 0.0
	for i, entry := range entries {
		if images[i] == "" {
			continue
		}
		if entry.End <= cursor {
			continue
		}
		if gap := entry.Start - cursor; gap > gapThreshold {
			segments = append(segments, timelineSegment{path: blankPath, duration: gap})
			cursor = entry.Start
		}
		segments = append(segments, timelineSegment{path: images[i], duration: entry.End - cursor})
		cursor = entry.End
	}
	if len(segments) == 0 {
		return nil, errors.New("timeline: no caption images")
	}
	if remainder := videoDuration - cursor; remainder > gapThreshold {
		segments = append(segments, timelineSegment{path: blankPath, duration: remainder})
	}
	return segments, nil
}

// formatConcatList renders segments in ffconcat syntax. The last file is
// repeated without a duration because the concat demuxer ignores the final
// duration directive otherwise.
func formatConcatList(segments []timelineSegment) string {
	var b strings.Builder
	b.WriteString("ffconcat version 1.0\n")
	for _, seg := range segments {
		fmt.Fprintf(&b, "file '%s'\nduration %.3f\n", seg.path, seg.duration)
	}
	if len(segments) > 0 {
		fmt.Fprintf(&b, "file '%s'\n", segments[len(segments)-1].path)
	}
	return b.String()
}

func writeConcatList(path string, segments []timelineSegment) error {
	if err := os.WriteFile(path, []byte(formatConcatList(segments)), 0o644); err != nil {
		return fmt.Errorf("write concat list: %w", err)
	}
	return nil
}
