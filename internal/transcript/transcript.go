package transcript

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Word represents a single word with timing from the transcription engine.
type Word struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Segment represents one transcribed span. Words may be empty when the
// engine was run without word timestamps. Word times are not guaranteed to
// lie inside the segment bounds; consumers must tolerate that.
type Segment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Words []Word  `json:"words,omitempty"`
}

// Transcript is the full engine output for one media file.
type Transcript struct {
	Language string    `json:"language,omitempty"`
	Segments []Segment `json:"segments"`
}

// HasWords reports whether the segment carries word-level timing.
func (s Segment) HasWords() bool {
	return len(s.Words) > 0
}

// Duration returns the end time of the last segment in seconds, or zero for
// an empty transcript.
func (t *Transcript) Duration() float64 {
	if len(t.Segments) == 0 {
		return 0
	}
	return t.Segments[len(t.Segments)-1].End
}

// Text concatenates the trimmed segment texts into a single string.
func (t *Transcript) Text() string {
	var parts []string
	for _, seg := range t.Segments {
		if text := strings.TrimSpace(seg.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

// WordCount returns the total number of timed words across all segments.
func (t *Transcript) WordCount() int {
	count := 0
	for _, seg := range t.Segments {
		count += len(seg.Words)
	}
	return count
}

// Parse decodes a whisper-shaped JSON payload.
func Parse(data []byte) (*Transcript, error) {
	var tr Transcript
	if err := json.Unmarshal(data, &tr); err != nil {
		return nil, fmt.Errorf("parse transcript json: %w", err)
	}
	return &tr, nil
}

// LoadFile reads and decodes a transcript JSON file.
func LoadFile(path string) (*Transcript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// SaveFile writes the transcript as indented JSON.
func (t *Transcript) SaveFile(path string) error {
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("encode transcript: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write transcript: %w", err)
	}
	return nil
}
