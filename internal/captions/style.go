package captions

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Mode selects the caption display granularity.
type Mode string

const (
	ModeSentence Mode = "sentence"
	ModeWord     Mode = "word"
	ModePhrase   Mode = "phrase"
)

// ParseMode normalizes a display mode string.
func ParseMode(value string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(value))) {
	case ModeSentence:
		return ModeSentence, nil
	case ModeWord:
		return ModeWord, nil
	case ModePhrase:
		return ModePhrase, nil
	}
	return "", fmt.Errorf("unknown display mode %q", value)
}

// Style holds the visual configuration for one render request. JSON field
// names follow the HTTP API payload.
type Style struct {
	FontFamily        string  `json:"fontFamily"`
	FontSize          float64 `json:"fontSize"`
	Color             string  `json:"color"`
	BackgroundColor   string  `json:"backgroundColor,omitempty"`
	BackgroundOpacity float64 `json:"backgroundOpacity"`
	StrokeColor       string  `json:"strokeColor"`
	FontWeight        string  `json:"fontWeight"`
	YAlign            float64 `json:"yAlign"`
	DisplayMode       Mode    `json:"displayMode"`
	WordsPerLine      int     `json:"wordsPerLine"`
}

// DefaultStyle returns the style applied when a request supplies nothing.
func DefaultStyle() Style {
	return Style{
		FontFamily:        "Arial",
		FontSize:          48,
		Color:             "#FFFFFF",
		BackgroundOpacity: 0.6,
		StrokeColor:       "#000000",
		FontWeight:        "400",
		YAlign:            80,
		DisplayMode:       ModeSentence,
		WordsPerLine:      3,
	}
}

// ParseStyle decodes a style payload on top of the defaults, then normalizes
// it. Empty input yields the default style.
func ParseStyle(data []byte) (Style, error) {
	return ParseStyleWith(DefaultStyle(), data)
}

// ParseStyleWith decodes a style payload over the provided base style, so
// callers can seed defaults from configuration before applying a request
// payload.
func ParseStyleWith(base Style, data []byte) (Style, error) {
	style := base
	if len(data) > 0 {
		if err := json.Unmarshal(data, &style); err != nil {
			return Style{}, fmt.Errorf("parse style: %w", err)
		}
	}
	if err := style.normalize(); err != nil {
		return Style{}, err
	}
	return style, nil
}

func (s *Style) normalize() error {
	s.FontFamily = strings.TrimSpace(s.FontFamily)
	if s.FontFamily == "" {
		s.FontFamily = "Arial"
	}
	if s.FontSize <= 0 {
		s.FontSize = 48
	}
	s.Color = strings.TrimSpace(s.Color)
	if s.Color == "" {
		s.Color = "#FFFFFF"
	}
	s.BackgroundColor = strings.TrimSpace(s.BackgroundColor)
	s.StrokeColor = strings.TrimSpace(s.StrokeColor)
	if s.StrokeColor == "" {
		s.StrokeColor = "#000000"
	}
	if s.BackgroundOpacity < 0 {
		s.BackgroundOpacity = 0
	}
	if s.BackgroundOpacity > 1 {
		s.BackgroundOpacity = 1
	}
	s.FontWeight = strings.TrimSpace(s.FontWeight)
	if s.FontWeight == "" {
		s.FontWeight = "400"
	}
	if s.YAlign < 0 {
		s.YAlign = 0
	}
	if s.YAlign > 100 {
		s.YAlign = 100
	}
	if s.DisplayMode == "" {
		s.DisplayMode = ModeSentence
	} else {
		mode, err := ParseMode(string(s.DisplayMode))
		if err != nil {
			return err
		}
		s.DisplayMode = mode
	}
	if s.WordsPerLine < 0 {
		s.WordsPerLine = 3
	}
	return nil
}

// HasBackground reports whether the style declares an opaque-box background.
func (s Style) HasBackground() bool {
	return s.BackgroundColor != ""
}
