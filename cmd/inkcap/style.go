package main

import (
	"fmt"
	"os"
	"strings"

	"inkcap/internal/captions"
	"inkcap/internal/config"
	"inkcap/internal/transcript"
)

// resolveStyle layers the caption style for one-shot commands: config
// defaults first, then an optional style JSON file, then explicit flag
// overrides on top.
func resolveStyle(cfg *config.Config, stylePath, mode string, wordsPerLine int) (captions.Style, error) {
	base := captions.DefaultStyle()
	if cfg != nil {
		if parsed, err := captions.ParseMode(cfg.Captions.DefaultMode); err == nil {
			base.DisplayMode = parsed
		}
		if cfg.Captions.WordsPerLine > 0 {
			base.WordsPerLine = cfg.Captions.WordsPerLine
		}
	}

	var raw []byte
	if strings.TrimSpace(stylePath) != "" {
		data, err := os.ReadFile(stylePath)
		if err != nil {
			return captions.Style{}, fmt.Errorf("read style file: %w", err)
		}
		raw = data
	}
	style, err := captions.ParseStyleWith(base, raw)
	if err != nil {
		return captions.Style{}, err
	}

	if strings.TrimSpace(mode) != "" {
		parsed, err := captions.ParseMode(mode)
		if err != nil {
			return captions.Style{}, err
		}
		style.DisplayMode = parsed
	}
	if wordsPerLine > 0 {
		style.WordsPerLine = wordsPerLine
	}
	return style, nil
}

func buildEntries(cfg *config.Config, tr *transcript.Transcript, style captions.Style) []captions.Entry {
	var opts []captions.BuilderOption
	if cfg != nil && cfg.Captions.PhraseBreakPunctuation != "" {
		opts = append(opts, captions.WithBreakPunctuation(cfg.Captions.PhraseBreakPunctuation))
	}
	return captions.NewBuilder(opts...).Build(tr.Segments, style)
}
