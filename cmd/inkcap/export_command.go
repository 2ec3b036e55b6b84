package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"inkcap/internal/captions"
	"inkcap/internal/config"
	"inkcap/internal/subtitles"
	"inkcap/internal/transcript"
)

const (
	defaultExportWidth  = 1920
	defaultExportHeight = 1080
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export subtitle files from a transcript",
	}

	exportCmd.AddCommand(newExportSRTCommand(ctx))
	exportCmd.AddCommand(newExportASSCommand(ctx))

	return exportCmd
}

func newExportSRTCommand(ctx *commandContext) *cobra.Command {
	var stylePath string
	var mode string
	var wordsPerLine int
	var outputPath string

	cmd := &cobra.Command{
		Use:   "srt <transcript.json>",
		Short: "Write a plain SRT subtitle file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			entries, _, err := exportEntries(cfg, args[0], stylePath, mode, wordsPerLine)
			if err != nil {
				return err
			}
			output, err := exportTarget(args[0], outputPath, ".srt")
			if err != nil {
				return err
			}
			if err := subtitles.WriteSRTFile(output, entries); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d captions)\n", output, len(entries))
			return nil
		},
	}

	cmd.Flags().StringVar(&stylePath, "style", "", "Style JSON file (affects caption grouping)")
	cmd.Flags().StringVar(&mode, "mode", "", "Display mode: sentence, word, or phrase")
	cmd.Flags().IntVar(&wordsPerLine, "words-per-line", 0, "Words per line in phrase mode")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path (default: next to the transcript)")

	return cmd
}

func newExportASSCommand(ctx *commandContext) *cobra.Command {
	var stylePath string
	var mode string
	var wordsPerLine int
	var outputPath string
	var width int
	var height int

	cmd := &cobra.Command{
		Use:   "ass <transcript.json>",
		Short: "Write a styled ASS subtitle file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			entries, style, err := exportEntries(cfg, args[0], stylePath, mode, wordsPerLine)
			if err != nil {
				return err
			}
			output, err := exportTarget(args[0], outputPath, ".ass")
			if err != nil {
				return err
			}
			if err := subtitles.WriteASSFile(output, entries, style, width, height); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d captions)\n", output, len(entries))
			return nil
		},
	}

	cmd.Flags().StringVar(&stylePath, "style", "", "Style JSON file")
	cmd.Flags().StringVar(&mode, "mode", "", "Display mode: sentence, word, or phrase")
	cmd.Flags().IntVar(&wordsPerLine, "words-per-line", 0, "Words per line in phrase mode")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path (default: next to the transcript)")
	cmd.Flags().IntVar(&width, "width", defaultExportWidth, "Canvas width for positioning")
	cmd.Flags().IntVar(&height, "height", defaultExportHeight, "Canvas height for positioning")

	return cmd
}

func exportEntries(cfg *config.Config, transcriptPath, stylePath, mode string, wordsPerLine int) ([]captions.Entry, captions.Style, error) {
	tr, err := transcript.LoadFile(transcriptPath)
	if err != nil {
		return nil, captions.Style{}, fmt.Errorf("load transcript: %w", err)
	}
	style, err := resolveStyle(cfg, stylePath, mode, wordsPerLine)
	if err != nil {
		return nil, captions.Style{}, err
	}
	entries := buildEntries(cfg, tr, style)
	if len(entries) == 0 {
		return nil, captions.Style{}, errors.New("transcript produced no caption entries")
	}
	return entries, style, nil
}

func exportTarget(transcriptPath, flagValue, ext string) (string, error) {
	if strings.TrimSpace(flagValue) != "" {
		return config.ExpandPath(flagValue)
	}
	stem := strings.TrimSuffix(transcriptPath, filepath.Ext(transcriptPath))
	return stem + ext, nil
}
