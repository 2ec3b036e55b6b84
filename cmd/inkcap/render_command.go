package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"inkcap/internal/burnin"
	"inkcap/internal/config"
	"inkcap/internal/encoding"
	"inkcap/internal/fileutil"
	"inkcap/internal/subtitles"
	"inkcap/internal/transcript"
)

func newRenderCommand(ctx *commandContext) *cobra.Command {
	var transcriptPath string
	var stylePath string
	var mode string
	var wordsPerLine int
	var outputPath string
	var container string
	var mux bool

	cmd := &cobra.Command{
		Use:   "render <video>",
		Short: "Render captions into a video file",
		Long: `Render captions into a video file using a transcript JSON.

Burning tries the full strategy chain: browser-rendered image overlay,
styled ASS burn, then a plain subtitle burn. With --mux the captions are
attached as a selectable subtitle track instead, without re-encoding.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.runLogger()
			if err != nil {
				return err
			}

			source := args[0]
			if _, err := os.Stat(source); err != nil {
				return fmt.Errorf("source video: %w", err)
			}
			tr, err := transcript.LoadFile(transcriptPath)
			if err != nil {
				return fmt.Errorf("load transcript: %w", err)
			}
			style, err := resolveStyle(cfg, stylePath, mode, wordsPerLine)
			if err != nil {
				return err
			}
			entries := buildEntries(cfg, tr, style)
			if len(entries) == 0 {
				return errors.New("transcript produced no caption entries")
			}

			output, err := resolveRenderOutput(cfg, source, outputPath, container, mux)
			if err != nil {
				return err
			}
			if mux && !encoding.SupportsSoftSubtitles(filepath.Ext(output)) {
				return fmt.Errorf("container %q cannot carry a subtitle track; accepted: mp4, mov, m4v, mkv",
					strings.TrimPrefix(filepath.Ext(output), "."))
			}

			workRoot := filepath.Join(cfg.Paths.StagingDir, "render-"+fileutil.ShortID())
			if err := os.MkdirAll(workRoot, 0o755); err != nil {
				return fmt.Errorf("create work dir: %w", err)
			}
			defer os.RemoveAll(workRoot)

			pipeline := burnin.NewPipeline(cfg, logger)
			var result burnin.Result
			if mux {
				subtitlePath := filepath.Join(workRoot, "captions.srt")
				if err := subtitles.WriteSRTFile(subtitlePath, entries); err != nil {
					return err
				}
				result, err = pipeline.Mux(cmd.Context(), source, subtitlePath, tr.Language, output)
			} else {
				result, err = pipeline.Render(cmd.Context(), burnin.Request{
					SourcePath: source,
					Entries:    entries,
					Style:      style,
					OutputPath: output,
					WorkRoot:   workRoot,
				})
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Rendered %s (%s, %d captions)\n",
				result.OutputPath, result.Strategy, len(entries))
			return nil
		},
	}

	cmd.Flags().StringVarP(&transcriptPath, "transcript", "t", "", "Transcript JSON file (required)")
	cmd.Flags().StringVar(&stylePath, "style", "", "Style JSON file")
	cmd.Flags().StringVar(&mode, "mode", "", "Display mode: sentence, word, or phrase")
	cmd.Flags().IntVar(&wordsPerLine, "words-per-line", 0, "Words per line in phrase mode")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path")
	cmd.Flags().StringVar(&container, "container", "", "Output container when --output is not set")
	cmd.Flags().BoolVar(&mux, "mux", false, "Attach captions as a soft subtitle track instead of burning")
	_ = cmd.MarkFlagRequired("transcript")

	return cmd
}

// resolveRenderOutput picks the output location: an explicit --output wins,
// otherwise the file lands in the output directory named after the source.
// Burns keep the source container by default; muxes default to mkv.
func resolveRenderOutput(cfg *config.Config, source, flagValue, container string, mux bool) (string, error) {
	if strings.TrimSpace(flagValue) != "" {
		return config.ExpandPath(flagValue)
	}

	ext := strings.ToLower(filepath.Ext(source))
	if trimmed := strings.TrimPrefix(strings.TrimSpace(container), "."); trimmed != "" {
		ext = "." + strings.ToLower(trimmed)
	} else if mux {
		ext = ".mkv"
	}
	if ext == "" {
		ext = ".mp4"
	}

	stem := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	name := stem + "-captioned" + ext
	if err := os.MkdirAll(cfg.Paths.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	target := filepath.Join(cfg.Paths.OutputDir, name)
	if _, err := os.Stat(target); err == nil {
		target = filepath.Join(cfg.Paths.OutputDir, fileutil.UniqueName(name))
	}
	return target, nil
}
