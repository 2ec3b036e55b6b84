package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"inkcap/internal/config"
	"inkcap/internal/transcribe"
)

func newTranscribeCommand(ctx *commandContext) *cobra.Command {
	var lang string
	var outputDir string

	cmd := &cobra.Command{
		Use:   "transcribe <media>",
		Short: "Run speech-to-text on a media file",
		Args:  cobra.ExactArgs(1),
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
				return fmt.Errorf("source media: %w", err)
			}

			dir := filepath.Dir(source)
			if strings.TrimSpace(outputDir) != "" {
				dir, err = config.ExpandPath(outputDir)
				if err != nil {
					return err
				}
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("create output directory: %w", err)
				}
			}

			tr, jsonPath, err := transcribe.NewTranscriber(cfg, nil, logger).Run(cmd.Context(), source, dir, lang)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if tr.Language != "" {
				fmt.Fprintf(out, "Transcript written to %s (%d segments, language %s)\n",
					jsonPath, len(tr.Segments), tr.Language)
			} else {
				fmt.Fprintf(out, "Transcript written to %s (%d segments)\n", jsonPath, len(tr.Segments))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&lang, "language", "l", "", "ISO 639-1 language hint (default: auto-detect)")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "Directory for the transcript JSON (default: next to the media)")

	return cmd
}
