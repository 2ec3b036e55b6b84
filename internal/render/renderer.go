package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"log/slog"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
	"golang.org/x/sync/errgroup"

	"inkcap/internal/captions"
	"inkcap/internal/config"
	"inkcap/internal/logging"
)

// Renderer rasterizes caption entries into transparent PNGs using a headless
// browser. One Renderer is safe for concurrent use; each RenderEntries call
// runs its own browser process.
type Renderer struct {
	browserPath string
	fontsDir    string
	concurrency int
	shrink      shrinkParams
	logger      *slog.Logger
}

// New constructs a renderer from config. An empty browser path lets the
// browser launcher locate an installed Chrome or Chromium on its own.
func New(cfg *config.Config, logger *slog.Logger) *Renderer {
	return &Renderer{
		browserPath: cfg.BrowserBinary(),
		fontsDir:    cfg.Paths.FontsDir,
		concurrency: cfg.Render.Concurrency,
		shrink: shrinkParams{
			MinFontSize:      float64(cfg.Render.MinFontSize),
			Factor:           cfg.Render.ShrinkFactor,
			MaxWidthFraction: cfg.Render.MaxWidthFraction,
			MaxIterations:    cfg.Render.MaxShrinkIterations,
		},
		logger: logging.NewComponentLogger(logger, "render"),
	}
}

// SetLogger updates the renderer's logging destination.
func (r *Renderer) SetLogger(logger *slog.Logger) {
	r.logger = logging.NewComponentLogger(logger, "render")
}

// RenderEntries produces one transparent PNG per entry inside outDir and
// returns the paths in entry order. Entries whose text trims to nothing get an
// empty path: no caption is visible during their time range.
func (r *Renderer) RenderEntries(ctx context.Context, entries []captions.Entry, style captions.Style, width, height int, outDir string) ([]string, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("render entries: invalid canvas %dx%d", width, height)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("render entries: %w", err)
	}

	fontFile := r.resolveFont(style.FontFamily)
	pageURL, err := writePage(outDir, style, width, height, fontFile)
	if err != nil {
		return nil, err
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, r.allocatorOptions()...)
	defer cancelAlloc()

	paths := make([]string, len(entries))
	g, gctx := errgroup.WithContext(allocCtx)
	if r.concurrency > 0 {
		g.SetLimit(r.concurrency)
	}
	for i, entry := range entries {
		if strings.TrimSpace(entry.Text) == "" {
			continue
		}
		i, entry := i, entry
		g.Go(func() error {
			path := filepath.Join(outDir, fmt.Sprintf("caption_%05d.png", i))
			if err := r.renderOne(gctx, pageURL, entry.Text, style, width, height, path); err != nil {
				return fmt.Errorf("render entry %d: %w", i, err)
			}
			paths[i] = path
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}

// renderOne opens a tab, injects the entry text, runs the shrink-to-fit loop
// and captures the viewport with its alpha channel intact.
func (r *Renderer) renderOne(ctx context.Context, pageURL, text string, style captions.Style, width, height int, outPath string) error {
	tabCtx, cancel := chromedp.NewContext(ctx)
	defer cancel()

	var buf []byte
	actions := []chromedp.Action{
		chromedp.EmulateViewport(int64(width), int64(height)),
		chromedp.Navigate(pageURL),
		transparentBackground(),
		setCaptionText(text),
		r.shrinkToFit(style.FontSize, width, height),
		chromedp.CaptureScreenshot(&buf),
	}
	if err := chromedp.Run(tabCtx, actions...); err != nil {
		return err
	}
	if err := os.WriteFile(outPath, buf, 0o644); err != nil {
		return fmt.Errorf("write caption image: %w", err)
	}
	return nil
}

// shrinkToFit re-measures the caption after each reduction until it fits the
// frame, hits the font floor, or exhausts the iteration budget.
func (r *Renderer) shrinkToFit(startSize float64, width, height int) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		size := startSize
		for i := 0; i < r.shrink.MaxIterations; i++ {
			var m measurement
			if err := chromedp.Evaluate(measureScript, &m).Do(ctx); err != nil {
				return fmt.Errorf("measure caption: %w", err)
			}
			if !r.shrink.overflows(m, width, height) {
				return nil
			}
			next, ok := r.shrink.next(size)
			if !ok {
				if r.logger != nil {
					r.logger.Warn("caption hit font size floor",
						logging.Float64("font_size", size),
						logging.String(logging.FieldEventType, "caption_font_floor"),
					)
				}
				return nil
			}
			size = next
			if err := chromedp.Evaluate(setFontSizeScript(size), nil).Do(ctx); err != nil {
				return fmt.Errorf("set font size: %w", err)
			}
		}
		return nil
	})
}

func (r *Renderer) resolveFont(family string) string {
	path, ok := captions.ResolveFontFile(r.fontsDir, family)
	if !ok {
		if r.logger != nil && strings.TrimSpace(r.fontsDir) != "" {
			r.logger.Warn("font file not found, using system fallback",
				logging.String("font_family", family),
				logging.String("fonts_dir", r.fontsDir),
				logging.String(logging.FieldEventType, "font_fallback"),
			)
		}
		return ""
	}
	return path
}

func (r *Renderer) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.Flag("allow-file-access-from-files", true),
		chromedp.Flag("force-color-profile", "srgb"),
	)
	if r.browserPath != "" {
		opts = append(opts, chromedp.ExecPath(r.browserPath))
	}
	return opts
}

// transparentBackground clears the compositor's default white page background
// so screenshots carry alpha.
func transparentBackground() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		return emulation.SetDefaultBackgroundColorOverride().
			WithColor(&cdp.RGBA{R: 0, G: 0, B: 0, A: 0}).
			Do(ctx)
	})
}

func setCaptionText(text string) chromedp.Action {
	script := fmt.Sprintf("document.getElementById('caption').textContent = %s; true", strconv.Quote(text))
	return chromedp.Evaluate(script, nil)
}

func setFontSizeScript(size float64) string {
	return fmt.Sprintf("document.getElementById('caption').style.fontSize = '%gpx'; true", size)
}
