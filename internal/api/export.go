package api

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"inkcap/internal/captions"
	"inkcap/internal/fileutil"
	"inkcap/internal/subtitles"
)

// Fallback play resolution for ASS exports without a probed video.
const (
	defaultExportWidth  = 1920
	defaultExportHeight = 1080
)

func (s *Server) handleExportSRT(c *gin.Context) {
	_, entries, ok := s.buildExportEntries(c)
	if !ok {
		return
	}

	target, err := s.exportTarget("captions.srt")
	if err != nil {
		s.writeError(c, http.StatusInternalServerError, "output directory unavailable")
		return
	}
	if err := subtitles.WriteSRTFile(target, entries); err != nil {
		s.writeError(c, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondExport(c, target, len(entries))
}

func (s *Server) handleExportASS(c *gin.Context) {
	req, entries, ok := s.buildExportEntries(c)
	if !ok {
		return
	}
	width, height := req.Width, req.Height
	if width <= 0 {
		width = defaultExportWidth
	}
	if height <= 0 {
		height = defaultExportHeight
	}

	style, err := s.requestStyle(req.Style)
	if err != nil {
		s.writeError(c, http.StatusBadRequest, err.Error())
		return
	}

	target, err := s.exportTarget("captions.ass")
	if err != nil {
		s.writeError(c, http.StatusInternalServerError, "output directory unavailable")
		return
	}
	if err := subtitles.WriteASSFile(target, entries, style, width, height); err != nil {
		s.writeError(c, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondExport(c, target, len(entries))
}

// buildExportEntries parses the shared export payload and turns the posted
// segments into display entries. A false return means an error response has
// already been written.
func (s *Server) buildExportEntries(c *gin.Context) (ExportRequest, []captions.Entry, bool) {
	var req ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, http.StatusBadRequest, "invalid JSON payload")
		return ExportRequest{}, nil, false
	}
	if len(req.Segments) == 0 {
		s.writeError(c, http.StatusBadRequest, "segments are required")
		return ExportRequest{}, nil, false
	}

	style, err := s.requestStyle(req.Style)
	if err != nil {
		s.writeError(c, http.StatusBadRequest, err.Error())
		return ExportRequest{}, nil, false
	}

	entries := s.captionBuilder().Build(req.Segments, style)
	if len(entries) == 0 {
		s.writeError(c, http.StatusBadRequest, "segments contain no caption text")
		return ExportRequest{}, nil, false
	}
	return req, entries, true
}

func (s *Server) respondExport(c *gin.Context, target string, entries int) {
	name := filepath.Base(target)
	c.JSON(http.StatusCreated, ExportResponse{
		FileName:    name,
		DownloadURL: "/downloads/" + name,
		Entries:     entries,
	})
}

func (s *Server) exportTarget(name string) (string, error) {
	if err := os.MkdirAll(s.cfg.Paths.OutputDir, 0o755); err != nil {
		return "", err
	}
	return filepath.Join(s.cfg.Paths.OutputDir, fileutil.UniqueName(name)), nil
}

// baseStyle seeds the caption style from configuration before request
// payloads are applied on top.
func (s *Server) baseStyle() captions.Style {
	style := captions.DefaultStyle()
	if s.cfg == nil {
		return style
	}
	if mode, err := captions.ParseMode(s.cfg.Captions.DefaultMode); err == nil {
		style.DisplayMode = mode
	}
	if s.cfg.Captions.WordsPerLine > 0 {
		style.WordsPerLine = s.cfg.Captions.WordsPerLine
	}
	return style
}

func (s *Server) requestStyle(raw []byte) (captions.Style, error) {
	return captions.ParseStyleWith(s.baseStyle(), raw)
}

func (s *Server) captionBuilder() *captions.Builder {
	opts := []captions.BuilderOption{}
	if s.cfg != nil && s.cfg.Captions.PhraseBreakPunctuation != "" {
		opts = append(opts, captions.WithBreakPunctuation(s.cfg.Captions.PhraseBreakPunctuation))
	}
	return captions.NewBuilder(opts...)
}
