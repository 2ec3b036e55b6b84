package api

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"inkcap/internal/fileutil"
	"inkcap/internal/logging"
	"inkcap/internal/textutil"
)

// allowedUploadExtensions lists the container formats accepted for upload.
var allowedUploadExtensions = map[string]bool{
	".mp4": true,
	".mov": true,
	".avi": true,
	".mkv": true,
}

var errInvalidFileName = errors.New("invalid file name")

// isBodyTooLarge detects the MaxBytesReader limit. The multipart reader does
// not always wrap the typed error, so the message is checked as a fallback.
func isBodyTooLarge(err error) bool {
	if err == nil {
		return false
	}
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return true
	}
	return strings.Contains(err.Error(), "request body too large")
}

func (s *Server) handleUpload(c *gin.Context) {
	maxBytes := int64(s.cfg.Paths.APIMaxUploadMiB) << 20
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)

	file, err := c.FormFile("file")
	if err != nil {
		if isBodyTooLarge(err) {
			s.writeError(c, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds the %d MiB limit", s.cfg.Paths.APIMaxUploadMiB))
			return
		}
		s.writeError(c, http.StatusBadRequest, `multipart field "file" is required`)
		return
	}

	name := filepath.Base(strings.TrimSpace(file.Filename))
	ext := strings.ToLower(filepath.Ext(name))
	if !allowedUploadExtensions[ext] {
		s.writeError(c, http.StatusBadRequest,
			fmt.Sprintf("unsupported file type %q; accepted: mp4, mov, avi, mkv", ext))
		return
	}
	sanitized := textutil.SanitizeFileName(name)
	if sanitized == "" || sanitized == ext {
		sanitized = "upload" + ext
	}

	if err := os.MkdirAll(s.cfg.Paths.UploadDir, 0o755); err != nil {
		s.writeError(c, http.StatusInternalServerError, "upload directory unavailable")
		return
	}
	target := filepath.Join(s.cfg.Paths.UploadDir, fileutil.UniqueName(sanitized))
	if err := c.SaveUploadedFile(file, target); err != nil {
		if isBodyTooLarge(err) {
			s.writeError(c, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds the %d MiB limit", s.cfg.Paths.APIMaxUploadMiB))
			return
		}
		s.writeError(c, http.StatusInternalServerError, "failed to store upload")
		return
	}

	s.logger.Info("upload stored",
		logging.String("file", filepath.Base(target)),
		logging.Int64("size", file.Size),
	)
	c.JSON(http.StatusCreated, UploadResponse{
		FileName: filepath.Base(target),
		Size:     file.Size,
	})
}

func (s *Server) handleDownload(c *gin.Context) {
	name := strings.TrimSpace(c.Param("name"))
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		s.writeError(c, http.StatusBadRequest, "invalid file name")
		return
	}
	path := filepath.Join(s.cfg.Paths.OutputDir, name)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		s.writeError(c, http.StatusNotFound, "file not found")
		return
	}
	c.FileAttachment(path, name)
}

// resolveUpload validates a client-supplied file name and maps it into the
// upload directory. The name must be a bare base name so requests cannot
// escape the directory.
func (s *Server) resolveUpload(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || trimmed != filepath.Base(trimmed) || strings.HasPrefix(trimmed, ".") {
		return "", errInvalidFileName
	}
	path := filepath.Join(s.cfg.Paths.UploadDir, trimmed)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("uploaded file %q: %w", trimmed, os.ErrNotExist)
	}
	return path, nil
}
