package api

import (
	"errors"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"inkcap/internal/language"
	"inkcap/internal/services"
)

func (s *Server) handleTranscribe(c *gin.Context) {
	var req TranscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	source, err := s.resolveUpload(req.FileName)
	if err != nil {
		if errors.Is(err, errInvalidFileName) {
			s.writeError(c, http.StatusBadRequest, "fileName must be the base name of an uploaded file")
			return
		}
		s.writeError(c, http.StatusNotFound, err.Error())
		return
	}
	if s.transcriber == nil {
		s.writeError(c, http.StatusServiceUnavailable, "transcription is not available")
		return
	}

	// The transcript lands next to the upload so later render requests can
	// reference it by name.
	tr, jsonPath, err := s.transcriber.Run(c.Request.Context(), source, s.cfg.Paths.UploadDir, language.ToISO2(req.Language))
	if err != nil {
		s.writeError(c, httpStatusFor(err), err.Error())
		return
	}

	c.JSON(http.StatusOK, TranscribeResponse{
		Language:       tr.Language,
		TranscriptFile: filepath.Base(jsonPath),
		Segments:       tr.Segments,
	})
}

// httpStatusFor maps service failure markers onto HTTP status codes.
func httpStatusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrInput), errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, services.ErrExternalTool):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
