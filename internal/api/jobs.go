package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"inkcap/internal/encoding"
	"inkcap/internal/fileutil"
	"inkcap/internal/language"
	"inkcap/internal/logging"
	"inkcap/internal/queue"
	"inkcap/internal/transcript"
)

func (s *Server) handleRender(c *gin.Context) {
	s.enqueueJob(c, queue.KindBurn)
}

func (s *Server) handleMux(c *gin.Context) {
	s.enqueueJob(c, queue.KindMux)
}

func (s *Server) enqueueJob(c *gin.Context, kind queue.Kind) {
	var req RenderRequest
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

	container := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(req.Container), "."))
	if kind == queue.KindMux {
		if container == "" {
			container = "mkv"
		}
		if !encoding.SupportsSoftSubtitles(container) {
			s.writeError(c, http.StatusBadRequest,
				fmt.Sprintf("container %q cannot carry a subtitle track; accepted: mp4, mov, m4v, mkv", container))
			return
		}
	}

	// Normalize the style up front so bad payloads fail the request instead
	// of parking the job in review at render time. The merged result is
	// stored so config defaults captured here survive restarts.
	style, err := s.requestStyle(req.Style)
	if err != nil {
		s.writeError(c, http.StatusBadRequest, err.Error())
		return
	}
	styleJSON, err := json.Marshal(style)
	if err != nil {
		s.writeError(c, http.StatusInternalServerError, "failed to encode style")
		return
	}

	lang := language.ToISO2(req.Language)
	transcriptPath := ""
	switch {
	case len(req.Segments) > 0:
		transcriptPath, err = s.storeSegments(source, lang, req.Segments)
		if err != nil {
			s.writeError(c, http.StatusInternalServerError, err.Error())
			return
		}
	case strings.TrimSpace(req.TranscriptFile) != "":
		transcriptPath, err = s.resolveUpload(req.TranscriptFile)
		if err != nil {
			if errors.Is(err, errInvalidFileName) {
				s.writeError(c, http.StatusBadRequest, "transcriptFile must be the base name of an uploaded file")
				return
			}
			s.writeError(c, http.StatusNotFound, err.Error())
			return
		}
	}

	job, err := s.store.NewJob(c.Request.Context(), queue.NewJobParams{
		SourcePath:     source,
		Title:          req.Title,
		Kind:           kind,
		Language:       lang,
		TranscriptPath: transcriptPath,
		StyleJSON:      string(styleJSON),
		Container:      container,
	})
	if err != nil {
		s.writeError(c, http.StatusInternalServerError, err.Error())
		return
	}

	s.logger.Info("job enqueued",
		logging.Int64(logging.FieldJobID, job.ID),
		logging.String("kind", string(job.Kind)),
		logging.String("status", string(job.Status)),
		logging.String("source_file", filepath.Base(job.SourcePath)),
	)
	c.JSON(http.StatusAccepted, FromJob(job))
}

// storeSegments persists posted segments as a transcript file next to the
// upload so the render stage reads the same shape the engine produces.
func (s *Server) storeSegments(source, lang string, segments []transcript.Segment) (string, error) {
	stem := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	if stem == "" {
		stem = "transcript"
	}
	path := filepath.Join(s.cfg.Paths.UploadDir, fileutil.UniqueName(stem+".json"))
	tr := &transcript.Transcript{Language: lang, Segments: segments}
	if err := tr.SaveFile(path); err != nil {
		return "", err
	}
	return path, nil
}

func (s *Server) handleJobList(c *gin.Context) {
	var statuses []queue.Status
	for _, value := range c.QueryArray("status") {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		status, ok := queue.ParseStatus(trimmed)
		if !ok {
			s.writeError(c, http.StatusBadRequest, fmt.Sprintf("unknown status %q", trimmed))
			return
		}
		statuses = append(statuses, status)
	}

	jobs, err := s.store.List(c.Request.Context(), statuses...)
	if err != nil {
		s.writeError(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, JobList{Jobs: FromJobs(jobs)})
}

func (s *Server) handleJobGet(c *gin.Context) {
	id, ok := s.jobIDParam(c)
	if !ok {
		return
	}
	job, err := s.store.GetByID(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, http.StatusInternalServerError, err.Error())
		return
	}
	if job == nil {
		s.writeError(c, http.StatusNotFound, "job not found")
		return
	}
	c.JSON(http.StatusOK, FromJob(job))
}

func (s *Server) handleJobRetry(c *gin.Context) {
	id, ok := s.jobIDParam(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	job, err := s.store.GetByID(ctx, id)
	if err != nil {
		s.writeError(c, http.StatusInternalServerError, err.Error())
		return
	}
	if job == nil {
		s.writeError(c, http.StatusNotFound, "job not found")
		return
	}

	updated, err := s.store.Retry(ctx, id)
	if err != nil {
		s.writeError(c, http.StatusInternalServerError, err.Error())
		return
	}
	if updated == 0 {
		s.writeError(c, http.StatusConflict,
			fmt.Sprintf("job %d is %s; only failed or review jobs can be retried", id, job.Status))
		return
	}

	job, err = s.store.GetByID(ctx, id)
	if err != nil || job == nil {
		s.writeError(c, http.StatusInternalServerError, "job disappeared during retry")
		return
	}
	c.JSON(http.StatusOK, FromJob(job))
}

func (s *Server) handleJobRemove(c *gin.Context) {
	id, ok := s.jobIDParam(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	job, err := s.store.GetByID(ctx, id)
	if err != nil {
		s.writeError(c, http.StatusInternalServerError, err.Error())
		return
	}
	if job == nil {
		s.writeError(c, http.StatusNotFound, "job not found")
		return
	}
	if job.IsProcessing() {
		s.writeError(c, http.StatusConflict, "job is processing; wait for the stage to finish")
		return
	}

	if _, err := s.store.Remove(ctx, id); err != nil {
		s.writeError(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) jobIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil || id <= 0 {
		s.writeError(c, http.StatusBadRequest, "invalid job id")
		return 0, false
	}
	return id, true
}
