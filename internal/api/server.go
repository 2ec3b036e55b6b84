package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"log/slog"

	"github.com/gin-gonic/gin"

	"inkcap/internal/config"
	"inkcap/internal/logging"
	"inkcap/internal/queue"
	"inkcap/internal/transcribe"
	"inkcap/internal/workflow"
)

// StatusFunc supplies the live workflow summary for health reporting. The
// daemon wires this to its manager; tests can stub it.
type StatusFunc func(ctx context.Context) workflow.StatusSummary

// Server exposes the HTTP surface: uploads, synchronous transcription and
// subtitle export, async render jobs, and artifact downloads.
type Server struct {
	cfg         *config.Config
	store       *queue.Store
	transcriber *transcribe.Transcriber
	status      StatusFunc
	logger      *slog.Logger

	router   *gin.Engine
	server   *http.Server
	listener net.Listener
}

// NewServer assembles the router and handlers. status may be nil when no
// workflow manager is running (one-shot tooling); health reporting then
// shows the workflow as stopped.
func NewServer(cfg *config.Config, store *queue.Store, transcriber *transcribe.Transcriber, status StatusFunc, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		cfg:         cfg,
		store:       store,
		transcriber: transcriber,
		status:      status,
		logger:      logging.NewComponentLogger(logger, "api-server"),
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	if err := router.SetTrustedProxies(nil); err != nil {
		s.logger.Warn("failed to clear trusted proxies", logging.Error(err))
	}
	router.Use(s.recoveryMiddleware(), s.requestLogger())

	router.GET("/healthz", s.handleHealth)
	router.GET("/downloads/:name", s.handleDownload)

	group := router.Group("/api")
	group.POST("/upload", s.handleUpload)
	group.POST("/transcribe", s.handleTranscribe)
	group.POST("/export/srt", s.handleExportSRT)
	group.POST("/export/ass", s.handleExportASS)
	group.POST("/render", s.handleRender)
	group.POST("/mux", s.handleMux)
	group.GET("/jobs", s.handleJobList)
	group.GET("/jobs/:id", s.handleJobGet)
	group.POST("/jobs/:id/retry", s.handleJobRetry)
	group.DELETE("/jobs/:id", s.handleJobRemove)

	s.router = router
	// Read and write deadlines stay unset: uploads and synchronous
	// transcription outlive any fixed socket deadline. The handlers carry
	// their own timeouts.
	s.server = &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Router exposes the gin engine for in-process tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start binds the configured address and serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	bind := strings.TrimSpace(s.cfg.Paths.APIBind)
	if bind == "" {
		return errors.New("api bind address not configured")
	}
	listener, err := net.Listen("tcp", bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

// Addr reports the bound listen address, empty before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		c.Next()
		s.logger.Info("http request",
			logging.String("method", c.Request.Method),
			logging.String("path", path),
			logging.Int("status", c.Writer.Status()),
			logging.Duration("duration", time.Since(start)),
			logging.String("client", c.ClientIP()),
		)
	}
}

func (s *Server) recoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("handler panic",
					logging.Any("panic", r),
					logging.String("path", c.Request.URL.Path),
					logging.String(logging.FieldEventType, "api_panic"),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
			}
		}()
		c.Next()
	}
}

func (s *Server) writeError(c *gin.Context, status int, message string) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			logging.String("path", c.Request.URL.Path),
			logging.Int("status", status),
			logging.String("error_message", message),
		)
	} else {
		s.logger.Warn("request rejected",
			logging.String("path", c.Request.URL.Path),
			logging.Int("status", status),
			logging.String("error_message", message),
		)
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Error: message})
}
