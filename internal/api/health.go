package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"inkcap/internal/deps"
	"inkcap/internal/preflight"
)

func (s *Server) handleHealth(c *gin.Context) {
	ctx := c.Request.Context()

	var wf WorkflowStatus
	if s.status != nil {
		wf = FromStatusSummary(s.status(ctx))
	} else if s.store != nil {
		// No workflow manager attached; queue stats are still useful.
		if stats, err := s.store.Stats(ctx); err == nil {
			converted := make(map[string]int, len(stats))
			for status, count := range stats {
				converted[string(status)] = count
			}
			wf.QueueStats = converted
		}
	}

	binaries := deps.CheckBinaries(deps.Requirements(s.cfg))
	binaries = append(binaries, deps.CheckBrowser(s.cfg.BrowserBinary()))
	directories := preflight.RunAll(s.cfg)

	status := "ok"
	for _, dep := range binaries {
		if !dep.Available && !dep.Optional {
			status = "degraded"
			break
		}
	}
	if status == "ok" {
		for _, check := range directories {
			if !check.Passed {
				status = "degraded"
				break
			}
		}
	}
	if status == "ok" {
		for _, h := range wf.StageHealth {
			if !h.Ready {
				status = "degraded"
				break
			}
		}
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:       status,
		Workflow:     wf,
		Dependencies: FromDependencies(binaries),
		Checks:       FromPreflight(directories),
	})
}
