package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"inkcap/internal/logging"
	"inkcap/internal/queue"
	"inkcap/internal/services"
)

// handleStageFailure routes a stage error to its resting status. Bad inputs
// and configuration park the job for review so the operator can correct and
// resubmit; everything else fails the job outright.
func (m *Manager) handleStageFailure(ctx context.Context, stg pipelineStage, job *queue.Job, stageErr error) {
	logger := logging.WithContext(ctx, logging.NewComponentLogger(m.logger, "workflow-manager"))

	resolved := services.FailureStatus(stageErr)
	message := failureMessage(stg.name, stageErr)
	if resolved == queue.StatusReview {
		job.SetReview(message)
	} else {
		job.SetFailed(message)
	}

	logger.Error("stage failed",
		logging.String(logging.FieldEventType, "stage_failure"),
		logging.String("resolved_status", string(resolved)),
		logging.String("error_message", strings.TrimSpace(message)),
		logging.Alert("stage_failure"),
		logging.Error(stageErr),
	)

	if err := m.store.Update(ctx, job); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Debug("daemon shutting down, could not update stage failure")
		} else {
			logger.Error("failed to persist stage failure", logging.Error(err))
		}
	}

	m.setLastJob(job)
}

func failureMessage(stageName string, stageErr error) string {
	if stageErr == nil {
		return stageFallbackMessage(stageName, "failed without error detail")
	}
	message := strings.TrimSpace(stageErr.Error())
	if message == "" {
		return stageFallbackMessage(stageName, "failed")
	}
	return message
}

func stageFallbackMessage(stageName, defaultMsg string) string {
	if stageName != "" {
		return fmt.Sprintf("%s %s", stageName, defaultMsg)
	}
	return fmt.Sprintf("workflow %s", defaultMsg)
}
