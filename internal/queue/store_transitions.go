package queue

import (
	"context"
	"fmt"
	"time"
)

// ResetStuckProcessing resets jobs in processing states back to the start of their current stage.
func (s *Store) ResetStuckProcessing(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE jobs
         SET status = CASE status
             WHEN ? THEN ?
             WHEN ? THEN ?
             ELSE status
         END,
             progress_stage = 'Reset from stuck processing',
             progress_percent = 0, progress_message = NULL, last_heartbeat = NULL, updated_at = ?
         WHERE status IN (?, ?)`,
		StatusTranscribing, StatusPending,
		StatusRendering, StatusTranscribed,
		time.Now().UTC().Format(time.RFC3339Nano),
		StatusTranscribing,
		StatusRendering,
	)
	if err != nil {
		return 0, fmt.Errorf("reset stuck jobs: %w", err)
	}
	return res.RowsAffected()
}

// UpdateHeartbeat updates the last heartbeat timestamp for an in-flight job.
func (s *Store) UpdateHeartbeat(ctx context.Context, id int64) error {
	now := time.Now().UTC()
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE jobs SET last_heartbeat = ?, updated_at = ? WHERE id = ?`,
		now.Format(time.RFC3339Nano),
		now.Format(time.RFC3339Nano),
		id,
	); err != nil {
		return fmt.Errorf("update heartbeat: %w", err)
	}
	return nil
}

// ReclaimStaleProcessing returns jobs stuck in processing back to the start of
// their current stage when heartbeats expire. When statuses are provided only
// those processing statuses are considered; otherwise all are.
func (s *Store) ReclaimStaleProcessing(ctx context.Context, cutoff time.Time, statuses ...Status) (int64, error) {
	targets := statuses
	if len(targets) == 0 {
		targets = []Status{StatusTranscribing, StatusRendering}
	}
	now := time.Now().UTC()

	placeholders := makePlaceholders(len(targets))
	args := make([]any, 0, len(targets)+6)
	args = append(args,
		StatusTranscribing, StatusPending,
		StatusRendering, StatusTranscribed,
		now.Format(time.RFC3339Nano),
	)
	for _, status := range targets {
		args = append(args, status)
	}
	args = append(args, cutoff.UTC().Format(time.RFC3339Nano))

	res, err := s.execWithRetry(
		ctx,
		`UPDATE jobs
        SET status = CASE status
            WHEN ? THEN ?
            WHEN ? THEN ?
            ELSE status
        END,
            progress_stage = 'Reclaimed from stale processing',
            progress_percent = 0, progress_message = NULL, last_heartbeat = NULL, updated_at = ?
        WHERE status IN (`+placeholders+`) AND last_heartbeat IS NOT NULL AND last_heartbeat < ?`,
		args...,
	)
	if err != nil {
		return 0, fmt.Errorf("reclaim stale jobs: %w", err)
	}
	return res.RowsAffected()
}

// Retry moves failed and review jobs back to the start of their pipeline.
// Jobs that already carry a transcript resume at transcribed so only the
// render stage repeats; everything else returns to pending. Without ids every
// retryable job is reset.
func (s *Store) Retry(ctx context.Context, ids ...int64) (int64, error) {
	query := `UPDATE jobs
        SET status = CASE
            WHEN transcript_path IS NOT NULL AND transcript_path != '' THEN ?
            ELSE ?
        END,
            progress_stage = 'Retry requested', progress_percent = 0,
            progress_message = NULL, error_message = NULL,
            needs_review = 0, review_reason = NULL,
            last_heartbeat = NULL, updated_at = ?
        WHERE status IN (?, ?)`
	args := []any{
		StatusTranscribed,
		StatusPending,
		time.Now().UTC().Format(time.RFC3339Nano),
		StatusFailed,
		StatusReview,
	}
	if len(ids) > 0 {
		query += ` AND id IN (` + makePlaceholders(len(ids)) + `)`
		for _, id := range ids {
			args = append(args, id)
		}
	}
	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("retry jobs: %w", err)
	}
	return res.RowsAffected()
}
