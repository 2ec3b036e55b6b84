package queue

import (
	"database/sql"
	"errors"
	"time"
)

const jobColumns = "id, source_path, title, kind, status, language, transcript_path, style_json, container, subtitle_file, final_file, strategy, error_message, created_at, updated_at, progress_stage, progress_percent, progress_message, last_heartbeat, needs_review, review_reason"

func scanJob(scanner interface{ Scan(dest ...any) error }) (*Job, error) {
	var (
		id               int64
		sourcePath       sql.NullString
		title            sql.NullString
		kindStr          sql.NullString
		statusStr        string
		language         sql.NullString
		transcriptPath   sql.NullString
		styleJSON        sql.NullString
		container        sql.NullString
		subtitleFile     sql.NullString
		finalFile        sql.NullString
		strategy         sql.NullString
		errorMessage     sql.NullString
		createdRaw       sql.NullString
		updatedRaw       sql.NullString
		progressStage    sql.NullString
		progressPercent  sql.NullFloat64
		progressMessage  sql.NullString
		lastHeartbeatRaw sql.NullString
		needsReview      sql.NullInt64
		reviewReason     sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&sourcePath,
		&title,
		&kindStr,
		&statusStr,
		&language,
		&transcriptPath,
		&styleJSON,
		&container,
		&subtitleFile,
		&finalFile,
		&strategy,
		&errorMessage,
		&createdRaw,
		&updatedRaw,
		&progressStage,
		&progressPercent,
		&progressMessage,
		&lastHeartbeatRaw,
		&needsReview,
		&reviewReason,
	); err != nil {
		return nil, err
	}

	job := &Job{
		ID:              id,
		SourcePath:      sourcePath.String,
		Title:           title.String,
		Kind:            Kind(kindStr.String),
		Status:          Status(statusStr),
		Language:        language.String,
		TranscriptPath:  transcriptPath.String,
		StyleJSON:       styleJSON.String,
		Container:       container.String,
		SubtitleFile:    subtitleFile.String,
		FinalFile:       finalFile.String,
		Strategy:        strategy.String,
		ErrorMessage:    errorMessage.String,
		ProgressStage:   progressStage.String,
		ProgressPercent: progressPercent.Float64,
		ProgressMessage: progressMessage.String,
	}
	if job.Kind == "" {
		job.Kind = KindBurn
	}
	if needsReview.Valid {
		job.NeedsReview = needsReview.Int64 != 0
	}
	job.ReviewReason = reviewReason.String

	if created, err := parseTimeString(createdRaw.String); err == nil {
		job.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		job.UpdatedAt = updated
	}
	if lastHeartbeatRaw.Valid {
		if heartbeat, err := parseTimeString(lastHeartbeatRaw.String); err == nil {
			job.LastHeartbeat = &heartbeat
		}
	}
	return job, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	v := value.UTC().Format(time.RFC3339Nano)
	return v
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
