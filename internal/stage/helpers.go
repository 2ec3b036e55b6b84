package stage

import (
	"errors"
	"io/fs"
	"strings"

	"inkcap/internal/captions"
	"inkcap/internal/queue"
	"inkcap/internal/services"
	"inkcap/internal/transcript"
)

// StyleFromJob parses the style payload stored on a queue job. Jobs without a
// stored style get the default style. On failure it returns a
// services.ErrValidation suitable for stage Execute methods.
func StyleFromJob(job *queue.Job) (captions.Style, error) {
	style, err := captions.ParseStyle([]byte(job.StyleJSON))
	if err != nil {
		return captions.Style{}, services.Wrap(
			services.ErrValidation, "stage", "parse style",
			"Stored style payload is invalid; resubmit the job with a corrected style", err)
	}
	return style, nil
}

// TranscriptFromJob loads the transcript referenced by a queue job. Jobs whose
// transcript file is missing return a services.ErrNotFound so the workflow
// parks them for review instead of retrying.
func TranscriptFromJob(job *queue.Job) (*transcript.Transcript, error) {
	path := strings.TrimSpace(job.TranscriptPath)
	if path == "" {
		return nil, services.Wrap(
			services.ErrValidation, "stage", "locate transcript",
			"Job has no transcript path; run the transcription stage first", nil)
	}
	tr, err := transcript.LoadFile(path)
	if err != nil {
		marker := services.ErrValidation
		if errors.Is(err, fs.ErrNotExist) {
			marker = services.ErrNotFound
		}
		return nil, services.Wrap(
			marker, "stage", "load transcript",
			"Transcript file could not be loaded", err)
	}
	return tr, nil
}
