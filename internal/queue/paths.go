package queue

import (
	"fmt"
	"path/filepath"
	"strings"

	"inkcap/internal/textutil"
)

// WorkspaceRoot returns the per-job working directory rooted at base. The
// segment combines the job ID with the sanitized title so concurrent jobs for
// the same upload never collide.
func (j Job) WorkspaceRoot(base string) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return ""
	}
	segment := sanitizeSegment(strings.TrimSpace(j.Title))
	if segment == "" {
		segment = fmt.Sprintf("job-%d", j.ID)
	} else {
		segment = fmt.Sprintf("job-%d-%s", j.ID, segment)
	}
	return filepath.Join(base, segment)
}

func sanitizeSegment(value string) string {
	value = textutil.SanitizeFileName(value)
	if value == "" {
		return ""
	}
	value = strings.ReplaceAll(value, " ", "-")
	value = strings.Trim(value, "-_")
	return value
}
