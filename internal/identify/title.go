// Package identify derives human-facing job titles from media file names.
package identify

import (
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TitleFromPath turns a media path into a display title: the base name with
// separator characters collapsed to spaces and words title-cased. A trailing
// upload uniquing suffix (underscore plus eight hex characters) is stripped
// first so "beach_day_1a2b3c4d.mp4" titles as "Beach Day".
func TitleFromPath(sourcePath string) string {
	if strings.TrimSpace(sourcePath) == "" {
		return "Untitled"
	}
	base := filepath.Base(sourcePath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = stripUniqueSuffix(base)

	cleaned := strings.Builder{}
	prevSpace := false
	for _, r := range base {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			cleaned.WriteRune(r)
			prevSpace = false
		case unicode.IsSpace(r) || r == '-' || r == '_' || r == '.':
			if !prevSpace {
				cleaned.WriteRune(' ')
				prevSpace = true
			}
		}
	}
	title := strings.TrimSpace(cleaned.String())
	if title == "" {
		return "Untitled"
	}
	return cases.Title(language.Und).String(title)
}

// stripUniqueSuffix removes the "_xxxxxxxx" tail the upload handler appends
// via fileutil.UniqueName, when present.
func stripUniqueSuffix(stem string) string {
	idx := strings.LastIndexByte(stem, '_')
	if idx <= 0 || len(stem)-idx-1 != 8 {
		return stem
	}
	for _, r := range stem[idx+1:] {
		isHex := (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f')
		if !isHex {
			return stem
		}
	}
	return stem[:idx]
}
