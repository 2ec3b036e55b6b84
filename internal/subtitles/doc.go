// Package subtitles serializes caption entries to the two standard subtitle
// text formats: plain SRT cues and styled ASS scripts. It also parses and
// validates SRT files so callers can sanity-check generated artifacts.
package subtitles
