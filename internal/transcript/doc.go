// Package transcript defines the timed-text data model produced by the
// transcription engine and consumed by the caption builder: segments with
// start/end seconds, optional per-word timing, and a detected language.
package transcript
