// Package api exposes the HTTP service surface: media uploads, synchronous
// transcription and subtitle export, async render job management, artifact
// downloads, and health reporting.
//
// Handlers convert between queue records and transport DTOs through the
// converters in convert.go; payload shapes live in types.go. Synchronous
// endpoints (transcribe, export) do their work inside the request; render and
// mux requests only validate inputs and enqueue a job for the workflow
// manager.
package api
