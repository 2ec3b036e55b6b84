// Package transcribe drives the external speech-to-text engine.
//
// The Transcriber stage handler runs the configured whisper binary against a
// job's source media with word timestamps enabled, then records the resulting
// JSON transcript path on the job. Jobs submitted with a transcript attached
// never reach this stage.
package transcribe
