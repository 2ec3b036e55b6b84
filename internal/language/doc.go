// Package language normalizes language codes between the forms the pipeline
// touches: ISO 639-1 for the transcriber, ISO 639-2 for container track tags,
// and display names for the CLI.
package language
