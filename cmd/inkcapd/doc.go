// Command inkcapd runs the caption rendering daemon: it watches the queue
// database for jobs, drives the transcription and render stages, and serves
// the HTTP API. A lock file under the log directory keeps each workspace to
// a single running instance.
package main
