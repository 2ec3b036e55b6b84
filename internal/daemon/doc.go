// Package daemon coordinates the long-running inkcapd process.
//
// It ties the queue store, the workflow manager, and the HTTP API server
// into a single start/stop lifecycle with flock-based locking to prevent
// multiple instances from sharing one workspace.
//
// Keep orchestration logic here: pipeline stages live in their own packages
// while the daemon focuses on startup, shutdown, and status reporting.
package daemon
