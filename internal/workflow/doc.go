// Package workflow advances queue jobs through the configured processing
// stages.
//
// The Manager polls the queue, reclaims stale work via heartbeats, and feeds
// jobs into registered stage handlers (transcriber, renderer) while capturing
// progress and failure metadata. Stage errors are classified through the
// services taxonomy: bad inputs and configuration park the job for review,
// everything else marks it failed. It also aggregates queue stats and calls
// stage health checks.
//
// Add new lifecycle stages by extending StageSet, updating the queue status
// enums, and teaching the manager how to transition jobs; this package is the
// authoritative home for that coordination logic.
package workflow
