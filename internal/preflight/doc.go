// Package preflight provides readiness checks for the filesystem paths
// inkcap depends on.
//
// The checks run in three contexts: inkcapd logs failures at startup, the
// healthz endpoint folds them into its response, and the CLI "inkcap status"
// command displays them. Binary availability lives in the deps package;
// preflight covers directory access.
package preflight
