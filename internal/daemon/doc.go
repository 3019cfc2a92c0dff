// Package daemon runs the marquee service: the request store, the
// orchestrator, and the HTTP API, guarded by a single-instance lock file.
package daemon
