// Package logs provides file tailing helpers for the CLI.
//
// It reads log files with bounded memory, supports "last N lines" reads via a
// negative offset, and powers follow-mode updates for `marquee show --follow`.
// Callers supply context deadlines so polling shuts down cleanly when the CLI
// exits.
package logs
