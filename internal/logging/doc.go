// Package logging wires log/slog with Marquee's console and JSON handlers.
package logging
