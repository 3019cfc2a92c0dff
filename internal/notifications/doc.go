// Package notifications delivers request activity to users over SMTP.
//
// The service degrades to a noop when mail is not configured, so callers
// never need to branch on whether notifications are available.
package notifications
