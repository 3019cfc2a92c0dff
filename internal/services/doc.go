// Package services holds shared error classification for external
// collaborator clients plus the client packages themselves.
package services
