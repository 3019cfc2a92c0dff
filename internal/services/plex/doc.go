// Package plex reads server statistics from a Plex Media Server.
package plex
