// Package radarr implements the movie-class acquisition target client.
package radarr
