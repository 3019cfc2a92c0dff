// Package sonarr implements the series-class acquisition target client.
package sonarr
