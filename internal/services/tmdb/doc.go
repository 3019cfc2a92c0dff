// Package tmdb implements content search against The Movie Database.
package tmdb
