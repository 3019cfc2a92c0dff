// Package api exposes the workflows shared by the CLI and the daemon's HTTP
// surface, together with the transport views they return.
package api
