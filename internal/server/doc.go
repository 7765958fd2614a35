// Package server runs the local diagnostics HTTP server.
//
// The server is a worker: Run serves until its context is done and then
// shuts down gracefully.
package server
