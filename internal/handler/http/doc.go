// Package http serves the local diagnostics and transfer API of the client.
//
// The API listens on a loopback address and is used by herdctl and by
// on-device tooling to inspect the sync engine and to drive transfers.
// Every request carries a trace id that also tags the request's log lines.
package http
