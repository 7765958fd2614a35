// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package client assembles the long-running sync client.
//
// It opens the local store, connects the remote adapters, builds the
// services and runs the sync orchestrator, the network monitor and the
// diagnostics server as workers until the process is asked to stop.
package client
