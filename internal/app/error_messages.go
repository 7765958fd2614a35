// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package app contains the error taxonomy shared by every layer of the
// go-herd-keeper client and the human-readable messages attached to it.
//
// Every failure the sync engine reasons about is an [*Error] with a
// [Reason]; the [Kind] of a reason decides whether the engine retries,
// resolves, dead-letters or halts. Msg* constants are written into local API
// responses and log entries so wording stays consistent.
package app

const (
	// MsgNoConnection is shown for every network error.
	MsgNoConnection = "no connection, changes will sync later"

	// MsgRequestRejected is shown when the authority rejected a change for
	// good (bad request, unauthorized, forbidden, not found).
	MsgRequestRejected = "the change was rejected by the registry"

	// MsgChangedElsewhere is shown for conflicts: the entity was modified on
	// another device.
	MsgChangedElsewhere = "item was changed elsewhere, please refresh"

	// MsgInvalidDataProvided is shown when a payload or a request body is
	// malformed.
	MsgInvalidDataProvided = "invalid data provided"

	// MsgInvalidState is shown when a transfer operation is not allowed in
	// the transfer's current state.
	MsgInvalidState = "the transfer is not in a state that allows this action"

	// MsgStorageFailure is shown when the local store is full or corrupted.
	// Syncing stays halted until the user frees space or repairs the store.
	MsgStorageFailure = "local storage failure, syncing is paused"

	// MsgInternalError is shown for failures outside the taxonomy.
	MsgInternalError = "internal error"

	// MsgTransferNotFound is returned by the local API for unknown transfer ids.
	MsgTransferNotFound = "transfer not found"
)

var kindMessages = map[Kind]string{
	KindNetwork:    MsgNoConnection,
	KindClient:     MsgRequestRejected,
	KindConflict:   MsgChangedElsewhere,
	KindValidation: MsgInvalidDataProvided,
	KindState:      MsgInvalidState,
	KindStorage:    MsgStorageFailure,
}

// MessageFor returns the one user-facing message for the kind of err.
func MessageFor(err error) string {
	if msg, ok := kindMessages[KindOf(err)]; ok {
		return msg
	}
	return MsgInternalError
}
