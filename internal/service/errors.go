// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import "errors"

var (
	// ErrSyncHalted is returned by ForceSyncNow after a local store failure
	// until Resume is called.
	ErrSyncHalted = errors.New("sync is halted by a local storage failure")

	// ErrOffline is returned by ForceSyncNow while there is no connectivity.
	ErrOffline = errors.New("device is offline")

	ErrValidationNoAssetID  = errors.New("no asset ID was given")
	ErrValidationNoOwnerID  = errors.New("no owner ID was given")
	ErrValidationNoNoteBody = errors.New("note body is empty")
	ErrValidationNoMessage  = errors.New("message body is empty")
	ErrValidationNoPayment  = errors.New("payment ID and transfer ID are required")
)
