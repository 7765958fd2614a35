// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package server

import "errors"

// errDiagnosticsDisabled is returned when no diagnostics address is configured.
var errDiagnosticsDisabled = errors.New("diagnostics server is disabled")
