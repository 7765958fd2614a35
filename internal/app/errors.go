package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MKhiriev/go-herd-keeper/models"
)

// Kind is the closed set of error categories the sync engine handles.
type Kind uint8

const (
	KindUnknown Kind = iota
	// KindNetwork errors are transient and always retried with backoff.
	KindNetwork
	// KindClient errors are rejections by the authority that a retry cannot fix.
	KindClient
	// KindConflict errors are routed to the conflict resolver.
	KindConflict
	// KindValidation errors mean the payload itself is malformed.
	KindValidation
	// KindState errors come from the transfer state machine and signal a
	// programming error or a lost race.
	KindState
	// KindStorage errors are fatal and halt syncing until an operator acts.
	KindStorage
)

var kindNames = [...]string{
	KindUnknown:    "unknown",
	KindNetwork:    "network",
	KindClient:     "client",
	KindConflict:   "conflict",
	KindValidation: "validation",
	KindState:      "state",
	KindStorage:    "storage",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Reason is the specific member of a Kind.
type Reason string

const (
	ReasonNoConnection Reason = "no_connection"
	ReasonTimeout      Reason = "timeout"
	ReasonServerError  Reason = "server_error"
	ReasonRateLimited  Reason = "rate_limited"

	ReasonBadRequest   Reason = "bad_request"
	ReasonUnauthorized Reason = "unauthorized"
	ReasonForbidden    Reason = "forbidden"
	ReasonNotFound     Reason = "not_found"

	ReasonVersionConflict        Reason = "version_conflict"
	ReasonConcurrentModification Reason = "concurrent_modification"
	ReasonUnresolvableConflict   Reason = "unresolvable_conflict"

	ReasonMalformedPayload Reason = "malformed_payload"

	ReasonInvalidState Reason = "invalid_state"

	ReasonStorageFull Reason = "storage_full"
	ReasonCorruption  Reason = "corruption"
)

var reasonKinds = map[Reason]Kind{
	ReasonNoConnection: KindNetwork,
	ReasonTimeout:      KindNetwork,
	ReasonServerError:  KindNetwork,
	ReasonRateLimited:  KindNetwork,

	ReasonBadRequest:   KindClient,
	ReasonUnauthorized: KindClient,
	ReasonForbidden:    KindClient,
	ReasonNotFound:     KindClient,

	ReasonVersionConflict:        KindConflict,
	ReasonConcurrentModification: KindConflict,
	ReasonUnresolvableConflict:   KindConflict,

	ReasonMalformedPayload: KindValidation,

	ReasonInvalidState: KindState,

	ReasonStorageFull: KindStorage,
	ReasonCorruption:  KindStorage,
}

// Error is the tagged error value of the taxonomy. Kind is derived from
// Reason and is never set independently.
type Error struct {
	Kind    Kind
	Reason  Reason
	Message string
	Err     error

	// Remote is the authority's current version of the entity. It is set
	// only for version conflicts reported on write.
	Remote *models.VersionedRecord
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	b.WriteString("/")
	b.WriteString(string(e.Reason))
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches sentinel errors of this package: a sentinel with a Reason
// matches that reason, a sentinel with only a Kind matches the whole kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Reason != "" {
		return e.Reason == t.Reason
	}
	return t.Kind != KindUnknown && e.Kind == t.Kind
}

// Sentinels for errors.Is checks.
var (
	ErrNetwork    = &Error{Kind: KindNetwork}
	ErrClient     = &Error{Kind: KindClient}
	ErrConflict   = &Error{Kind: KindConflict}
	ErrValidation = &Error{Kind: KindValidation}
	ErrState      = &Error{Kind: KindState}
	ErrStorage    = &Error{Kind: KindStorage}

	ErrNoConnection           = &Error{Kind: KindNetwork, Reason: ReasonNoConnection}
	ErrTimeout                = &Error{Kind: KindNetwork, Reason: ReasonTimeout}
	ErrServerError            = &Error{Kind: KindNetwork, Reason: ReasonServerError}
	ErrRateLimited            = &Error{Kind: KindNetwork, Reason: ReasonRateLimited}
	ErrBadRequest             = &Error{Kind: KindClient, Reason: ReasonBadRequest}
	ErrUnauthorized           = &Error{Kind: KindClient, Reason: ReasonUnauthorized}
	ErrForbidden              = &Error{Kind: KindClient, Reason: ReasonForbidden}
	ErrNotFound               = &Error{Kind: KindClient, Reason: ReasonNotFound}
	ErrVersionConflict        = &Error{Kind: KindConflict, Reason: ReasonVersionConflict}
	ErrConcurrentModification = &Error{Kind: KindConflict, Reason: ReasonConcurrentModification}
	ErrUnresolvableConflict   = &Error{Kind: KindConflict, Reason: ReasonUnresolvableConflict}
	ErrMalformedPayload       = &Error{Kind: KindValidation, Reason: ReasonMalformedPayload}
	ErrInvalidState           = &Error{Kind: KindState, Reason: ReasonInvalidState}
	ErrStorageFull            = &Error{Kind: KindStorage, Reason: ReasonStorageFull}
	ErrCorruption             = &Error{Kind: KindStorage, Reason: ReasonCorruption}
)

// New builds an error for reason with a message.
func New(reason Reason, format string, args ...any) *Error {
	return &Error{Kind: reasonKinds[reason], Reason: reason, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an error for reason around cause.
func Wrap(reason Reason, cause error, format string, args ...any) *Error {
	e := New(reason, format, args...)
	e.Err = cause
	return e
}

// NewVersionConflict builds the conflict error the remote authority client
// returns when the authority holds a different version of the entity.
func NewVersionConflict(remote *models.VersionedRecord, format string, args ...any) *Error {
	e := New(ReasonVersionConflict, format, args...)
	e.Remote = remote
	return e
}

// InvalidState builds the error the transfer state machine returns when an
// operation is not allowed in the current state.
func InvalidState(op, state string) *Error {
	return New(ReasonInvalidState, "%s is not allowed in state %s", op, state)
}

// KindOf classifies err. Deadline errors count as network timeouts;
// everything outside the taxonomy is KindUnknown.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindNetwork
	}
	return KindUnknown
}

// ReasonOf returns the reason of err, or "" when err is outside the taxonomy.
func ReasonOf(err error) Reason {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ReasonTimeout
	}
	return ""
}

// IsRetryable reports whether err should be retried with backoff.
func IsRetryable(err error) bool {
	return KindOf(err) == KindNetwork
}

// IsFatal reports whether err must halt syncing.
func IsFatal(err error) bool {
	return KindOf(err) == KindStorage
}

// RemoteOf returns the remote record attached to a version conflict.
func RemoteOf(err error) (*models.VersionedRecord, bool) {
	var e *Error
	if errors.As(err, &e) && e.Remote != nil {
		return e.Remote, true
	}
	return nil, false
}
