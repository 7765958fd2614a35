package service

import (
	"fmt"
	"sync"

	"github.com/MKhiriev/go-herd-keeper/models"
)

// ResolutionKind is the outcome of resolving a version conflict.
type ResolutionKind uint8

const (
	// AcceptLocal re-sends the local change rebased onto Record.Version.
	AcceptLocal ResolutionKind = iota + 1
	// AcceptRemote keeps the authority's record and drops the local change.
	AcceptRemote
	// Merge re-sends Record, a combination of both sides.
	Merge
	// Unresolvable stops syncing the item; Reason says why.
	Unresolvable
)

func (k ResolutionKind) String() string {
	switch k {
	case AcceptLocal:
		return "accept_local"
	case AcceptRemote:
		return "accept_remote"
	case Merge:
		return "merge"
	case Unresolvable:
		return "unresolvable"
	}
	return fmt.Sprintf("ResolutionKind(%d)", uint8(k))
}

type Resolution struct {
	Kind   ResolutionKind
	Record models.VersionedRecord
	Reason string
}

// Sensitivity tells how conflicts of a category may be settled.
type Sensitivity uint8

const (
	// ConflictSensitive entities are never settled by guessing.
	ConflictSensitive Sensitivity = iota
	// EventuallyConsistent entities let the local change win.
	EventuallyConsistent
)

var defaultSensitivity = map[models.EntityCategory]Sensitivity{
	models.CategoryAsset:    ConflictSensitive,
	models.CategoryTransfer: ConflictSensitive,
	models.CategoryPayment:  ConflictSensitive,
	models.CategoryNote:     EventuallyConsistent,
	models.CategoryMessage:  EventuallyConsistent,
}

// ResolveFunc is a domain hook for one category. It returns false to fall
// through to the default policy.
type ResolveFunc func(local, remote models.VersionedRecord) (Resolution, bool)

// ConflictResolver settles version conflicts reported by the authority.
type ConflictResolver struct {
	mu    sync.RWMutex
	hooks map[models.EntityCategory]ResolveFunc
}

func NewConflictResolver() *ConflictResolver {
	return &ConflictResolver{hooks: make(map[models.EntityCategory]ResolveFunc)}
}

// Register installs fn as the hook of category, replacing an earlier one.
func (r *ConflictResolver) Register(category models.EntityCategory, fn ResolveFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks[category] = fn
}

// SensitivityOf returns the conflict sensitivity of category. Unknown
// categories are treated as sensitive.
func SensitivityOf(category models.EntityCategory) Sensitivity {
	if s, ok := defaultSensitivity[category]; ok {
		return s
	}
	return ConflictSensitive
}

// Resolve decides between the local change and the remote record.
//
//   - remote newer: AcceptRemote.
//   - same version, same content: AcceptRemote, the change is already there.
//   - same version, different content, or local ahead: AcceptLocal rebased
//     onto remote.Version+1 for eventually consistent categories,
//     Unresolvable for sensitive ones.
//
// A hook runs first. A Merge from a transfer hook is turned into
// Unresolvable: ownership is never merged.
func (r *ConflictResolver) Resolve(local, remote models.VersionedRecord) Resolution {
	category := local.Category
	if category == "" {
		category = remote.Category
	}

	r.mu.RLock()
	hook := r.hooks[category]
	r.mu.RUnlock()

	if hook != nil {
		if res, ok := hook(local, remote); ok {
			if res.Kind == Merge && category == models.CategoryTransfer {
				return Resolution{Kind: Unresolvable, Reason: "transfers cannot be merged"}
			}
			return res
		}
	}

	switch {
	case local.Version < remote.Version:
		return Resolution{Kind: AcceptRemote, Record: remote}

	case local.Version == remote.Version && local.Hash != "" && local.Hash == remote.Hash:
		return Resolution{Kind: AcceptRemote, Record: remote}
	}

	if SensitivityOf(category) == ConflictSensitive {
		return Resolution{
			Kind: Unresolvable,
			Reason: fmt.Sprintf("%s %s changed concurrently (local v%d, remote v%d)",
				category, local.EntityID, local.Version, remote.Version),
		}
	}

	rebased := local
	rebased.Version = remote.Version + 1
	return Resolution{Kind: AcceptLocal, Record: rebased}
}
